package db

import "errors"

// Sentinel errors for the KV engine wrapper, matching spec.md §7's
// BackupsDisabled / BackupBusy error kinds.
var (
	// ErrBackupsDisabled is returned by RequestBackup when the database was
	// opened without a backup directory.
	ErrBackupsDisabled = errors.New("db: backups are not enabled for this store")

	// ErrBackupBusy is returned by RequestBackup when a backup is already
	// in flight and the worker's request channel (capacity 1) is full.
	ErrBackupBusy = errors.New("db: a backup is already in progress")

	// ErrColumnNotFound is raised when a declared column's handle cannot be
	// resolved against the open engine. Since the column set is closed,
	// this indicates the store was opened against a stale/foreign directory.
	ErrColumnNotFound = errors.New("db: column family not found in open database")
)
