package rocksdb

import (
	"context"
	"fmt"

	"github.com/linxGnu/grocksdb"

	"github.com/sncore/node/db"
)

// backupWorker pins every call into RocksDB's BackupEngine to a single
// goroutine, since the backup engine is not safe to call concurrently.
// This is the Go translation of
// original_source/crates/client/db/src/lib.rs's spawn_backup_db_task,
// which runs on a dedicated OS thread for the same reason; a
// single-goroutine-with-a-channel is the idiomatic Go equivalent since the
// Go runtime, not the caller, owns OS thread assignment.
type backupWorker struct {
	requests chan backupRequest
	restored chan error
}

type backupRequest struct {
	db     *grocksdb.OptimisticTransactionDB
	result chan<- error
}

// startBackupWorker launches the worker goroutine. If restoreFromLatest is
// set, the worker's first action is to restore the most recent backup into
// dbPath before signalling completion on the returned worker's restored
// channel; the caller must awaitRestore before opening the main database
// handle at dbPath, matching spec.md §4.1's two-phase backup-worker contract.
func startBackupWorker(backupDir, dbPath string, restoreFromLatest bool) (*backupWorker, error) {
	w := &backupWorker{
		requests: make(chan backupRequest, 1),
		restored: make(chan error, 1),
	}

	go w.run(backupDir, dbPath, restoreFromLatest)

	return w, nil
}

func (w *backupWorker) run(backupDir, dbPath string, restoreFromLatest bool) {
	opts := grocksdb.NewDefaultOptions()
	engine, err := grocksdb.OpenBackupEngine(opts, backupDir)
	if err != nil {
		w.restored <- fmt.Errorf("opening backup engine at %s: %w", backupDir, err)
		return
	}
	defer engine.Close()

	if restoreFromLatest {
		restoreOpts := grocksdb.NewRestoreOptions()
		defer restoreOpts.Destroy()
		if err := engine.RestoreDBFromLatestBackup(dbPath, dbPath, restoreOpts); err != nil {
			w.restored <- fmt.Errorf("restoring latest backup into %s: %w", dbPath, err)
			return
		}
	}
	w.restored <- nil

	for req := range w.requests {
		err := engine.CreateNewBackupFlush(req.db, true)
		req.result <- err
	}
}

// awaitRestore blocks until the worker's restore phase (or a no-op skip of
// it) completes, or ctx is cancelled.
func (w *backupWorker) awaitRestore(ctx context.Context) error {
	select {
	case err := <-w.restored:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// request enqueues a backup-now request and blocks until it is durable,
// honoring ctx and returning db.ErrBackupBusy if the worker's single-slot
// queue is already occupied.
func (w *backupWorker) request(ctx context.Context, handle *grocksdb.OptimisticTransactionDB) error {
	result := make(chan error, 1)
	select {
	case w.requests <- backupRequest{db: handle, result: result}:
	default:
		return db.ErrBackupBusy
	}

	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop closes the worker's request channel, ending its goroutine once any
// in-flight request has been serviced.
func (w *backupWorker) stop() {
	close(w.requests)
}
