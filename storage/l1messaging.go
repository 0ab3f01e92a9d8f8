package storage

import (
	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// L1MessagingStore tracks which L1->L2 message nonces have already been
// applied, grounded on the teacher's backend.messaging_update_nonces_if_not_used
// (original_source/crates/client/l1-messaging/src/worker.rs): a plain
// presence set, not history-indexed, since a message nonce is either seen
// or not regardless of which block observed it.
type L1MessagingStore struct {
	d db.Database
}

// NewL1MessagingStore constructs an L1MessagingStore over d.
func NewL1MessagingStore(d db.Database) L1MessagingStore {
	return L1MessagingStore{d: d}
}

// MarkNonceIfUnseen reports whether nonce had not previously been recorded,
// and if so records it. This must be called at most once per nonce by a
// single caller at a time; the l1 listener serializes event processing so
// no additional locking is needed here.
func (s L1MessagingStore) MarkNonceIfUnseen(nonce felt.Felt) (firstSeen bool, err error) {
	seen, err := s.d.Has(schema.L1MessageNonces, EncodeFelt(nonce))
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}
	if err := s.d.Put(schema.L1MessageNonces, EncodeFelt(nonce), []byte{1}); err != nil {
		return false, err
	}
	return true, nil
}
