package mempool

import (
	"context"
	"sync"
	"time"

	"github.com/sncore/node/node"
	"github.com/sncore/node/storage"
)

// Mempool is the admission path's entry point: it resolves a pending-block
// validation context, runs the candidate through a Validator, then queues it
// in the nonce-chain inner structure, per spec.md §4.7. The single
// reader-writer lock around inner matches the locking discipline of §4.7's
// "Concurrency: the inner state is guarded by a single reader-writer lock;
// validation runs without the lock held" and §5's acquire order (inner lock
// is always the innermost, never held across validation).
type Mempool struct {
	backend   *storage.Backend
	cfg       node.Config
	l1Data    L1DataProvider
	validator Validator
	mu        sync.RWMutex
	inner     *MempoolInner
}

// New constructs a Mempool. validator may be nil, in which case every
// transaction is accepted unvalidated (used by tests and by a node started
// without a wired executor).
func New(backend *storage.Backend, cfg node.Config, l1Data L1DataProvider, validator Validator) *Mempool {
	if validator == nil {
		validator = noopValidator{}
	}
	return &Mempool{
		backend:   backend,
		cfg:       cfg,
		l1Data:    l1Data,
		validator: validator,
		inner:     NewMempoolInner(),
	}
}

// AcceptAccountTx runs the four-step admission flow of spec.md §4.7: stamp
// arrival, resolve pending-block context, validate, then (unless the
// transaction is a query-only simulation) queue it in the nonce chain.
func (m *Mempool) AcceptAccountTx(ctx context.Context, tx AccountTransaction) error {
	arrivedAt := ArrivedAtTimestamp(time.Now())

	pending, err := resolvePendingBlockInfo(m.backend, m.l1Data, m.cfg)
	if err != nil {
		return err
	}

	skipDeployPrecondition := false
	if tx.Kind == TxInvoke {
		m.mu.RLock()
		skipDeployPrecondition = m.inner.HasDeployedContract(tx.SenderAddress)
		m.mu.RUnlock()
	}

	if err := m.validator.Validate(ctx, tx, pending, skipDeployPrecondition); err != nil {
		return &ValidationError{Err: err}
	}

	if tx.OnlyQuery {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inner.InsertTx(MempoolTransaction{Tx: tx, ArrivedAt: arrivedAt}, false)
}

// TakeTx removes and returns the single most eligible queued transaction.
func (m *Mempool) TakeTx() (MempoolTransaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inner.PopNext()
}

// TakeTxsChunk drains up to n queued transactions into dest, in the order
// the block producer should apply them.
func (m *Mempool) TakeTxsChunk(dest *[]MempoolTransaction, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inner.PopNextChunk(dest, n)
}

// ReaddTxs returns previously-taken transactions to the mempool, used when a
// block-production attempt has to abort after already draining some.
func (m *Mempool) ReaddTxs(txs []MempoolTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inner.ReaddTxs(txs)
}
