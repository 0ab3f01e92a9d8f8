package mempool

import (
	"errors"
	"sort"
	"time"

	"github.com/sncore/node/common/felt"
)

// ErrDuplicateNonce is wrapped in a *TxInsertionError by MempoolInner.InsertTx
// when a sender already has a queued transaction at the same nonce and force
// is false,
// implementing spec.md §8 scenario 5's dedup-by-nonce rejection.
var ErrDuplicateNonce = errors.New("mempool: duplicate nonce for sender")

// TxInsertionError wraps a nonce-chain insertion failure.
type TxInsertionError struct {
	Sender felt.Felt
	Nonce  felt.Felt
	Err    error
}

func (e *TxInsertionError) Error() string {
	return "mempool: inserting tx for " + e.Sender.String() + " at nonce " + e.Nonce.String() + ": " + e.Err.Error()
}

func (e *TxInsertionError) Unwrap() error { return e.Err }

// senderChain holds one sender's queued transactions, kept sorted ascending
// by nonce so the front is always the next nonce-ready transaction.
type senderChain struct {
	txs []MempoolTransaction
}

func (c *senderChain) insert(tx MempoolTransaction, force bool) error {
	i := sort.Search(len(c.txs), func(i int) bool {
		return c.txs[i].Tx.Nonce.Cmp(tx.Tx.Nonce) >= 0
	})
	if i < len(c.txs) && c.txs[i].Tx.Nonce.Equal(tx.Tx.Nonce) {
		if !force {
			return ErrDuplicateNonce
		}
		c.txs[i] = tx
		return nil
	}
	c.txs = append(c.txs, MempoolTransaction{})
	copy(c.txs[i+1:], c.txs[i:])
	c.txs[i] = tx
	return nil
}

func (c *senderChain) front() (MempoolTransaction, bool) {
	if len(c.txs) == 0 {
		return MempoolTransaction{}, false
	}
	return c.txs[0], true
}

func (c *senderChain) popFront() {
	c.txs = c.txs[1:]
}

// MempoolInner is the mempool's ordered transaction store: one nonce chain
// per sender address, plus the set of senders with a pending deploy-account
// transaction (consulted by the admission flow to skip nonce/signature
// preconditions for a same-block invoke). Callers are responsible for
// holding Mempool's single reader-writer lock around every method here; this
// type has no internal locking of its own, matching the original's
// RwLock<MempoolInner> wrapping a plain inner struct.
type MempoolInner struct {
	chains            map[felt.Felt]*senderChain
	deployedContracts map[felt.Felt]struct{}
}

// NewMempoolInner returns an empty MempoolInner.
func NewMempoolInner() *MempoolInner {
	return &MempoolInner{
		chains:            make(map[felt.Felt]*senderChain),
		deployedContracts: make(map[felt.Felt]struct{}),
	}
}

// HasDeployedContract reports whether a deploy-account transaction for addr
// is already queued, used to skip precondition checks for a same-block
// invoke from that sender.
func (m *MempoolInner) HasDeployedContract(addr felt.Felt) bool {
	_, ok := m.deployedContracts[addr]
	return ok
}

// InsertTx queues tx into its sender's nonce chain, rejecting a duplicate
// nonce unless force is set (force is reserved for the re-submission path
// used by block production's readd and is not exercised by plain admission).
func (m *MempoolInner) InsertTx(tx MempoolTransaction, force bool) error {
	addr := tx.Tx.SenderAddress
	chain, ok := m.chains[addr]
	if !ok {
		chain = &senderChain{}
		m.chains[addr] = chain
	}
	if err := chain.insert(tx, force); err != nil {
		return &TxInsertionError{Sender: addr, Nonce: tx.Tx.Nonce, Err: err}
	}
	if tx.Tx.Kind == TxDeployAccount {
		m.deployedContracts[addr] = struct{}{}
	}
	return nil
}

// PopNext removes and returns the single most eligible ready transaction
// (the lowest-nonce, earliest-arrived front across every sender chain), or
// false if the mempool is empty.
func (m *MempoolInner) PopNext() (MempoolTransaction, bool) {
	addr, ok := m.earliestReadySender()
	if !ok {
		return MempoolTransaction{}, false
	}
	chain := m.chains[addr]
	tx, _ := chain.front()
	chain.popFront()
	if tx.Tx.Kind == TxDeployAccount {
		delete(m.deployedContracts, addr)
	}
	m.pruneEmpty(addr)
	return tx, true
}

// PopNextChunk drains up to n ready transactions (in arrival order across
// senders, nonce order within a sender) into dest.
func (m *MempoolInner) PopNextChunk(dest *[]MempoolTransaction, n int) {
	for i := 0; i < n; i++ {
		tx, ok := m.PopNext()
		if !ok {
			return
		}
		*dest = append(*dest, tx)
	}
}

// ReaddTxs pushes previously-popped transactions back onto their sender
// chains, used when a block-production attempt aborts after already taking
// transactions out of the mempool. Existing nonce-chain order is restored by
// a forced re-insertion (the original entries are not duplicates).
func (m *MempoolInner) ReaddTxs(txs []MempoolTransaction) {
	for _, tx := range txs {
		_ = m.InsertTx(tx, true)
	}
}

func (m *MempoolInner) earliestReadySender() (felt.Felt, bool) {
	var best felt.Felt
	var bestTime time.Time
	found := false
	for addr, chain := range m.chains {
		tx, ok := chain.front()
		if !ok {
			continue
		}
		t := time.Time(tx.ArrivedAt)
		if !found || t.Before(bestTime) {
			best, bestTime, found = addr, t, true
		}
	}
	return best, found
}

func (m *MempoolInner) pruneEmpty(addr felt.Felt) {
	if chain, ok := m.chains[addr]; ok && len(chain.txs) == 0 {
		delete(m.chains, addr)
	}
}
