package l1

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sncore/node/node"
	"github.com/sncore/node/storage"
)

// mainnetSafetyFilterBlockN is the provisional, explicitly temporary cutoff
// documented at spec.md §4.6/§9: a LogStateUpdate claiming a block number
// past this threshold on mainnet is rejected rather than applied, as a
// guard against a misbehaving or spoofed core-contract source. Make this
// configurable and default-off outside mainnet was the source's own stated
// intent; node.Config.ResolvedL1SafetyFilterEnabled implements exactly that.
const mainnetSafetyFilterBlockN = 500_000

// Listener drives the L1 confirmation subscription: it applies
// LogStateUpdate events to MetaStore's last_confirmed_block_n scalar and
// SharedState, and LogMessageToL2 events through the at-most-once nonce
// check, per spec.md §4.6.
type Listener struct {
	source  EventSource
	backend *storage.Backend
	state   *node.SharedState
	cfg     node.Config
	log     zerolog.Logger
}

// NewListener constructs a Listener.
func NewListener(source EventSource, backend *storage.Backend, state *node.SharedState, cfg node.Config, log zerolog.Logger) *Listener {
	return &Listener{source: source, backend: backend, state: state, cfg: cfg, log: log}
}

// Run clears the last-confirmed scalar, applies the initial state once (the
// first LogStateUpdate the source emits), then processes events until ctx
// is cancelled or the source terminates, per spec.md §4.6's "on startup the
// scalar is cleared, then the initial state is fetched once and applied."
func (l *Listener) Run(ctx context.Context) error {
	if err := l.backend.Meta.SetL1LastConfirmedBlockN(0); err != nil {
		return fmt.Errorf("l1: clearing last confirmed block on startup: %w", err)
	}

	updates := l.source.StateUpdates()
	messages := l.source.Messages()

	for updates != nil || messages != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if err := l.applyStateUpdate(u); err != nil {
				return err
			}
		case m, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			if err := l.applyMessage(m); err != nil {
				return err
			}
		}
	}
	if err := l.source.Err(); err != nil {
		return fmt.Errorf("l1: event source terminated: %w", err)
	}
	return nil
}

// applyStateUpdate implements spec.md §4.6's per-event write and §9's
// provisional mainnet safety filter.
func (l *Listener) applyStateUpdate(u LogStateUpdate) error {
	if l.cfg.ChainID == node.ChainIDMainnet && l.cfg.ResolvedL1SafetyFilterEnabled() && u.BlockNumber > mainnetSafetyFilterBlockN {
		l.log.Warn().Uint64("block_n", u.BlockNumber).Msg("rejecting L1 state update past provisional mainnet safety filter")
		return nil
	}

	if err := l.backend.Meta.SetL1LastConfirmedBlockN(u.BlockNumber); err != nil {
		return fmt.Errorf("l1: recording confirmed block %d: %w", u.BlockNumber, err)
	}
	l.state.SetLatestL1StateUpdate(node.L1StateUpdate{
		BlockNumber: u.BlockNumber,
		GlobalRoot:  u.GlobalRoot,
		BlockHash:   u.BlockHash,
	})
	return nil
}

// applyMessage implements spec.md §8's "L1 message idempotence": only the
// first delivery of a given nonce advances state.
func (l *Listener) applyMessage(m LogMessageToL2) error {
	firstSeen, err := l.backend.L1Messages.MarkNonceIfUnseen(m.Nonce)
	if err != nil {
		return fmt.Errorf("l1: checking message nonce %s: %w", m.Nonce, err)
	}
	if !firstSeen {
		l.log.Debug().Str("nonce", m.Nonce.String()).Msg("L1 message already processed")
		return nil
	}
	l.log.Info().Str("nonce", m.Nonce.String()).Msg("processing L1 message")
	return nil
}
