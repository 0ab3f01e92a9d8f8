package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db/memdb"
	"github.com/sncore/node/node"
	"github.com/sncore/node/storage"
	"github.com/sncore/node/sync/feeder"
)

func commitHead(t *testing.T, backend *storage.Backend, blockN uint64, hash felt.Felt) {
	t.Helper()
	batch := backend.NewBatch()
	require.NoError(t, backend.Blocks.StageBlock(batch, storage.BlockInfo{
		BlockNumber: blockN,
		BlockHash:   hash,
	}, storage.BlockInner{}, *storage.NewStateDiff(blockN)))
	require.NoError(t, backend.Meta.StageSyncTip(batch, blockN))
	require.NoError(t, batch.Write())
}

// feederStub serves a single pending block (number = local tip + 1) whose
// reported parent_block_hash is parentHashHex, for exercising the
// pending-poller's parent-hash-equals-local-head guard.
func feederStub(parentHashHex string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "get_block"):
			_ = json.NewEncoder(w).Encode(feeder.RawBlock{
				BlockNumber:     1,
				BlockHash:       "0x99",
				ParentBlockHash: parentHashHex,
				StateRoot:       "0x1",
				Status:          "PENDING",
			})
		case strings.Contains(r.URL.Path, "get_state_update"):
			_ = json.NewEncoder(w).Encode(feeder.RawStateUpdate{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestPendingMaintainerCachesWhenParentMatchesLocalHead(t *testing.T) {
	backend := storage.NewBackend(memdb.New())
	commitHead(t, backend, 0, felt.FromUint64(0xAA))

	srv := feederStub("0xaa")
	defer srv.Close()
	client, err := feeder.New(srv.URL, srv.URL)
	require.NoError(t, err)

	state := node.NewSharedState()
	m := NewPendingMaintainer(client, backend, state, zerolog.Nop())
	require.NoError(t, m.pollOnce(context.Background()))

	_, _, _, ok := state.PendingBlock()
	require.True(t, ok)
	require.Equal(t, node.SyncPendingState, state.SyncStatus())

	hn := state.HighestBlockHashAndNumber()
	require.Equal(t, uint64(0), hn.Number)
	require.True(t, hn.Hash.Equal(felt.FromUint64(0xAA)))
}

func TestPendingMaintainerSkipsCacheWhenParentDiffersFromLocalHead(t *testing.T) {
	backend := storage.NewBackend(memdb.New())
	commitHead(t, backend, 0, felt.FromUint64(0xAA))

	// upstream's pending block is built on a different parent than our head
	srv := feederStub("0xbb")
	defer srv.Close()
	client, err := feeder.New(srv.URL, srv.URL)
	require.NoError(t, err)

	state := node.NewSharedState()
	m := NewPendingMaintainer(client, backend, state, zerolog.Nop())
	require.NoError(t, m.pollOnce(context.Background()))

	_, _, _, ok := state.PendingBlock()
	require.False(t, ok)
	require.Equal(t, node.SyncVerifiedState, state.SyncStatus())

	// highest_block_hash_and_number is still published unconditionally
	hn := state.HighestBlockHashAndNumber()
	require.True(t, hn.Hash.Equal(felt.FromUint64(0xBB)))
}
