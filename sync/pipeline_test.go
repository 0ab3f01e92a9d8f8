package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sncore/node/node"
	"github.com/sncore/node/sync/feeder"
)

// feederStubWithTipAt serves blocks [0, tipN) and reports every block at or
// past tipN as 404, simulating a feeder gateway that hasn't produced the
// chain tip's next block yet.
func feederStubWithTipAt(tipN uint64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.ParseUint(r.URL.Query().Get("blockNumber"), 10, 64)
		if n >= tipN {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case strings.Contains(r.URL.Path, "get_block"):
			_ = json.NewEncoder(w).Encode(feeder.RawBlock{
				BlockNumber:     n,
				BlockHash:       "0x1",
				ParentBlockHash: "0x0",
				StateRoot:       "0x1",
			})
		case strings.Contains(r.URL.Path, "get_state_update"):
			_ = json.NewEncoder(w).Encode(feeder.RawStateUpdate{})
		}
	}))
}

// TestRunFetchStageEndsCleanlyAtChainTip covers spec.md §4.5 step 1 and the
// end-to-end "request first=10, feeder 404s at 13" scenario: the fetch
// stage must emit exactly the blocks that exist and return a nil error,
// not propagate the 404 as a stage failure.
func TestRunFetchStageEndsCleanlyAtChainTip(t *testing.T) {
	srv := feederStubWithTipAt(13)
	defer srv.Close()
	client, err := feeder.New(srv.URL, srv.URL)
	require.NoError(t, err)

	p := &Pipeline{cfg: node.Config{FirstBlock: 10}, fetcher: newFetcher(client)}
	out := make(chan *fetchedBlock, 16)

	require.NoError(t, p.runFetchStage(context.Background(), 10, out))

	var got []uint64
	for fb := range out {
		got = append(got, fb.blockN)
	}
	require.ElementsMatch(t, []uint64{10, 11, 12}, got)
}
