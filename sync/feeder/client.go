// Package feeder is a client for the Starknet feeder gateway's block and
// state-update endpoints, grounded on the original Rust client's
// FeederClient (original_source/crates/client/feeder/src/lib.rs) but
// reduced to the plain net/http + encoding/json pair: a JSON-over-HTTP
// pull client has no concurrency, retry, or connection-pool behavior
// worth pulling in a third-party HTTP/REST library for (SPEC_FULL.md §6
// names this stdlib choice explicitly), unlike the storage, trie, and
// pipeline layers where the teacher's ecosystem stack is followed closely.
package feeder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrBlockNotFound is returned by GetBlock (and GetStateUpdate, for the same
// not-yet-produced block) when the feeder gateway reports a 404: the
// requested block does not exist yet. The sync pipeline's fetch stage
// treats this as "chain tip reached," not a failure.
var ErrBlockNotFound = errors.New("feeder: block not found")

func newJSONReader(raw json.RawMessage) io.Reader {
	return bytes.NewReader(raw)
}

// Client talks to a feeder gateway and (optionally) a separate gateway for
// transaction submission. Both URLs are read from node.Config.
type Client struct {
	feederBase *url.URL
	gatewayBase *url.URL
	http       *http.Client
}

// New constructs a Client. feederURL and gatewayURL must be absolute.
func New(feederURL, gatewayURL string) (*Client, error) {
	fb, err := url.Parse(feederURL)
	if err != nil {
		return nil, fmt.Errorf("feeder: parsing feeder gateway url: %w", err)
	}
	gb, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("feeder: parsing gateway url: %w", err)
	}
	return &Client{
		feederBase: fb,
		gatewayBase: gb,
		http:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// RawBlock is the feeder gateway's block JSON shape, decoded only as far as
// the sync pipeline's converter stage needs (block metadata, tx hashes, and
// an opaque array of raw transaction/receipt JSON for the executor-adjacent
// layers to reinterpret later, per storage.Transaction/Receipt's documented
// opacity).
type RawBlock struct {
	BlockNumber      uint64            `json:"block_number"`
	BlockHash        string            `json:"block_hash"`
	ParentBlockHash  string            `json:"parent_block_hash"`
	SequencerAddress string            `json:"sequencer_address"`
	Timestamp        uint64            `json:"timestamp"`
	StarknetVersion  string            `json:"starknet_version"`
	StateRoot        string            `json:"state_root"`
	Status           string            `json:"status"`
	Transactions     []json.RawMessage `json:"transactions"`
	Receipts         []json.RawMessage `json:"transaction_receipts"`
}

// RawStateUpdate is the feeder gateway's state_update JSON shape.
type RawStateUpdate struct {
	BlockHash string `json:"block_hash"`
	NewRoot   string `json:"new_root"`
	OldRoot   string `json:"old_root"`
	StateDiff struct {
		StorageDiffs map[string][]struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"storage_diffs"`
		Nonces            map[string]string `json:"nonces"`
		DeployedContracts []struct {
			Address   string `json:"address"`
			ClassHash string `json:"class_hash"`
		} `json:"deployed_contracts"`
		ReplacedClasses []struct {
			Address   string `json:"address"`
			ClassHash string `json:"class_hash"`
		} `json:"replaced_classes"`
		DeclaredClasses []struct {
			ClassHash         string `json:"class_hash"`
			CompiledClassHash string `json:"compiled_class_hash"`
		} `json:"declared_classes"`
		OldDeclaredContracts []string `json:"old_declared_contracts"`
	} `json:"state_diff"`
}

// GetBlock fetches block blockN. A nil *RawBlock with a nil error is never
// returned; a block the feeder has not produced yet comes back as
// ErrBlockNotFound so the fetch stage can end the pipeline cleanly instead
// of treating it as a malformed-response failure.
func (c *Client) GetBlock(ctx context.Context, blockN uint64) (*RawBlock, error) {
	var out RawBlock
	if err := c.getJSON(ctx, c.feederBase, "get_block", map[string]string{
		"blockNumber": strconv.FormatUint(blockN, 10),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStateUpdate fetches the state diff declared for block blockN.
func (c *Client) GetStateUpdate(ctx context.Context, blockN uint64) (*RawStateUpdate, error) {
	var out RawStateUpdate
	if err := c.getJSON(ctx, c.feederBase, "get_state_update", map[string]string{
		"blockNumber":           strconv.FormatUint(blockN, 10),
		"includeBlock":          "false",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitTransaction posts a raw, already-validated transaction envelope to
// the gateway (as opposed to the feeder gateway used for reads), for the
// mempool's admission flow to call once stateful validation passes.
func (c *Client) SubmitTransaction(ctx context.Context, raw json.RawMessage) error {
	u := *c.gatewayBase
	u.Path = joinPath(u.Path, "add_transaction")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), newJSONReader(raw))
	if err != nil {
		return fmt.Errorf("feeder: building submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: "add_transaction", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &TransientError{Op: "add_transaction", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("feeder: add_transaction: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// GetClassByHash fetches the raw class JSON blob for classHash, opaque to
// this client (handed through unparsed to storage.ClassStore.PutClass).
func (c *Client) GetClassByHash(ctx context.Context, classHashHex string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.getJSON(ctx, c.feederBase, "get_class_by_hash", map[string]string{
		"classHash": classHashHex,
	}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, base *url.URL, path string, query map[string]string, out interface{}) error {
	u := *base
	u.Path = joinPath(u.Path, path)
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("feeder: building request for %s: %w", path, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrBlockNotFound
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &TransientError{Op: path, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feeder: %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("feeder: decoding %s response: %w", path, err)
	}
	return nil
}

func joinPath(base, suffix string) string {
	if base == "" {
		return "/feeder_gateway/" + suffix
	}
	if base[len(base)-1] == '/' {
		return base + suffix
	}
	return base + "/" + suffix
}

// TransientError marks a feeder call as retryable: a network failure, a
// 429, or a 5xx. The fetcher's cenkalti/backoff loop type-asserts on this to
// decide whether to keep retrying or give up immediately.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("feeder: %s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
