package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain_id: SN_SEPOLIA
data_dir: /tmp/data
feeder_gateway_url: https://example.invalid/feeder_gateway
gateway_url: https://example.invalid/gateway
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ChainIDSepolia, cfg.ChainID)
	require.Equal(t, "info", cfg.LogLevel)
	require.NotZero(t, cfg.FlushInterval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
}

func TestResolvedL1SafetyFilterEnabledDefaults(t *testing.T) {
	mainnet := Config{ChainID: ChainIDMainnet}
	require.True(t, mainnet.ResolvedL1SafetyFilterEnabled())

	sepolia := Config{ChainID: ChainIDSepolia}
	require.False(t, sepolia.ResolvedL1SafetyFilterEnabled())
}

func TestResolvedL1SafetyFilterEnabledExplicitOverride(t *testing.T) {
	enabled := true
	cfg := Config{ChainID: ChainIDSepolia, L1SafetyFilterEnabled: &enabled}
	require.True(t, cfg.ResolvedL1SafetyFilterEnabled())

	disabled := false
	cfg2 := Config{ChainID: ChainIDMainnet, L1SafetyFilterEnabled: &disabled}
	require.False(t, cfg2.ResolvedL1SafetyFilterEnabled())
}
