// Command sncore is the node's single entry point, grounded on
// cuemby-warren/cmd/warren/main.go's cobra root command plus signal-driven
// graceful shutdown: one "run" subcommand that loads a YAML config, opens
// the RocksDB store, and drives the L2 sync pipeline and pending-block
// maintainer concurrently until an interrupt or a fatal stage error. No L1
// listener is started; a configured l1_rpc_url only produces a warning.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sncore/node/db/rocksdb"
	"github.com/sncore/node/mempool"
	"github.com/sncore/node/node"
	"github.com/sncore/node/storage"
	"github.com/sncore/node/sync"
	"github.com/sncore/node/sync/feeder"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sncore: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sncore",
	Short: "Starknet full-node storage and L2 sync core",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open storage and drive sync against a feeder gateway",
	RunE:  runNode,
}

func init() {
	runCmd.Flags().String("config", "", "path to a YAML node config (required)")
	runCmd.Flags().Bool("restore-from-latest", false, "restore the most recent backup before opening the store")
	runCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(runCmd)
}

func runNode(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	restore, _ := cmd.Flags().GetBool("restore-from-latest")

	cfg, err := node.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log := node.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb, err := rocksdb.Open(ctx, rocksdb.Options{
		Path:              cfg.DataDir,
		BackupDir:         cfg.BackupDir,
		RestoreFromLatest: restore,
	})
	if err != nil {
		return fmt.Errorf("opening storage at %s: %w", cfg.DataDir, err)
	}
	backend := storage.NewBackend(rdb)
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("closing storage")
		}
	}()

	client, err := feeder.New(cfg.FeederGatewayURL, cfg.GatewayURL)
	if err != nil {
		return fmt.Errorf("constructing feeder client: %w", err)
	}

	state := node.NewSharedState()

	pipeline, err := sync.NewPipeline(cfg, client, backend, state, node.WithComponent(log, "sync"))
	if err != nil {
		return fmt.Errorf("constructing sync pipeline: %w", err)
	}
	pendingMaintainer := sync.NewPendingMaintainer(client, backend, state, node.WithComponent(log, "pending"))

	mp := mempool.New(backend, cfg, mempool.StaticL1DataProvider{}, nil)
	_ = mp // wired for future RPC admission surface; not yet exposed over any transport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pipeline.Run(gctx) })
	g.Go(func() error { return pendingMaintainer.Run(gctx) })

	if cfg.L1RPCURL != "" {
		log.Warn().Msg("l1_rpc_url configured but no EventSource implementation is wired; skipping L1 listener")
	}

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return fmt.Errorf("node: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
