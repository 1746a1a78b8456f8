// Command distfs-chunkserver runs a chunk server: local chunk file
// enumeration (internal/heartbeat/localstore) plus the periodic heartbeat
// controller (internal/heartbeat) that reports to the master and applies
// its garbage-collection replies.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"distfs/internal/gfs"
	"distfs/internal/heartbeat"
	"distfs/internal/heartbeat/localstore"
	"distfs/internal/logging"
	"distfs/internal/transport"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "distfs-chunkserver",
		Short: "Run a distfs chunk server",
	}

	var addr, masterAddr, dataDir string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chunk server heartbeat loop and lease RPC listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return run(ctx, logger, gfs.ServerAddress(addr), gfs.ServerAddress(masterAddr), dataDir)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8777", "address this chunk server advertises and listens on")
	serveCmd.Flags().StringVar(&masterAddr, "master", "127.0.0.1:7777", "master address")
	serveCmd.Flags().StringVar(&dataDir, "data-dir", "./chunk-data", "local chunk storage directory")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   func(cmd *cobra.Command, args []string) { fmt.Println(version) },
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, addr, masterAddr gfs.ServerAddress, dataDir string) error {
	store, err := localstore.Open(dataDir, logger)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	go func() {
		if err := store.Run(ctx); err != nil {
			logger.Warn("local store watch loop exited", "error", err)
		}
	}()

	ctrl, err := heartbeat.New(addr, masterAddr, store, gfs.DefaultHeartbeatInterval, logger)
	if err != nil {
		return fmt.Errorf("build heartbeat controller: %w", err)
	}
	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start heartbeat controller: %w", err)
	}
	defer ctrl.Stop()

	svc := transport.NewChunkServerService(logger)
	logger.Info("chunk server listening", "addr", addr, "master", masterAddr)
	return transport.Serve(ctx, string(addr), svc)
}
