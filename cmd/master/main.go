// Command distfs-master runs the master: the metadata engine and
// heartbeat reconciliation endpoint described by this repository's core
// (namespace tree, chunk-server roster, metadata index). Logging follows
// the dependency-injected slog pattern: a base logger is built once here
// and threaded through every component, never set as the process default.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"

	"distfs/internal/config"
	configfile "distfs/internal/config/file"
	configmem "distfs/internal/config/memory"
	"distfs/internal/heartbeat"
	"distfs/internal/logging"
	"distfs/internal/metadata"
	"distfs/internal/oplog"
	"distfs/internal/oplog/raftlog"
	"distfs/internal/transport"

	"github.com/hashicorp/raft"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "distfs-master",
		Short: "Run the distfs master metadata server",
	}

	var configPath, listenAddr, dataDir string
	var durable bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the master RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return run(ctx, logger, configPath, listenAddr, dataDir, durable)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config file (memory config used if empty)")
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":7777", "address to listen on")
	serveCmd.Flags().StringVar(&dataDir, "raft-dir", "./master-data", "directory for the raft operation log")
	serveCmd.Flags().BoolVar(&durable, "durable", false, "replicate the operation log through raft instead of keeping it in memory")

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

func run(ctx context.Context, logger *slog.Logger, configPath, listenAddr, dataDir string, durable bool) error {
	cfgStore := openConfigStore(configPath)
	cfg, err := loadOrDefault(ctx, cfgStore)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listenAddr != "" {
		cfg.Host, cfg.Port = splitHostPort(listenAddr, cfg.Host, cfg.Port)
	}

	log, closeLog, err := openOplog(dataDir, durable, logger)
	if err != nil {
		return fmt.Errorf("open operation log: %w", err)
	}
	defer closeLog()

	granter := &transport.RPCLeaseGranter{}
	index := metadata.New(log, granter, logger)

	sweeper, err := heartbeat.NewSweeper(index, cfg.LivenessThreshold, cfg.SweepInterval, logger)
	if err != nil {
		return fmt.Errorf("build sweeper: %w", err)
	}
	if err := sweeper.Start(cfg.SweepInterval); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer sweeper.Stop()

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, cfgStore, logger)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		go func() {
			if err := watcher.Run(ctx, func(cfg *config.Config) {
				sweeper.SetThreshold(cfg.LivenessThreshold)
			}); err != nil {
				logger.Warn("config watcher exited", "error", err)
			}
		}()
	}

	svc := transport.NewMasterService(index)
	logger.Info("master listening", "addr", listenAddr)
	return transport.Serve(ctx, listenAddr, svc)
}

func openConfigStore(configPath string) config.Store {
	if configPath == "" {
		return configmem.NewStore()
	}
	return configfile.NewStore(configPath)
}

func loadOrDefault(ctx context.Context, store config.Store) (*config.Config, error) {
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	def := config.Default()
	if err := store.Save(ctx, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func openOplog(dataDir string, durable bool, logger *slog.Logger) (oplog.Log, func(), error) {
	if !durable {
		l := oplog.NewMemoryLog()
		return l, func() { _ = l.Close() }, nil
	}
	l, err := raftlog.Open(raftlog.Config{
		Dir:      dataDir,
		ServerID: raft.ServerID("master-0"),
		Logger:   logger,
	})
	if err != nil {
		return nil, func() {}, err
	}
	return l, func() { _ = l.Close() }, nil
}

func splitHostPort(addr, fallbackHost string, fallbackPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fallbackHost, fallbackPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fallbackHost, fallbackPort
	}
	if host == "" {
		host = fallbackHost
	}
	return host, port
}
