package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docforge/internal/chunker"
	"docforge/internal/config"
	"docforge/internal/convert"
	"docforge/internal/coordinator"
	"docforge/internal/daemon"
	"docforge/internal/ipc"
	"docforge/internal/lockfile"
	"docforge/internal/logging"
	"docforge/internal/status"
	"docforge/internal/worker"
	"docforge/internal/workqueue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	signalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, existed, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if !existed {
		logger.Warn("no config file found, using defaults",
			logging.String("path", resolvedPath))
	}

	locks, err := lockfile.NewManager(cfg.LockDir(), time.Duration(cfg.Workflow.LockTimeoutSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("create lock manager: %w", err)
	}
	store, err := status.NewStore(cfg.StatusFilePath(), locks, logger)
	if err != nil {
		return fmt.Errorf("create status store: %w", err)
	}
	queue, err := workqueue.New(cfg.QueueDir(), locks, logger)
	if err != nil {
		return fmt.Errorf("create work queue: %w", err)
	}
	converter, err := convert.NewClient(cfg.Conversion.Binary, logger)
	if err != nil {
		return fmt.Errorf("create converter: %w", err)
	}
	chunks, err := chunker.NewClient(cfg.Chunking.Binary, time.Duration(cfg.Chunking.TimeoutSeconds)*time.Second, logger)
	if err != nil {
		return fmt.Errorf("create chunker: %w", err)
	}

	w, err := worker.New(cfg, store, queue, converter, chunks, logger)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	d, err := daemon.New(cfg, store, queue, w, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	coord, err := coordinator.New(cfg, store, queue, logger)
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}

	stopRequested := make(chan struct{}, 1)
	requestStop := func() {
		select {
		case stopRequested <- struct{}{}:
		default:
		}
	}
	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, coord, requestStop, logger)
	if err != nil {
		return fmt.Errorf("start ipc server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	select {
	case <-signalCtx.Done():
		logger.Info("shutdown signal received")
	case <-stopRequested:
		logger.Info("shutdown requested over ipc")
	}
	return nil
}
