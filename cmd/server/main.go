package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/louisbranch/gavel/internal/ban"
	"github.com/louisbranch/gavel/internal/config"
	"github.com/louisbranch/gavel/internal/gamelog"
	"github.com/louisbranch/gavel/internal/server"
	"github.com/louisbranch/gavel/internal/stats"
)

func main() {
	log.SetPrefix("[GAVEL] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	assets, err := config.LoadAssets(cfg.AssetDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return err
	}
	bans, err := ban.Open(filepath.Join(cfg.StorageDir, "bans.db"), assets.HDIDExempt)
	if err != nil {
		return err
	}
	recorder, err := stats.Open(filepath.Join(cfg.StorageDir, "stats.db"))
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Flush(); err != nil {
			log.Printf("flush stats: %v", err)
		}
		if err := recorder.Close(); err != nil {
			log.Printf("close stats: %v", err)
		}
	}()

	logs := gamelog.New(cfg.LogDir, cfg.Debug)

	srv := server.New(cfg, assets, bans, recorder, logs)

	errc := make(chan error, 2)
	go func() { errc <- srv.ListenAndServe() }()
	go func() { errc <- srv.ListenAndServeWebSocket() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Print("shutting down")
		return nil
	}
}
