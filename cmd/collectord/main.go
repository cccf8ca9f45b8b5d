// Command collectord runs the offline deposit submission pipeline: it keeps
// the durable queue, watches connectivity and drains pending transactions to
// the backend whenever the network allows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eparkir/setoran/internal/config"
	"github.com/eparkir/setoran/internal/feedback"
	"github.com/eparkir/setoran/internal/logging"
	"github.com/eparkir/setoran/internal/photo"
	"github.com/eparkir/setoran/internal/queue"
	"github.com/eparkir/setoran/internal/store"
	"github.com/eparkir/setoran/internal/submit"
	syncpkg "github.com/eparkir/setoran/internal/sync"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "collectord: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()
	logging.Init(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	logging.Info("Starting collectord", logging.Fields{
		"version":  Version,
		"data_dir": cfg.DataDir,
	})

	kv, err := store.Open(cfg.DataDir, cfg.QueueQuota)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer kv.Close()

	pending := queue.New(kv)
	submitter := submit.NewHTTPSubmitter(cfg.ServerURL, cfg.HTTPTimeout)
	engine := syncpkg.NewEngine(pending, submitter, photo.NewCodec())

	mute := feedback.Load(kv)
	unsubscribe := mute.Subscribe(func(muted bool) {
		logging.Info("Mute preference changed", logging.Fields{"muted": muted})
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prober := syncpkg.NewHTTPProber(cfg.ProbeURL, cfg.HTTPTimeout)
	watcher := syncpkg.NewWatcher(prober, cfg.ProbeInterval, engine.SetOnline)
	watcher.Start(ctx)
	defer watcher.Stop()

	logging.Info("Collector pipeline running", logging.Fields{
		"pending": engine.Pending(),
		"muted":   mute.Muted(),
	})

	<-ctx.Done()

	logging.Info("Shutting down", logging.Fields{"pending": engine.Pending()})
	return nil
}
