// hived is the beehive monitoring daemon: it subscribes to the hive sensor
// feed, persists readings, enforces the retention window and dispatches the
// daily activity report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gabrielmt/hived/internal/archive"
	"github.com/gabrielmt/hived/internal/connector"
	"github.com/gabrielmt/hived/internal/errors"
	"github.com/gabrielmt/hived/internal/ingest"
	"github.com/gabrielmt/hived/internal/loader"
	"github.com/gabrielmt/hived/internal/logging"
	"github.com/gabrielmt/hived/internal/notify"
	"github.com/gabrielmt/hived/internal/retention"
	"github.com/gabrielmt/hived/internal/scheduler"
	"github.com/gabrielmt/hived/internal/settings"
	"github.com/gabrielmt/hived/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	dbPath := flag.String("db", "", "readings database path (overrides config)")
	broker := flag.String("broker", "", "broker URL (overrides config)")
	topic := flag.String("topic", "", "subscription topic (overrides config)")
	noSweep := flag.Bool("no-sweep", false, "disable the periodic maintenance cycle")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hived %s\n", Version)
		return
	}

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = loader.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI overrides
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *broker != "" {
		cfg.Broker.URL = *broker
	}
	if *topic != "" {
		cfg.Broker.Topic = *topic
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	logging.Init(level, cfg.Log.JSON)

	log := logging.Component("main")
	log.Info("hived starting", "version", Version)

	// =========================================================================
	// Record store
	// =========================================================================

	storeCfg := store.DefaultConfig()
	storeCfg.Path = cfg.DatabasePath()

	if dir := cfg.DataDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("create data directory", "error", err)
			os.Exit(1)
		}
	}

	db, err := store.Open(storeCfg)
	if err != nil {
		// A store that cannot be opened is fatal to the whole pipeline.
		log.Error("open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// =========================================================================
	// Retention
	// =========================================================================

	pol := settings.Open(cfg.SettingsPath())

	var retOpts []retention.Option
	if cfg.Archive.Enabled {
		opts := archive.DefaultOptions(cfg.ArchiveDir())
		opts.Compression = archive.ParseCompressionType(cfg.Archive.Compression)
		retOpts = append(retOpts, retention.WithArchive(opts))
	}
	ret := retention.New(db, pol, retOpts...)
	log.Info("retention policy", "policy", ret.CurrentPolicy())

	// =========================================================================
	// Stream connector and ingest writer
	// =========================================================================

	dispatcher := notify.LogDispatcher{}

	conn := connector.New(connector.Config{
		BrokerURL:  cfg.Broker.URL,
		Topic:      cfg.Broker.Topic,
		ClientID:   cfg.Broker.ClientID,
		QoS:        byte(cfg.Broker.QoS),
		KeepAlive:  cfg.KeepAlive(),
		BackoffMin: time.Duration(cfg.Broker.BackoffMinMs) * time.Millisecond,
		BackoffMax: time.Duration(cfg.Broker.BackoffMaxMs) * time.Millisecond,
	}, connector.WithStatusHandler(func(s connector.Status) {
		log.Info("connection status", "status", s.String())
	}))

	var ingestOpts []ingest.Option
	if every := cfg.Notify.IngestIntervalSec; every > 0 {
		ingestOpts = append(ingestOpts,
			ingest.WithNotifier(dispatcher, time.Duration(every)*time.Second))
	}
	writer := ingest.New(db, conn.Records(), ingestOpts...)

	// =========================================================================
	// Run
	// =========================================================================

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if err := conn.Start(gctx); err != nil {
		log.Error("start connector", "error", err)
		os.Exit(1)
	}
	defer conn.Stop()

	g.Go(func() error {
		return writer.Run(gctx)
	})

	if !*noSweep {
		sched := scheduler.New(scheduler.Config{
			Interval: cfg.SchedulerInterval(),
		}, ret, db, dispatcher)
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	log.Info("hived running", "broker", cfg.Broker.URL, "topic", cfg.Broker.Topic,
		"db", cfg.DatabasePath())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("pipeline stopped", "error", err)
		os.Exit(1)
	}

	log.Info("hived stopped")
}
