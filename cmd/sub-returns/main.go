package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"sub-returns/tracker"
)

func main() {
	var configPath string
	var daemon bool
	var update string
	var source string
	var dbPath string
	var snapshotDir string
	var pollInterval time.Duration
	var debug bool
	var bridgeURL string

	flag.StringVar(&configPath, "config", "", "YAML config file path.")
	flag.BoolVar(&daemon, "daemon", false, "Poll and notify on submarine returns until interrupted.")
	flag.StringVar(&update, "update", "", "Set every submarine's return time, FFXIV format (e.g. '11/14/2024 16:59').")
	flag.StringVar(&source, "source", "", "Backing store: db or files (overrides config.source).")
	flag.StringVar(&dbPath, "db", "", "SubmarineTracker sqlite path (overrides config.db).")
	flag.StringVar(&snapshotDir, "snapshot-dir", "", "Character snapshot directory (overrides config.snapshot_dir).")
	flag.DurationVar(&pollInterval, "poll-interval", 0, "Polling interval in daemon mode (overrides config.poll_interval).")
	flag.BoolVar(&debug, "debug", false, "Enable debug logs.")
	flag.StringVar(&bridgeURL, "bridge-url", "", "Push relay endpoint (overrides config.bridge.url).")
	flag.Parse()

	visited := map[string]bool{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})

	// Optional .env next to the binary, mainly for the bridge token.
	_ = godotenv.Load()

	fileCfg := &tracker.FileConfig{}
	if configPath != "" {
		cfg, err := tracker.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(2)
		}
		fileCfg = cfg
	}

	// Merge config + CLI overrides.
	finalSource := fileCfg.Source
	if finalSource == "" {
		finalSource = "db"
	}
	if visited["source"] {
		finalSource = source
	}

	finalDB := fileCfg.DB
	if visited["db"] {
		finalDB = dbPath
	}
	if finalDB == "" {
		p, err := tracker.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolve database path: %v\n", err)
			os.Exit(2)
		}
		finalDB = p
	}

	finalSnapshotDir := fileCfg.SnapshotDir
	if visited["snapshot-dir"] {
		finalSnapshotDir = snapshotDir
	}
	if finalSnapshotDir == "" && finalSource == "files" {
		d, err := tracker.DefaultSnapshotDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolve snapshot dir: %v\n", err)
			os.Exit(2)
		}
		finalSnapshotDir = d
	}

	finalDebug := fileCfg.Debug
	if visited["debug"] {
		finalDebug = debug
	}

	finalBridgeURL := fileCfg.Bridge.URL
	if visited["bridge-url"] {
		finalBridgeURL = bridgeURL
	}

	log := tracker.NewLogger(finalDebug)
	loc := tracker.DisplayLocation(fileCfg.Timezone)

	if update != "" {
		when, err := tracker.ParseUpdateTime(update, loc)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		n, err := tracker.UpdateAllReturns(finalDB, when)
		if err != nil {
			fmt.Fprintf(os.Stderr, "update return times: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("All %d submarine return times updated! These are the new return times...\n", n)
	}

	var src tracker.Source
	var closeSrc func() error
	switch finalSource {
	case "db":
		dbSrc, err := tracker.NewDBSource(finalDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		src = dbSrc
		closeSrc = dbSrc.Close
	case "files":
		src = tracker.NewSnapshotSource(finalSnapshotDir, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown source %q (want db or files)\n", finalSource)
		os.Exit(2)
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	if !daemon {
		subs, err := src.Poll()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read submarines: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(tracker.FormatListing(subs, loc))
		return
	}

	runDaemon(fileCfg, src, finalSource, finalBridgeURL, pollInterval, visited["poll-interval"], loc, log)
}

func runDaemon(fileCfg *tracker.FileConfig, src tracker.Source, sourceKind, bridgeURL string, pollFlag time.Duration, pollFlagSet bool, loc *time.Location, log zerolog.Logger) {
	finalPoll, err := fileCfg.ResolvePollInterval()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	if pollFlagSet && pollFlag > 0 {
		finalPoll = pollFlag
	}

	defaultPolicy := tracker.ArmAlways
	if sourceKind == "files" {
		defaultPolicy = tracker.ArmFutureOnly
	}
	policy, err := tracker.ParseArmPolicy(fileCfg.ArmPast, defaultPolicy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	var bridge tracker.BridgeSender
	if bridgeURL != "" {
		timeout, err := fileCfg.ResolveBridgeTimeout()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		bridge = tracker.NewBridgeClient(bridgeURL, fileCfg.Bridge.ResolveToken(), timeout, fileCfg.Bridge.MaxPerMinute, log)
	}

	var notify tracker.Notifier
	dn, err := tracker.NewDBusNotifier()
	if err != nil {
		if bridge == nil {
			fmt.Fprintf(os.Stderr, "connect notification daemon: %v\n", err)
			os.Exit(1)
		}
		log.Warn().Err(err).Msg("desktop notifications unavailable, bridge only")
	} else {
		notify = dn
		defer dn.Close()
	}

	window, err := fileCfg.ResolveGroupWindow()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	runner := tracker.NewRunner(tracker.RunnerConfig{
		PollInterval: finalPoll,
		GroupWindow:  window,
		Location:     loc,
	}, src, tracker.NewTracker(policy), notify, bridge, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if snap, ok := src.(*tracker.SnapshotSource); ok && fileCfg.WatchEnabled() {
		wake := make(chan struct{}, 1)
		runner.SetWake(wake)
		go func() {
			if err := snap.Watch(ctx, wake); err != nil {
				log.Warn().Err(err).Msg("snapshot watcher unavailable, polling only")
			}
		}()
	}

	runner.Run(ctx)
}
