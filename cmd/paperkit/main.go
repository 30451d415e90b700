package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/paperkit/internal/build"
	"git.home.luguber.info/inful/paperkit/internal/config"
	perrors "git.home.luguber.info/inful/paperkit/internal/errors"
	"git.home.luguber.info/inful/paperkit/internal/history"
	"git.home.luguber.info/inful/paperkit/internal/version"
	"git.home.luguber.info/inful/paperkit/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Paper struct {
		Base              string   `short:"b" help:"Manuscript base name (overrides config)"`
		KeepIntermediates bool     `short:"k" help:"Keep auxiliary files after the build"`
		EngineArgs        []string `help:"Extra arguments passed to the typesetting engine"`
	} `cmd:"" help:"Typeset the manuscript, resolve the bibliography, and clean intermediates"`

	View struct {
		Base string `short:"b" help:"Manuscript base name (overrides config)"`
	} `cmd:"" help:"Open the rendered output in the configured viewer"`

	Clean struct {
		Base string `short:"b" help:"Manuscript base name (overrides config)"`
	} `cmd:"" help:"Remove intermediate and final build artifacts"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Watch struct {
		Base          string `short:"b" help:"Manuscript base name (overrides config)"`
		Schedule      string `help:"Cron expression for periodic rebuilds (overrides config)"`
		MetricsListen string `help:"Address for a Prometheus /metrics listener (overrides config)"`
	} `cmd:"" help:"Rebuild automatically when manuscript sources change"`

	History struct {
		Limit int `short:"n" help:"Number of builds to show" default:"10"`
	} `cmd:"" help:"Show recent build history"`

	Version struct{} `cmd:"" help:"Show version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch kctx.Command() {
	case "paper":
		if err := runTarget(build.TargetPaper); err != nil {
			slog.Error("Paper build failed", "category", perrors.GetCategory(err), "error", err)
			os.Exit(1)
		}
	case "view":
		if err := runTarget(build.TargetView); err != nil {
			slog.Error("View failed", "category", perrors.GetCategory(err), "error", err)
			os.Exit(1)
		}
	case "clean":
		// Clean is best-effort and always exits 0.
		if err := runTarget(build.TargetClean); err != nil {
			slog.Warn("Clean reported an error", "error", err)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Created configuration file: %s\n", CLI.Config)
	case "watch":
		if err := runWatch(); err != nil && err != context.Canceled {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(CLI.History.Limit); err != nil {
			slog.Error("History failed", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(version.Info())
	}
}

// loadConfig loads the configuration file and layers command-line overrides
// on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	for _, base := range []string{CLI.Paper.Base, CLI.View.Base, CLI.Clean.Base, CLI.Watch.Base} {
		if base != "" {
			cfg.Manuscript.BaseName = base
		}
	}
	if CLI.Paper.KeepIntermediates {
		cfg.Build.KeepIntermediates = true
	}
	if len(CLI.Paper.EngineArgs) > 0 {
		cfg.Engines.TypesetArgs = append(cfg.Engines.TypesetArgs, CLI.Paper.EngineArgs...)
	}
	if CLI.Watch.Schedule != "" {
		cfg.Watch.Schedule = CLI.Watch.Schedule
	}
	if CLI.Watch.MetricsListen != "" {
		cfg.Watch.MetricsListen = CLI.Watch.MetricsListen
	}
	return cfg, nil
}

// newBuilder wires a builder from the configuration, including the history
// store when enabled.
func newBuilder(cfg *config.Config) (*build.Builder, func()) {
	b := build.NewBuilder(cfg)
	cleanup := func() {}
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			slog.Warn("Build history unavailable", "path", cfg.History.Path, "error", err)
		} else {
			b.WithHistory(store)
			cleanup = func() { _ = store.Close() }
		}
	}
	return b, cleanup
}

func runTarget(name string) error {
	target, err := build.LookupTarget(name)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, cleanup := newBuilder(cfg)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return target.Run(ctx, b)
}

func runWatch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, cleanup := newBuilder(cfg)
	defer cleanup()
	w := watch.NewWatcher(cfg, b)

	if cfg.Watch.MetricsListen != "" {
		recorder, err := watch.ServeMetrics(ctx, cfg.Watch.MetricsListen)
		if err != nil {
			return err
		}
		b.WithRecorder(recorder)
		w.WithRecorder(recorder)
	}

	return w.Run(ctx)
}

func runHistory(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open build history: %w", err)
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}
	for _, rec := range records {
		commit := rec.GitCommit
		if commit == "" {
			commit = "-"
		}
		fmt.Printf("%s  %-8s  %-10s  %8s  %s\n",
			rec.StartedAt.Format("2006-01-02 15:04:05"), rec.Outcome, rec.BaseName,
			rec.Duration.Round(time.Millisecond), commit)
	}
	return nil
}
