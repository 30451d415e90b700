// Package watch rebuilds the manuscript whenever a source file changes,
// coalescing bursts of filesystem events into a single build.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
	"git.home.luguber.info/inful/paperkit/internal/build"
	"git.home.luguber.info/inful/paperkit/internal/config"
	"git.home.luguber.info/inful/paperkit/internal/metrics"
)

// Rebuild triggers, used as metric labels.
const (
	TriggerInitial  = "initial"
	TriggerChange   = "change"
	TriggerSchedule = "schedule"
)

// Watcher monitors the manuscript directory and rebuilds on source changes.
type Watcher struct {
	cfg      *config.Config
	builder  *build.Builder
	recorder metrics.Recorder

	triggers chan string
}

// NewWatcher creates a watcher driving the given builder.
func NewWatcher(cfg *config.Config, builder *build.Builder) *Watcher {
	return &Watcher{
		cfg:      cfg,
		builder:  builder,
		recorder: metrics.NoopRecorder{},
		triggers: make(chan string, 16),
	}
}

// WithRecorder injects a metrics recorder for rebuild counters.
func (w *Watcher) WithRecorder(r metrics.Recorder) *Watcher {
	if r != nil {
		w.recorder = r
	}
	return w
}

// Run watches until the context is canceled. An initial build runs before
// watching starts so the output reflects the current sources.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir, err := filepath.Abs(w.cfg.Manuscript.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve manuscript directory: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if w.cfg.Watch.Schedule != "" {
		stop, err := w.startSchedule(w.cfg.Watch.Schedule)
		if err != nil {
			return err
		}
		defer stop()
	}

	slog.Info("Watching manuscript sources",
		"dir", dir, "debounce", w.cfg.Watch.Debounce, "schedule", w.cfg.Watch.Schedule)

	go w.watchLoop(ctx, fw)

	w.rebuild(ctx, TriggerInitial)
	return w.debounceLoop(ctx)
}

// watchLoop filters raw fsnotify events down to relevant source changes.
func (w *Watcher) watchLoop(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.isSourceEvent(event.Name) {
				continue
			}
			slog.Debug("Source change detected", "file", event.Name, "op", event.Op.String())
			select {
			case w.triggers <- TriggerChange:
			default:
				// A trigger is already queued; this event coalesces into it.
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "error", err)
		}
	}
}

// isSourceEvent reports whether the changed path is a manuscript source.
// When the manuscript is authored in Markdown, changes to the generated
// tex file are ignored so the preprocessing step cannot retrigger itself.
func (w *Watcher) isSourceEvent(name string) bool {
	if artifact.Classify(name) != artifact.ClassSource {
		return false
	}
	base := w.cfg.Manuscript.BaseName
	if filepath.Base(name) != base+".tex" {
		return true
	}
	md := artifact.MarkdownSourcePath(w.cfg.Manuscript.Dir, base)
	if _, err := os.Stat(md); err == nil {
		return false
	}
	return true
}

// debounceLoop waits for the quiet window after a trigger before rebuilding.
func (w *Watcher) debounceLoop(ctx context.Context) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		trigger string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case trig := <-w.triggers:
			trigger = trig
			if timer == nil {
				timer = time.NewTimer(w.cfg.Watch.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Watch.Debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.rebuild(ctx, trigger)
		}
	}
}

// rebuild runs the paper target once, recording the trigger.
func (w *Watcher) rebuild(ctx context.Context, trigger string) {
	w.recorder.IncWatchRebuild(trigger)
	report, err := w.builder.Paper(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("Rebuild failed", "trigger", trigger, "error", err)
		return
	}
	slog.Info("Rebuild finished", "trigger", trigger, "outcome", report.Outcome, "duration", report.Duration)
}

// startSchedule installs a cron rebuild job, returning its shutdown func.
func (w *Watcher) startSchedule(expr string) (func(), error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			select {
			case w.triggers <- TriggerSchedule:
			default:
			}
		}),
		gocron.WithName("scheduled-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	s.Start()
	return func() {
		if err := s.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown error", "error", err)
		}
	}, nil
}

// ServeMetrics exposes a Prometheus /metrics endpoint on addr and returns a
// recorder wired into the same registry. The server stops with the context.
func ServeMetrics(ctx context.Context, addr string) (metrics.Recorder, error) {
	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return recorder, nil
}
