// Package build orchestrates the paper target as an ordered stage pipeline
// with structured per-stage error classification.
package build

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
	"git.home.luguber.info/inful/paperkit/internal/config"
	"git.home.luguber.info/inful/paperkit/internal/engine"
	perrors "git.home.luguber.info/inful/paperkit/internal/errors"
	"git.home.luguber.info/inful/paperkit/internal/history"
	"git.home.luguber.info/inful/paperkit/internal/metrics"
	"git.home.luguber.info/inful/paperkit/internal/viewer"
)

// Builder executes the build targets against a manuscript directory.
type Builder struct {
	cfg           *config.Config
	typesetter    engine.Typesetter
	bibliographer engine.Bibliographer
	recorder      metrics.Recorder
	store         history.Store
}

// NewBuilder creates a Builder with the binary engines from the configuration
// and no metrics or history recording.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg:           cfg,
		typesetter:    engine.NewBinaryTypesetter(cfg.Engines.Typeset, cfg.Engines.TypesetArgs),
		bibliographer: engine.NewBinaryBibliographer(cfg.Engines.Bibliography),
		recorder:      metrics.NoopRecorder{},
	}
}

// WithTypesetter allows tests or callers to inject a custom typesetter.
func (b *Builder) WithTypesetter(t engine.Typesetter) *Builder {
	if t != nil {
		b.typesetter = t
	}
	return b
}

// WithBibliographer allows tests or callers to inject a custom bibliographer.
func (b *Builder) WithBibliographer(bib engine.Bibliographer) *Builder {
	if bib != nil {
		b.bibliographer = bib
	}
	return b
}

// WithRecorder injects a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithHistory injects a build-history store.
func (b *Builder) WithHistory(s history.Store) *Builder {
	b.store = s
	return b
}

// Paper runs the full typeset/bibliography/typeset/typeset sequence and the
// final intermediate cleanup. The returned report is always non-nil; err is
// non-nil when a fatal or canceled stage aborted the sequence.
func (b *Builder) Paper(ctx context.Context) (*BuildReport, error) {
	base := b.cfg.Manuscript.BaseName
	report := NewBuildReport(uuid.NewString(), base)
	bs := newBuildState(b, report)

	slog.Info("Starting paper build", "base", base, "dir", bs.Dir, "passes", b.cfg.Engines.Passes)

	err := runStages(ctx, bs, paperStages())
	report.Duration = time.Since(bs.start)
	report.Outcome = outcomeFor(err, report)

	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(report.Outcome)
	b.persistHistory(ctx, report)

	if err != nil {
		slog.Error("Paper build failed", "base", base, "outcome", report.Outcome, "error", err)
		return report, err
	}
	slog.Info("Paper build finished", "base", base, "output", report.OutputPath,
		"duration", report.Duration, "warnings", len(report.Warnings))
	return report, nil
}

// Clean removes intermediates and the final output. Always succeeds.
func (b *Builder) Clean(_ context.Context) error {
	slog.Info("Cleaning build artifacts", "base", b.cfg.Manuscript.BaseName, "dir", b.cfg.Manuscript.Dir)
	artifact.CleanAll(b.cfg.Manuscript.Dir, b.cfg.Manuscript.BaseName)
	return nil
}

// View launches the configured viewer on the rendered output, detached.
func (b *Builder) View(_ context.Context) error {
	if err := viewer.Open(b.cfg.Viewer.Command, b.cfg.Manuscript.Dir, b.cfg.Manuscript.BaseName); err != nil {
		return perrors.ViewerError(b.cfg.Viewer.Command, err)
	}
	return nil
}

// outcomeFor maps the pipeline result onto a report outcome label.
func outcomeFor(err error, report *BuildReport) string {
	if err != nil {
		var se *StageError
		if errors.As(err, &se) && se.Kind == StageErrorCanceled {
			return "canceled"
		}
		return "failed"
	}
	if report.HasWarnings() {
		return "warning"
	}
	return "success"
}

// persistHistory records the build and its stage outcomes, best-effort.
func (b *Builder) persistHistory(ctx context.Context, report *BuildReport) {
	if b.store == nil {
		return
	}
	rec := history.Record{
		ID:        report.BuildID,
		BaseName:  report.BaseName,
		Outcome:   report.Outcome,
		Duration:  report.Duration,
		StartedAt: time.Now().Add(-report.Duration),
		GitCommit: history.HeadCommit(b.cfg.Manuscript.Dir),
	}
	if err := b.store.RecordBuild(ctx, rec); err != nil {
		slog.Warn("Failed to record build history", "build_id", report.BuildID,
			"error", perrors.HistoryError("record build", err))
		return
	}
	for _, st := range paperStages() {
		dur, ran := report.StageDurations[st.name]
		if !ran {
			continue
		}
		result := "success"
		if kind, ok := report.StageErrorKinds[st.name]; ok {
			result = kind
		}
		ev := history.StageEvent{
			BuildID:  report.BuildID,
			Stage:    st.name,
			Result:   result,
			Duration: dur,
			At:       time.Now(),
		}
		if err := b.store.AppendStage(ctx, ev); err != nil {
			slog.Warn("Failed to record stage history", "build_id", report.BuildID, "stage", st.name,
				"error", perrors.HistoryError("record stage", err))
			return
		}
	}
}
