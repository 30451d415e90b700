package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
	"git.home.luguber.info/inful/paperkit/internal/config"
	"git.home.luguber.info/inful/paperkit/internal/engine"
	perrors "git.home.luguber.info/inful/paperkit/internal/errors"
	"git.home.luguber.info/inful/paperkit/internal/history"
	"git.home.luguber.info/inful/paperkit/internal/viewer"
)

// testConfig returns a config pointed at a temp manuscript directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Manuscript.Dir = t.TempDir()
	return cfg
}

func writeSource(t *testing.T, cfg *config.Config) {
	t.Helper()
	src := artifact.SourcePath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName)
	if err := os.WriteFile(src, []byte("\\documentclass{article}\\begin{document}x\\end{document}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPaper_SuccessWithoutCitations(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	ts := &engine.ScriptedTypesetter{}
	bib := &engine.ScriptedBibliographer{}
	b := NewBuilder(cfg).WithTypesetter(ts).WithBibliographer(bib)

	report, err := b.Paper(context.Background())
	if err != nil {
		t.Fatalf("Paper: %v", err)
	}

	if _, err := os.Stat(artifact.FinalPath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName)); err != nil {
		t.Errorf("final output missing: %v", err)
	}
	for _, p := range artifact.IntermediatePaths(cfg.Manuscript.Dir, cfg.Manuscript.BaseName) {
		if _, err := os.Stat(p); err == nil {
			t.Errorf("intermediate %q should be cleaned", p)
		}
	}
	if ts.Passes != cfg.Engines.Passes {
		t.Errorf("typeset passes = %d, want %d", ts.Passes, cfg.Engines.Passes)
	}
	if bib.Calls != 0 {
		t.Errorf("bibliographer should be skipped without citations, called %d times", bib.Calls)
	}
	if !report.BibliographySkipped {
		t.Error("report should flag the skipped bibliography")
	}
	if report.Outcome != "warning" {
		t.Errorf("outcome = %q, want warning (bibliography skipped)", report.Outcome)
	}
}

func TestPaper_WithCitationsRunsBibliography(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	ts := &engine.ScriptedTypesetter{WithCitations: true}
	bib := &engine.ScriptedBibliographer{}
	b := NewBuilder(cfg).WithTypesetter(ts).WithBibliographer(bib)

	report, err := b.Paper(context.Background())
	if err != nil {
		t.Fatalf("Paper: %v", err)
	}
	if bib.Calls != 1 {
		t.Errorf("bibliographer calls = %d, want 1", bib.Calls)
	}
	if report.Outcome != "success" {
		t.Errorf("outcome = %q, want success", report.Outcome)
	}
	if len(report.PassChecksums) != cfg.Engines.Passes {
		t.Errorf("pass checksums = %d, want %d", len(report.PassChecksums), cfg.Engines.Passes)
	}
	if !report.Stable {
		t.Error("identical aux output across passes should report stable")
	}
}

func TestPaper_MissingSourceFailsWithoutOutput(t *testing.T) {
	cfg := testConfig(t)

	ts := &engine.ScriptedTypesetter{}
	b := NewBuilder(cfg).WithTypesetter(ts).WithBibliographer(&engine.ScriptedBibliographer{})

	report, err := b.Paper(context.Background())
	if err == nil {
		t.Fatal("expected failure for missing source")
	}
	if !errors.Is(err, engine.ErrSourceMissing) {
		t.Errorf("expected ErrSourceMissing in chain, got %v", err)
	}
	if report.Outcome != "failed" {
		t.Errorf("outcome = %q, want failed", report.Outcome)
	}
	if ts.Passes != 0 {
		t.Errorf("no typeset pass should run, got %d", ts.Passes)
	}
	if _, statErr := os.Stat(artifact.FinalPath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName)); statErr == nil {
		t.Error("no final output may be created on failure")
	}
}

func TestPaper_EngineFailureShortCircuits(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	ts := &engine.ScriptedTypesetter{FailOnPass: 1, WithCitations: true}
	bib := &engine.ScriptedBibliographer{}
	b := NewBuilder(cfg).WithTypesetter(ts).WithBibliographer(bib)

	report, err := b.Paper(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if bib.Calls != 0 {
		t.Errorf("bibliography must not run after a fatal typeset, called %d times", bib.Calls)
	}
	if kind := report.StageErrorKinds[StageTypesetInitial]; kind != string(StageErrorFatal) {
		t.Errorf("typeset_initial kind = %q, want fatal", kind)
	}
	if _, ok := report.StageDurations[StageTypesetRefs]; ok {
		t.Error("typeset_refs should not have run")
	}
	if !perrors.IsCategory(err, perrors.CategoryEngine) {
		t.Errorf("typeset failure should carry the engine category, got %v", err)
	}
}

func TestPaper_BibliographyFailureCategory(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	b := NewBuilder(cfg).
		WithTypesetter(&engine.ScriptedTypesetter{WithCitations: true}).
		WithBibliographer(&engine.ScriptedBibliographer{FailAlways: true})

	_, err := b.Paper(context.Background())
	if err == nil {
		t.Fatal("expected bibliography failure")
	}
	if !perrors.IsCategory(err, perrors.CategoryBibliography) {
		t.Errorf("bibliography failure should carry its category, got %v", err)
	}
	if !errors.Is(err, engine.ErrEngineFailed) {
		t.Errorf("underlying engine sentinel should survive wrapping, got %v", err)
	}
}

func TestPaper_SilentEngineFailsOutputVerification(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	// Engines that run but produce nothing must be caught at verification.
	b := NewBuilder(cfg).
		WithTypesetter(engine.NoopTypesetter{}).
		WithBibliographer(engine.NoopBibliographer{})

	report, err := b.Paper(context.Background())
	if err == nil {
		t.Fatal("expected verification failure when no output is produced")
	}
	if !perrors.IsCategory(err, perrors.CategoryBuild) {
		t.Errorf("verification failure should carry the build category, got %v", err)
	}
	if kind := report.StageErrorKinds[StageVerifyOutput]; kind != string(StageErrorFatal) {
		t.Errorf("verify_output kind = %q, want fatal", kind)
	}
}

func TestView_MissingOutputCategory(t *testing.T) {
	cfg := testConfig(t)

	err := NewBuilder(cfg).View(context.Background())
	if err == nil {
		t.Fatal("expected error when no output exists")
	}
	if !perrors.IsCategory(err, perrors.CategoryViewer) {
		t.Errorf("viewer failure should carry its category, got %v", err)
	}
	if !errors.Is(err, viewer.ErrOutputMissing) {
		t.Errorf("viewer sentinel should survive wrapping, got %v", err)
	}
}

func TestPaper_KeepIntermediates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Build.KeepIntermediates = true
	writeSource(t, cfg)

	b := NewBuilder(cfg).WithTypesetter(&engine.ScriptedTypesetter{}).WithBibliographer(&engine.ScriptedBibliographer{})
	if _, err := b.Paper(context.Background()); err != nil {
		t.Fatalf("Paper: %v", err)
	}

	if _, err := os.Stat(artifact.AuxPath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName)); err != nil {
		t.Errorf("aux file should survive with keep_intermediates: %v", err)
	}
}

func TestPaper_CanceledContext(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(cfg).WithTypesetter(&engine.ScriptedTypesetter{}).WithBibliographer(&engine.ScriptedBibliographer{})
	report, err := b.Paper(ctx)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if report.Outcome != "canceled" {
		t.Errorf("outcome = %q, want canceled", report.Outcome)
	}
}

func TestPaper_CleanPaperRoundTripIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	run := func() []byte {
		b := NewBuilder(cfg).
			WithTypesetter(&engine.ScriptedTypesetter{}).
			WithBibliographer(&engine.ScriptedBibliographer{})
		if _, err := b.Paper(context.Background()); err != nil {
			t.Fatalf("Paper: %v", err)
		}
		data, err := os.ReadFile(artifact.FinalPath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName))
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first := run()

	b := NewBuilder(cfg)
	if err := b.Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(artifact.FinalPath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName)); err == nil {
		t.Fatal("clean should remove the final output")
	}

	second := run()
	if !bytes.Equal(first, second) {
		t.Error("rebuild after clean should produce identical output for unchanged source")
	}
}

func TestPaper_MarkdownManuscript(t *testing.T) {
	cfg := testConfig(t)
	md := artifact.MarkdownSourcePath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName)
	content := "---\ntitle: Test\n---\n# Intro\n\nText citing [@knuth1984].\n"
	if err := os.WriteFile(md, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(cfg).
		WithTypesetter(&engine.ScriptedTypesetter{WithCitations: true}).
		WithBibliographer(&engine.ScriptedBibliographer{})

	report, err := b.Paper(context.Background())
	if err != nil {
		t.Fatalf("Paper: %v", err)
	}
	if report.Outcome != "success" {
		t.Errorf("outcome = %q, want success", report.Outcome)
	}

	// The preprocessor must have produced the tex source.
	tex, err := os.ReadFile(artifact.SourcePath(cfg.Manuscript.Dir, cfg.Manuscript.BaseName))
	if err != nil {
		t.Fatalf("generated tex missing: %v", err)
	}
	if !bytes.Contains(tex, []byte(`\section{Intro}`)) {
		t.Error("generated tex should contain the rendered section")
	}
}

func TestPaper_PersistsHistory(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	store, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	b := NewBuilder(cfg).
		WithTypesetter(&engine.ScriptedTypesetter{WithCitations: true}).
		WithBibliographer(&engine.ScriptedBibliographer{}).
		WithHistory(store)

	report, err := b.Paper(context.Background())
	if err != nil {
		t.Fatalf("Paper: %v", err)
	}

	recent, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != report.BuildID {
		t.Fatalf("expected recorded build %s, got %+v", report.BuildID, recent)
	}

	stages, err := store.Stages(context.Background(), report.BuildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) == 0 {
		t.Error("expected stage events to be recorded")
	}
}

func TestPaper_PersistsWarningOutcome(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg)

	store, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	// No citations: the bibliography skip degrades the outcome to warning,
	// which must round-trip through the store unchanged.
	b := NewBuilder(cfg).
		WithTypesetter(&engine.ScriptedTypesetter{}).
		WithBibliographer(&engine.ScriptedBibliographer{}).
		WithHistory(store)

	report, err := b.Paper(context.Background())
	if err != nil {
		t.Fatalf("Paper: %v", err)
	}
	if report.Outcome != "warning" {
		t.Fatalf("outcome = %q, want warning", report.Outcome)
	}

	recent, err := store.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Outcome != "warning" {
		t.Fatalf("stored outcome = %+v, want warning", recent)
	}
}

func TestLookupTarget(t *testing.T) {
	for _, name := range []string{TargetPaper, TargetView, TargetClean} {
		if _, err := LookupTarget(name); err != nil {
			t.Errorf("LookupTarget(%q): %v", name, err)
		}
	}
	if _, err := LookupTarget("deploy"); err == nil {
		t.Error("unknown target should error")
	}
}
