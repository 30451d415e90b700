package build

import (
	"time"

	"git.home.luguber.info/inful/paperkit/internal/config"
	"git.home.luguber.info/inful/paperkit/internal/engine"
	"git.home.luguber.info/inful/paperkit/internal/metrics"
)

// BuildState carries mutable state across the stages of one paper build.
type BuildState struct {
	Config        *config.Config
	Typesetter    engine.Typesetter
	Bibliographer engine.Bibliographer
	Recorder      metrics.Recorder
	Report        *BuildReport

	Dir      string
	BaseName string

	// UseMarkdown is set by the source check when the manuscript is a
	// Markdown file that must be preprocessed into LaTeX first.
	UseMarkdown bool

	// HasCitations is set after the initial pass from the aux file contents.
	HasCitations bool

	start time.Time
}

// newBuildState constructs a BuildState for one invocation.
func newBuildState(b *Builder, report *BuildReport) *BuildState {
	return &BuildState{
		Config:        b.cfg,
		Typesetter:    b.typesetter,
		Bibliographer: b.bibliographer,
		Recorder:      b.recorder,
		Report:        report,
		Dir:           b.cfg.Manuscript.Dir,
		BaseName:      report.BaseName,
		start:         time.Now(),
	}
}
