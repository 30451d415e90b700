package build

import (
	"time"
)

// StageCount tracks per-stage result tallies.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// BuildReport aggregates the observable outcome of one paper build.
type BuildReport struct {
	BuildID  string
	BaseName string

	StageDurations  map[string]time.Duration
	StageErrorKinds map[string]string
	StageCounts     map[string]StageCount
	Warnings        []error
	Errors          []error

	// PassChecksums holds the aux-file checksum after each typeset pass.
	// When the last two entries differ the 3-pass convention did not reach a
	// stable cross-reference state.
	PassChecksums []string
	Stable        bool

	BibliographySkipped bool
	OutputPath          string
	Duration            time.Duration
	Outcome             string // success|warning|failed|canceled
}

// NewBuildReport constructs an empty report for the given base name.
func NewBuildReport(buildID, baseName string) *BuildReport {
	return &BuildReport{
		BuildID:         buildID,
		BaseName:        baseName,
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[string]string),
		StageCounts:     make(map[string]StageCount),
		Stable:          true,
	}
}

// HasWarnings reports whether any stage finished with a warning.
func (r *BuildReport) HasWarnings() bool { return len(r.Warnings) > 0 }
