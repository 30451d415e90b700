// Package history persists build outcomes in a local SQLite database so past
// runs can be inspected with the history command.
package history

import (
	"context"
	"time"
)

// Record summarizes one build invocation.
type Record struct {
	ID        string
	BaseName  string
	Outcome   string // success|warning|failed|canceled
	Duration  time.Duration
	StartedAt time.Time
	GitCommit string // HEAD of the manuscript dir when it is a git repository
}

// StageEvent is one stage outcome within a build.
type StageEvent struct {
	BuildID  string
	Stage    string
	Result   string // success|warning|fatal|canceled
	Duration time.Duration
	At       time.Time
}

// Store defines the interface for persisting and retrieving build history.
type Store interface {
	// RecordBuild persists a completed build summary.
	RecordBuild(ctx context.Context, rec Record) error

	// AppendStage adds a stage outcome for a build.
	AppendStage(ctx context.Context, ev StageEvent) error

	// Recent returns the most recent builds, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Stages returns the stage events for a specific build in order.
	Stages(ctx context.Context, buildID string) ([]StageEvent, error)

	// Close closes the store and releases resources.
	Close() error
}
