package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/paperkit/internal/metrics"
)

// Stage is a discrete unit of work in the paper build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Helpers to classify errors.
func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// namedStage pairs a stage with its report/metrics identifier.
type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on first
// fatal error. Warning-kind stage errors are recorded and execution continues
// with the next stage.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			recordStageError(bs, st.name, se)
			return se
		default:
		}
		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.name] = dur
		bs.Recorder.ObserveStageDuration(st.name, dur)
		if err == nil {
			sc := bs.Report.StageCounts[st.name]
			sc.Success++
			bs.Report.StageCounts[st.name] = sc
			bs.Recorder.IncStageResult(st.name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(st.name, err)
		}
		recordStageError(bs, st.name, se)
		if se.Kind == StageErrorWarning {
			continue
		}
		return se
	}
	return nil
}

// recordStageError updates the report and metrics for a classified failure.
func recordStageError(bs *BuildState, stage string, se *StageError) {
	bs.Report.StageErrorKinds[stage] = string(se.Kind)
	sc := bs.Report.StageCounts[stage]
	switch se.Kind {
	case StageErrorWarning:
		sc.Warning++
		bs.Report.Warnings = append(bs.Report.Warnings, se)
		bs.Recorder.IncStageResult(stage, metrics.ResultWarning)
	case StageErrorCanceled:
		sc.Canceled++
		bs.Report.Errors = append(bs.Report.Errors, se)
		bs.Recorder.IncStageResult(stage, metrics.ResultCanceled)
	case StageErrorFatal:
		sc.Fatal++
		bs.Report.Errors = append(bs.Report.Errors, se)
		bs.Recorder.IncStageResult(stage, metrics.ResultFatal)
	}
	bs.Report.StageCounts[stage] = sc
}
