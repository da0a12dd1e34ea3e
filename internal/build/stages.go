package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/eventstore"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

// Stage names, in execution order.
const (
	StageLoadPlugins    = "load_plugins"
	StagePreInit        = "pre_init"
	StagePreBootstrap   = "pre_bootstrap"
	StageConfig         = "config"
	StageSource         = "source"
	StageSchema         = "schema"
	StagePostBootstrap  = "post_bootstrap"
	StagePreBuild       = "pre_build"
	StageExtractQueries = "extract_queries"
	StageCreatePages    = "create_pages"
	StageSideEffects    = "side_effects"
	StageRender         = "render"
	StageVerify         = "verify"
	StagePostBuild      = "post_build"
)

// Stage is a discrete unit of work in the lifecycle run.
type Stage func(ctx context.Context, st *State) error

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

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

func isCanceled(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind == StageErrorCanceled
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, timing and journaling each one.
// Warning stage errors are recorded and the run continues; fatal and
// canceled errors abort.
func runStages(ctx context.Context, st *State, stages []namedStage) error {
	for _, stage := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(stage.name, ctx.Err())
			st.Report.AddIssue(stage.name, SeverityError, se.Error())
			return se
		default:
		}

		t0 := time.Now()
		err := stage.fn(ctx, st)
		dur := time.Since(t0)
		st.Report.StageDurations[stage.name] = dur
		if st.Recorder != nil {
			st.Recorder.ObserveStageDuration(stage.name, dur)
		}
		st.journalStage(ctx, stage.name, dur, err)

		if err == nil {
			st.Log.Debug("Stage completed",
				logfields.Stage(stage.name),
				logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				se = newCanceledStageError(stage.name, err)
			} else {
				se = newFatalStageError(stage.name, err)
			}
		}

		switch se.Kind {
		case StageErrorWarning:
			st.Report.AddIssue(stage.name, SeverityWarning, se.Err.Error())
			st.Log.Warn("Stage completed with warnings",
				logfields.Stage(stage.name),
				logfields.Error(se.Err))
			continue
		default:
			st.Report.AddIssue(stage.name, SeverityError, se.Err.Error())
			st.Log.Error("Stage failed",
				logfields.Stage(stage.name),
				logfields.Error(se.Err))
			return se
		}
	}
	return nil
}

// journalStage appends a stage.completed record. Journal failures are
// observability loss, never build failures.
func (st *State) journalStage(ctx context.Context, name string, dur time.Duration, stageErr error) {
	if st.Journal == nil {
		return
	}
	e, err := eventstore.NewStageCompleted(st.BuildID, name, dur, stageErr)
	if err != nil {
		return
	}
	if err := eventstore.Record(ctx, st.Journal, e); err != nil {
		st.Log.Warn("Failed to journal stage event", logfields.Error(err))
	}
}
