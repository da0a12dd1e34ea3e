package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testState() *State {
	return &State{
		BuildID: "test-build",
		Report:  newReport("test-build", "Test Site"),
		Log:     discardLogger(),
	}
}

func TestRunStagesRecordsDurations(t *testing.T) {
	st := testState()
	ran := []string{}

	err := runStages(t.Context(), st, []namedStage{
		{"one", func(ctx context.Context, st *State) error { ran = append(ran, "one"); return nil }},
		{"two", func(ctx context.Context, st *State) error { ran = append(ran, "two"); return nil }},
	})
	if err != nil {
		t.Fatalf("runStages: %v", err)
	}
	if len(ran) != 2 {
		t.Errorf("ran %v, want both stages", ran)
	}
	if _, ok := st.Report.StageDurations["one"]; !ok {
		t.Error("missing duration for stage one")
	}
	if _, ok := st.Report.StageDurations["two"]; !ok {
		t.Error("missing duration for stage two")
	}
}

func TestRunStagesWarningContinues(t *testing.T) {
	st := testState()
	reachedNext := false

	err := runStages(t.Context(), st, []namedStage{
		{"warns", func(ctx context.Context, st *State) error {
			return newWarnStageError("warns", fmt.Errorf("partial input"))
		}},
		{"next", func(ctx context.Context, st *State) error { reachedNext = true; return nil }},
	})
	if err != nil {
		t.Fatalf("warning must not abort the run: %v", err)
	}
	if !reachedNext {
		t.Error("stage after a warning did not run")
	}
	if st.Report.Warnings() != 1 {
		t.Errorf("warnings = %d, want 1", st.Report.Warnings())
	}
}

func TestRunStagesFatalAborts(t *testing.T) {
	st := testState()
	reachedNext := false

	err := runStages(t.Context(), st, []namedStage{
		{"fails", func(ctx context.Context, st *State) error { return errors.New("boom") }},
		{"next", func(ctx context.Context, st *State) error { reachedNext = true; return nil }},
	})
	if err == nil {
		t.Fatal("expected fatal stage error")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T", err)
	}
	if se.Kind != StageErrorFatal || se.Stage != "fails" {
		t.Errorf("stage error = %+v", se)
	}
	if reachedNext {
		t.Error("stage after a fatal error ran")
	}
}

func TestRunStagesCanceled(t *testing.T) {
	st := testState()
	ctx, cancel := context.WithCancel(context.Background())

	err := runStages(ctx, st, []namedStage{
		{"cancels", func(ctx context.Context, st *State) error { cancel(); return nil }},
		{"never", func(ctx context.Context, st *State) error {
			t.Error("stage ran after cancellation")
			return nil
		}},
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Kind != StageErrorCanceled {
		t.Fatalf("error = %v, want canceled stage error", err)
	}

	st.Report.finish(err)
	if st.Report.Outcome != OutcomeCanceled {
		t.Errorf("outcome = %s, want canceled", st.Report.Outcome)
	}
}

func TestReportOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		stageErr error
		warnings int
		want     Outcome
	}{
		{"clean run", nil, 0, OutcomeSuccess},
		{"warnings only", nil, 2, OutcomeWarning},
		{"fatal", newFatalStageError("x", errors.New("boom")), 0, OutcomeFailed},
		{"canceled", newCanceledStageError("x", context.Canceled), 0, OutcomeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReport("b", "s")
			for i := 0; i < tt.warnings; i++ {
				r.AddIssue("x", SeverityWarning, "w")
			}
			r.finish(tt.stageErr)
			if r.Outcome != tt.want {
				t.Errorf("outcome = %s, want %s", r.Outcome, tt.want)
			}
		})
	}
}

func TestReportData(t *testing.T) {
	r := newReport("b1", "Site")
	r.Plugins = 2
	r.Nodes = 10
	r.Pages = 3
	r.AddIssue(StageVerify, SeverityWarning, "broken link")
	r.finish(nil)

	data := r.Data()
	if data.Outcome != string(OutcomeWarning) {
		t.Errorf("outcome = %s", data.Outcome)
	}
	if data.Pages != 3 || data.Nodes != 10 || data.Plugins != 2 {
		t.Errorf("counts = %+v", data)
	}
	if data.Warnings != 1 || data.Errors != 0 {
		t.Errorf("issue counts = %d/%d", data.Warnings, data.Errors)
	}
}
