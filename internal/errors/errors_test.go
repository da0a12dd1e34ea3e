package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBuildErrorMessage(t *testing.T) {
	err := New(CategoryConfig, SeverityFatal, "configuration file not found")
	want := "config (fatal): configuration file not found"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestBuildErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("open sitewright.yaml: no such file")
	err := Wrap(cause, CategoryConfig, SeverityFatal, "failed to load config")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Error("expected Unwrap to return the cause")
	}
}

func TestBuildErrorContext(t *testing.T) {
	err := New(CategoryPlugin, SeverityError, "hook failed").
		WithContext("plugin", "markdown").
		WithContext("hook", "onCreateNode")

	if err.Context["plugin"] != "markdown" {
		t.Errorf("expected plugin context, got %v", err.Context["plugin"])
	}
	if err.Context["hook"] != "onCreateNode" {
		t.Errorf("expected hook context, got %v", err.Context["hook"])
	}
}

func TestCategoryHelpers(t *testing.T) {
	err := New(CategorySchema, SeverityError, "type redefined")

	if !IsCategory(err, CategorySchema) {
		t.Error("expected IsCategory to match")
	}
	if IsCategory(err, CategoryPages) {
		t.Error("expected IsCategory to reject other categories")
	}
	if GetCategory(err) != CategorySchema {
		t.Errorf("expected schema category, got %s", GetCategory(err))
	}
	if GetCategory(fmt.Errorf("plain")) != CategoryInternal {
		t.Error("expected plain errors to classify as internal")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := WrapRetryable(fmt.Errorf("timeout"), CategorySource, SeverityWarning, "git fetch failed")
	if !IsRetryable(retryable) {
		t.Error("expected retryable error")
	}
	if IsRetryable(New(CategoryConfig, SeverityFatal, "bad config")) {
		t.Error("expected non-retryable error")
	}
}

func TestCLIAdapterExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("plain"), 1},
		{New(CategoryValidation, SeverityFatal, "x"), 2},
		{New(CategoryConfig, SeverityFatal, "x"), 7},
		{New(CategoryPlugin, SeverityFatal, "x"), 8},
		{New(CategoryRender, SeverityFatal, "x"), 11},
		{New(CategoryStorage, SeverityError, "x"), 12},
		{New(CategoryInternal, SeverityFatal, "x"), 10},
	}

	for _, tc := range cases {
		if got := adapter.ExitCodeFor(tc.err); got != tc.want {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCLIAdapterFormat(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	err := New(CategoryConfig, SeverityFatal, "configuration file not found")
	if got := adapter.FormatError(err); got != "configuration file not found" {
		t.Errorf("expected bare message for config errors, got %q", got)
	}

	err = New(CategoryRender, SeverityFatal, "template failed")
	if got := adapter.FormatError(err); got != "render: template failed" {
		t.Errorf("expected category prefix, got %q", got)
	}
}
