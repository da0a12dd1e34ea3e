package relay

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/sitewright/internal/build"
	"git.home.luguber.info/inful/sitewright/internal/config"
)

func TestConnectDisabledIsNil(t *testing.T) {
	cfg := &config.Config{}

	r, err := Connect(t.Context(), cfg, nil)
	if err != nil {
		t.Fatalf("Connect on disabled relay: %v", err)
	}
	if r != nil {
		t.Fatal("disabled relay must be nil")
	}
}

func TestNilRelayIsSafe(t *testing.T) {
	var r *Relay

	r.PublishReport(t.Context(), &build.Report{BuildID: "b"})
	r.Close()

	summary, err := r.LatestReport(t.Context(), "Site")
	if err != nil || summary != nil {
		t.Errorf("nil relay LatestReport = %v, %v", summary, err)
	}
}

func TestSummarize(t *testing.T) {
	report := &build.Report{
		BuildID:   "b1",
		SiteTitle: "My Site",
		Start:     time.Now().Add(-2 * time.Second),
		End:       time.Now(),
		Outcome:   build.OutcomeWarning,
		Plugins:   2,
		Nodes:     7,
		Pages:     3,
		StageDurations: map[string]time.Duration{
			"render": 120 * time.Millisecond,
		},
	}
	report.AddIssue("verify", build.SeverityWarning, "broken link")

	s := summarize(report)
	if s.BuildID != "b1" || s.Outcome != "warning" {
		t.Errorf("summary = %+v", s)
	}
	if s.Warnings != 1 || s.Errors != 0 {
		t.Errorf("issue counts = %d/%d", s.Warnings, s.Errors)
	}
	if s.Stages["render"] != 120 {
		t.Errorf("stage duration = %d", s.Stages["render"])
	}
}

func TestSiteKey(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Site", "My-Site"},
		{"docs_v2", "docs_v2"},
		{"", "default"},
		{"!!!", "default"},
		{"Ünicode Site", "nicode-Site"},
	}
	for _, tt := range tests {
		if got := siteKey(tt.title); got != tt.want {
			t.Errorf("siteKey(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
