// Package relay publishes build summaries to NATS JetStream and keeps the
// most recent report per site in a KV bucket. It is observability plumbing:
// when disabled it is a no-op, and connection trouble is logged, never
// surfaced as a build failure.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/sitewright/internal/build"
	"git.home.luguber.info/inful/sitewright/internal/config"
	"git.home.luguber.info/inful/sitewright/internal/logfields"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 5 * time.Second
)

// BuildSummary is the wire shape published per completed build.
type BuildSummary struct {
	BuildID   string           `json:"build_id"`
	SiteTitle string           `json:"site_title"`
	Outcome   string           `json:"outcome"`
	Plugins   int              `json:"plugins"`
	Nodes     int              `json:"nodes"`
	Pages     int              `json:"pages"`
	Warnings  int              `json:"warnings"`
	Errors    int              `json:"errors"`
	Duration  time.Duration    `json:"duration"`
	Stages    map[string]int64 `json:"stage_durations_ms"`
	Timestamp time.Time        `json:"timestamp"`
}

// Relay is the NATS publisher. A nil Relay is safe to use and does nothing,
// which is how a disabled config is represented.
type Relay struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
	siteKey string
	log     *slog.Logger
}

// Connect establishes the relay when it is enabled. A disabled config
// returns (nil, nil).
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Relay, error) {
	if cfg == nil || !cfg.Relay.Enabled {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}

	conn, err := nats.Connect(cfg.Relay.URL, nats.Timeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	r := &Relay{
		conn:    conn,
		js:      js,
		subject: cfg.Relay.Subject,
		siteKey: siteKey(cfg.Site.Title),
		log:     log,
	}
	if err := r.initBucket(ctx, cfg.Relay.KVBucket); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info("Build relay connected",
		logfields.URL(cfg.Relay.URL),
		logfields.Name(cfg.Relay.Subject))
	return r, nil
}

// initBucket binds the report bucket, creating it on first use.
func (r *Relay) initBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	kv, err := r.js.KeyValue(ctx, bucket)
	if err == nil {
		r.kv = kv
		return nil
	}

	kv, err = r.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Latest SiteWright build report per site",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("create KV bucket: %w", err)
	}
	r.kv = kv
	return nil
}

// PublishReport publishes the build summary to the subject and stores it as
// the site's latest report. Errors are logged and swallowed: the relay must
// never fail a build.
func (r *Relay) PublishReport(ctx context.Context, report *build.Report) {
	if r == nil || report == nil {
		return
	}

	summary := summarize(report)
	data, err := json.Marshal(summary)
	if err != nil {
		r.log.Warn("Failed to marshal build summary", logfields.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if _, err := r.js.Publish(ctx, r.subject, data); err != nil {
		r.log.Warn("Failed to publish build summary", logfields.Error(err))
	}
	if _, err := r.kv.Put(ctx, r.siteKey, data); err != nil {
		r.log.Warn("Failed to store latest build report", logfields.Error(err))
	}

	r.log.Debug("Build summary relayed",
		logfields.BuildID(report.BuildID),
		logfields.Name(string(report.Outcome)))
}

// LatestReport returns the most recent stored summary for a site key, or
// nil when none exists.
func (r *Relay) LatestReport(ctx context.Context, siteTitle string) (*BuildSummary, error) {
	if r == nil {
		return nil, nil
	}

	entry, err := r.kv.Get(ctx, siteKey(siteTitle))
	if err != nil {
		if err == jetstream.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest report: %w", err)
	}

	var summary BuildSummary
	if err := json.Unmarshal(entry.Value(), &summary); err != nil {
		return nil, fmt.Errorf("unmarshal latest report: %w", err)
	}
	return &summary, nil
}

// Close releases the NATS connection. Safe on nil.
func (r *Relay) Close() {
	if r == nil || r.conn == nil {
		return
	}
	r.conn.Close()
}

func summarize(report *build.Report) BuildSummary {
	stages := make(map[string]int64, len(report.StageDurations))
	for stage, d := range report.StageDurations {
		stages[stage] = d.Milliseconds()
	}
	return BuildSummary{
		BuildID:   report.BuildID,
		SiteTitle: report.SiteTitle,
		Outcome:   string(report.Outcome),
		Plugins:   report.Plugins,
		Nodes:     report.Nodes,
		Pages:     report.Pages,
		Warnings:  report.Warnings(),
		Errors:    report.Errors(),
		Duration:  report.Duration(),
		Stages:    stages,
		Timestamp: time.Now(),
	}
}

// siteKey normalizes a site title into a valid KV key.
func siteKey(title string) string {
	if title == "" {
		return "default"
	}
	key := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			key = append(key, r)
		case r == ' ':
			key = append(key, '-')
		}
	}
	if len(key) == 0 {
		return "default"
	}
	return string(key)
}
