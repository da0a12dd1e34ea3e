package eventstore

import (
	"context"
	"encoding/json"
	"time"

	swerrors "git.home.luguber.info/inful/sitewright/internal/errors"
)

// BuildStarted is emitted when a build run begins.
type BuildStarted struct {
	BaseEvent
	SiteTitle string `json:"site_title"`
	Stage     string `json:"stage"`
	Plugins   int    `json:"plugins"`
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID, siteTitle, stage string, plugins int) (*BuildStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"site_title": siteTitle,
		"stage":      stage,
		"plugins":    plugins,
	})
	if err != nil {
		return nil, swerrors.StorageError("marshal build.started", err).
			WithContext("build_id", buildID)
	}

	return &BuildStarted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      EventBuildStarted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		SiteTitle: siteTitle,
		Stage:     stage,
		Plugins:   plugins,
	}, nil
}

// StageCompleted is emitted after every build stage, successful or not.
type StageCompleted struct {
	BaseEvent
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ms"`
	Error    string        `json:"error,omitempty"`
}

// NewStageCompleted creates a StageCompleted event.
func NewStageCompleted(buildID, stage string, duration time.Duration, stageErr error) (*StageCompleted, error) {
	errMsg := ""
	if stageErr != nil {
		errMsg = stageErr.Error()
	}
	payload, err := json.Marshal(map[string]any{
		"stage":       stage,
		"duration_ms": duration.Milliseconds(),
		"error":       errMsg,
	})
	if err != nil {
		return nil, swerrors.StorageError("marshal stage.completed", err).
			WithContext("build_id", buildID).
			WithContext("stage", stage)
	}

	return &StageCompleted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      EventStageCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Stage:    stage,
		Duration: duration,
		Error:    errMsg,
	}, nil
}

// PluginLoaded is emitted once per plugin after registration succeeds.
type PluginLoaded struct {
	BaseEvent
	Plugin  string `json:"plugin"`
	Version string `json:"version"`
	Hooks   int    `json:"hooks"`
}

// NewPluginLoaded creates a PluginLoaded event.
func NewPluginLoaded(buildID, plugin, version string, hooks int) (*PluginLoaded, error) {
	payload, err := json.Marshal(map[string]any{
		"plugin":  plugin,
		"version": version,
		"hooks":   hooks,
	})
	if err != nil {
		return nil, swerrors.StorageError("marshal plugin.loaded", err).
			WithContext("build_id", buildID).
			WithContext("plugin", plugin)
	}

	return &PluginLoaded{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      EventPluginLoaded,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Plugin:  plugin,
		Version: version,
		Hooks:   hooks,
	}, nil
}

// BuildReportData contains the key metrics of a finished build, stored with
// the build.finished event and replayed by the history projection.
type BuildReportData struct {
	Outcome        string           `json:"outcome"`
	Summary        string           `json:"summary"`
	Pages          int              `json:"pages"`
	Nodes          int              `json:"nodes"`
	Plugins        int              `json:"plugins"`
	StageDurations map[string]int64 `json:"stage_durations_ms"` // stage -> milliseconds
	Errors         int              `json:"errors"`
	Warnings       int              `json:"warnings"`
}

// BuildFinished is emitted when a build run completes, whatever the outcome.
type BuildFinished struct {
	BaseEvent
	Report BuildReportData `json:"report"`
}

// NewBuildFinished creates a BuildFinished event.
func NewBuildFinished(buildID string, report BuildReportData) (*BuildFinished, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, swerrors.StorageError("marshal build.finished", err).
			WithContext("build_id", buildID)
	}

	return &BuildFinished{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      EventBuildFinished,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Report: report,
	}, nil
}

// Record appends a typed event to the store.
func Record(ctx context.Context, store Store, e Event) error {
	if store == nil || e == nil {
		return nil
	}
	return store.Append(ctx, e.BuildID(), e.Type(), e.Payload(), e.Metadata())
}
