package eventstore

import (
	"bytes"
	"testing"
	"time"
)

const testBuildID = "build-test-1"

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	payload := []byte(`{"plugin":"source-filesystem"}`)
	metadata := map[string]string{"stage": "develop"}

	err = store.Append(ctx, testBuildID, EventPluginLoaded, payload, metadata)
	if err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	events, err := store.GetByBuildID(ctx, testBuildID)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.BuildID() != testBuildID {
		t.Errorf("expected build_id %s, got %s", testBuildID, event.BuildID())
	}
	if event.Type() != EventPluginLoaded {
		t.Errorf("expected event_type %s, got %s", EventPluginLoaded, event.Type())
	}
	if !bytes.Equal(event.Payload(), payload) {
		t.Errorf("expected payload %s, got %s", payload, event.Payload())
	}
	if event.Metadata()["stage"] != "develop" {
		t.Errorf("expected metadata stage=develop, got %v", event.Metadata())
	}
}

func TestEventStoreGetRange(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	now := time.Now()

	for range 3 {
		if appendErr := store.Append(ctx, "build-1", EventActionApplied, []byte("{}"), nil); appendErr != nil {
			t.Fatalf("failed to append event: %v", appendErr)
		}
	}

	start := now.Add(-1 * time.Hour)
	end := now.Add(1 * time.Hour)
	events, err := store.GetRange(ctx, start, end)
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}

	if len(events) != 3 {
		t.Errorf("expected 3 events, got %d", len(events))
	}
}

func TestEventStoreMultipleBuilds(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()

	_ = store.Append(ctx, "build-1", EventBuildStarted, []byte("{}"), nil)
	_ = store.Append(ctx, "build-2", EventBuildStarted, []byte("{}"), nil)
	_ = store.Append(ctx, "build-1", EventBuildFinished, []byte("{}"), nil)

	events, err := store.GetByBuildID(ctx, "build-1")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events for build-1, got %d", len(events))
	}

	events, err = store.GetByBuildID(ctx, "build-2")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event for build-2, got %d", len(events))
	}
}

func TestEventStoreRecentBuildIDs(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()

	_ = store.Append(ctx, "build-a", EventBuildStarted, []byte("{}"), nil)
	_ = store.Append(ctx, "build-b", EventBuildStarted, []byte("{}"), nil)
	_ = store.Append(ctx, "build-a", EventBuildFinished, []byte("{}"), nil)

	ids, err := store.RecentBuildIDs(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list builds: %v", err)
	}

	// build-a has the most recent event, so it sorts first.
	if len(ids) != 2 || ids[0] != "build-a" || ids[1] != "build-b" {
		t.Errorf("unexpected build ids: %v", ids)
	}
}

func TestEventStorePersistsToFile(t *testing.T) {
	path := t.TempDir() + "/events.db"

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Append(t.Context(), "build-1", EventBuildStarted, []byte("{}"), nil); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByBuildID(t.Context(), "build-1")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event after reopen, got %d", len(events))
	}
}
