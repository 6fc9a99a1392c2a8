package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
)

// TestMongoStore runs against a live server when MOODBRAIN_TEST_MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MOODBRAIN_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MOODBRAIN_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	collection := "feedback_test_" + uuid.NewString()[:8]
	store := NewMongoStore(uri, "moodbrain_test", collection, nil)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer func() {
		store.collection.Drop(ctx)
		store.Close()
	}()

	first := NewFeedbackRecord("first", "sad", "happy", "u1")
	second := NewFeedbackRecord("second", "calm", "", "u2")
	for _, rec := range []FeedbackRecord{first, second} {
		if err := store.AppendFeedback(ctx, rec); err != nil {
			t.Fatalf("AppendFeedback failed: %v", err)
		}
	}

	pending, err := store.PendingFeedback(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("unexpected pending records: %+v", pending)
	}
	if pending[1].ModelSuggestion != "" {
		t.Errorf("expected absent suggestion, got %q", pending[1].ModelSuggestion)
	}

	deleted, err := store.DeleteFeedback(ctx, []string{first.ID, "missing"})
	if err != nil || deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d, %v", deleted, err)
	}
	if n, _ := store.CountFeedback(ctx); n != 1 {
		t.Errorf("expected 1 remaining, got %d", n)
	}
}

func TestMongoStore_NotInitialized(t *testing.T) {
	store := NewMongoStore("mongodb://localhost:27017", "", "", nil)

	if store.databaseName != DefaultMongoDatabase || store.collectionName != DefaultMongoCollection {
		t.Errorf("expected default names, got %s/%s", store.databaseName, store.collectionName)
	}
	if _, err := store.PendingFeedback(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close without Init failed: %v", err)
	}
}
