package main

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "movbot.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertQuestionLogAndStats(t *testing.T) {
	store := openTestStore(t)

	entries := []struct {
		intent     string
		confidence float64
		clarify    bool
	}{
		{IntentCountMovementsByDate, 0.9, false},
		{IntentCountMovementsByDate, 0.7, true},
		{IntentPatternsInQuarter, 0.8, false},
	}
	for _, e := range entries {
		if err := store.InsertQuestionLog("pregunta", e.intent, e.confidence, e.clarify, 120*time.Millisecond); err != nil {
			t.Fatalf("InsertQuestionLog: %v", err)
		}
	}

	stats, err := store.IntentStats()
	if err != nil {
		t.Fatalf("IntentStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(stats))
	}
	if stats[0].Intent != IntentCountMovementsByDate || stats[0].Questions != 2 {
		t.Fatalf("expected most-asked first, got %+v", stats[0])
	}
	if stats[0].Clarifications != 1 {
		t.Fatalf("expected 1 clarification, got %d", stats[0].Clarifications)
	}
	if stats[0].AvgConfidence < 0.79 || stats[0].AvgConfidence > 0.81 {
		t.Fatalf("expected avg confidence 0.8, got %f", stats[0].AvgConfidence)
	}
}

func TestIntentStatsEmpty(t *testing.T) {
	store := openTestStore(t)
	stats, err := store.IntentStats()
	if err != nil {
		t.Fatalf("IntentStats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected no stats, got %v", stats)
	}
}
