package planner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ai-trip-planner/internal/database"
	"ai-trip-planner/internal/trip"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newTestDB(t).SQL)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := &Session{
		ID:     "sess-1",
		UserID: "user-1",
		Phase:  PhaseGeneratingPlan,
		Context: &trip.TravelContext{
			Request: trip.Request{Destination: "Bangkok", DurationDays: 3, Travelers: 2},
		},
		RevisionCount: 1,
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	t.Run("Get-Missing", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Failed to look up missing session: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil for a missing session, got %+v", got)
		}
	})

	t.Run("Save-And-Get", func(t *testing.T) {
		if err := repo.SaveSession(ctx, session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		got, err := repo.GetSession(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if got == nil {
			t.Fatal("Expected the saved session, got nil")
		}
		if got.UserID != "user-1" {
			t.Errorf("UserID %q, want user-1", got.UserID)
		}
		if got.Phase != PhaseGeneratingPlan {
			t.Errorf("Phase %q, want generating_plan", got.Phase)
		}
		if got.RevisionCount != 1 {
			t.Errorf("RevisionCount %d, want 1", got.RevisionCount)
		}
		if got.Context == nil || got.Context.Request.Destination != "Bangkok" {
			t.Errorf("Context %+v, want the Bangkok request", got.Context)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt %v, want %v", got.CreatedAt, created)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		session.Phase = PhaseCompleted
		session.RevisionCount = 2
		session.UpdatedAt = created.Add(time.Hour)
		if err := repo.SaveSession(ctx, session); err != nil {
			t.Fatalf("Failed to update session: %v", err)
		}

		got, err := repo.GetSession(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Failed to reload session: %v", err)
		}
		if got.Phase != PhaseCompleted {
			t.Errorf("Phase %q, want completed after upsert", got.Phase)
		}
		if got.RevisionCount != 2 {
			t.Errorf("RevisionCount %d, want 2 after upsert", got.RevisionCount)
		}
		if !got.UpdatedAt.Equal(created.Add(time.Hour)) {
			t.Errorf("UpdatedAt %v, want the new timestamp", got.UpdatedAt)
		}
	})

	t.Run("List-By-User", func(t *testing.T) {
		second := &Session{
			ID:        "sess-2",
			UserID:    "user-1",
			Phase:     PhaseError,
			CreatedAt: created.Add(2 * time.Hour),
			UpdatedAt: created.Add(2 * time.Hour),
		}
		other := &Session{
			ID:        "sess-3",
			UserID:    "user-2",
			Phase:     PhaseCompleted,
			CreatedAt: created.Add(3 * time.Hour),
			UpdatedAt: created.Add(3 * time.Hour),
		}
		for _, s := range []*Session{second, other} {
			if err := repo.SaveSession(ctx, s); err != nil {
				t.Fatalf("Failed to save session %s: %v", s.ID, err)
			}
		}

		sessions, err := repo.ListSessionsByUser(ctx, "user-1", 10)
		if err != nil {
			t.Fatalf("Failed to list sessions: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("Got %d sessions, want the user's 2", len(sessions))
		}
		if sessions[0].ID != "sess-2" || sessions[1].ID != "sess-1" {
			t.Errorf("Order [%s %s], want newest first [sess-2 sess-1]", sessions[0].ID, sessions[1].ID)
		}

		limited, err := repo.ListSessionsByUser(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("Failed to list limited sessions: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("Got %d sessions, want the limit of 1", len(limited))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.DeleteSession(ctx, "sess-1"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		got, err := repo.GetSession(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Failed to look up deleted session: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil after delete, got %+v", got)
		}
	})
}
