package trip

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ai-trip-planner/internal/database"
)

func TestTripRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewRepository(db.SQL)

	tc := &TravelContext{
		Request:  Request{Destination: "Bangkok", DurationDays: 3, Travelers: 2},
		Location: &Location{Name: "Bangkok"},
	}

	t.Run("Get-Missing", func(t *testing.T) {
		got, err := repo.Get(ctx, "trip-1")
		if err != nil {
			t.Fatalf("Failed to look up missing trip: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil for a missing trip, got %+v", got)
		}
	})

	t.Run("Save-And-Get", func(t *testing.T) {
		if err := repo.Save(ctx, "trip-1", "user-1", tc); err != nil {
			t.Fatalf("Failed to save trip: %v", err)
		}

		got, err := repo.Get(ctx, "trip-1")
		if err != nil {
			t.Fatalf("Failed to load trip: %v", err)
		}
		if got == nil {
			t.Fatal("Expected the saved trip, got nil")
		}
		if got.UserID != "user-1" {
			t.Errorf("UserID %q, want user-1", got.UserID)
		}
		if got.Context == nil || got.Context.Request.Destination != "Bangkok" {
			t.Errorf("Context %+v, want the Bangkok request", got.Context)
		}
		if got.Context.Request.DurationDays != 3 || got.Context.Request.Travelers != 2 {
			t.Errorf("Request %+v did not round-trip", got.Context.Request)
		}
		if got.CreatedAt.IsZero() {
			t.Error("CreatedAt should be set on save")
		}
	})

	t.Run("List-Recent", func(t *testing.T) {
		// Distinct created_at values so the ordering assertion holds.
		time.Sleep(20 * time.Millisecond)
		if err := repo.Save(ctx, "trip-2", "user-1", tc); err != nil {
			t.Fatalf("Failed to save second trip: %v", err)
		}
		if err := repo.Save(ctx, "trip-3", "user-2", tc); err != nil {
			t.Fatalf("Failed to save other user's trip: %v", err)
		}

		trips, err := repo.ListRecentByUserID(ctx, "user-1", 5)
		if err != nil {
			t.Fatalf("Failed to list trips: %v", err)
		}
		if len(trips) != 2 {
			t.Fatalf("Got %d trips, want the user's 2", len(trips))
		}
		if trips[0].ID != "trip-2" || trips[1].ID != "trip-1" {
			t.Errorf("Order [%s %s], want newest first [trip-2 trip-1]", trips[0].ID, trips[1].ID)
		}

		limited, err := repo.ListRecentByUserID(ctx, "user-1", 1)
		if err != nil {
			t.Fatalf("Failed to list limited trips: %v", err)
		}
		if len(limited) != 1 || limited[0].ID != "trip-2" {
			t.Errorf("Limited list %+v, want just trip-2", limited)
		}
	})
}
