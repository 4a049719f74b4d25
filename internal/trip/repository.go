package trip

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// StoredTrip is a persisted, fully planned trip.
type StoredTrip struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Context   *TravelContext `json:"context"`
	CreatedAt time.Time      `json:"created_at"`
}

// Repository is a database-backed store for completed trips. The full
// TravelContext is stored as a JSON blob; relational columns exist only for
// lookup.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts a planned trip.
func (r *Repository) Save(ctx context.Context, id, userID string, tc *TravelContext) error {
	data, err := json.Marshal(tc)
	if err != nil {
		return fmt.Errorf("failed to marshal travel context: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO trips (id, user_id, data, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

// Get retrieves a trip by ID, returning nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id string) (*StoredTrip, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, data, created_at FROM trips WHERE id = ?`, id)

	var stored StoredTrip
	var data string
	if err := row.Scan(&stored.ID, &stored.UserID, &data, &stored.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip %s: %w", id, err)
	}

	var tc TravelContext
	if err := json.Unmarshal([]byte(data), &tc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trip %s: %w", id, err)
	}
	stored.Context = &tc
	return &stored, nil
}

// ListRecentByUserID retrieves the N most recent trips for a user.
func (r *Repository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredTrip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, data, created_at FROM trips
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips for user %s: %w", userID, err)
	}
	defer rows.Close()

	var trips []StoredTrip
	for rows.Next() {
		var stored StoredTrip
		var data string
		if err := rows.Scan(&stored.ID, &stored.UserID, &data, &stored.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip row: %w", err)
		}
		var tc TravelContext
		if err := json.Unmarshal([]byte(data), &tc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trip %s: %w", stored.ID, err)
		}
		stored.Context = &tc
		trips = append(trips, stored)
	}
	return trips, rows.Err()
}
