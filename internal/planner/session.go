package planner

import (
	"time"

	"ai-trip-planner/internal/trip"

	"github.com/google/uuid"
)

// Phase is a planning session's position in the workflow state machine.
type Phase string

const (
	PhaseGatheringInfo    Phase = "gathering_info"
	PhaseGeneratingPlan   Phase = "generating_plan"
	PhaseReviewing        Phase = "reviewing"
	PhaseRevising         Phase = "revising"
	PhaseEstimatingBudget Phase = "estimating_budget"
	PhaseFormattingOutput Phase = "formatting_output"
	PhaseCompleted        Phase = "completed"
	PhaseError            Phase = "error"
)

// Session tracks one planning request from creation to completion. It is
// mutated only by the orchestrator as phases complete, never by the stages
// themselves.
type Session struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Phase         Phase               `json:"phase"`
	Context       *trip.TravelContext `json:"context,omitempty"`
	RevisionCount int                 `json:"revision_count"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newSession(userID string, req trip.Request, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Phase:     PhaseGatheringInfo,
		Context:   &trip.TravelContext{Request: req},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Status is the externally visible snapshot of a session.
type Status struct {
	SessionID     string    `json:"session_id"`
	Phase         Phase     `json:"phase"`
	RevisionCount int       `json:"revision_count"`
	HasContext    bool      `json:"has_context"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Status snapshots the session for external callers.
func (s *Session) Status() Status {
	return Status{
		SessionID:     s.ID,
		Phase:         s.Phase,
		RevisionCount: s.RevisionCount,
		HasContext:    s.Context != nil,
		ErrorMessage:  s.ErrorMessage,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// Result is what a completed session hands to the caller.
type Result struct {
	SessionID string                `json:"session_id"`
	Context   *trip.TravelContext   `json:"context"`
	Critiques []trip.CritiqueResult `json:"critiques,omitempty"`

	// Warning is set when the revision loop exhausted its budget and the
	// best candidate was force-accepted.
	Warning           string       `json:"warning,omitempty"`
	OutstandingIssues []trip.Issue `json:"outstanding_issues,omitempty"`
	FormattedOutput   string       `json:"formatted_output,omitempty"`
}
