package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ai-trip-planner/internal/discover"
	"ai-trip-planner/internal/geo"
	"ai-trip-planner/internal/trip"
)

const defaultMaxRevisionCycles = 3

const fallbackRevisionFeedback = "Please improve the itinerary quality"

// Discoverer fills the candidate pools for a resolved destination.
type Discoverer interface {
	Discover(ctx context.Context, loc trip.Location, req trip.Request, weather trip.WeatherData) (discover.Results, error)
}

// OutputFormatter renders a completed context for the user-facing boundary.
type OutputFormatter interface {
	Format(ctx context.Context, result *Result) (string, error)
}

// SessionStore persists session snapshots across phase transitions. The
// orchestrator tolerates a nil store.
type SessionStore interface {
	SaveSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Orchestrator drives a planning session through the workflow:
// gathering_info -> generating_plan -> (reviewing <-> revising) ->
// estimating_budget -> formatting_output -> completed, with error reachable
// from any phase. Sessions are independent; each owns its context and may be
// advanced concurrently with others.
type Orchestrator struct {
	resolver  geo.Resolver
	weather   geo.WeatherProvider
	discovery Discoverer
	scheduler *Scheduler
	critic    *Critic
	budget    *BudgetEstimator
	formatter OutputFormatter
	store     SessionStore

	maxRevisionCycles int
	now               func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// OrchestratorOption configures optional orchestrator behavior.
type OrchestratorOption func(*Orchestrator)

// WithMaxRevisionCycles bounds the critique/revise loop.
func WithMaxRevisionCycles(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRevisionCycles = n
		}
	}
}

// WithSessionStore persists phase transitions.
func WithSessionStore(store SessionStore) OrchestratorOption {
	return func(o *Orchestrator) { o.store = store }
}

func NewOrchestrator(
	resolver geo.Resolver,
	weather geo.WeatherProvider,
	discovery Discoverer,
	scheduler *Scheduler,
	critic *Critic,
	budget *BudgetEstimator,
	formatter OutputFormatter,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		resolver:          resolver,
		weather:           weather,
		discovery:         discovery,
		scheduler:         scheduler,
		critic:            critic,
		budget:            budget,
		formatter:         formatter,
		maxRevisionCycles: defaultMaxRevisionCycles,
		now:               time.Now,
		sessions:          make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan runs a complete planning session for the request and returns the
// enriched result. Stage failures (other than failed critiques, which drive
// the bounded revision loop) are terminal: the session moves to the error
// phase and the cause is returned to the caller.
func (o *Orchestrator) Plan(ctx context.Context, userID string, req trip.Request) (*Result, error) {
	session := newSession(userID, req, o.now())
	o.mu.Lock()
	o.sessions[session.ID] = session
	o.mu.Unlock()
	o.persist(ctx, session)

	slog.Info("planning session started",
		"session_id", session.ID,
		"user_id", userID,
		"destination", req.Destination,
		"days", req.DurationDays)

	result, err := o.run(ctx, session)
	if err != nil {
		o.fail(ctx, session, err)
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, session *Session) (*Result, error) {
	// Phase: gathering_info.
	tc, err := o.gatherInfo(ctx, session.Context.Clone())
	if err != nil {
		return nil, fmt.Errorf("information gathering failed: %w", err)
	}
	o.advance(ctx, session, tc, PhaseGeneratingPlan)

	// Phase: generating_plan.
	tc = session.Context.Clone()
	itinerary, err := o.scheduler.BuildItinerary(ctx, tc)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}
	tc.Itinerary = itinerary
	o.advance(ctx, session, tc, PhaseReviewing)

	// Phase: reviewing <-> revising, bounded.
	result := &Result{SessionID: session.ID}
	if err := o.reviewLoop(ctx, session, result); err != nil {
		return nil, err
	}

	// Phase: estimating_budget.
	tc = session.Context.Clone()
	breakdown := o.budget.Estimate(tc.Itinerary, tc.Destination, tc.Travelers, tc.SpendTier)
	insights := o.budget.Insights(breakdown, tc.Destination, tc.DurationDays)
	tc.Budget = &breakdown
	tc.Insights = &insights
	o.advance(ctx, session, tc, PhaseFormattingOutput)

	// Phase: formatting_output.
	result.Context = session.Context.Clone()
	if o.formatter != nil {
		rendered, err := o.formatter.Format(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("output formatting failed: %w", err)
		}
		result.FormattedOutput = rendered
	}
	o.advance(ctx, session, session.Context, PhaseCompleted)

	slog.Info("planning session completed",
		"session_id", session.ID,
		"revisions", session.RevisionCount,
		"warning", result.Warning != "")
	return result, nil
}

// gatherInfo resolves the destination, fetches weather, and fills the
// candidate pools. A weather failure degrades to an empty forecast; location
// and discovery failures are terminal.
func (o *Orchestrator) gatherInfo(ctx context.Context, tc *trip.TravelContext) (*trip.TravelContext, error) {
	if tc.Destination == "" {
		return nil, fmt.Errorf("destination is required")
	}

	loc, err := o.resolver.Resolve(ctx, tc.Destination)
	if err != nil {
		return nil, fmt.Errorf("could not resolve destination %q: %w", tc.Destination, err)
	}
	tc.Location = &loc

	weather, err := o.weather.Forecast(ctx, loc, tc.StartDate, tc.DurationDays)
	if err != nil {
		slog.Warn("weather lookup failed, proceeding without forecast",
			"destination", tc.Destination, "error", err)
		weather = trip.WeatherData{}
	}
	tc.Weather = weather

	pools, err := o.discovery.Discover(ctx, loc, tc.Request, weather)
	if err != nil {
		return nil, fmt.Errorf("venue discovery failed: %w", err)
	}
	tc.POIs = pools.POIs
	tc.Activities = pools.Activities
	tc.Restaurants = pools.Restaurants
	return tc, nil
}

// reviewLoop critiques every day and re-enters generation with a feedback
// digest until all days are approved or the cycle budget runs out, at which
// point the best candidate seen so far is force-accepted with a warning.
func (o *Orchestrator) reviewLoop(ctx context.Context, session *Session, result *Result) error {
	profile := session.Context.Profile()

	var (
		bestItinerary []trip.DayPlan
		bestCritiques []trip.CritiqueResult
		bestScore     = -1.0
	)

	for {
		tc := session.Context.Clone()
		critiques := make([]trip.CritiqueResult, len(tc.Itinerary))
		allApproved := true
		scoreSum := 0.0

		for i := range tc.Itinerary {
			critique := o.critic.Critique(tc.Itinerary[i], profile)
			critiques[i] = critique
			scoreSum += critique.Score
			if critique.Approved {
				tc.Itinerary[i].Status = trip.DayStatusApproved
			} else {
				tc.Itinerary[i].Status = trip.DayStatusNeedsRevision
				allApproved = false
			}
		}

		meanScore := 0.0
		if len(critiques) > 0 {
			meanScore = scoreSum / float64(len(critiques))
		}
		if meanScore > bestScore {
			bestScore = meanScore
			bestItinerary = trip.CloneItinerary(tc.Itinerary)
			bestCritiques = append([]trip.CritiqueResult(nil), critiques...)
		}

		if allApproved {
			result.Critiques = critiques
			o.advance(ctx, session, tc, PhaseEstimatingBudget)
			return nil
		}

		if session.RevisionCount >= o.maxRevisionCycles {
			// Force-accept the best candidate and move on with a warning.
			accepted := tc
			accepted.Itinerary = bestItinerary
			for i := range accepted.Itinerary {
				accepted.Itinerary[i].Status = trip.DayStatusApproved
			}
			result.Critiques = bestCritiques
			result.Warning = fmt.Sprintf("Maximum revisions (%d) reached, presenting best candidate", o.maxRevisionCycles)
			for _, critique := range bestCritiques {
				if !critique.Approved {
					result.OutstandingIssues = append(result.OutstandingIssues, critique.Issues...)
				}
			}
			slog.Warn("revision budget exhausted, force-accepting best candidate",
				"session_id", session.ID, "best_score", bestScore)
			o.advance(ctx, session, accepted, PhaseEstimatingBudget)
			return nil
		}

		feedback := revisionFeedback(critiques)
		slog.Info("itinerary rejected, revising",
			"session_id", session.ID,
			"cycle", session.RevisionCount+1,
			"mean_score", meanScore)

		o.advance(ctx, session, tc, PhaseRevising)
		revised, err := o.scheduler.Revise(ctx, tc, feedback)
		if err != nil {
			return fmt.Errorf("revision failed: %w", err)
		}

		next := session.Context.Clone()
		next.Itinerary = revised
		session.RevisionCount++
		o.advance(ctx, session, next, PhaseReviewing)
	}
}

// revisionFeedback digests critique issues into the free-text channel the
// scheduler sees: high-severity descriptions prefixed "Critical:", medium
// ones prefixed "Issue:".
func revisionFeedback(critiques []trip.CritiqueResult) string {
	var parts []string
	for _, critique := range critiques {
		if critique.Approved {
			continue
		}
		for _, issue := range critique.Issues {
			switch issue.Severity {
			case trip.SeverityHigh:
				parts = append(parts, "Critical: "+issue.Description)
			case trip.SeverityMedium:
				parts = append(parts, "Issue: "+issue.Description)
			}
		}
	}
	if len(parts) == 0 {
		return fallbackRevisionFeedback
	}
	return strings.Join(parts, "; ")
}

// SessionStatus reports a session's current phase and timestamps. Sessions
// not held in memory (a restarted process) are looked up in the store.
func (o *Orchestrator) SessionStatus(ctx context.Context, sessionID string) (Status, bool) {
	o.mu.Lock()
	session, ok := o.sessions[sessionID]
	o.mu.Unlock()
	if ok {
		return session.Status(), true
	}
	if o.store == nil {
		return Status{}, false
	}
	stored, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load persisted session", "session_id", sessionID, "error", err)
		return Status{}, false
	}
	if stored == nil {
		return Status{}, false
	}
	return stored.Status(), true
}

// CancelSession discards a session. Cancellation is modeled as deletion: a
// phase already in flight completes, but its session record is gone. The
// persisted snapshot is removed as well, even when the session was only
// known to the store.
func (o *Orchestrator) CancelSession(ctx context.Context, sessionID string) bool {
	o.mu.Lock()
	_, ok := o.sessions[sessionID]
	delete(o.sessions, sessionID)
	o.mu.Unlock()
	if o.store == nil {
		return ok
	}
	if !ok {
		stored, err := o.store.GetSession(ctx, sessionID)
		ok = err == nil && stored != nil
	}
	if ok {
		if err := o.store.DeleteSession(ctx, sessionID); err != nil {
			slog.Warn("failed to delete persisted session", "session_id", sessionID, "error", err)
		}
	}
	return ok
}

// advance merges the stage's enriched context into the session and moves it
// to the next phase.
func (o *Orchestrator) advance(ctx context.Context, session *Session, tc *trip.TravelContext, next Phase) {
	o.mu.Lock()
	session.Context = tc
	session.Phase = next
	session.UpdatedAt = o.now()
	o.mu.Unlock()
	o.persist(ctx, session)
}

func (o *Orchestrator) fail(ctx context.Context, session *Session, cause error) {
	o.mu.Lock()
	session.Phase = PhaseError
	session.ErrorMessage = cause.Error()
	session.UpdatedAt = o.now()
	o.mu.Unlock()
	o.persist(ctx, session)
	slog.Error("planning session failed", "session_id", session.ID, "error", cause)
}

func (o *Orchestrator) persist(ctx context.Context, session *Session) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveSession(ctx, session); err != nil {
		slog.Warn("failed to persist session", "session_id", session.ID, "error", err)
	}
}
