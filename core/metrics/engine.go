package metrics

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/swarmware/swarmware/core/store"
	models "github.com/swarmware/swarmware/dbmodels"
	"github.com/swarmware/swarmware/pkg/xlog"
)

// Stats is the dashboard headline payload.
type Stats struct {
	ActiveSwarms   int64 `json:"activeSwarms"`
	TotalAgents    int64 `json:"totalAgents"`
	SecurityAlerts int64 `json:"securityAlerts"`
	ApiCalls       int64 `json:"apiCalls"`
}

// Aggregates provides the live per-user counts.
type Aggregates interface {
	CountActiveSwarms(ctx context.Context, userID string) (int64, error)
	CountAgents(ctx context.Context, userID string) (int64, error)
}

// Clock abstracts wall time so the growth windows are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Engine blends live aggregates with the synthetic activity counters kept in
// app_state. ActiveSwarms and TotalAgents are always computed fresh; ApiCalls
// grows by activeSwarms×uniform[2,8] per elapsed minute and never decreases
// within a session; SecurityAlerts is redrawn from uniform[1,5] at most every
// thirty minutes. The two counters have different update disciplines on
// purpose and must not be unified.
type Engine struct {
	agg   Aggregates
	state store.AppStateStore
	clock Clock
	intn  func(n int) int
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRand replaces the random source; intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(e *Engine) {
		e.intn = intn
	}
}

func NewEngine(agg Aggregates, state store.AppStateStore, opts ...Option) *Engine {
	e := &Engine{
		agg:   agg,
		state: state,
		clock: systemClock{},
		intn:  rand.Intn,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DashboardStats computes the four headline numbers. Failures against
// app_state degrade to the seed values; failures reading the live aggregates
// are real errors.
func (e *Engine) DashboardStats(ctx context.Context, userID string) (Stats, error) {
	activeSwarms, err := e.agg.CountActiveSwarms(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	totalAgents, err := e.agg.CountAgents(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	apiCalls, err := e.advanceApiCalls(ctx, activeSwarms)
	if err != nil {
		xlog.Warn("api-call counter unavailable, serving seed", "error", err)
		apiCalls = store.SeedApiCallsTotal
	}

	securityAlerts, err := e.advanceSecurityAlerts(ctx)
	if err != nil {
		xlog.Warn("security-alert counter unavailable, serving seed", "error", err)
		securityAlerts = store.SeedSecurityAlertsCount
	}

	return Stats{
		ActiveSwarms:   activeSwarms,
		TotalAgents:    totalAgents,
		SecurityAlerts: securityAlerts,
		ApiCalls:       apiCalls,
	}, nil
}

// advanceApiCalls applies one growth step per whole elapsed minute. The
// read-decide-write runs inside a single app_state transaction so concurrent
// dashboard loads cannot double-apply a window.
func (e *Engine) advanceApiCalls(ctx context.Context, activeSwarms int64) (int64, error) {
	now := e.clock.Now()
	total := int64(store.SeedApiCallsTotal)
	err := e.state.TransactAppState(ctx, func(tx store.AppStateTx) error {
		state, err := tx.Get(store.KeyApiCallsTotal)
		if err != nil {
			return err
		}
		total = counterValue(state, store.SeedApiCallsTotal)

		lastState, err := tx.Get(store.KeyLastApiCallUpdate)
		if err != nil {
			return err
		}
		if lastState == nil {
			// First run: start the growth window now.
			return tx.Set(store.KeyLastApiCallUpdate, now.UTC().Format(time.RFC3339))
		}
		lastUpdate := timestampValue(lastState, now)

		minutesPassed := int64(now.Sub(lastUpdate) / time.Minute)
		if minutesPassed < 1 {
			return nil
		}

		activeSwarmCount := activeSwarms
		if activeSwarmCount < 1 {
			activeSwarmCount = 1
		}
		growthPerMinute := activeSwarmCount * int64(e.intn(7)+2) // 2-8 calls per minute per active swarm
		total += growthPerMinute * minutesPassed

		if err := tx.Set(store.KeyApiCallsTotal, total); err != nil {
			return err
		}
		return tx.Set(store.KeyLastApiCallUpdate, now.UTC().Format(time.RFC3339))
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// advanceSecurityAlerts redraws the simulated alert count once the
// thirty-minute window has elapsed; otherwise the persisted value is returned
// unchanged.
func (e *Engine) advanceSecurityAlerts(ctx context.Context) (int64, error) {
	now := e.clock.Now()
	count := int64(store.SeedSecurityAlertsCount)
	err := e.state.TransactAppState(ctx, func(tx store.AppStateTx) error {
		state, err := tx.Get(store.KeySecurityAlertsCount)
		if err != nil {
			return err
		}
		count = counterValue(state, store.SeedSecurityAlertsCount)

		lastState, err := tx.Get(store.KeyLastSecurityUpdate)
		if err != nil {
			return err
		}
		if lastState == nil {
			// First run: start the redraw window now.
			return tx.Set(store.KeyLastSecurityUpdate, now.UTC().Format(time.RFC3339))
		}
		lastUpdate := timestampValue(lastState, now)

		if now.Sub(lastUpdate) < 30*time.Minute {
			return nil
		}

		count = int64(e.intn(5) + 1)
		if err := tx.Set(store.KeySecurityAlertsCount, count); err != nil {
			return err
		}
		return tx.Set(store.KeyLastSecurityUpdate, now.UTC().Format(time.RFC3339))
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func counterValue(state *models.AppState, seed int64) int64 {
	if state == nil {
		return seed
	}
	var value int64
	if err := json.Unmarshal(state.Value, &value); err != nil {
		return seed
	}
	return value
}

func timestampValue(state *models.AppState, fallback time.Time) time.Time {
	if state == nil {
		return fallback
	}
	var raw string
	if err := json.Unmarshal(state.Value, &raw); err != nil {
		return fallback
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return ts
}
