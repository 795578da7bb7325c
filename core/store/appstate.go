package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "github.com/swarmware/swarmware/dbmodels"
)

// Well-known app_state keys driving the simulated metrics.
const (
	KeyApiCallsBase        = "apiCallsBase"
	KeyApiCallsTotal       = "apiCallsTotal"
	KeyLastApiCallUpdate   = "lastApiCallUpdate"
	KeySecurityAlertsCount = "securityAlertsCount"
	KeyLastSecurityUpdate  = "lastSecurityUpdate"
	KeyDeploymentCount     = "deploymentCount"
	KeySystemStartTime     = "systemStartTime"
)

// Seed values used when a key is missing or unreadable.
const (
	SeedApiCallsTotal       = 1400
	SeedSecurityAlertsCount = 3
)

// AppStateStore is generic persisted key/value state with upsert semantics.
type AppStateStore interface {
	GetAppState(ctx context.Context, key string) (*models.AppState, error)
	SetAppState(ctx context.Context, key string, value any) error
	IncrementAppState(ctx context.Context, key string, delta int64) (int64, error)
	InitializeAppState(ctx context.Context) error

	// TransactAppState runs fn against a view of the app_state table bound to
	// a single transaction. On Postgres, reads inside the transaction take row
	// locks so a read-decide-write sequence cannot lose updates to a
	// concurrent caller.
	TransactAppState(ctx context.Context, fn func(tx AppStateTx) error) error
}

// AppStateTx is the transactional slice of AppStateStore.
type AppStateTx interface {
	Get(key string) (*models.AppState, error)
	Set(key string, value any) error
}

func (s *DatabaseStorage) GetAppState(ctx context.Context, key string) (*models.AppState, error) {
	return getAppState(s.db.WithContext(ctx), key, false)
}

func (s *DatabaseStorage) SetAppState(ctx context.Context, key string, value any) error {
	return setAppState(s.db.WithContext(ctx), key, value)
}

func (s *DatabaseStorage) IncrementAppState(ctx context.Context, key string, delta int64) (int64, error) {
	var result int64
	err := s.TransactAppState(ctx, func(tx AppStateTx) error {
		state, err := tx.Get(key)
		if err != nil {
			return err
		}
		var current int64
		if state != nil {
			if err := json.Unmarshal(state.Value, &current); err != nil {
				return fmt.Errorf("app_state %q is not a counter: %w", key, err)
			}
		}
		result = current + delta
		return tx.Set(key, result)
	})
	return result, err
}

// InitializeAppState seeds the well-known keys, inserting each only when
// absent. Safe to call on every process start.
func (s *DatabaseStorage) InitializeAppState(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	defaults := map[string]any{
		KeyApiCallsBase:        SeedApiCallsTotal,
		KeyApiCallsTotal:       SeedApiCallsTotal,
		KeyLastApiCallUpdate:   now,
		KeySecurityAlertsCount: SeedSecurityAlertsCount,
		KeyLastSecurityUpdate:  now,
		KeyDeploymentCount:     0,
		KeySystemStartTime:     now,
	}
	for key, value := range defaults {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		state := models.AppState{Key: key, Value: raw}
		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&state).Error
		if err != nil {
			return fmt.Errorf("initialize app_state %q: %w", key, err)
		}
	}
	return nil
}

func (s *DatabaseStorage) TransactAppState(ctx context.Context, fn func(tx AppStateTx) error) error {
	locking := s.db.Dialector.Name() == "postgres"
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&appStateTx{db: tx, locking: locking})
	})
}

type appStateTx struct {
	db      *gorm.DB
	locking bool
}

func (t *appStateTx) Get(key string) (*models.AppState, error) {
	return getAppState(t.db, key, t.locking)
}

func (t *appStateTx) Set(key string, value any) error {
	return setAppState(t.db, key, value)
}

func getAppState(db *gorm.DB, key string, locked bool) (*models.AppState, error) {
	var state models.AppState
	q := db
	if locked {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(&state, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func setAppState(db *gorm.DB, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode app_state %q: %w", key, err)
	}
	state := models.AppState{Key: key, Value: raw, UpdatedAt: time.Now()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&state).Error
}
