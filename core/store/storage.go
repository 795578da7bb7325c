package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "github.com/swarmware/swarmware/dbmodels"
)

// Storage is the persistence contract for the dashboard. Read paths scoped by
// user only ever return rows the given user owns; deletes of nonexistent ids
// are tolerant no-ops across the board.
type Storage interface {
	// Users
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpsertUser(ctx context.Context, user models.UpsertUser) (*models.User, error)

	// Swarms
	GetSwarms(ctx context.Context, userID string) ([]models.Swarm, error)
	GetSwarm(ctx context.Context, id uuid.UUID) (*models.Swarm, error)
	CreateSwarm(ctx context.Context, swarm models.InsertSwarm) (*models.Swarm, error)
	UpdateSwarm(ctx context.Context, id uuid.UUID, updates models.UpdateSwarm) (*models.Swarm, error)
	DeleteSwarm(ctx context.Context, id uuid.UUID) error

	// Agents
	GetAgents(ctx context.Context, swarmID uuid.UUID) ([]models.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error)
	CreateAgent(ctx context.Context, agent models.InsertAgent) (*models.Agent, error)
	UpdateAgent(ctx context.Context, id uuid.UUID, updates models.UpdateAgent) (*models.Agent, error)
	DeleteAgent(ctx context.Context, id uuid.UUID) error

	// Templates
	GetTemplates(ctx context.Context) ([]models.Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	CreateTemplate(ctx context.Context, template models.InsertTemplate) (*models.Template, error)

	// Security alerts
	GetSecurityAlerts(ctx context.Context, userID string) ([]models.SecurityAlert, error)
	CreateSecurityAlert(ctx context.Context, alert models.InsertSecurityAlert) (*models.SecurityAlert, error)
	ResolveSecurityAlert(ctx context.Context, id uuid.UUID) error

	// Simulation support
	GetActiveSwarms(ctx context.Context) ([]models.Swarm, error)
	TouchAgentHeartbeats(ctx context.Context) (int64, error)

	// Aggregates
	CountActiveSwarms(ctx context.Context, userID string) (int64, error)
	CountAgents(ctx context.Context, userID string) (int64, error)
	CountApiCallsSince(ctx context.Context, window time.Duration) (int64, error)
	LogApiCall(ctx context.Context, call models.InsertApiCall) error

	AppStateStore

	TestConnection(ctx context.Context) error
}

// DatabaseStorage implements Storage on a gorm handle.
type DatabaseStorage struct {
	db *gorm.DB
}

func NewDatabaseStorage(db *gorm.DB) *DatabaseStorage {
	return &DatabaseStorage{db: db}
}

func (s *DatabaseStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DatabaseStorage) UpsertUser(ctx context.Context, payload models.UpsertUser) (*models.User, error) {
	user := models.User{
		ID:              payload.ID,
		Email:           payload.Email,
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		ProfileImageURL: payload.ProfileImageURL,
		Role:            payload.Role,
	}
	if user.Role == "" {
		user.Role = "user"
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "role", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

func (s *DatabaseStorage) GetSwarms(ctx context.Context, userID string) ([]models.Swarm, error) {
	var swarms []models.Swarm
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("updated_at DESC").
		Find(&swarms).Error
	return swarms, err
}

func (s *DatabaseStorage) GetSwarm(ctx context.Context, id uuid.UUID) (*models.Swarm, error) {
	var swarm models.Swarm
	err := s.db.WithContext(ctx).First(&swarm, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &swarm, nil
}

func (s *DatabaseStorage) CreateSwarm(ctx context.Context, payload models.InsertSwarm) (*models.Swarm, error) {
	if err := models.Validate(payload); err != nil {
		return nil, fmt.Errorf("invalid swarm payload: %w", err)
	}
	swarm := models.Swarm{
		Name:           payload.Name,
		Description:    payload.Description,
		Status:         payload.Status,
		TemplateID:     payload.TemplateID,
		OwnerID:        payload.OwnerID,
		AgentCount:     0, // tracks real agent rows only
		MaxAgents:      payload.MaxAgents,
		AutoScaling:    true,
		SecurityConfig: payload.SecurityConfig,
	}
	if swarm.Status == "" {
		swarm.Status = models.SwarmStatusInactive
	}
	if swarm.MaxAgents == 0 {
		swarm.MaxAgents = 100
	}
	if payload.AutoScaling != nil {
		swarm.AutoScaling = *payload.AutoScaling
	}
	if err := s.db.WithContext(ctx).Create(&swarm).Error; err != nil {
		return nil, fmt.Errorf("create swarm: %w", err)
	}
	return &swarm, nil
}

func (s *DatabaseStorage) UpdateSwarm(ctx context.Context, id uuid.UUID, updates models.UpdateSwarm) (*models.Swarm, error) {
	if err := models.Validate(updates); err != nil {
		return nil, fmt.Errorf("invalid swarm update: %w", err)
	}
	fields := map[string]any{"updated_at": time.Now()}
	if updates.Name != nil {
		fields["name"] = *updates.Name
	}
	if updates.Description != nil {
		fields["description"] = *updates.Description
	}
	if updates.Status != nil {
		fields["status"] = *updates.Status
	}
	if updates.MaxAgents != nil {
		fields["max_agents"] = *updates.MaxAgents
	}
	if updates.AutoScaling != nil {
		fields["auto_scaling"] = *updates.AutoScaling
	}
	if updates.SecurityConfig != nil {
		fields["security_config"] = *updates.SecurityConfig
	}
	if err := s.db.WithContext(ctx).Model(&models.Swarm{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update swarm: %w", err)
	}
	return s.GetSwarm(ctx, id)
}

// DeleteSwarm cascades: agents of the swarm are removed and its alerts are
// detached, all in one transaction, so no agent row ever points at a missing
// swarm.
func (s *DatabaseStorage) DeleteSwarm(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("swarm_id = ?", id).Delete(&models.Agent{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SecurityAlert{}).Where("swarm_id = ?", id).
			Update("swarm_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Swarm{}, "id = ?", id).Error
	})
}

func (s *DatabaseStorage) GetAgents(ctx context.Context, swarmID uuid.UUID) ([]models.Agent, error) {
	var agents []models.Agent
	err := s.db.WithContext(ctx).
		Where("swarm_id = ?", swarmID).
		Order("created_at DESC").
		Find(&agents).Error
	return agents, err
}

func (s *DatabaseStorage) GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := s.db.WithContext(ctx).First(&agent, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// CreateAgent inserts the agent and bumps the parent swarm's cached agent
// count in the same transaction.
func (s *DatabaseStorage) CreateAgent(ctx context.Context, payload models.InsertAgent) (*models.Agent, error) {
	if err := models.Validate(payload); err != nil {
		return nil, fmt.Errorf("invalid agent payload: %w", err)
	}
	agent := models.Agent{
		Name:    payload.Name,
		Type:    payload.Type,
		Status:  payload.Status,
		SwarmID: payload.SwarmID,
		Config:  payload.Config,
	}
	if agent.Status == "" {
		agent.Status = models.AgentStatusInitializing
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&agent).Error; err != nil {
			return err
		}
		return tx.Model(&models.Swarm{}).Where("id = ?", agent.SwarmID).Updates(map[string]any{
			"agent_count": gorm.Expr("agent_count + 1"),
			"updated_at":  time.Now(),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &agent, nil
}

func (s *DatabaseStorage) UpdateAgent(ctx context.Context, id uuid.UUID, updates models.UpdateAgent) (*models.Agent, error) {
	if err := models.Validate(updates); err != nil {
		return nil, fmt.Errorf("invalid agent update: %w", err)
	}
	fields := map[string]any{"updated_at": time.Now()}
	if updates.Name != nil {
		fields["name"] = *updates.Name
	}
	if updates.Type != nil {
		fields["type"] = *updates.Type
	}
	if updates.Status != nil {
		fields["status"] = *updates.Status
	}
	if updates.Config != nil {
		fields["config"] = *updates.Config
	}
	if updates.LastHeartbeat != nil {
		fields["last_heartbeat"] = *updates.LastHeartbeat
	}
	if err := s.db.WithContext(ctx).Model(&models.Agent{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	return s.GetAgent(ctx, id)
}

// DeleteAgent removes the agent and decrements the parent's cached count,
// clamped at zero. Unknown ids are a no-op.
func (s *DatabaseStorage) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agent models.Agent
		err := tx.First(&agent, "id = ?", id).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Agent{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Swarm{}).Where("id = ?", agent.SwarmID).Updates(map[string]any{
			"agent_count": gorm.Expr("CASE WHEN agent_count > 0 THEN agent_count - 1 ELSE 0 END"),
			"updated_at":  time.Now(),
		}).Error
	})
}

func (s *DatabaseStorage) GetTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC").
		Find(&templates).Error
	return templates, err
}

func (s *DatabaseStorage) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	var template models.Template
	err := s.db.WithContext(ctx).First(&template, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (s *DatabaseStorage) CreateTemplate(ctx context.Context, payload models.InsertTemplate) (*models.Template, error) {
	if err := models.Validate(payload); err != nil {
		return nil, fmt.Errorf("invalid template payload: %w", err)
	}
	template := models.Template{
		Name:          payload.Name,
		Description:   payload.Description,
		Type:          payload.Type,
		Icon:          payload.Icon,
		MinAgents:     payload.MinAgents,
		MaxAgents:     payload.MaxAgents,
		DefaultConfig: payload.DefaultConfig,
		IsPublic:      true,
	}
	if template.Icon == "" {
		template.Icon = "fas fa-cubes"
	}
	if template.MinAgents == 0 {
		template.MinAgents = 1
	}
	if template.MaxAgents == 0 {
		template.MaxAgents = 100
	}
	if payload.IsPublic != nil {
		template.IsPublic = *payload.IsPublic
	}
	if err := s.db.WithContext(ctx).Create(&template).Error; err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return &template, nil
}

// GetSecurityAlerts lists unresolved alerts joined through the owning swarm.
// Alerts without a swarm never show up here; that is the join semantics of
// this view, not an accident.
func (s *DatabaseStorage) GetSecurityAlerts(ctx context.Context, userID string) ([]models.SecurityAlert, error) {
	var alerts []models.SecurityAlert
	err := s.db.WithContext(ctx).
		Joins("JOIN swarms ON swarms.id = security_alerts.swarm_id").
		Where("swarms.owner_id = ? AND security_alerts.resolved = ?", userID, false).
		Order("security_alerts.created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (s *DatabaseStorage) CreateSecurityAlert(ctx context.Context, payload models.InsertSecurityAlert) (*models.SecurityAlert, error) {
	if err := models.Validate(payload); err != nil {
		return nil, fmt.Errorf("invalid alert payload: %w", err)
	}
	alert := models.SecurityAlert{
		Title:       payload.Title,
		Description: payload.Description,
		Severity:    payload.Severity,
		SwarmID:     payload.SwarmID,
		AgentID:     payload.AgentID,
	}
	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		return nil, fmt.Errorf("create security alert: %w", err)
	}
	return &alert, nil
}

func (s *DatabaseStorage) ResolveSecurityAlert(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.SecurityAlert{}).
		Where("id = ?", id).
		Updates(map[string]any{"resolved": true, "resolved_at": now}).Error
}

// GetActiveSwarms lists active swarms across all owners; used by the
// background activity simulator.
func (s *DatabaseStorage) GetActiveSwarms(ctx context.Context) ([]models.Swarm, error) {
	var swarms []models.Swarm
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SwarmStatusActive).
		Find(&swarms).Error
	return swarms, err
}

// TouchAgentHeartbeats refreshes last_heartbeat on every active agent and
// reports how many rows were touched.
func (s *DatabaseStorage) TouchAgentHeartbeats(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Agent{}).
		Where("status = ?", models.AgentStatusActive).
		Update("last_heartbeat", time.Now())
	return res.RowsAffected, res.Error
}

func (s *DatabaseStorage) CountActiveSwarms(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Swarm{}).
		Where("owner_id = ? AND status = ?", userID, models.SwarmStatusActive).
		Count(&n).Error
	return n, err
}

func (s *DatabaseStorage) CountAgents(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Agent{}).
		Joins("JOIN swarms ON swarms.id = agents.swarm_id").
		Where("swarms.owner_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (s *DatabaseStorage) CountApiCallsSince(ctx context.Context, window time.Duration) (int64, error) {
	var n int64
	since := time.Now().Add(-window)
	err := s.db.WithContext(ctx).Model(&models.ApiCall{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}

func (s *DatabaseStorage) LogApiCall(ctx context.Context, payload models.InsertApiCall) error {
	call := models.ApiCall{
		Endpoint:     payload.Endpoint,
		Method:       payload.Method,
		UserID:       payload.UserID,
		SwarmID:      payload.SwarmID,
		ResponseTime: payload.ResponseTime,
		StatusCode:   payload.StatusCode,
	}
	return s.db.WithContext(ctx).Create(&call).Error
}

func (s *DatabaseStorage) TestConnection(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
