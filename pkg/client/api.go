package swarmware

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/swarmware/swarmware/core/metrics"
	models "github.com/swarmware/swarmware/dbmodels"
)

// Heartbeat is the monitoring endpoint payload.
type Heartbeat struct {
	Timestamp         string `json:"timestamp"`
	Status            string `json:"status"`
	ActiveConnections int    `json:"activeConnections"`
}

func (c *Client) userQuery() string {
	if c.UserID == "" {
		return ""
	}
	return "?userId=" + url.QueryEscape(c.UserID)
}

func (c *Client) DashboardStats() (*metrics.Stats, error) {
	var stats metrics.Stats
	if err := c.getJSON("/api/dashboard/stats"+c.userQuery(), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) ListSwarms() ([]models.Swarm, error) {
	var swarms []models.Swarm
	err := c.getJSON("/api/swarms"+c.userQuery(), &swarms)
	return swarms, err
}

func (c *Client) GetSwarm(id uuid.UUID) (*models.Swarm, error) {
	var swarm models.Swarm
	if err := c.getJSON("/api/swarms/"+id.String(), &swarm); err != nil {
		return nil, err
	}
	return &swarm, nil
}

func (c *Client) CreateSwarm(payload models.InsertSwarm) (*models.Swarm, error) {
	var swarm models.Swarm
	if err := c.postJSON("/api/swarms", payload, &swarm); err != nil {
		return nil, err
	}
	return &swarm, nil
}

func (c *Client) UpdateSwarm(id uuid.UUID, updates models.UpdateSwarm) (*models.Swarm, error) {
	var swarm models.Swarm
	if err := c.putJSON("/api/swarms/"+id.String(), updates, &swarm); err != nil {
		return nil, err
	}
	return &swarm, nil
}

func (c *Client) DeleteSwarm(id uuid.UUID) error {
	return c.delete("/api/swarms/" + id.String())
}

func (c *Client) ListAgents(swarmID uuid.UUID) ([]models.Agent, error) {
	var agents []models.Agent
	err := c.getJSON(fmt.Sprintf("/api/swarms/%s/agents", swarmID), &agents)
	return agents, err
}

func (c *Client) CreateAgent(payload models.InsertAgent) (*models.Agent, error) {
	var agent models.Agent
	if err := c.postJSON("/api/agents", payload, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) UpdateAgent(id uuid.UUID, updates models.UpdateAgent) (*models.Agent, error) {
	var agent models.Agent
	if err := c.putJSON("/api/agents/"+id.String(), updates, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *Client) DeleteAgent(id uuid.UUID) error {
	return c.delete("/api/agents/" + id.String())
}

func (c *Client) ListTemplates() ([]models.Template, error) {
	var templates []models.Template
	err := c.getJSON("/api/templates", &templates)
	return templates, err
}

func (c *Client) GetTemplate(id uuid.UUID) (*models.Template, error) {
	var template models.Template
	if err := c.getJSON("/api/templates/"+id.String(), &template); err != nil {
		return nil, err
	}
	return &template, nil
}

func (c *Client) CreateTemplate(payload models.InsertTemplate) (*models.Template, error) {
	var template models.Template
	if err := c.postJSON("/api/templates", payload, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

func (c *Client) ListSecurityAlerts() ([]models.SecurityAlert, error) {
	var alerts []models.SecurityAlert
	err := c.getJSON("/api/security/alerts"+c.userQuery(), &alerts)
	return alerts, err
}

func (c *Client) CreateSecurityAlert(payload models.InsertSecurityAlert) (*models.SecurityAlert, error) {
	var alert models.SecurityAlert
	if err := c.postJSON("/api/security/alerts", payload, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (c *Client) ResolveSecurityAlert(id uuid.UUID) error {
	return c.putJSON(fmt.Sprintf("/api/security/alerts/%s/resolve", id), nil, nil)
}

func (c *Client) MonitoringHeartbeat() (*Heartbeat, error) {
	var hb Heartbeat
	if err := c.getJSON("/api/monitoring/heartbeat", &hb); err != nil {
		return nil, err
	}
	return &hb, nil
}
