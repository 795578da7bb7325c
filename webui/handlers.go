package webui

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/swarmware/swarmware/core/bus"
	"github.com/swarmware/swarmware/core/store"
	models "github.com/swarmware/swarmware/dbmodels"
	"github.com/swarmware/swarmware/pkg/xlog"
)

// statusForError maps a storage failure to a response status: payload
// validation failures are the caller's fault, everything else is a backend
// failure.
func statusForError(err error) int {
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (a *App) DashboardStats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := a.resolveUserID(c)
		if userID == "" {
			return errorJSONMessage(c, http.StatusBadRequest, "User ID required")
		}

		stats, err := a.config.Engine.DashboardStats(c.Context(), userID)
		if err != nil {
			xlog.Error("Error fetching dashboard stats", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to fetch dashboard stats")
		}
		return c.JSON(stats)
	}
}

func (a *App) ListSwarms() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := a.resolveUserID(c)
		if userID == "" {
			return errorJSONMessage(c, http.StatusBadRequest, "User ID required")
		}

		swarms, err := a.config.Storage.GetSwarms(c.Context(), userID)
		if err != nil {
			xlog.Error("Error fetching swarms", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to fetch swarms")
		}
		return c.JSON(swarms)
	}
}

func (a *App) GetSwarm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid swarm id")
		}

		swarm, err := a.config.Storage.GetSwarm(c.Context(), id)
		if err != nil {
			xlog.Error("Error fetching swarm", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to fetch swarm")
		}
		if swarm == nil {
			return errorJSONMessage(c, http.StatusNotFound, "Swarm not found")
		}
		return c.JSON(swarm)
	}
}

func (a *App) CreateSwarm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload models.InsertSwarm
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Malformed swarm payload")
		}
		if payload.OwnerID == "" {
			payload.OwnerID = a.resolveUserID(c)
		}

		swarm, err := a.config.Storage.CreateSwarm(c.Context(), payload)
		if err != nil {
			xlog.Error("Error creating swarm", "error", err)
			return errorJSONMessage(c, statusForError(err), "Failed to create swarm")
		}

		// Persistent deployment tracking; best-effort.
		if _, err := a.config.Storage.IncrementAppState(c.Context(), store.KeyDeploymentCount, 1); err != nil {
			xlog.Warn("Failed to bump deployment counter", "error", err)
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventSwarmCreated, Data: swarm})

		return c.Status(http.StatusCreated).JSON(swarm)
	}
}

func (a *App) UpdateSwarm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid swarm id")
		}
		var updates models.UpdateSwarm
		if err := c.BodyParser(&updates); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Malformed swarm payload")
		}

		swarm, err := a.config.Storage.UpdateSwarm(c.Context(), id, updates)
		if err != nil {
			xlog.Error("Error updating swarm", "error", err)
			return errorJSONMessage(c, statusForError(err), "Failed to update swarm")
		}
		if swarm == nil {
			return errorJSONMessage(c, http.StatusNotFound, "Swarm not found")
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventSwarmUpdated, Data: swarm})

		return c.JSON(swarm)
	}
}

func (a *App) DeleteSwarm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid swarm id")
		}

		if err := a.config.Storage.DeleteSwarm(c.Context(), id); err != nil {
			xlog.Error("Error deleting swarm", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to delete swarm")
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventSwarmDeleted, Data: fiber.Map{"id": id}})

		return c.SendStatus(http.StatusNoContent)
	}
}

func (a *App) ListAgents() fiber.Handler {
	return func(c *fiber.Ctx) error {
		swarmID, err := uuid.Parse(c.Params("swarmId"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid swarm id")
		}

		agents, err := a.config.Storage.GetAgents(c.Context(), swarmID)
		if err != nil {
			xlog.Error("Error fetching agents", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to fetch agents")
		}
		return c.JSON(agents)
	}
}

func (a *App) CreateAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload models.InsertAgent
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Malformed agent payload")
		}

		agent, err := a.config.Storage.CreateAgent(c.Context(), payload)
		if err != nil {
			xlog.Error("Error creating agent", "error", err)
			return errorJSONMessage(c, statusForError(err), "Failed to create agent")
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventAgentCreated, Data: agent})

		return c.Status(http.StatusCreated).JSON(agent)
	}
}

func (a *App) UpdateAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid agent id")
		}
		var updates models.UpdateAgent
		if err := c.BodyParser(&updates); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Malformed agent payload")
		}

		agent, err := a.config.Storage.UpdateAgent(c.Context(), id, updates)
		if err != nil {
			xlog.Error("Error updating agent", "error", err)
			return errorJSONMessage(c, statusForError(err), "Failed to update agent")
		}
		if agent == nil {
			return errorJSONMessage(c, http.StatusNotFound, "Agent not found")
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventAgentUpdated, Data: agent})

		return c.JSON(agent)
	}
}

func (a *App) DeleteAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid agent id")
		}

		if err := a.config.Storage.DeleteAgent(c.Context(), id); err != nil {
			xlog.Error("Error deleting agent", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to delete agent")
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventAgentDeleted, Data: fiber.Map{"id": id}})

		return c.SendStatus(http.StatusNoContent)
	}
}

func (a *App) ListTemplates() fiber.Handler {
	return func(c *fiber.Ctx) error {
		templates, err := a.config.Storage.GetTemplates(c.Context())
		if err != nil {
			xlog.Error("Error fetching templates", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to fetch templates")
		}
		return c.JSON(templates)
	}
}

func (a *App) GetTemplate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid template id")
		}

		template, err := a.config.Storage.GetTemplate(c.Context(), id)
		if err != nil {
			xlog.Error("Error fetching template", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to fetch template")
		}
		if template == nil {
			return errorJSONMessage(c, http.StatusNotFound, "Template not found")
		}
		return c.JSON(template)
	}
}

func (a *App) CreateTemplate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload models.InsertTemplate
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Malformed template payload")
		}

		template, err := a.config.Storage.CreateTemplate(c.Context(), payload)
		if err != nil {
			xlog.Error("Error creating template", "error", err)
			return errorJSONMessage(c, statusForError(err), "Failed to create template")
		}
		return c.Status(http.StatusCreated).JSON(template)
	}
}

func (a *App) ListSecurityAlerts() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := a.resolveUserID(c)
		if userID == "" {
			return errorJSONMessage(c, http.StatusBadRequest, "User ID required")
		}

		alerts, err := a.config.Storage.GetSecurityAlerts(c.Context(), userID)
		if err != nil {
			xlog.Error("Error fetching security alerts", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to fetch security alerts")
		}
		return c.JSON(alerts)
	}
}

func (a *App) CreateSecurityAlert() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload models.InsertSecurityAlert
		if err := c.BodyParser(&payload); err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Malformed alert payload")
		}

		alert, err := a.config.Storage.CreateSecurityAlert(c.Context(), payload)
		if err != nil {
			xlog.Error("Error creating security alert", "error", err)
			return errorJSONMessage(c, statusForError(err), "Failed to create security alert")
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventSecurityAlert, Data: alert})

		return c.Status(http.StatusCreated).JSON(alert)
	}
}

func (a *App) ResolveSecurityAlert() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, "Invalid alert id")
		}

		if err := a.config.Storage.ResolveSecurityAlert(c.Context(), id); err != nil {
			xlog.Error("Error resolving security alert", "error", err)
			return errorJSONMessage(c, http.StatusInternalServerError, "Failed to resolve security alert")
		}

		a.config.Bus.Send(bus.Event{Type: bus.EventAlertResolved, Data: fiber.Map{"id": id}})

		return c.SendStatus(http.StatusNoContent)
	}
}

func (a *App) Heartbeat() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
			"status":            "healthy",
			"activeConnections": len(a.config.Bus.Clients()),
		})
	}
}

func (a *App) Docs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"title":       "SwarmWare API Documentation",
			"version":     "1.0.0",
			"description": "Comprehensive API for AI agent swarm management",
			"endpoints": fiber.Map{
				"dashboard":  "/api/dashboard/stats",
				"swarms":     "/api/swarms",
				"agents":     "/api/agents",
				"templates":  "/api/templates",
				"security":   "/api/security/alerts",
				"monitoring": "/api/monitoring/heartbeat",
			},
		})
	}
}
