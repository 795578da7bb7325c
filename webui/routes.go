package webui

import (
	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"

	"github.com/swarmware/swarmware/core/bus"
)

func (a *App) registerRoutes(webapp *fiber.App) {

	if len(a.config.ApiKeys) > 0 {
		kaConfig, err := GetKeyAuthConfig(a.config.ApiKeys)
		if err != nil || kaConfig == nil {
			panic(err)
		}
		webapp.Use(v2keyauth.New(*kaConfig))
	}

	webapp.Use("/api", a.AuditApiCall())

	// Dashboard
	webapp.Get("/api/dashboard/stats", a.DashboardStats())

	// Swarms
	webapp.Get("/api/swarms", a.ListSwarms())
	webapp.Get("/api/swarms/:id", a.GetSwarm())
	webapp.Post("/api/swarms", a.CreateSwarm())
	webapp.Put("/api/swarms/:id", a.UpdateSwarm())
	webapp.Delete("/api/swarms/:id", a.DeleteSwarm())

	// Agents
	webapp.Get("/api/swarms/:swarmId/agents", a.ListAgents())
	webapp.Post("/api/agents", a.CreateAgent())
	webapp.Put("/api/agents/:id", a.UpdateAgent())
	webapp.Delete("/api/agents/:id", a.DeleteAgent())

	// Templates
	webapp.Get("/api/templates", a.ListTemplates())
	webapp.Get("/api/templates/:id", a.GetTemplate())
	webapp.Post("/api/templates", a.CreateTemplate())

	// Security
	webapp.Get("/api/security/alerts", a.ListSecurityAlerts())
	webapp.Post("/api/security/alerts", a.CreateSecurityAlert())
	webapp.Put("/api/security/alerts/:id/resolve", a.ResolveSecurityAlert())

	// Monitoring
	webapp.Get("/api/monitoring/heartbeat", a.Heartbeat())

	webapp.Get("/api/docs", a.Docs())

	// Real-time change notifications
	webapp.Use("/ws", bus.UpgradeRequired)
	webapp.Get("/ws", bus.Handler(a.config.Bus))
}
