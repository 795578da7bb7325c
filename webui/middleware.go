package webui

import (
	"context"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	models "github.com/swarmware/swarmware/dbmodels"
	"github.com/swarmware/swarmware/pkg/xlog"
)

// AuditApiCall appends one ApiCall row per handled /api request. The write
// happens after the response, off the request path; a failed write is logged
// and never affects the caller.
func (a *App) AuditApiCall() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		record := models.InsertApiCall{
			Endpoint:     c.Path(),
			Method:       c.Method(),
			ResponseTime: int(time.Since(start).Milliseconds()),
			StatusCode:   c.Response().StatusCode(),
		}
		if userID := a.resolveUserID(c); userID != "" {
			record.UserID = &userID
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.config.Storage.LogApiCall(ctx, record); err != nil {
				xlog.Warn("Failed to log API call", "endpoint", record.Endpoint, "error", err)
			}
		}()

		return err
	}
}
