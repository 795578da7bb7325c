package webui

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

type App struct {
	config *Config
	*fiber.App
}

func NewApp(opts ...Option) *App {
	config := NewConfig(opts...)

	webapp := fiber.New(fiber.Config{
		AppName: "SwarmWare",
	})

	a := &App{
		config: config,
		App:    webapp,
	}

	a.registerRoutes(webapp)

	return a
}

// resolveUserID is the authentication boundary: handlers never read identity
// from the request themselves. Resolution order is the userId query
// parameter, the X-User-Id header, then the configured demo user.
func (a *App) resolveUserID(c *fiber.Ctx) string {
	if userID := c.Query("userId"); userID != "" {
		return userID
	}
	if userID := c.Get("X-User-Id"); userID != "" {
		return userID
	}
	return a.config.DemoUserID
}

func errorJSONMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(struct {
		Message string `json:"message"`
	}{Message: message})
}

func GetKeyAuthConfig(apiKeys []string) (*v2keyauth.Config, error) {
	customLookup, err := v2keyauth.MultipleKeySourceLookup([]string{"header:Authorization", "header:x-api-key"}, keyauth.ConfigDefault.AuthScheme)
	if err != nil {
		return nil, err
	}

	return &v2keyauth.Config{
		CustomKeyLookup: customLookup,
		Next:            func(c *fiber.Ctx) bool { return false },
		Validator:       getApiKeyValidationFunction(apiKeys),
		ErrorHandler:    getApiKeyErrorHandler(apiKeys),
		AuthScheme:      "Bearer",
	}, nil
}

func getApiKeyErrorHandler(apiKeys []string) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if errors.Is(err, v2keyauth.ErrMissingOrMalformedAPIKey) {
			if len(apiKeys) == 0 {
				return ctx.Next() // if no keys are set up, any error we get here is not an error.
			}
			ctx.Set("WWW-Authenticate", "Bearer")
			return ctx.SendStatus(http.StatusUnauthorized)
		}
		return ctx.SendStatus(http.StatusInternalServerError)
	}
}

func getApiKeyValidationFunction(apiKeys []string) func(*fiber.Ctx, string) (bool, error) {
	return func(ctx *fiber.Ctx, apiKey string) (bool, error) {
		if len(apiKeys) == 0 {
			return true, nil // If no keys are setup, accept everything
		}
		for _, validKey := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				return true, nil
			}
		}
		return false, v2keyauth.ErrMissingOrMalformedAPIKey
	}
}
