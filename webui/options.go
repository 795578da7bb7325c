package webui

import (
	"github.com/swarmware/swarmware/core/bus"
	"github.com/swarmware/swarmware/core/metrics"
	"github.com/swarmware/swarmware/core/store"
)

type Config struct {
	Storage    store.Storage
	Bus        bus.Manager
	Engine     *metrics.Engine
	ApiKeys    []string
	DemoUserID string
}

type Option func(*Config)

func WithStorage(s store.Storage) Option {
	return func(c *Config) {
		c.Storage = s
	}
}

func WithBus(m bus.Manager) Option {
	return func(c *Config) {
		c.Bus = m
	}
}

func WithEngine(e *metrics.Engine) Option {
	return func(c *Config) {
		c.Engine = e
	}
}

func WithApiKeys(keys ...string) Option {
	return func(c *Config) {
		c.ApiKeys = keys
	}
}

// WithDemoUserID sets the fallback identity used when a request carries no
// userId. An empty value makes user-scoped endpoints require an explicit id.
func WithDemoUserID(id string) Option {
	return func(c *Config) {
		c.DemoUserID = id
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		DemoUserID: "demo-user",
	}
	c.Apply(opts...)
	return c
}
