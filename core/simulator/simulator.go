package simulator

import (
	"context"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/swarmware/swarmware/core/bus"
	"github.com/swarmware/swarmware/core/store"
	models "github.com/swarmware/swarmware/dbmodels"
	"github.com/swarmware/swarmware/pkg/xlog"
)

var alertCatalog = []struct {
	title    string
	severity models.AlertSeverity
}{
	{"Unusual outbound traffic detected", models.AlertSeverityHigh},
	{"Agent heartbeat anomaly", models.AlertSeverityMedium},
	{"Configuration drift detected", models.AlertSeverityLow},
	{"Elevated error rate in swarm", models.AlertSeverityMedium},
	{"Unauthorized API access attempt", models.AlertSeverityCritical},
}

// Simulator keeps the dashboard looking alive: it refreshes agent heartbeats
// every minute and occasionally raises a synthetic security alert on a random
// active swarm, broadcast over the notification bus. It produces no data the
// system depends on.
type Simulator struct {
	store   store.Storage
	manager bus.Manager
	cron    *cron.Cron
	intn    func(n int) int
}

type Option func(*Simulator)

// WithRand replaces the random source; intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(s *Simulator) {
		s.intn = intn
	}
}

func NewSimulator(st store.Storage, manager bus.Manager, opts ...Option) *Simulator {
	s := &Simulator{
		store:   st,
		manager: manager,
		cron:    cron.New(),
		intn:    rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.RunHeartbeats); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 5m", s.RunAlertSweep); err != nil {
		return err
	}
	s.cron.Start()
	xlog.Info("Activity simulator started")
	return nil
}

func (s *Simulator) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	xlog.Info("Activity simulator stopped")
}

// RunHeartbeats performs one heartbeat refresh pass.
func (s *Simulator) RunHeartbeats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	touched, err := s.store.TouchAgentHeartbeats(ctx)
	if err != nil {
		xlog.Error("Failed to refresh agent heartbeats", "error", err)
		return
	}
	if touched > 0 {
		xlog.Debug("Refreshed agent heartbeats", "agents", touched)
	}
}

// RunAlertSweep creates a synthetic unresolved alert on roughly one run in
// four, targeting a random active swarm.
func (s *Simulator) RunAlertSweep() {
	if s.intn(4) != 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	swarms, err := s.store.GetActiveSwarms(ctx)
	if err != nil {
		xlog.Error("Failed to list active swarms", "error", err)
		return
	}
	if len(swarms) == 0 {
		return
	}

	swarm := swarms[s.intn(len(swarms))]
	entry := alertCatalog[s.intn(len(alertCatalog))]

	alert, err := s.store.CreateSecurityAlert(ctx, models.InsertSecurityAlert{
		Title:       entry.title,
		Description: "Automated detection on swarm " + swarm.Name,
		Severity:    entry.severity,
		SwarmID:     &swarm.ID,
	})
	if err != nil {
		xlog.Error("Failed to create synthetic alert", "error", err)
		return
	}

	s.manager.Send(bus.Event{Type: bus.EventSecurityAlert, Data: alert})
	xlog.Info("Synthetic security alert raised", "swarm", swarm.Name, "severity", entry.severity)
}
