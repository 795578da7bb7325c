package swarmware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swarmware/swarmware/core/bus"
	"github.com/swarmware/swarmware/pkg/xlog"
)

// QueryKey names a cached read that views subscribe to.
type QueryKey string

const (
	QuerySwarms         QueryKey = "swarms"
	QuerySecurityAlerts QueryKey = "securityAlerts"
	QueryDashboardStats QueryKey = "dashboardStats"
)

// AllQueryKeys is every cacheable read; invalidated wholesale on reconnect.
var AllQueryKeys = []QueryKey{QuerySwarms, QuerySecurityAlerts, QueryDashboardStats}

// InvalidationTargets maps a change notification to the cached queries it
// staleness-marks. Swarm events touch the swarm list and the headline stats;
// agent events only move the stats; alert events touch the alert list and the
// stats.
func InvalidationTargets(eventType bus.EventType) []QueryKey {
	switch eventType {
	case bus.EventSwarmCreated, bus.EventSwarmUpdated, bus.EventSwarmDeleted:
		return []QueryKey{QuerySwarms, QueryDashboardStats}
	case bus.EventAgentCreated, bus.EventAgentUpdated, bus.EventAgentDeleted:
		return []QueryKey{QueryDashboardStats}
	case bus.EventSecurityAlert, bus.EventAlertResolved:
		return []QueryKey{QuerySecurityAlerts, QueryDashboardStats}
	default:
		return nil
	}
}

// Subscriber consumes the /ws change feed and calls Invalidate for every
// query key a received event makes stale. The feed is a hint channel with no
// delivery guarantee, so after every (re)connect the subscriber invalidates
// all keys; the caller's refetch over REST is the source of truth.
type Subscriber struct {
	URL        string
	Invalidate func(key QueryKey)
	Dialer     *websocket.Dialer
}

func NewSubscriber(wsURL string, invalidate func(key QueryKey)) *Subscriber {
	return &Subscriber{
		URL:        wsURL,
		Invalidate: invalidate,
		Dialer:     websocket.DefaultDialer,
	}
}

// Run connects and keeps the subscription alive until ctx is canceled,
// reconnecting with exponential backoff capped at thirty seconds.
func (s *Subscriber) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if err := s.consume(ctx); err != nil {
			xlog.Warn("Change feed disconnected", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (s *Subscriber) consume(ctx context.Context) error {
	conn, _, err := s.Dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Anything broadcast while disconnected is gone; refetch everything.
	for _, key := range AllQueryKeys {
		s.Invalidate(key)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var event bus.Event
		if err := json.Unmarshal(message, &event); err != nil {
			xlog.Warn("Undecodable change event", "error", err)
			continue
		}
		for _, key := range InvalidationTargets(event.Type) {
			s.Invalidate(key)
		}
	}
}
