package swarmware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/swarmware/swarmware/core/bus"
	swarmware "github.com/swarmware/swarmware/pkg/client"
)

var _ = Describe("InvalidationTargets", func() {
	It("maps swarm events to the swarm list and the stats", func() {
		for _, t := range []bus.EventType{bus.EventSwarmCreated, bus.EventSwarmUpdated, bus.EventSwarmDeleted} {
			Expect(swarmware.InvalidationTargets(t)).To(ConsistOf(
				swarmware.QuerySwarms, swarmware.QueryDashboardStats,
			))
		}
	})

	It("maps agent events to the stats only", func() {
		for _, t := range []bus.EventType{bus.EventAgentCreated, bus.EventAgentUpdated, bus.EventAgentDeleted} {
			Expect(swarmware.InvalidationTargets(t)).To(ConsistOf(swarmware.QueryDashboardStats))
		}
	})

	It("maps alert events to the alert list and the stats", func() {
		for _, t := range []bus.EventType{bus.EventSecurityAlert, bus.EventAlertResolved} {
			Expect(swarmware.InvalidationTargets(t)).To(ConsistOf(
				swarmware.QuerySecurityAlerts, swarmware.QueryDashboardStats,
			))
		}
	})

	It("ignores unknown event types", func() {
		Expect(swarmware.InvalidationTargets("something_else")).To(BeEmpty())
	})
})

var _ = Describe("Subscriber", func() {
	var upgrader = websocket.Upgrader{}

	It("invalidates everything on connect, then per event", func() {
		events := make(chan bus.Event, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			for event := range events {
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			}
		}))
		defer server.Close()
		defer close(events)

		var mu sync.Mutex
		var invalidated []swarmware.QueryKey
		sub := swarmware.NewSubscriber(
			"ws"+strings.TrimPrefix(server.URL, "http"),
			func(key swarmware.QueryKey) {
				mu.Lock()
				defer mu.Unlock()
				invalidated = append(invalidated, key)
			},
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go sub.Run(ctx)

		// The reconnect sweep fires before any event arrives.
		Eventually(func() []swarmware.QueryKey {
			mu.Lock()
			defer mu.Unlock()
			return append([]swarmware.QueryKey(nil), invalidated...)
		}).Should(ConsistOf(swarmware.AllQueryKeys))

		events <- bus.Event{Type: bus.EventSecurityAlert}

		// Beyond the sweep, exactly the alert's two targets get marked.
		Eventually(func() []swarmware.QueryKey {
			mu.Lock()
			defer mu.Unlock()
			return append([]swarmware.QueryKey(nil), invalidated...)
		}).Should(HaveLen(len(swarmware.AllQueryKeys) + 2))

		mu.Lock()
		tail := invalidated[len(swarmware.AllQueryKeys):]
		mu.Unlock()
		Expect(tail).To(ConsistOf(swarmware.QuerySecurityAlerts, swarmware.QueryDashboardStats))
	})
})
