package bus

import (
	"sync"
)

// EventType is the closed set of change notifications.
type EventType string

const (
	EventSwarmCreated  EventType = "swarm_created"
	EventSwarmUpdated  EventType = "swarm_updated"
	EventSwarmDeleted  EventType = "swarm_deleted"
	EventAgentCreated  EventType = "agent_created"
	EventAgentUpdated  EventType = "agent_updated"
	EventAgentDeleted  EventType = "agent_deleted"
	EventSecurityAlert EventType = "security_alert"
	EventAlertResolved EventType = "alert_resolved"
)

// Event is the envelope broadcast to every connected client. It is an
// invalidation hint, never a source of truth: a client that misses one must
// re-synchronize over REST.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Listener defines the interface for the receiving end.
type Listener interface {
	ID() string
	Chan() chan Event
}

// Manager defines the interface for managing clients and broadcasting events.
type Manager interface {
	Send(event Event)
	Subscribe(cl Listener)
	Unsubscribe(clientID string)
	Clients() []string
}

type Client struct {
	id string
	ch chan Event
}

func NewClient(id string) Listener {
	return &Client{
		id: id,
		ch: make(chan Event, 50),
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) Chan() chan Event { return c.ch }

// broadcastManager fans events out to all subscribed listeners. A single
// dispatch goroutine drains the broadcast channel, which preserves
// per-connection ordering for sequential sends. A listener whose channel is
// full has the event dropped; there is no queueing or replay.
type broadcastManager struct {
	clients   sync.Map
	broadcast chan Event
}

// NewManager initializes and returns a new Manager instance.
func NewManager() Manager {
	manager := &broadcastManager{
		broadcast: make(chan Event, 64),
	}

	go manager.dispatch()

	return manager
}

// Send broadcasts an event to all connected clients.
func (manager *broadcastManager) Send(event Event) {
	manager.broadcast <- event
}

// Subscribe adds a listener to the fan-out set.
func (manager *broadcastManager) Subscribe(cl Listener) {
	manager.clients.Store(cl.ID(), cl)
}

// Unsubscribe removes a listener; events broadcast afterwards are never
// delivered to it.
func (manager *broadcastManager) Unsubscribe(clientID string) {
	manager.clients.Delete(clientID)
}

// Clients lists connected client IDs.
func (manager *broadcastManager) Clients() []string {
	var clients []string
	manager.clients.Range(func(key, value any) bool {
		id, ok := key.(string)
		if ok {
			clients = append(clients, id)
		}
		return true
	})
	return clients
}

func (manager *broadcastManager) dispatch() {
	for event := range manager.broadcast {
		manager.clients.Range(func(key, value any) bool {
			client, ok := value.(Listener)
			if !ok {
				return true // continue iteration
			}
			select {
			case client.Chan() <- event:
			default:
				// Client channel full: drop. The websocket is a hint channel.
			}
			return true
		})
	}
}
