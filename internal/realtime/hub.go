package realtime

import (
	"sync"
)

// Client is a single subscriber connection.
// The network conn itself is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub fans cache events out to the clients subscribed to a topic.
type Hub struct {
	mu             sync.RWMutex
	topicToClients map[string]map[Client]struct{}
}

func NewHub() *Hub {
	return &Hub{topicToClients: make(map[string]map[Client]struct{})}
}

// Register subscribes a client to a topic.
func (h *Hub) Register(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.topicToClients[topic]; !ok {
		h.topicToClients[topic] = make(map[Client]struct{})
	}
	h.topicToClients[topic][client] = struct{}{}
}

// Unregister removes a client; an empty topic is dropped.
func (h *Hub) Unregister(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.topicToClients[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topicToClients, topic)
		}
	}
}

// Subscribers returns how many clients listen on a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topicToClients[topic])
}

// Broadcast sends a message to every client of a topic.
// Clients whose send fails are left for their handler to clean up.
func (h *Hub) Broadcast(topic string, message []byte) {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.topicToClients[topic]))
	for c := range h.topicToClients[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(message)
	}
}
