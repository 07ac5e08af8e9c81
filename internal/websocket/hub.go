package websocket

import (
	"encoding/json"
	"sync"
)

// SyncUpdate is pushed to a user's sockets while one of their bank
// connections is being refreshed.
type SyncUpdate struct {
	ConnectionID         string `json:"connection_id"`
	Phase                string `json:"phase"`
	AccountsSynced       int    `json:"accounts_synced"`
	TransactionsImported int    `json:"transactions_imported"`
	Message              string `json:"message,omitempty"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// BroadcastSync drops the update for any client whose buffer is full rather
// than blocking the sync loop.
func (h *Hub) BroadcastSync(userID string, update SyncUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
