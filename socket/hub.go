package socket

import (
	"context"
	"encoding/json"
	"notevault/internal/document/model"
	"notevault/pkg/logger"
	"sync"
	"time"
)

const (
	ReadyType = "READY" // sent once the connection is registered
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   int64           `json:"document_id,omitempty"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans document change events out to every open connection of the
// document's owner. Rooms are keyed by user id, so a connection only ever
// hears about its own user's documents.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
	loc        *time.Location
	done       chan struct{}
}

func NewHub(loc *time.Location) *Hub {
	if loc == nil {
		loc = time.UTC
	}
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		loc:        loc,
		done:       make(chan struct{}),
	}
}

// Run owns the rooms until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			h.mu.Unlock()

			ready, _ := json.Marshal(WSMessage{Type: ReadyType, UserID: client.UserID})
			client.Send <- ready

		case client := <-h.Unregister:
			h.remove(client)

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			// Copy recipients so the send loop runs without the lock.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.UserID]))
			for client := range h.Rooms[msg.UserID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					logger.Sugar.Warnf("Client %s's send buffer is full. Dropping connection.", client.UserID)
					h.remove(client)
				}
			}
		}
	}
}

// DocumentChanged queues an event for the owner's connections. It never
// blocks the caller; if the queue is full the event is dropped.
func (h *Hub) DocumentChanged(ownerID, kind string, doc model.Document) {
	payload, err := json.Marshal(model.NewDocumentResponse(doc, h.loc))
	if err != nil {
		logger.Sugar.Errorf("Error marshalling document %d event: %v", doc.ID, err)
		return
	}
	select {
	case h.Broadcast <- WSMessage{Type: kind, DocID: doc.ID, UserID: ownerID, Payload: payload}:
	default:
		logger.Sugar.Warnf("Change feed queue full, dropping %s for doc %d", kind, doc.ID)
	}
}

// Connections reports how many open connections a user has.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[userID])
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Rooms[client.UserID][client]; !ok {
		return
	}
	delete(h.Rooms[client.UserID], client)
	close(client.Send)
	if len(h.Rooms[client.UserID]) == 0 {
		delete(h.Rooms, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.Rooms {
		for client := range clients {
			close(client.Send)
		}
		delete(h.Rooms, userID)
	}
}
