package notify

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Live notification feed. Connected clients are registered per user; the
// dispatcher pushes each created notification to that user's sockets.

var (
	userClients   = make(map[uint]map[*websocket.Conn]bool)
	userClientsMu sync.RWMutex
)

const writeWait = 10 * time.Second

type StreamMessage struct {
	Type           string `json:"type"`
	NotificationID uint   `json:"notification_id,omitempty"`
	Message        string `json:"message"`
}

func RegisterClient(userID uint, conn *websocket.Conn) {
	userClientsMu.Lock()
	if userClients[userID] == nil {
		userClients[userID] = make(map[*websocket.Conn]bool)
	}
	userClients[userID][conn] = true
	userClientsMu.Unlock()
}

func UnregisterClient(userID uint, conn *websocket.Conn) {
	userClientsMu.Lock()
	if clients, exists := userClients[userID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(userClients, userID)
		}
	}
	userClientsMu.Unlock()
}

// Push writes the message to every socket the user has open. Failed sockets
// are dropped.
func Push(userID uint, message StreamMessage) {
	userClientsMu.RLock()
	clients, exists := userClients[userID]
	if !exists || len(clients) == 0 {
		userClientsMu.RUnlock()
		return
	}

	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	userClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for push: %v", err)
			continue
		}

		if err := conn.WriteJSON(message); err != nil {
			log.Printf("Failed to push notification to client: %v", err)
			UnregisterClient(userID, conn)
			conn.Close()
		}
	}
}
