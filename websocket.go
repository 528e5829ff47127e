package barowatch

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketServer pushes every reading and status change to all connected
// clients as JSON text messages.
type WebSocketServer struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan interface{}
	upgrader   websocket.Upgrader
	clientsMux sync.Mutex
}

func NewWebSocketServer() *WebSocketServer {
	return &WebSocketServer{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan interface{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run drains the broadcast channel. Call it once, in its own goroutine.
func (s *WebSocketServer) Run() {
	for msg := range s.broadcast {
		message, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Error marshaling message: %v", err)
			continue
		}

		s.clientsMux.Lock()
		for client := range s.clients {
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket error: %v", err)
				client.Close()
				delete(s.clients, client)
			}
		}
		s.clientsMux.Unlock()
	}
}

func (s *WebSocketServer) Broadcast(msg interface{}) {
	s.broadcast <- msg
}

// HandleWS upgrades an HTTP request and keeps the connection registered
// until the client goes away.
func (s *WebSocketServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer ws.Close()

	s.clientsMux.Lock()
	s.clients[ws] = true
	s.clientsMux.Unlock()

	log.Println("New WebSocket client connected")
	defer func() {
		s.clientsMux.Lock()
		delete(s.clients, ws)
		s.clientsMux.Unlock()
		log.Println("WebSocket client disconnected")
	}()

	for {
		// Clients only listen; reads just detect disconnects.
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
