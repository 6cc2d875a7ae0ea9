package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the outer gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const sendTimeout = 5 * time.Second

// wsSender adapts a websocket connection to the broadcast.Sender interface.
// Writes are serialized and bounded by a deadline so one hung connection
// cannot stall a fan-out pass.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSender) Close() error { return s.conn.Close() }

func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	sender := &wsSender{conn: conn}
	s.hub.Connect(userID, sender)
	log.Info().Str("user_id", userID).Msg("client connected")

	// Drain inbound frames until the peer goes away; the pipeline only
	// pushes, it never reads client messages.
	go func() {
		defer func() {
			s.hub.Disconnect(userID, sender)
			_ = conn.Close()
			log.Info().Str("user_id", userID).Msg("client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
