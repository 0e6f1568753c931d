package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heist/pkg/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxFrame   = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS attaches a websocket to a player: GET /ws?room=CODE&player=ID.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	room, err := s.hub.Room(query.Get("room"))
	if err != nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	playerID := query.Get("player")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade", zap.Error(err))
		return
	}
	out, err := room.Connect(playerID)
	if err != nil {
		_ = conn.WriteJSON(protocol.Error{Context: "connect", Message: "Player not found"})
		conn.Close()
		return
	}
	log := s.log.With(zap.String("room", room.Code), zap.String("player", playerID))
	log.Debug("player connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, out, log)
	}()

	readPump(conn, func(env protocol.Envelope) { room.Handle(playerID, env) }, log)
	room.Disconnect(playerID, out)
	conn.Close()
	<-done
	log.Debug("player disconnected")
}

// readPump decodes text frames until the connection fails.
func readPump(conn *websocket.Conn, handle func(protocol.Envelope), log *zap.Logger) {
	conn.SetReadLimit(maxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("read", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Debug("invalid JSON message", zap.Error(err))
			continue
		}
		handle(env)
	}
}

// writePump writes frames from out until it is closed, pinging between frames.
func writePump(conn *websocket.Conn, out <-chan []byte, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("send error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
