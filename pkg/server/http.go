package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"heist/pkg/engine/sched"
	"heist/pkg/game/config"
	"heist/pkg/protocol"
)

// Server wires the hub to HTTP and websocket handlers.
type Server struct {
	hub  *Hub
	loop *sched.Loop
	cfg  config.Server
	log  *zap.Logger
}

// New builds a server. Room timers run on a dedicated loop started by Run.
func New(cfg config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	loop := sched.NewLoop()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Server{
		hub:  NewHub(loop, rng, cfg.Game, log),
		loop: loop,
		cfg:  cfg.Server,
		log:  log.Named("server"),
	}
}

// Hub returns the room registry.
func (s *Server) Hub() *Hub { return s.hub }

// Reload applies new game tuning to rooms created afterwards.
func (s *Server) Reload(cfg config.Config) {
	s.hub.SetTuning(cfg.Game)
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms/create", s.handleCreate)
	mux.HandleFunc("POST /api/rooms/join", s.handleJoin)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Run serves until ctx is cancelled. The scheduler loop, the HTTP listener and the idle room
// janitor run as one errgroup.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		err := s.loop.Run(egCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
		return nil
	})
	eg.Go(func() error {
		janitor := s.loop.Every(s.cfg.JanitorTick, func() {
			if n := s.hub.Sweep(s.cfg.IdleTimeout); n > 0 {
				s.log.Debug("janitor sweep", zap.Int("removed", n), zap.Int("rooms", s.hub.Len()))
			}
		})
		<-egCtx.Done()
		janitor.Stop()
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateRoom
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.RoomResponse{Error: "invalid request body"})
		return
	}
	room, host := s.hub.CreateRoom(req.HostName)
	writeJSON(w, http.StatusOK, protocol.RoomResponse{RoomCode: room.Code, PlayerID: host.ID})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req protocol.JoinRoom
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.RoomResponse{Error: "invalid request body"})
		return
	}
	room, p, err := s.hub.JoinRoom(req.RoomCode, req.PlayerName)
	switch {
	case errors.Is(err, ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, protocol.RoomResponse{Error: "Room not found"})
		return
	case errors.Is(err, ErrGameInProgress):
		writeJSON(w, http.StatusConflict, protocol.RoomResponse{Error: "Game already in progress"})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, protocol.RoomResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, protocol.RoomResponse{RoomCode: room.Code, PlayerID: p.ID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
