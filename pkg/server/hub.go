// Package server is the heist host: it keeps rooms of players, generates and verifies puzzle
// targets, runs the game timer, random events, role powers and timer votes, and talks to clients
// over websocket.
package server

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"heist/pkg/engine/sched"
	"heist/pkg/game/config"
)

// CodeAlphabet leaves out characters that are easy to confuse (I, O, 0, 1).
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a room code.
const CodeLength = 4

// Hub holds every room by code.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
	clock sched.Scheduler
	rng   *rand.Rand
	tune  config.Game
	log   *zap.Logger
}

// NewHub creates an empty hub. Room timers run on clock.
func NewHub(clock sched.Scheduler, rng *rand.Rand, tune config.Game, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]*Room),
		clock: clock,
		rng:   rng,
		tune:  tune,
		log:   log.Named("hub"),
	}
}

// SetTuning replaces the game tuning used by rooms created from now on.
func (h *Hub) SetTuning(tune config.Game) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tune = tune
}

// CreateRoom opens a room with hostName as its host.
func (h *Hub) CreateRoom(hostName string) (*Room, *Player) {
	h.mu.Lock()
	code := h.newCodeLocked()
	// rand.Rand is not safe for concurrent use, so every room gets its own source.
	room := newRoom(code, h.clock, rand.New(rand.NewSource(h.rng.Int63())), h.tune, h.log)
	h.rooms[code] = room
	h.mu.Unlock()

	// A fresh room is always waiting, so AddPlayer cannot fail.
	host, _ := room.AddPlayer(hostName, true)
	h.log.Info("room created", zap.String("room", code))
	return room, host
}

func (h *Hub) newCodeLocked() string {
	buf := make([]byte, CodeLength)
	for {
		for i := range buf {
			buf[i] = CodeAlphabet[h.rng.Intn(len(CodeAlphabet))]
		}
		if _, taken := h.rooms[string(buf)]; !taken {
			return string(buf)
		}
	}
}

// Room returns the room with code. Codes are case-insensitive.
func (h *Hub) Room(code string) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// JoinRoom adds a player to a waiting room.
func (h *Hub) JoinRoom(code, name string) (*Room, *Player, error) {
	room, err := h.Room(code)
	if err != nil {
		return nil, nil, err
	}
	p, err := room.AddPlayer(name, false)
	if err != nil {
		return nil, nil, err
	}
	return room, p, nil
}

// Len returns the number of rooms.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Sweep closes and removes rooms idle for longer than limit. It returns how many were removed.
func (h *Hub) Sweep(limit time.Duration) int {
	now := h.clock.Now()
	h.mu.Lock()
	var idle []*Room
	for code, room := range h.rooms {
		if room.Idle(now, limit) {
			idle = append(idle, room)
			delete(h.rooms, code)
		}
	}
	h.mu.Unlock()

	for _, room := range idle {
		room.Close()
		h.log.Info("idle room removed", zap.String("room", room.Code))
	}
	return len(idle)
}

// Close closes every room.
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()
	for _, room := range rooms {
		room.Close()
	}
}
