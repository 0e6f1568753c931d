package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/leonelquinteros/gotext"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heist/pkg/client"
	engineinput "heist/pkg/engine/input"
	"heist/pkg/engine/sched"
	"heist/pkg/game/dispatch"
	"heist/pkg/game/gameplay"
	"heist/pkg/game/menu"
	"heist/pkg/game/profile"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzles"
	"heist/pkg/game/stage"
	"heist/pkg/game/state"
	"heist/pkg/protocol"
)

// resultLinger keeps the final screen up before a finished game exits.
const resultLinger = 3 * time.Second

// crewFlags are the options shared by play and gui.
type crewFlags struct {
	server string
	room   string
	name   string
	role   string
	seed   int64
}

func (f *crewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", "", "host server URL, e.g. http://localhost:8080 (empty plays solo)")
	cmd.Flags().StringVar(&f.room, "room", "", "room code to join (empty creates a room)")
	cmd.Flags().StringVar(&f.name, "name", "", "crew name shown to the others")
	cmd.Flags().StringVarP(&f.role, "role", "r", "", "crew role: hacker, safecracker, demolitions or lookout (empty opens the role menu)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed for solo puzzles (0 uses the clock)")
}

// parseRole matches s against the role names, ignoring case, spaces, dashes and underscores.
func parseRole(s string) (stage.Role, error) {
	norm := strings.NewReplacer(" ", "", "-", "", "_", "")
	key := strings.ToLower(norm.Replace(s))
	for _, r := range stage.Roles {
		if strings.ToLower(norm.Replace(string(r))) == key {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// heist is one running game: the loop, the driver and the optional host connection.
type heist struct {
	loop    *sched.Loop
	session *state.Session
	game    *gameplay.Game
	log     *zap.Logger
	redraw  func()
	surface puzzle.Surface

	// Role menu, open until a role is picked
	menu     *menu.Menu
	picker   *menu.MainMenuHandler
	pickRole bool

	remote   *client.Client
	roomCode string
	playerID string
	hosting  bool // Created the room, so starts the game
	started  bool

	// OnFinish runs on the loop after the game ended.
	OnFinish func(gameplay.Result)
}

// newHeist creates the loop and session. An empty role opens the role menu before the game.
func newHeist(role stage.Role, log *zap.Logger) *heist {
	loop := sched.NewLoop()
	h := &heist{log: log, loop: loop, pickRole: role == ""}
	if h.pickRole {
		role = stage.Roles[0]
	}
	h.session = state.NewSession(role, loop)
	return h
}

// roleFlag parses the --role value; empty means the menu picks.
func roleFlag(s string) (stage.Role, error) {
	if s == "" {
		return "", nil
	}
	return parseRole(s)
}

// connect creates or joins a room on the host server and opens the game socket. Frames are
// posted to the loop.
func (h *heist) connect(ctx context.Context, f crewFlags) error {
	name := f.name
	if name == "" {
		name = gotext.Get("Crew member")
		if !h.pickRole {
			name = string(h.session.Role)
		}
	}
	hc := &http.Client{Timeout: 10 * time.Second}

	var (
		resp protocol.RoomResponse
		err  error
	)
	if f.room == "" {
		resp, err = client.CreateRoom(ctx, hc, f.server, name)
		h.hosting = true
	} else {
		resp, err = client.JoinRoom(ctx, hc, f.server, f.room, name)
	}
	if err != nil {
		return err
	}
	h.roomCode, h.playerID = resp.RoomCode, resp.PlayerID

	c, err := client.Dial(ctx, f.server, resp.RoomCode, resp.PlayerID, func(env protocol.Envelope) {
		h.loop.Post(func() { h.handleEnvelope(env) })
	}, h.log)
	if err != nil {
		return err
	}
	h.remote = c
	h.log.Info("joined room", zap.String("room", h.roomCode), zap.String("player", h.playerID), zap.Bool("hosting", h.hosting))
	return nil
}

// build wires the dispatcher and driver to a frontend. Call after connect for a networked game.
func (h *heist) build(surface puzzle.Surface, audio puzzle.Audio, seed int64, redraw func()) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	store, err := profile.Open()
	if err != nil {
		h.log.Warn("save data unavailable, records kept in memory", zap.Error(err))
	}
	disp := dispatch.New(puzzles.NewRegistry(), surface, puzzle.Options{
		Host:      h.session,
		Audio:     audio,
		Scheduler: h.loop,
		Logger:    h.log,
		Rand:      rng,
	})
	opts := gameplay.Options{
		Session:      h.session,
		Dispatcher:   disp,
		Profile:      profile.New(store, h.log),
		Scheduler:    h.loop,
		Tune:         cfg.Game,
		Rand:         rng,
		Logger:       h.log,
		PlayerID:     h.playerID,
		Redraw:       redraw,
		OnFinish:     h.finished,
		AdvanceDelay: 2 * time.Second,
	}
	if h.remote != nil {
		opts.Remote = h.remote
	}
	h.game = gameplay.New(opts)
	h.redraw = redraw
	h.surface = surface
}

// run starts the game and processes the loop until ctx ends or the game is over.
func (h *heist) run(ctx context.Context) error {
	h.loop.Post(h.start)
	if h.remote != nil {
		go func() {
			select {
			case <-h.remote.Done():
				h.loop.Post(h.disconnected)
			case <-ctx.Done():
			}
		}()
	}
	err := h.loop.Run(ctx)
	if h.remote != nil {
		_ = h.remote.Close()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (h *heist) start() {
	if h.pickRole {
		h.picker = menu.NewMainMenuHandler()
		h.menu = menu.New(h.surface, nil, h.picker)
		h.menu.Draw()
		h.repaint()
		return
	}
	h.begin()
}

// picked closes the role menu and starts the game, or ends it when the player quit.
func (h *heist) picked() {
	h.menu = nil
	role, ok := h.picker.Role()
	if !ok {
		h.game.Stop()
		h.loop.Stop()
		return
	}
	h.session.Role = role
	h.log.Info("role picked", zap.String("role", string(role)))
	h.begin()
}

func (h *heist) begin() {
	h.game.Start()
	if h.remote == nil {
		return
	}
	if err := h.remote.Send(protocol.TypeSelectRole, protocol.SelectRole{Role: string(h.session.Role)}); err != nil {
		h.log.Warn("select role failed", zap.Error(err))
	}
	if h.hosting {
		h.session.ShowMessage(fmt.Sprintf(gotext.Get("Room %s is open. Press Enter when the crew is in."), h.roomCode), puzzle.SeverityInfo)
	} else {
		h.session.ShowMessage(fmt.Sprintf(gotext.Get("Joined room %s."), h.roomCode), puzzle.SeverityInfo)
	}
	h.repaint()
}

func (h *heist) repaint() {
	if h.redraw != nil {
		h.redraw()
	}
}

func (h *heist) handleEnvelope(env protocol.Envelope) {
	if env.Type == protocol.TypeGameStarted {
		h.started = true
	}
	h.game.HandleEnvelope(env)
}

// intent routes one player intent. In the lobby Enter starts the game for the room's creator.
func (h *heist) intent(in engineinput.Intent) {
	if h.menu != nil {
		if h.menu.HandleIntent(in) {
			h.picked()
		}
		h.repaint()
		return
	}
	if h.remote != nil && !h.started && in.Action == engineinput.ActionSubmit {
		if !h.hosting {
			h.session.ShowMessage(gotext.Get("Waiting for the host to start."), puzzle.SeverityInfo)
			h.repaint()
			return
		}
		if err := h.remote.Send(protocol.TypeStartGame, struct{}{}); err != nil {
			h.log.Warn("start game failed", zap.Error(err))
		}
		return
	}
	h.game.ProcessIntent(in)
}

func (h *heist) disconnected() {
	if h.game.Result() != gameplay.ResultNone {
		return
	}
	h.log.Warn("connection to host lost", zap.Error(h.remote.Err()))
	h.session.ShowMessage(gotext.Get("Connection to the host was lost."), puzzle.SeverityError)
	h.game.ProcessIntent(engineinput.Intent{Action: engineinput.ActionQuit})
}

// finished lets the result screen linger, then tears the game down and stops the loop.
func (h *heist) finished(r gameplay.Result) {
	h.log.Info("heist over", zap.Stringer("result", r), zap.Int("stage", h.session.Level))
	if h.OnFinish != nil {
		h.OnFinish(r)
	}
	delay := resultLinger
	if r == gameplay.ResultQuit {
		delay = 0
	}
	h.loop.After(delay, func() {
		h.game.Stop()
		h.loop.Stop()
	})
}

// resultText is the final banner for r.
func resultText(r gameplay.Result) string {
	switch r {
	case gameplay.ResultWon:
		return gotext.Get("The vault is open. The crew got away with it!")
	case gameplay.ResultLost:
		return gotext.Get("Time is up. The guards caught the crew.")
	case gameplay.ResultQuit:
		return gotext.Get("The heist was called off.")
	default:
		return ""
	}
}
