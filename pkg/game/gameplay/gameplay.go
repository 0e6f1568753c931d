// Package gameplay drives one player's heist: it mounts the stage puzzle through the dispatcher,
// keeps the session's timer and messages current, applies role powers and, in a networked game,
// follows the host server's frames.
package gameplay

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"heist/pkg/engine/sched"
	"heist/pkg/game/config"
	"heist/pkg/game/dispatch"
	"heist/pkg/game/profile"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/state"
	"heist/pkg/protocol"
)

// Result is how a heist ended.
type Result int

const (
	ResultNone Result = iota
	ResultWon
	ResultLost
	ResultQuit
)

func (r Result) String() string {
	switch r {
	case ResultWon:
		return "won"
	case ResultLost:
		return "lost"
	case ResultQuit:
		return "quit"
	default:
		return "none"
	}
}

// Remote is the connection to a host server. *client.Client implements it.
type Remote interface {
	Send(typ string, payload any) error
	Submitter(msg protocol.PuzzleData) puzzle.Submitter
}

// Options configures a Game.
type Options struct {
	Session    *state.Session
	Dispatcher *dispatch.Dispatcher
	Profile    *profile.Profile
	Scheduler  sched.Scheduler
	Tune       config.Game
	Rand       *rand.Rand
	Logger     *zap.Logger

	// Remote switches to a networked game. Nil plays solo with local verification.
	Remote Remote
	// PlayerID is this player's id in the host's room.
	PlayerID string

	// Redraw repaints the frontend after the session changed.
	Redraw func()
	// OnFinish runs once when the heist ends.
	OnFinish func(Result)

	// AdvanceDelay is the pause between a solved puzzle and the next stage in a solo game.
	AdvanceDelay time.Duration
}

// Game is the driver. Every method must run on the scheduler's loop.
type Game struct {
	session *state.Session
	disp    *dispatch.Dispatcher
	profile *profile.Profile
	clock   sched.Scheduler
	tune    config.Game
	rng     *rand.Rand
	log     *zap.Logger
	remote  Remote
	self    string

	redraw       func()
	onFinish     func(Result)
	advanceDelay time.Duration

	mounted    puzzle.Type
	mountedAt  time.Time
	team       *protocol.PuzzleData
	teamReady  bool
	onTeam     bool
	ownDone    bool
	powerUsed  bool
	voteOpen   bool
	voted      bool
	shortcuts  int
	lookoutEnd time.Time

	ticker sched.Timer
	timers *sched.Group
	result Result
}

// New creates a driver. Call Start to begin.
func New(opts Options) *Game {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &Game{
		session:      opts.Session,
		disp:         opts.Dispatcher,
		profile:      opts.Profile,
		clock:        opts.Scheduler,
		tune:         opts.Tune,
		rng:          rng,
		log:          log.Named("gameplay"),
		remote:       opts.Remote,
		self:         opts.PlayerID,
		redraw:       opts.Redraw,
		onFinish:     opts.OnFinish,
		advanceDelay: opts.AdvanceDelay,
		timers:       sched.NewGroup(opts.Scheduler),
	}
	if g.profile == nil {
		g.profile = profile.New(nil, log)
	}
	g.session.OnSuccess = g.onSolved
	return g
}

// Session returns the player's session.
func (g *Game) Session() *state.Session { return g.session }

// Result returns how the heist ended, ResultNone while it runs.
func (g *Game) Result() Result { return g.result }

// Networked reports whether a host server drives the game.
func (g *Game) Networked() bool { return g.remote != nil }

func (g *Game) message(text string, sev puzzle.Severity) {
	g.session.ShowMessage(text, sev)
	g.repaint()
}

func (g *Game) repaint() {
	if g.redraw != nil {
		g.redraw()
	}
}

// finish ends the heist once.
func (g *Game) finish(r Result) {
	if g.result != ResultNone {
		return
	}
	g.result = r
	if g.ticker != nil {
		g.ticker.Stop()
		g.ticker = nil
	}
	g.timers.Close()
	g.disp.DisableInteraction(true)
	if r == ResultWon {
		g.profile.RecordHeist()
	}
	if err := g.profile.Save(); err != nil {
		g.log.Warn("failed to save profile", zap.Error(err))
	}
	g.log.Info("heist finished", zap.Stringer("result", r), zap.Int("stage", g.session.Level))
	g.repaint()
	if g.onFinish != nil {
		g.onFinish(r)
	}
}

// Stop ends the heist as quit and tears down the widget.
func (g *Game) Stop() {
	g.finish(ResultQuit)
	g.disp.Cleanup()
	g.session.Close()
}
