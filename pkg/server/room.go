package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"heist/pkg/engine/sched"
	"heist/pkg/game/config"
	"heist/pkg/game/puzzle"
	"heist/pkg/game/puzzles"
	"heist/pkg/game/stage"
	"heist/pkg/protocol"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrNotInProgress    = errors.New("game is not in progress")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players to start the game")
	ErrRolesMissing     = errors.New("not all players have selected roles")
	ErrUnknownRole      = errors.New("unknown role")
	ErrRoleTaken        = errors.New("role already taken")
	ErrNoPuzzle         = errors.New("no puzzle assigned")
	ErrNotTeamMember    = errors.New("role does not take part in the team puzzle")
	ErrPowerUsed        = errors.New("power already used this stage")
	ErrNothingToBypass  = errors.New("no lock to bypass")
	ErrVoteActive       = errors.New("a timer extension vote is already in progress")
	ErrNoVote           = errors.New("no timer extension vote is currently active")
	ErrAlreadyVoted     = errors.New("you have already voted")
	ErrEmptyMessage     = errors.New("empty chat message")
)

// outboxSize is the number of frames buffered per connection before frames are dropped.
const outboxSize = 64

// maxChatLength caps one chat line.
const maxChatLength = 500

// VerifyFunc judges a submitted payload against a stored target.
type VerifyFunc func(t puzzle.Type, target, payload json.RawMessage, allowedBypasses int) (bool, error)

// Player is one crew member.
type Player struct {
	ID        string
	Name      string
	Role      stage.Role
	Host      bool
	Connected bool

	out chan []byte
}

func (p *Player) info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:        p.ID,
		Name:      p.Name,
		Role:      string(p.Role),
		Connected: p.Connected,
		IsHost:    p.Host,
	}
}

// assignment is a server-held puzzle target.
type assignment struct {
	key        string
	typ        puzzle.Type
	difficulty int
	data       json.RawMessage
	roles      []stage.Role // Team puzzle members
	completed  bool
}

func (a *assignment) message() protocol.PuzzleData {
	msg := protocol.PuzzleData{
		Key:    a.key,
		Team:   len(a.roles) > 0,
		Config: puzzle.Config{Type: a.typ, Difficulty: a.difficulty, Data: a.data},
	}
	for _, r := range a.roles {
		msg.Roles = append(msg.Roles, string(r))
	}
	return msg
}

type ballot struct {
	initiator string
	yes       []string
	no        []string
	timer     sched.Timer
}

func (b *ballot) voters() []string {
	return append(append([]string{}, b.yes...), b.no...)
}

func (b *ballot) voted(id string) bool {
	for _, v := range b.voters() {
		if v == id {
			return true
		}
	}
	return false
}

// Room is one crew's game. Exported methods are safe for concurrent use; timer callbacks run on
// the scheduler and take the same lock.
type Room struct {
	Code string

	mu     sync.Mutex
	clock  sched.Scheduler
	rng    *rand.Rand
	tune   config.Game
	log    *zap.Logger
	verify VerifyFunc

	players map[string]*Player
	order   []string // Join order

	status    Status
	stage     int
	alert     int
	remaining time.Duration
	puzzles   map[string]*assignment // By player ID, plus protocol.TeamPuzzle
	teamReady bool

	powers    mapset.Set[string] // Players who used their power this stage
	bypasses  map[string]int
	shortcuts int

	lookout      bool
	lookoutTimer sched.Timer
	vote         *ballot
	ticker       sched.Timer

	lastActive time.Time
	closed     bool
}

func newRoom(code string, clock sched.Scheduler, rng *rand.Rand, tune config.Game, log *zap.Logger) *Room {
	return &Room{
		Code:       code,
		clock:      clock,
		rng:        rng,
		tune:       tune,
		log:        log.With(zap.String("room", code)),
		verify:     puzzles.Verify,
		players:    make(map[string]*Player),
		status:     StatusWaiting,
		remaining:  tune.InitialTimer,
		puzzles:    make(map[string]*assignment),
		powers:     mapset.New[string](),
		bypasses:   make(map[string]int),
		lastActive: clock.Now(),
	}
}

// AddPlayer adds a player to the lobby.
func (r *Room) AddPlayer(name string, host bool) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusWaiting {
		return nil, ErrGameInProgress
	}
	p := &Player{ID: uuid.NewString(), Name: strings.TrimSpace(name), Host: host}
	if p.Name == "" {
		p.Name = "Anon"
	}
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
	r.lastActive = r.clock.Now()
	r.log.Info("player joined", zap.String("player", p.ID), zap.Bool("host", host))
	return p, nil
}

// Connect attaches a connection to a player and returns the frames to write to it. A previous
// connection of the same player is closed.
func (r *Room) Connect(playerID string) (<-chan []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if p.out != nil {
		close(p.out)
	}
	p.out = make(chan []byte, outboxSize)
	p.Connected = true
	r.lastActive = r.clock.Now()

	r.sendLocked(p, protocol.TypeGameState, r.stateLocked())
	info := p.info()
	r.broadcastLocked(protocol.TypePlayerConnected, protocol.PlayerEvent{Player: &info})
	if r.status == StatusInProgress {
		r.sendPuzzlesLocked(p)
	}
	return p.out, nil
}

// Disconnect detaches out from its player. Stale connections are ignored.
func (r *Room) Disconnect(playerID string, out <-chan []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok || p.out == nil || p.out != out {
		return
	}
	close(p.out)
	p.out = nil
	p.Connected = false
	r.lastActive = r.clock.Now()
	r.broadcastLocked(protocol.TypePlayerDisconnected, protocol.PlayerEvent{PlayerID: playerID})
	if r.vote != nil && len(r.vote.voters()) >= r.connectedLocked() {
		r.resolveVoteLocked()
	}
}

// Handle applies one client frame. Refusals are reported to the sender as error frames.
func (r *Room) Handle(playerID string, env protocol.Envelope) {
	var (
		err   error
		reqID int
	)
	switch env.Type {
	case protocol.TypeSelectRole:
		var msg protocol.SelectRole
		if err = env.Decode(&msg); err == nil {
			err = r.SelectRole(playerID, stage.Role(msg.Role))
		}
	case protocol.TypeStartGame:
		err = r.Start(playerID)
	case protocol.TypePuzzleSolution:
		var msg protocol.PuzzleSolution
		if err = env.Decode(&msg); err == nil {
			reqID = msg.ID
			_, err = r.SubmitSolution(playerID, msg)
		}
	case protocol.TypeUsePower:
		err = r.UsePower(playerID)
	case protocol.TypeInitiateVote:
		err = r.InitiateVote(playerID)
	case protocol.TypeVote:
		var msg protocol.Vote
		if err = env.Decode(&msg); err == nil {
			err = r.CastVote(playerID, msg.Vote)
		}
	case protocol.TypeChat:
		var msg protocol.Chat
		if err = env.Decode(&msg); err == nil {
			err = r.Chat(playerID, msg.Message)
		}
	default:
		err = fmt.Errorf("unknown message type %q", env.Type)
	}
	if err != nil {
		r.log.Debug("request refused", zap.String("player", playerID), zap.String("type", env.Type), zap.Error(err))
		r.mu.Lock()
		if p, ok := r.players[playerID]; ok {
			r.sendLocked(p, protocol.TypeError, protocol.Error{Context: env.Type, Message: err.Error(), ID: reqID})
		}
		r.mu.Unlock()
	}
}

// SelectRole assigns role to a player in the lobby. Roles are unique within a room.
func (r *Room) SelectRole(playerID string, role stage.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.playerLocked(playerID)
	if err != nil {
		return err
	}
	if r.status != StatusWaiting {
		return ErrGameInProgress
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	for id, other := range r.players {
		if id != playerID && other.Role == role {
			return ErrRoleTaken
		}
	}
	p.Role = role
	r.broadcastLocked(protocol.TypeRoleConfirmed, protocol.RoleConfirmed{
		PlayerID: playerID,
		Role:     string(role),
		Players:  r.playersLocked(),
	})
	return nil
}

// Start begins stage 1. Only the host may start, with enough players and every role chosen.
func (r *Room) Start(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.playerLocked(playerID)
	if err != nil {
		return err
	}
	if !p.Host {
		return ErrNotHost
	}
	if r.status != StatusWaiting {
		return ErrGameInProgress
	}
	if len(r.players) < r.tune.MinPlayers {
		return fmt.Errorf("%w: at least %d required", ErrNotEnoughPlayers, r.tune.MinPlayers)
	}
	var missing []string
	for _, id := range r.order {
		if q := r.players[id]; q.Role == "" {
			missing = append(missing, q.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrRolesMissing, strings.Join(missing, ", "))
	}

	r.status = StatusInProgress
	r.stage = 1
	r.alert = 0
	r.remaining = r.tune.InitialTimer
	if err := r.generateLocked(); err != nil {
		r.status = StatusWaiting
		return err
	}
	r.log.Info("game started", zap.Int("players", len(r.players)))
	r.broadcastLocked(protocol.TypeGameStarted, protocol.GameStarted{Stage: r.stage, Timer: seconds(r.remaining)})
	r.broadcastPuzzlesLocked()
	r.broadcastTimerLocked()
	r.ticker = r.clock.Every(time.Second, r.tick)
	return nil
}

// generateLocked draws the targets of the current stage. Shortcuts lower the difficulty of the
// stage they are spent on.
func (r *Room) generateLocked() error {
	desc, ok := stage.Get(r.stage)
	if !ok {
		return fmt.Errorf("stage %d out of range", r.stage)
	}
	difficulty := puzzle.ClampDifficulty(r.stage - r.shortcuts)
	r.shortcuts = 0
	r.puzzles = make(map[string]*assignment)
	r.teamReady = false
	r.powers = mapset.New[string]()
	r.bypasses = make(map[string]int)

	for _, id := range r.order {
		p := r.players[id]
		t, ok := desc.Puzzles[p.Role]
		if !ok {
			continue
		}
		a, err := r.assign(stage.Key(p.Role, r.stage), t, difficulty)
		if err != nil {
			return err
		}
		r.puzzles[id] = a
	}
	if desc.Team != "" {
		a, err := r.assign(stage.TeamKey(r.stage), desc.Team, difficulty)
		if err != nil {
			return err
		}
		a.roles = r.teamRolesLocked(desc.TeamRoles)
		r.puzzles[protocol.TeamPuzzle] = a
	}
	return nil
}

func (r *Room) assign(key string, t puzzle.Type, difficulty int) (*assignment, error) {
	data, err := puzzles.Generate(t, difficulty, r.rng)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", key, err)
	}
	return &assignment{key: key, typ: t, difficulty: difficulty, data: data}, nil
}

// teamRolesLocked narrows the required roles to those present. A crew with none of them shares
// the puzzle between everyone.
func (r *Room) teamRolesLocked(required []stage.Role) []stage.Role {
	present := mapset.New[stage.Role]()
	for _, p := range r.players {
		present.Put(p.Role)
	}
	var roles []stage.Role
	for _, role := range required {
		if present.Has(role) {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		for _, role := range stage.Roles {
			if present.Has(role) {
				roles = append(roles, role)
			}
		}
	}
	return roles
}

func (r *Room) inTeam(p *Player, a *assignment) bool {
	for _, role := range a.roles {
		if role == p.Role {
			return true
		}
	}
	return false
}

// SubmitSolution verifies a payload against the stored target. A malformed payload counts as a
// wrong answer. The verdict is sent to the submitter.
func (r *Room) SubmitSolution(playerID string, sol protocol.PuzzleSolution) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.playerLocked(playerID)
	if err != nil {
		return false, err
	}
	if r.status != StatusInProgress {
		return false, ErrNotInProgress
	}
	key := playerID
	if sol.Puzzle == protocol.TeamPuzzle {
		key = protocol.TeamPuzzle
	}
	a, ok := r.puzzles[key]
	if !ok {
		return false, ErrNoPuzzle
	}
	if key == protocol.TeamPuzzle && !r.inTeam(p, a) {
		return false, ErrNotTeamMember
	}
	r.lastActive = r.clock.Now()

	accepted := a.completed
	if !accepted {
		accepted, err = r.verify(a.typ, a.data, sol.Solution, r.bypasses[playerID])
		if errors.Is(err, puzzle.ErrInvalidInput) {
			accepted, err = false, nil
		}
		if err != nil {
			return false, err
		}
	}
	r.sendLocked(p, protocol.TypeSolutionResult, protocol.SolutionResult{ID: sol.ID, Puzzle: sol.Puzzle, Accepted: accepted})
	if !accepted || a.completed {
		r.log.Debug("solution checked", zap.String("player", playerID), zap.String("puzzle", a.key), zap.Bool("accepted", accepted))
		return accepted, nil
	}

	a.completed = true
	r.log.Info("puzzle completed", zap.String("player", playerID), zap.String("puzzle", a.key))
	r.broadcastLocked(protocol.TypePuzzleCompleted, protocol.PuzzleCompleted{PlayerID: playerID, Role: string(p.Role), Puzzle: a.key})
	r.checkStageLocked()
	return true, nil
}

func (r *Room) checkStageLocked() {
	for key, a := range r.puzzles {
		if key != protocol.TeamPuzzle && !a.completed {
			return
		}
	}
	if team, ok := r.puzzles[protocol.TeamPuzzle]; ok && !team.completed {
		if !r.teamReady {
			r.teamReady = true
			r.broadcastLocked(protocol.TypeTeamPuzzleReady, nil)
		}
		return
	}
	r.advanceLocked()
}

func (r *Room) advanceLocked() {
	if stage.IsFinalStage(r.stage) {
		r.status = StatusCompleted
		r.stopTimersLocked()
		r.log.Info("heist completed", zap.Duration("remaining", r.remaining))
		r.broadcastLocked(protocol.TypeGameCompleted, nil)
		return
	}
	r.stage = stage.NextStage(r.stage)
	r.remaining += r.tune.StageBonus
	if err := r.generateLocked(); err != nil {
		r.log.Error("stage generation failed", zap.Int("stage", r.stage), zap.Error(err))
		r.failLocked("generation_failed")
		return
	}
	r.log.Info("stage completed", zap.Int("next", r.stage))
	r.broadcastLocked(protocol.TypeStageCompleted, protocol.StageCompleted{NextStage: r.stage, Timer: seconds(r.remaining)})
	r.broadcastPuzzlesLocked()
}

func (r *Room) failLocked(result string) {
	r.status = StatusFailed
	r.stopTimersLocked()
	r.broadcastLocked(protocol.TypeGameOver, protocol.GameOver{Result: result})
}

// TimerBroadcastDue reports whether the timer is sent to clients at secs remaining: every 15s,
// every 5s from 30s down and every second from 10s down.
func TimerBroadcastDue(secs int) bool {
	return secs%15 == 0 || (secs <= 30 && secs%5 == 0) || secs <= 10
}

func (r *Room) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusInProgress {
		return
	}
	r.remaining = max(r.remaining-time.Second, 0)
	secs := seconds(r.remaining)
	if TimerBroadcastDue(secs) {
		r.broadcastTimerLocked()
	}
	if r.remaining <= 0 {
		r.log.Info("game timer expired", zap.Int("stage", r.stage))
		r.failLocked("time_expired")
		return
	}
	if every := seconds(r.tune.EventEvery); every > 0 && secs%every == 0 {
		r.rollEventLocked()
	}
}

// EventChance is the probability of a random event at alert level alert.
func EventChance(tune config.Game, alert int) float64 {
	return tune.EventChance + tune.EventAlertStep*float64(alert)
}

func (r *Room) rollEventLocked() {
	if r.rng.Float64() >= EventChance(r.tune, r.alert) {
		return
	}
	ev := puzzle.HostEvents[r.rng.Intn(len(puzzle.HostEvents))]
	lo, hi := seconds(r.tune.EventMin), seconds(r.tune.EventMax)
	msg := protocol.RandomEvent{Event: string(ev), Duration: lo + r.rng.Intn(hi-lo+1)}
	r.log.Debug("random event", zap.String("event", msg.Event), zap.Int("duration", msg.Duration))

	if !r.lookout {
		r.broadcastLocked(protocol.TypeRandomEvent, msg)
		return
	}
	warn := seconds(r.tune.LookoutWarning)
	r.broadcastLocked(protocol.TypeLookoutWarning, protocol.LookoutWarning{
		Event:       msg.Event,
		WarningTime: warn,
		Message:     fmt.Sprintf("Lookout detects %s approaching in %d seconds!", EventName(ev), warn),
	})
	r.clock.After(r.tune.LookoutWarning, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.status == StatusInProgress {
			r.broadcastLocked(protocol.TypeRandomEvent, msg)
		}
	})
}

// EventName returns the display name of a random event.
func EventName(ev puzzle.EventType) string {
	words := strings.Split(string(ev), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// UsePower applies the player's role power. Each player may use it once per stage.
func (r *Room) UsePower(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.playerLocked(playerID)
	if err != nil {
		return err
	}
	if r.status != StatusInProgress {
		return ErrNotInProgress
	}
	if r.powers.Has(playerID) {
		return ErrPowerUsed
	}
	msg := protocol.PowerUsed{PlayerID: playerID, PlayerName: p.Name, Role: string(p.Role)}

	switch p.Role {
	case stage.Hacker:
		r.remaining += r.tune.HackerBonus
		msg.Description = "Security systems slowed"
		r.broadcastTimerLocked()
	case stage.SafeCracker:
		if !r.bypassableLocked(playerID) {
			return ErrNothingToBypass
		}
		r.bypasses[playerID]++
		msg.Description = "Lock bypassed"
	case stage.Demolitions:
		r.shortcuts++
		msg.Description = "Shortcut blasted"
	case stage.Lookout:
		r.startLookoutLocked(p)
		msg.Description = "Enhanced Security Detection"
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, p.Role)
	}
	r.powers.Put(playerID)
	r.log.Info("power used", zap.String("player", playerID), zap.String("role", string(p.Role)))
	r.broadcastLocked(protocol.TypePowerUsed, msg)
	return nil
}

func (r *Room) bypassableLocked(playerID string) bool {
	a, ok := r.puzzles[playerID]
	if !ok || a.completed {
		return false
	}
	return a.typ == puzzle.TypeLockBank || a.typ == puzzle.TypeOrderedLocks
}

func (r *Room) startLookoutLocked(p *Player) {
	r.lookout = true
	if r.lookoutTimer != nil {
		r.lookoutTimer.Stop()
	}
	r.lookoutTimer = r.clock.After(r.tune.LookoutDuration, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.lookout = false
		r.lookoutTimer = nil
	})
	ev := puzzle.HostEvents[r.rng.Intn(len(puzzle.HostEvents))]
	r.sendLocked(p, protocol.TypeLookoutPrediction, protocol.LookoutPrediction{
		Event:         string(ev),
		DisplayName:   EventName(ev),
		PredictedTime: 10 + r.rng.Intn(21),
	})
}

// InitiateVote opens a timer extension vote.
func (r *Room) InitiateVote(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.playerLocked(playerID)
	if err != nil {
		return err
	}
	if r.status != StatusInProgress {
		return ErrNotInProgress
	}
	if r.vote != nil {
		return ErrVoteActive
	}
	r.vote = &ballot{initiator: playerID}
	r.vote.timer = r.clock.After(r.tune.VoteDuration, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.vote != nil {
			r.resolveVoteLocked()
		}
	})
	r.broadcastLocked(protocol.TypeVoteInitiated, protocol.VoteInitiated{
		InitiatorID:   playerID,
		InitiatorName: p.Name,
		TimeLimit:     seconds(r.tune.VoteDuration),
		Votes:         []string{},
	})
	return nil
}

// CastVote records one ballot. The vote resolves early once every connected player has voted.
func (r *Room) CastVote(playerID string, yes bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.playerLocked(playerID); err != nil {
		return err
	}
	if r.vote == nil {
		return ErrNoVote
	}
	if r.vote.voted(playerID) {
		return ErrAlreadyVoted
	}
	if yes {
		r.vote.yes = append(r.vote.yes, playerID)
	} else {
		r.vote.no = append(r.vote.no, playerID)
	}
	voters := r.vote.voters()
	r.broadcastLocked(protocol.TypeVoteUpdate, protocol.VoteUpdate{PlayerID: playerID, Vote: yes, Votes: voters})
	if len(voters) >= r.connectedLocked() {
		r.resolveVoteLocked()
	}
	return nil
}

// RequiredVotes is the majority of connected players, at least one.
func RequiredVotes(connected int) int {
	return max(1, connected/2+1)
}

func (r *Room) resolveVoteLocked() {
	v := r.vote
	r.vote = nil
	if v.timer != nil {
		v.timer.Stop()
	}
	required := RequiredVotes(r.connectedLocked())
	success := len(v.yes) >= required && r.status == StatusInProgress
	msg := "Timer extension vote failed"
	if success {
		r.remaining += r.tune.VoteBonus
		r.alert++
		msg = "Timer extended successfully"
		r.broadcastLocked(protocol.TypeTimerExtended, protocol.TimerExtended{Timer: seconds(r.remaining), Alert: r.alert, Sync: true})
	}
	r.log.Info("timer vote resolved", zap.Bool("success", success), zap.Int("yes", len(v.yes)), zap.Int("required", required))
	r.broadcastLocked(protocol.TypeVoteCompleted, protocol.VoteCompleted{
		Success:  success,
		Votes:    v.voters(),
		Required: required,
		Message:  msg,
	})
}

// Chat relays a chat line to the room.
func (r *Room) Chat(playerID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.playerLocked(playerID)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if len(text) > maxChatLength {
		text = text[:maxChatLength]
	}
	r.lastActive = r.clock.Now()
	r.broadcastLocked(protocol.TypeChat, protocol.Chat{PlayerID: playerID, PlayerName: p.Name, Message: text})
	return nil
}

// Idle reports whether nobody is connected and the room has been quiet for longer than limit.
func (r *Room) Idle(now time.Time, limit time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedLocked() == 0 && now.Sub(r.lastActive) > limit
}

// Close stops the room's timers and drops every connection.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.stopTimersLocked()
	for _, p := range r.players {
		if p.out != nil {
			close(p.out)
			p.out = nil
			p.Connected = false
		}
	}
}

func (r *Room) stopTimersLocked() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
	if r.lookoutTimer != nil {
		r.lookoutTimer.Stop()
		r.lookoutTimer = nil
	}
	r.lookout = false
	if r.vote != nil && r.vote.timer != nil {
		r.vote.timer.Stop()
	}
	r.vote = nil
}

// Snapshot returns the game state as sent to connecting players.
func (r *Room) Snapshot() protocol.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Puzzle returns the puzzle data held for a player ID or protocol.TeamPuzzle.
func (r *Room) Puzzle(key string) (protocol.PuzzleData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.puzzles[key]
	if !ok {
		return protocol.PuzzleData{}, false
	}
	return a.message(), true
}

// Remaining returns the game timer.
func (r *Room) Remaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

func (r *Room) stateLocked() protocol.GameState {
	return protocol.GameState{
		Room:      r.Code,
		Stage:     r.stage,
		Status:    string(r.status),
		Timer:     seconds(r.remaining),
		Alert:     r.alert,
		Shortcuts: r.shortcuts,
		Players:   r.playersLocked(),
	}
}

func (r *Room) playersLocked() map[string]protocol.PlayerInfo {
	out := make(map[string]protocol.PlayerInfo, len(r.players))
	for id, p := range r.players {
		out[id] = p.info()
	}
	return out
}

func (r *Room) playerLocked(id string) (*Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

func (r *Room) connectedLocked() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (r *Room) sendPuzzlesLocked(p *Player) {
	if a, ok := r.puzzles[p.ID]; ok {
		r.sendLocked(p, protocol.TypePuzzleData, a.message())
	}
	if team, ok := r.puzzles[protocol.TeamPuzzle]; ok && r.inTeam(p, team) {
		r.sendLocked(p, protocol.TypePuzzleData, team.message())
	}
}

func (r *Room) broadcastPuzzlesLocked() {
	for _, id := range r.sortedIDsLocked() {
		r.sendPuzzlesLocked(r.players[id])
	}
}

func (r *Room) broadcastTimerLocked() {
	r.broadcastLocked(protocol.TypeTimerUpdate, protocol.TimerUpdate{Timer: seconds(r.remaining), Sync: true})
}

func (r *Room) sortedIDsLocked() []string {
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Room) broadcastLocked(typ string, payload any) {
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		r.log.Error("encode broadcast", zap.String("type", typ), zap.Error(err))
		return
	}
	for _, id := range r.sortedIDsLocked() {
		r.deliverLocked(r.players[id], typ, frame)
	}
}

func (r *Room) sendLocked(p *Player, typ string, payload any) {
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		r.log.Error("encode message", zap.String("type", typ), zap.Error(err))
		return
	}
	r.deliverLocked(p, typ, frame)
}

func (r *Room) deliverLocked(p *Player, typ string, frame []byte) {
	if p.out == nil {
		return
	}
	select {
	case p.out <- frame:
	default:
		r.log.Warn("outbox full, dropping frame", zap.String("player", p.ID), zap.String("type", typ))
	}
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
