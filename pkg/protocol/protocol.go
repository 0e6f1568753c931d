// Package protocol defines the JSON messages exchanged between the heist host server and its
// clients. Every websocket frame is an Envelope whose Payload depends on Type.
package protocol

import (
	"encoding/json"
	"fmt"

	"heist/pkg/game/puzzle"
)

// Client to server
const (
	TypeSelectRole     = "select_role"
	TypeStartGame      = "start_game"
	TypePuzzleSolution = "puzzle_solution"
	TypeUsePower       = "use_power"
	TypeInitiateVote   = "initiate_timer_vote"
	TypeVote           = "extend_timer_vote"
	TypeChat           = "chat_message"
)

// Server to client
const (
	TypeGameState          = "game_state"
	TypePlayerConnected    = "player_connected"
	TypePlayerDisconnected = "player_disconnected"
	TypeRoleConfirmed      = "role_confirmed"
	TypeGameStarted        = "game_started"
	TypePuzzleData         = "puzzle_data"
	TypeSolutionResult     = "solution_result"
	TypePuzzleCompleted    = "puzzle_completed"
	TypeTeamPuzzleReady    = "team_puzzle_ready"
	TypeStageCompleted     = "stage_completed"
	TypeGameCompleted      = "game_completed"
	TypeGameOver           = "game_over"
	TypeTimerUpdate        = "timer_update"
	TypeTimerExtended      = "timer_extended"
	TypeRandomEvent        = "random_event"
	TypeLookoutWarning     = "lookout_warning"
	TypeLookoutPrediction  = "lookout_prediction"
	TypePowerUsed          = "power_used"
	TypeVoteInitiated      = "timer_vote_initiated"
	TypeVoteUpdate         = "timer_vote_update"
	TypeVoteCompleted      = "timer_vote_completed"
	TypeError              = "error"
)

// TeamPuzzle is the PuzzleSolution.Puzzle value that targets the shared team puzzle.
const TeamPuzzle = "team"

// Envelope is one websocket frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps payload in an envelope of type typ and marshals it.
func Encode(typ string, payload any) ([]byte, error) {
	env := Envelope{Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		env.Payload = data
	}
	return json.Marshal(env)
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", e.Type, err)
	}
	return nil
}

// SelectRole picks a crew role in the lobby.
type SelectRole struct {
	Role string `json:"role"`
}

// PuzzleSolution submits a widget payload. Puzzle is empty for the player's own puzzle or
// TeamPuzzle. ID is echoed in the SolutionResult.
type PuzzleSolution struct {
	ID       int             `json:"id"`
	Puzzle   string          `json:"puzzle,omitempty"`
	Solution json.RawMessage `json:"solution"`
}

// Vote is a timer extension ballot.
type Vote struct {
	Vote bool `json:"vote"`
}

// Chat is a chat line. PlayerID and PlayerName are filled in by the server.
type Chat struct {
	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Message    string `json:"message"`
}

// PlayerInfo describes one crew member.
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Connected bool   `json:"connected"`
	IsHost    bool   `json:"is_host"`
}

// GameState is sent to a player when they connect.
type GameState struct {
	Room      string                `json:"room"`
	Stage     int                   `json:"stage"`
	Status    string                `json:"status"`
	Timer     int                   `json:"timer"`
	Alert     int                   `json:"alert_level"`
	Shortcuts int                   `json:"shortcuts"`
	Players   map[string]PlayerInfo `json:"players"`
}

// PlayerEvent announces a connection change.
type PlayerEvent struct {
	Player   *PlayerInfo `json:"player,omitempty"`
	PlayerID string      `json:"player_id,omitempty"`
}

// RoleConfirmed announces a role choice.
type RoleConfirmed struct {
	PlayerID string                `json:"player_id"`
	Role     string                `json:"role"`
	Players  map[string]PlayerInfo `json:"players"`
}

// GameStarted announces stage 1.
type GameStarted struct {
	Stage int `json:"stage"`
	Timer int `json:"timer"`
}

// PuzzleData hands a player the puzzle to mount. Key is the stage key, Config carries the
// canonical type and the target generated by the server.
type PuzzleData struct {
	Key    string        `json:"key"`
	Team   bool          `json:"team,omitempty"`
	Roles  []string      `json:"required_roles,omitempty"`
	Config puzzle.Config `json:"config"`
}

// SolutionResult is the verdict on a PuzzleSolution.
type SolutionResult struct {
	ID       int    `json:"id"`
	Puzzle   string `json:"puzzle,omitempty"`
	Accepted bool   `json:"accepted"`
}

// PuzzleCompleted announces a solved puzzle.
type PuzzleCompleted struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
	Puzzle   string `json:"puzzle"`
}

// StageCompleted announces the next stage.
type StageCompleted struct {
	NextStage int `json:"next_stage"`
	Timer     int `json:"timer"`
}

// GameOver ends a failed game.
type GameOver struct {
	Result string `json:"result"`
}

// TimerUpdate carries the game timer in seconds.
type TimerUpdate struct {
	Timer int  `json:"timer"`
	Sync  bool `json:"sync"`
}

// TimerExtended follows a successful vote.
type TimerExtended struct {
	Timer int  `json:"new_timer"`
	Alert int  `json:"alert_level"`
	Sync  bool `json:"sync"`
}

// RandomEvent locks the crew's widgets for Duration seconds.
type RandomEvent struct {
	Event    string `json:"event"`
	Duration int    `json:"duration"`
}

// LookoutWarning precedes a random event while the Lookout power is active.
type LookoutWarning struct {
	Event       string `json:"event"`
	WarningTime int    `json:"warning_time"`
	Message     string `json:"message"`
}

// LookoutPrediction is sent to the Lookout when they use their power.
type LookoutPrediction struct {
	Event         string `json:"event"`
	DisplayName   string `json:"display_name"`
	PredictedTime int    `json:"predicted_time"`
}

// PowerUsed announces a role power.
type PowerUsed struct {
	PlayerID    string `json:"player_id"`
	PlayerName  string `json:"player_name"`
	Role        string `json:"role"`
	Description string `json:"powerDescription,omitempty"`
}

// VoteInitiated opens a timer extension vote.
type VoteInitiated struct {
	InitiatorID   string   `json:"initiator_id"`
	InitiatorName string   `json:"initiator_name"`
	TimeLimit     int      `json:"vote_time_limit"`
	Votes         []string `json:"votes"`
}

// VoteUpdate reports one ballot.
type VoteUpdate struct {
	PlayerID string   `json:"player_id"`
	Vote     bool     `json:"vote"`
	Votes    []string `json:"votes"`
}

// VoteCompleted closes the vote.
type VoteCompleted struct {
	Success  bool     `json:"success"`
	Votes    []string `json:"votes"`
	Required int      `json:"required_votes"`
	Message  string   `json:"message"`
}

// Error reports a refused request. Context names the request kind. ID echoes the id of a refused
// puzzle_solution.
type Error struct {
	Context string `json:"context"`
	Message string `json:"message"`
	ID      int    `json:"id,omitempty"`
}

// CreateRoom is the body of POST /api/rooms/create.
type CreateRoom struct {
	HostName string `json:"host_name"`
}

// JoinRoom is the body of POST /api/rooms/join.
type JoinRoom struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

// RoomResponse answers create and join.
type RoomResponse struct {
	RoomCode string `json:"room_code,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
	Error    string `json:"error,omitempty"`
}
