package engine

import "time"

// Color identifies a player's side of the board.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
)

// AllColors lists the colors in seating (turn) order.
var AllColors = []Color{Red, Blue, Green, Yellow}

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// PieceState is derived from a piece's position and home flag.
type PieceState string

const (
	InStart    PieceState = "start"
	OnPath     PieceState = "path"
	InHomeLane PieceState = "home_lane"
	Home       PieceState = "home"
)

const (
	// Board geometry
	PathLength      = 40
	HomeLaneLength  = 4
	PiecesPerPlayer = 4
	PlayerCount     = 4
	StartArea       = -1

	// Dice
	DiceMin     = 1
	DiceMax     = 6
	RollToEnter = 6

	// Validation constants
	MaxPlayerNameLength = 100
	MaxSpecialTasks     = PathLength
)

// Piece is one token owned by a player.
type Piece struct {
	ID          string `json:"id"`
	Owner       Color  `json:"owner"`
	PieceNumber int    `json:"piece_number"`
	Position    int    `json:"position"`
	StepsTaken  int    `json:"steps_taken"`
	InHome      bool   `json:"in_home"`
}

// Player is a seat at the table with its four pieces.
type Player struct {
	Name   string   `json:"name"`
	Color  Color    `json:"color"`
	Order  int      `json:"order"`
	Pieces []*Piece `json:"pieces"`
}

// MoveHistoryEntry records one executed piece move.
type MoveHistoryEntry struct {
	MoveNumber  int      `json:"move_number"`
	Color       Color    `json:"color"`
	PieceID     string   `json:"piece_id"`
	Dice        int      `json:"dice"`
	From        int      `json:"from"`
	To          int      `json:"to"`
	Captured    []string `json:"captured,omitempty"`
	EnteredHome bool     `json:"entered_home,omitempty"`
	Timestamp   int64    `json:"timestamp"`
}

// SpecialTask is challenge metadata attached to a path cell.
type SpecialTask struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Task     string `json:"task"`
	Type     string `json:"type"`
	Image    string `json:"image,omitempty"`
}

// Messages are the player-facing texts of a configuration
type Messages struct {
	Welcome     string `json:"welcome"`
	Moved       string `json:"moved"`
	Captured    string `json:"captured"`
	EnteredHome string `json:"entered_home"`
	ExtraTurn   string `json:"extra_turn"`
	NoMoves     string `json:"no_moves"`
	Victory     string `json:"victory"`
}

// GameConfig represents a game configuration loaded from JSON
type GameConfig struct {
	Name               string        `json:"name"`
	Description        string        `json:"description"`
	DefaultPlayerNames []string      `json:"default_player_names,omitempty"`
	SpecialTasks       []SpecialTask `json:"special_tasks"`
	Messages           Messages      `json:"messages"`
}

// TaskAt returns the special task registered for a board position.
func (c *GameConfig) TaskAt(position int) (*SpecialTask, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.SpecialTasks {
		if c.SpecialTasks[i].Position == position {
			return &c.SpecialTasks[i], true
		}
	}
	return nil, false
}

// SpecialPositions returns every position that carries a task.
func (c *GameConfig) SpecialPositions() []int {
	if c == nil {
		return nil
	}
	positions := make([]int, 0, len(c.SpecialTasks))
	for _, t := range c.SpecialTasks {
		positions = append(positions, t.Position)
	}
	return positions
}

func nowUnix() int64 {
	return time.Now().Unix()
}
