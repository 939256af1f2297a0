package service

import (
	"time"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

// GameInfo provides information about a hosted game
type GameInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *GameState         `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config,omitempty"`
}

// GameState is a point-in-time copy of a game, safe to hand to transports
type GameState struct {
	GameID             string        `json:"game_id"`
	Status             engine.Status `json:"status"`
	CurrentPlayerIndex int           `json:"current_player_index"`
	CurrentPlayer      engine.Color  `json:"current_player,omitempty"`
	CurrentPlayerName  string        `json:"current_player_name,omitempty"`
	DiceValue          int           `json:"dice_value"`
	Winner             *engine.Color `json:"winner,omitempty"`
	WinnerName         string        `json:"winner_name,omitempty"`
	Players            []PlayerInfo  `json:"players"`
	Pieces             []PieceInfo   `json:"pieces"`
	MovablePieces      []string      `json:"movable_pieces,omitempty"`
	Message            string        `json:"message,omitempty"`
	TotalMoves         int           `json:"total_moves"`
}

// PlayerInfo summarizes one seat
type PlayerInfo struct {
	Name       string       `json:"name"`
	Color      engine.Color `json:"color"`
	Order      int          `json:"order"`
	PiecesHome int          `json:"pieces_home"`
	HasWon     bool         `json:"has_won"`
}

// PieceInfo is the externally visible view of a piece
type PieceInfo struct {
	ID          string            `json:"id"`
	Owner       engine.Color      `json:"owner"`
	PieceNumber int               `json:"piece_number"`
	Position    int               `json:"position"`
	StepsTaken  int               `json:"steps_taken"`
	InHome      bool              `json:"in_home"`
	State       engine.PieceState `json:"state"`
}

// RollResult contains the outcome of a dice roll
type RollResult struct {
	Dice          int          `json:"dice"`
	Player        engine.Color `json:"player"`
	PlayerName    string       `json:"player_name"`
	MovablePieces []string     `json:"movable_pieces"`
	TurnPassed    bool         `json:"turn_passed"`
	Message       string       `json:"message"`
	GameState     *GameState   `json:"game_state"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool                `json:"success"`
	PieceID     string              `json:"piece_id"`
	Dice        int                 `json:"dice"`
	From        int                 `json:"from"`
	To          int                 `json:"to"`
	Captured    []string            `json:"captured,omitempty"`
	EnteredHome bool                `json:"entered_home,omitempty"`
	SpecialTask *engine.SpecialTask `json:"special_task,omitempty"`
	ExtraTurn   bool                `json:"extra_turn,omitempty"`
	GameOver    bool                `json:"game_over"`
	Winner      *engine.Color       `json:"winner,omitempty"`
	WinnerName  string              `json:"winner_name,omitempty"`
	NextPlayer  engine.Color        `json:"next_player,omitempty"`
	Message     string              `json:"message"`
	Events      []GameEvent         `json:"events,omitempty"`
	GameState   *GameState          `json:"game_state"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "move", "capture", "home", "special_task", "extra_turn", "victory"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Position  *int      `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename         string `json:"filename"`
	ConfigID         string `json:"config_id"` // The identifier to use for game creation
	Name             string `json:"name"`      // Display name
	Description      string `json:"description"`
	SpecialTaskCount int    `json:"special_task_count"`
	SpecialPositions []int  `json:"special_positions,omitempty"`
}

// newGameState copies the externally visible parts of g.
func newGameState(g *engine.Game) *GameState {
	state := &GameState{
		GameID:             g.ID,
		Status:             g.Status,
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		DiceValue:          g.DiceValue,
		Message:            g.Message,
		TotalMoves:         g.TotalMoves,
		Players:            make([]PlayerInfo, 0, len(g.Players)),
		Pieces:             make([]PieceInfo, 0, len(g.Players)*engine.PiecesPerPlayer),
	}

	if cur := g.CurrentPlayer(); cur != nil {
		state.CurrentPlayer = cur.Color
		state.CurrentPlayerName = cur.Name
	}
	if g.Winner != nil {
		winner := *g.Winner
		state.Winner = &winner
		if pl := g.WinnerPlayer(); pl != nil {
			state.WinnerName = pl.Name
		}
	}

	for _, pl := range g.Players {
		state.Players = append(state.Players, PlayerInfo{
			Name:       pl.Name,
			Color:      pl.Color,
			Order:      pl.Order,
			PiecesHome: pl.PiecesHome(),
			HasWon:     pl.HasWon(),
		})
		for _, p := range pl.Pieces {
			state.Pieces = append(state.Pieces, newPieceInfo(p))
		}
	}

	if g.IsActive() && g.DiceValue != 0 {
		state.MovablePieces = pieceIDs(g.MovablePieces(g.DiceValue))
	}
	return state
}

func newPieceInfo(p *engine.Piece) PieceInfo {
	return PieceInfo{
		ID:          p.ID,
		Owner:       p.Owner,
		PieceNumber: p.PieceNumber,
		Position:    p.Position,
		StepsTaken:  p.StepsTaken,
		InHome:      p.InHome,
		State:       p.State(),
	}
}

func pieceIDs(pieces []*engine.Piece) []string {
	ids := make([]string, 0, len(pieces))
	for _, p := range pieces {
		ids = append(ids, p.ID)
	}
	return ids
}
