package engine

import "fmt"

// Engine provides the main interface for turn coordination
type Engine interface {
	// Turn state
	RollDice() int
	CurrentPlayer() *Player
	NextTurn()
	CheckWinner() bool
	Quit()

	// Movement operations
	MovePiece(pieceID string, dice int) (*MoveOutcome, bool)
	MovablePieces(dice int) []*Piece

	// Queries
	Piece(id string) (*Piece, bool)
	Pieces() []*Piece
	IsActive() bool
}

// Game is the turn coordinator. It owns the players, the dice state and the
// board index. A Game is not safe for concurrent use; callers serialize
// commands per game.
type Game struct {
	ID                 string             `json:"id"`
	Status             Status             `json:"status"`
	CurrentPlayerIndex int                `json:"current_player_index"`
	DiceValue          int                `json:"dice_value"`
	Winner             *Color             `json:"winner,omitempty"`
	Players            []*Player          `json:"players"`
	Message            string             `json:"message,omitempty"`
	MoveHistory        []MoveHistoryEntry `json:"move_history"`
	TotalMoves         int                `json:"total_moves"`

	dice   DiceRoller
	board  *board
	pieces map[string]*Piece
}

// MoveOutcome describes the effect of a successful move.
type MoveOutcome struct {
	Piece       *Piece
	From        int
	To          int
	Captured    []*Piece
	EnteredHome bool
}

// NewGame seats four players in color order with all pieces in the start
// area. Missing names default to "Player N". A nil roller selects the
// default random roller.
func NewGame(id string, names []string, roller DiceRoller) *Game {
	if roller == nil {
		roller = NewRandomRoller()
	}
	g := &Game{
		ID:          id,
		Status:      StatusWaiting,
		Players:     make([]*Player, 0, PlayerCount),
		MoveHistory: []MoveHistoryEntry{},
		dice:        roller,
	}

	for i, color := range AllColors {
		name := fmt.Sprintf("Player %d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		pl := &Player{Name: name, Color: color, Order: i}
		for n := 0; n < PiecesPerPlayer; n++ {
			pl.Pieces = append(pl.Pieces, &Piece{
				ID:          PieceID(color, n),
				Owner:       color,
				PieceNumber: n,
				Position:    StartArea,
			})
		}
		g.Players = append(g.Players, pl)
	}

	g.reindex()
	return g
}

// PieceID builds the stable identifier of a piece.
func PieceID(c Color, number int) string {
	return fmt.Sprintf("%s-%d", c, number)
}

// Start moves a waiting game into play.
func (g *Game) Start() error {
	if g.Status != StatusWaiting {
		return fmt.Errorf("%w: cannot start a game that is %s", ErrInvalidState, g.Status)
	}
	g.Status = StatusInProgress
	return nil
}

// IsActive reports whether the game accepts rolls and moves.
func (g *Game) IsActive() bool {
	return g.Status == StatusInProgress
}

// SetDiceRoller replaces the dice provider, e.g. after loading from storage.
func (g *Game) SetDiceRoller(r DiceRoller) {
	if r == nil {
		r = NewRandomRoller()
	}
	g.dice = r
}

// RollDice draws a new value and stores it as the active roll for the turn.
// Rolling again overwrites the previous value.
func (g *Game) RollDice() int {
	if g.dice == nil {
		g.dice = NewRandomRoller()
	}
	g.DiceValue = g.dice.Roll()
	return g.DiceValue
}

// CurrentPlayer returns the player whose turn it is, or nil without players.
func (g *Game) CurrentPlayer() *Player {
	n := len(g.Players)
	if n == 0 {
		return nil
	}
	idx := g.CurrentPlayerIndex % n
	if idx < 0 {
		idx += n
	}
	return g.Players[idx]
}

// NextTurn passes the turn to the next player and clears the dice.
func (g *Game) NextTurn() {
	n := len(g.Players)
	if n == 0 {
		return
	}
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % n
	g.DiceValue = 0
}

// CheckWinner records the first player (in seating order) with all pieces
// home and finishes the game.
func (g *Game) CheckWinner() bool {
	for _, pl := range g.Players {
		if pl.HasWon() {
			color := pl.Color
			g.Winner = &color
			g.Status = StatusFinished
			return true
		}
	}
	return false
}

// WinnerPlayer returns the recorded winner, if any.
func (g *Game) WinnerPlayer() *Player {
	if g.Winner == nil {
		return nil
	}
	return g.PlayerByColor(*g.Winner)
}

// Quit ends the game regardless of its current state.
func (g *Game) Quit() {
	g.Status = StatusFinished
}

// PlayerByColor looks up a seated player.
func (g *Game) PlayerByColor(c Color) *Player {
	for _, pl := range g.Players {
		if pl.Color == c {
			return pl
		}
	}
	return nil
}

// Piece looks up a piece by ID.
func (g *Game) Piece(id string) (*Piece, bool) {
	if g.pieces == nil {
		g.reindex()
	}
	p, ok := g.pieces[id]
	return p, ok
}

// Pieces returns every piece in seating order.
func (g *Game) Pieces() []*Piece {
	out := make([]*Piece, 0, len(g.Players)*PiecesPerPlayer)
	for _, pl := range g.Players {
		out = append(out, pl.Pieces...)
	}
	return out
}

// MovablePieces lists the current player's pieces that can move by dice.
func (g *Game) MovablePieces(dice int) []*Piece {
	pl := g.CurrentPlayer()
	if pl == nil {
		return nil
	}
	var movable []*Piece
	for _, p := range pl.Pieces {
		if p.CanMove(dice) {
			movable = append(movable, p)
		}
	}
	return movable
}

// MovePiece moves one piece and resolves captures on the landing cell.
// It returns false without mutating anything when the piece is unknown or
// the move is illegal. Turn ownership and dice state are the caller's checks.
func (g *Game) MovePiece(pieceID string, dice int) (*MoveOutcome, bool) {
	p, ok := g.Piece(pieceID)
	if !ok {
		return nil, false
	}
	if g.board == nil {
		g.reindex()
	}

	from := p.Position
	if !p.Move(dice) {
		return nil, false
	}
	g.board.remove(p, from)
	g.board.place(p)

	outcome := &MoveOutcome{
		Piece:       p,
		From:        from,
		To:          p.Position,
		EnteredHome: p.InHome,
	}
	if p.State() == OnPath {
		outcome.Captured = g.checkCapture(p)
	}

	g.addMoveToHistory(outcome, dice)
	return outcome, true
}

// checkCapture sends every opposing piece sharing p's path cell back to start.
func (g *Game) checkCapture(p *Piece) []*Piece {
	if p.IsInStart() || p.InHome || !IsPathCell(p.Position) {
		return nil
	}

	var captured []*Piece
	for _, other := range g.board.occupants(p.Position) {
		if other == p || other.Owner == p.Owner || other.InHome {
			continue
		}
		g.board.remove(other, other.Position)
		other.SendToStart()
		captured = append(captured, other)
	}
	return captured
}

// OccupantsAt returns the pieces standing on a path cell.
func (g *Game) OccupantsAt(position int) []*Piece {
	if g.board == nil {
		g.reindex()
	}
	return g.board.occupants(position)
}

// addMoveToHistory appends an executed move to the game's history
func (g *Game) addMoveToHistory(o *MoveOutcome, dice int) {
	entry := MoveHistoryEntry{
		MoveNumber:  g.TotalMoves + 1,
		Color:       o.Piece.Owner,
		PieceID:     o.Piece.ID,
		Dice:        dice,
		From:        o.From,
		To:          o.To,
		EnteredHome: o.EnteredHome,
		Timestamp:   nowUnix(),
	}
	for _, c := range o.Captured {
		entry.Captured = append(entry.Captured, c.ID)
	}
	g.MoveHistory = append(g.MoveHistory, entry)
	g.TotalMoves++
}

// GetLastMove returns the last move made, or nil if no moves
func (g *Game) GetLastMove() *MoveHistoryEntry {
	if len(g.MoveHistory) == 0 {
		return nil
	}
	return &g.MoveHistory[len(g.MoveHistory)-1]
}

// Restore validates a decoded game and rebuilds its indexes. It must be
// called after unmarshalling a persisted game.
func (g *Game) Restore(roller DiceRoller) error {
	if err := ValidateGameState(g); err != nil {
		return err
	}
	if g.MoveHistory == nil {
		g.MoveHistory = []MoveHistoryEntry{}
	}
	g.CurrentPlayerIndex %= len(g.Players)
	g.SetDiceRoller(roller)
	g.reindex()
	return nil
}

func (g *Game) reindex() {
	g.pieces = make(map[string]*Piece, len(g.Players)*PiecesPerPlayer)
	for _, pl := range g.Players {
		for _, p := range pl.Pieces {
			g.pieces[p.ID] = p
		}
	}
	if g.board == nil {
		g.board = newBoard()
	}
	g.board.rebuild(g.Players)
}
