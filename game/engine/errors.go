package engine

import "errors"

// Rule violations reported to callers. None of them mutate state.
var (
	ErrGameNotActive     = errors.New("game is not in progress")
	ErrNotPlayersTurn    = errors.New("not your turn")
	ErrDiceNotRolled     = errors.New("roll the dice first")
	ErrIllegalMove       = errors.New("invalid move")
	ErrPieceNotFound     = errors.New("piece not found")
	ErrDiceAlreadyRolled = errors.New("dice already rolled this turn")
	ErrInvalidState      = errors.New("invalid game state")
)

// ErrorCode maps a rule violation to a stable machine-readable code.
// Unknown errors map to the empty string.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrGameNotActive):
		return "GAME_NOT_ACTIVE"
	case errors.Is(err, ErrNotPlayersTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, ErrDiceNotRolled):
		return "DICE_NOT_ROLLED"
	case errors.Is(err, ErrIllegalMove):
		return "INVALID_MOVE"
	case errors.Is(err, ErrPieceNotFound):
		return "PIECE_NOT_FOUND"
	case errors.Is(err, ErrDiceAlreadyRolled):
		return "DICE_ALREADY_ROLLED"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	}
	return ""
}
