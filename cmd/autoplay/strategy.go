package main

import (
	"sort"

	"github.com/wricardo/mcp-training/mensch/game/engine"
	"github.com/wricardo/mcp-training/mensch/game/service"
)

// Move priorities. Within a tier the piece that has travelled furthest wins.
const (
	scoreCapture   = 400
	scoreReachHome = 300
	scoreEnter     = 200
	scoreEscape    = 100
)

// GreedyStrategy picks the movable piece with the highest immediate payoff.
type GreedyStrategy struct{}

// Choose returns the piece to move for dice, or "" when nothing is movable.
func (GreedyStrategy) Choose(state *service.GameState, dice int) string {
	if len(state.MovablePieces) == 0 {
		return ""
	}

	pieces := make(map[string]service.PieceInfo, len(state.Pieces))
	for _, p := range state.Pieces {
		pieces[p.ID] = p
	}

	candidates := append([]string(nil), state.MovablePieces...)
	sort.Strings(candidates)

	best, bestScore := "", -1
	for _, id := range candidates {
		info, ok := pieces[id]
		if !ok {
			continue
		}
		if score := scoreMove(state, info, dice); score > bestScore {
			best, bestScore = id, score
		}
	}
	return best
}

// scoreMove simulates the move on a copy of the piece.
func scoreMove(state *service.GameState, info service.PieceInfo, dice int) int {
	piece := engine.Piece{
		ID:         info.ID,
		Owner:      info.Owner,
		Position:   info.Position,
		StepsTaken: info.StepsTaken,
		InHome:     info.InHome,
	}
	wasInStart := piece.IsInStart()
	if !piece.Move(dice) {
		return -1
	}

	score := info.StepsTaken
	switch {
	case engine.IsPathCell(piece.Position) && opponentAt(state, info.Owner, piece.Position):
		score += scoreCapture
	case piece.InHome:
		score += scoreReachHome
	case wasInStart:
		score += scoreEnter
	case threatened(state, info.Owner, info.Position) && !threatened(state, info.Owner, piece.Position):
		score += scoreEscape
	}
	return score
}

func opponentAt(state *service.GameState, owner engine.Color, position int) bool {
	for _, p := range state.Pieces {
		if p.Owner != owner && p.Position == position && p.State == engine.OnPath {
			return true
		}
	}
	return false
}

// threatened reports whether an opponent on the path sits within one roll
// behind position.
func threatened(state *service.GameState, owner engine.Color, position int) bool {
	if !engine.IsPathCell(position) {
		return false
	}
	for _, p := range state.Pieces {
		if p.Owner == owner || p.State != engine.OnPath {
			continue
		}
		gap := (position - p.Position + engine.PathLength) % engine.PathLength
		if gap >= engine.DiceMin && gap <= engine.DiceMax {
			return true
		}
	}
	return false
}
