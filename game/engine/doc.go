// Package engine provides the core rules of the Mensch board game.
//
// The engine package implements the game mechanics including:
//   - Per-color board geometry (path entry cell and home lane)
//   - Piece movement legality and transitions
//   - Capture on landing, resolved through a per-game cell index
//   - Turn rotation, dice state and win detection
//   - Game configuration validation
//
// Core Types:
//
// Piece owns one token's position and its movement rules. Game is the turn
// coordinator: it owns the players, the active dice value and the board
// index used for captures. GameConfig carries the special-task table and
// the message templates loaded from JSON files.
//
// Usage:
//
//	game := engine.NewGame("g1", []string{"Ana", "Ben"}, engine.NewRandomRoller())
//	if err := game.Start(); err != nil {
//		log.Fatal(err)
//	}
//
//	dice := game.RollDice()
//	for _, p := range game.MovablePieces(dice) {
//		outcome, _ := game.MovePiece(p.ID, dice)
//		fmt.Println(outcome.To, len(outcome.Captured))
//		break
//	}
//
// Game Rules:
//
// Four players each control four pieces. A piece leaves the start area only
// on a six, then walks the shared 40-cell circular path starting at its
// color's entry cell. After exactly 40 steps it enters a private 4-cell home
// lane and may not overshoot it. Landing on an opponent's piece sends that
// piece back to start. The first player with all four pieces home wins.
//
// A Game is not safe for concurrent use; the service layer serializes all
// commands on one game.
package engine
