// Package service provides the orchestration layer of the Mensch game server.
//
// The service package implements:
//   - Hosting many games side by side, each in its own session
//   - The precondition checks around every command (game status, turn
//     ownership, pending dice, move legality)
//   - The extra-roll rule after a six and automatic turn passing when a
//     roll leaves no legal move
//   - Special-task lookup on the landing cell and victory detection
//   - Paginated move history and configuration access
//
// Core Interfaces:
//
// GameService is the main service interface used by the transports.
// SessionManager stores sessions; ConfigManager loads game configurations.
//
// Concurrency:
//
// The engine itself performs no locking. Every command takes the session's
// own mutex for its whole duration, so two requests for the same game never
// interleave while different games proceed in parallel. Results carry a
// GameState copy so transports can encode them after the lock is released.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateGame(ctx, "classic", []string{"Ana", "Ben"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	roll, _ := gameService.RollDice(ctx, info.ID)
//	if len(roll.MovablePieces) > 0 {
//		result, err := gameService.MovePiece(ctx, info.ID, roll.MovablePieces[0], 0)
//	}
//
// Errors:
//
// Rule violations are the engine sentinels (ErrGameNotActive,
// ErrNotPlayersTurn, ErrDiceNotRolled, ErrIllegalMove, ErrPieceNotFound,
// ErrDiceAlreadyRolled). Lookups fail with ErrGameNotFound or
// ErrConfigNotFound. No rejected command mutates the game.
package service
