// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes one REST request
// against a running game server, and the JSON reply is rendered as plain
// text for the agent. No rules run here.
//
// Tools:
//   - create_game, list_games, get_game
//   - game_state, list_pieces, move_history
//   - roll_dice, move_piece, end_turn, quit_game
//   - list_configs, game_instructions
//
// Rule violations come back as tool errors carrying the server's code,
// for example "not your turn (NOT_YOUR_TURN)".
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
