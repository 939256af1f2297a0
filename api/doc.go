// Package api exposes the game service over HTTP.
//
// Endpoints:
//
// Games:
//   - POST /api/games - Create a game ({"config_id": "...", "players": [...]})
//   - GET /api/games - List games (?sort=created|accessed&order=asc|desc&limit=N&status=...)
//   - GET /api/games/{id} - Get one game with its config
//   - DELETE /api/games/{id} - Delete a game
//
// Play:
//   - GET /api/games/{id}/state - Current turn, dice and board
//   - GET /api/games/{id}/pieces - All pieces (?owner=red)
//   - POST /api/games/{id}/roll - Roll for the current player
//   - POST /api/games/{id}/move - Move a piece ({"piece_id": "red-0"})
//   - POST /api/games/{id}/end-turn - Pass to the next player
//   - POST /api/games/{id}/quit - Finish the game
//   - GET /api/games/{id}/history - Paginated moves (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET /api/configs - List configs
//   - GET /api/configs/{name} - Get a config
//   - POST /api/configs - Save a config
//
// Live updates are served at /ws?game={id}. Every successful command is
// followed by a broadcast to the game's watchers.
//
// Errors are JSON with a stable code:
//
//	{"error": "not your turn", "code": "NOT_YOUR_TURN"}
//
// Status codes: 404 for unknown games, configs and pieces; 403 for moving
// out of turn; 409 when the game is over or the dice are already rolled;
// 400 for everything else the caller got wrong.
package api
