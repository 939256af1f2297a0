// Package websocket pushes live game updates to browser and bot clients.
//
// A single Hub owns every connection. Clients join one game through the
// query string (/ws?game=<id>) and only receive messages for that game.
// Clients are listeners: anything they send is read and discarded so that
// pings and close frames keep flowing.
//
// Outgoing messages are JSON documents:
//
//	{"game_id": "...", "event": "state_update", "game_state": {...}}
//	{"game_id": "...", "event": "piece_moved", "data": {...}}
//
// Broadcasts are queued on a buffered channel and fanned out by Run, so
// request handlers never block on slow sockets. When the queue is full the
// message is dropped and a warning is logged.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.BroadcastState(gameID, state)
package websocket
