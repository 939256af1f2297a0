// Package session keeps the hosted games of the Mensch game server.
//
// Manager is a thread-safe registry of service.Session values keyed by a
// case-insensitive game ID (a UUID unless the caller picks one). It builds
// each engine.Game with a dice roller from a replaceable factory, so a
// server started with a seed deals reproducible rolls.
//
// Persistence:
//
// SessionPersistence abstracts storage. Two backends ship:
//   - FilePersistence: one JSON document per game in a directory
//   - SQLitePersistence: one row per game in a SQLite database, schema
//     managed by embedded migrations
//
// Both store the same document: session metadata, a snapshot of the game
// config and the full game. Loading validates the game and rebuilds its
// board index before it is handed out.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("data/games.db", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", cfg, []string{"Ana", "Ben"})
//
// Locking:
//
// The manager's own lock only guards the registry. Reading or writing a
// game, including Save, happens under the session's lock.
package session
