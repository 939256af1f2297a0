// Package config loads the game configurations of the Mensch game server.
//
// A configuration is a JSON file in the config directory. Its file name
// without the .json suffix is the config id used when creating a game.
// Each configuration defines:
//   - Display name and description
//   - Optional default player names
//   - Special tasks: challenge metadata keyed by path cell (0-39)
//   - Player-facing messages for moves, captures, extra rolls and victory
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("classic")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is classic.json when present, otherwise the first valid
// file, otherwise a built-in board without special tasks. Loaded configs
// are validated with engine.ValidateGameConfig and cached until
// RefreshCache is called.
package config
