package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if len(config.DefaultPlayerNames) > PlayerCount {
		return fmt.Errorf("config validation: at most %d default_player_names allowed, got %d",
			PlayerCount, len(config.DefaultPlayerNames))
	}
	for i, name := range config.DefaultPlayerNames {
		if len(name) > MaxPlayerNameLength {
			return fmt.Errorf("config validation: default_player_names[%d] exceeds %d characters", i, MaxPlayerNameLength)
		}
	}

	// Validate special tasks
	if len(config.SpecialTasks) > MaxSpecialTasks {
		return fmt.Errorf("config validation: at most %d special_tasks allowed, got %d", MaxSpecialTasks, len(config.SpecialTasks))
	}
	seen := make(map[int]bool, len(config.SpecialTasks))
	for i, task := range config.SpecialTasks {
		if !IsPathCell(task.Position) {
			return fmt.Errorf("config validation: special_tasks[%d] position must be between 0 and %d, got %d",
				i, PathLength-1, task.Position)
		}
		if seen[task.Position] {
			return fmt.Errorf("config validation: special_tasks[%d] duplicates position %d", i, task.Position)
		}
		seen[task.Position] = true
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("config validation: special_tasks[%d] title is required", i)
		}
		if strings.TrimSpace(task.Type) == "" {
			return fmt.Errorf("config validation: special_tasks[%d] type is required", i)
		}
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}

	// Validate format strings
	if !strings.Contains(config.Messages.Victory, "%s") {
		return fmt.Errorf("config validation: messages.victory must contain %%s for the winner name")
	}
	if config.Messages.Captured != "" && !strings.Contains(config.Messages.Captured, "%d") {
		return fmt.Errorf("config validation: messages.captured must contain %%d for the capture count")
	}

	return nil
}

// ValidateGameState checks the structural invariants of a decoded game.
func ValidateGameState(g *Game) error {
	if g == nil {
		return fmt.Errorf("%w: game is nil", ErrInvalidState)
	}
	switch g.Status {
	case StatusWaiting, StatusInProgress, StatusFinished:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, g.Status)
	}
	if len(g.Players) != PlayerCount {
		return fmt.Errorf("%w: expected %d players, got %d", ErrInvalidState, PlayerCount, len(g.Players))
	}
	if g.CurrentPlayerIndex < 0 {
		return fmt.Errorf("%w: negative current player index", ErrInvalidState)
	}
	if g.DiceValue != 0 && (g.DiceValue < DiceMin || g.DiceValue > DiceMax) {
		return fmt.Errorf("%w: dice value %d out of range", ErrInvalidState, g.DiceValue)
	}
	if g.Winner != nil && g.PlayerByColor(*g.Winner) == nil {
		return fmt.Errorf("%w: winner %q is not seated", ErrInvalidState, *g.Winner)
	}

	colors := make(map[Color]bool, PlayerCount)
	orders := make(map[int]bool, PlayerCount)
	for _, pl := range g.Players {
		geo, ok := GeometryFor(pl.Color)
		if !ok {
			return fmt.Errorf("%w: unknown color %q", ErrInvalidState, pl.Color)
		}
		if colors[pl.Color] {
			return fmt.Errorf("%w: color %q seated twice", ErrInvalidState, pl.Color)
		}
		colors[pl.Color] = true
		if orders[pl.Order] {
			return fmt.Errorf("%w: turn order %d used twice", ErrInvalidState, pl.Order)
		}
		orders[pl.Order] = true

		if len(pl.Pieces) != PiecesPerPlayer {
			return fmt.Errorf("%w: %s has %d pieces", ErrInvalidState, pl.Color, len(pl.Pieces))
		}
		for _, p := range pl.Pieces {
			if p.Owner != pl.Color {
				return fmt.Errorf("%w: piece %s owned by %s sits with %s", ErrInvalidState, p.ID, p.Owner, pl.Color)
			}
			if p.PieceNumber < 0 || p.PieceNumber >= PiecesPerPlayer {
				return fmt.Errorf("%w: piece %s has number %d", ErrInvalidState, p.ID, p.PieceNumber)
			}
			if p.StepsTaken < 0 {
				return fmt.Errorf("%w: piece %s has negative steps", ErrInvalidState, p.ID)
			}
			validPos := p.Position == StartArea || IsPathCell(p.Position) || geo.InHomeRange(p.Position)
			if !validPos {
				return fmt.Errorf("%w: piece %s at %d is off the board", ErrInvalidState, p.ID, p.Position)
			}
			if p.InHome && !geo.InHomeRange(p.Position) {
				return fmt.Errorf("%w: piece %s marked home at %d", ErrInvalidState, p.ID, p.Position)
			}
		}
	}
	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Validate the loaded configuration
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultGameConfig returns the built-in configuration used when no config
// directory entry is available. It carries no special tasks.
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:        "default",
		Description: "Standard board without challenge cells",
	}
	config.Messages.Welcome = "Welcome! Roll a six to bring a piece onto the board."
	config.Messages.Moved = "%s moved %s to %d."
	config.Messages.Captured = "Captured %d piece(s)!"
	config.Messages.EnteredHome = "A piece reached home!"
	config.Messages.ExtraTurn = "Rolled a six, roll again!"
	config.Messages.NoMoves = "No valid moves available. Next turn!"
	config.Messages.Victory = "%s wins the game!"
	return config
}
