package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// GameService defines all game-related operations
type GameService interface {
	// Game Management
	CreateGame(ctx context.Context, configName string, playerNames []string) (*GameInfo, error)
	GetGame(ctx context.Context, gameID string) (*GameInfo, error)
	ListGames(ctx context.Context) ([]*GameInfo, error)
	DeleteGame(ctx context.Context, gameID string) error

	// Turn Operations
	RollDice(ctx context.Context, gameID string) (*RollResult, error)
	MovePiece(ctx context.Context, gameID, pieceID string, dice int) (*MoveResult, error)
	EndTurn(ctx context.Context, gameID string) (*GameState, error)
	Quit(ctx context.Context, gameID string) (*GameState, error)

	// Game State
	GetGameState(ctx context.Context, gameID string) (*GameState, error)
	ListPieces(ctx context.Context, gameID string) ([]PieceInfo, error)
	GetMoveHistory(ctx context.Context, gameID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines game session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig, playerNames []string) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(session *Session) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session is one hosted game. Commands on a session hold its lock for
// their whole duration, so moves on the same game never interleave while
// different games proceed in parallel.
type Session struct {
	ID             string
	ConfigID       string
	Game           *engine.Game
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock serializes commands on the session's game.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }
