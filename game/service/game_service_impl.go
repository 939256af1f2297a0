package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateGame seats four players and starts the game immediately
func (s *gameServiceImpl) CreateGame(ctx context.Context, configName string, playerNames []string) (*GameInfo, error) {
	config, configID, err := s.resolveConfig(configName)
	if err != nil {
		return nil, err
	}

	names, err := normalizePlayerNames(playerNames, config.DefaultPlayerNames)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create("", configID, config, names)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	if err := sess.Game.Start(); err != nil {
		return nil, err
	}
	sess.Game.Message = messagesFor(config).Welcome
	s.persist(sess)

	log.WithFields(log.Fields{
		"game":   sess.ID,
		"config": configID,
	}).Info("game created")

	return newGameInfo(sess), nil
}

// GetGame retrieves game information
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (*GameInfo, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	return newGameInfo(sess), nil
}

// ListGames returns all hosted games, oldest first
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	sessions := s.sessions.List()
	result := make([]*GameInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, newGameInfo(sess))
		sess.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteGame removes a game
func (s *gameServiceImpl) DeleteGame(ctx context.Context, gameID string) error {
	if err := s.sessions.Delete(gameID); err != nil {
		return err
	}
	log.WithField("game", gameID).Info("game deleted")
	return nil
}

// RollDice rolls for the current player. A pending unused roll must be
// consumed first. When the roll leaves no legal move the turn passes.
func (s *gameServiceImpl) RollDice(ctx context.Context, gameID string) (*RollResult, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	g := sess.Game
	if !g.IsActive() {
		return nil, engine.ErrGameNotActive
	}
	if g.DiceValue != 0 {
		return nil, fmt.Errorf("%w: %d is still unused", engine.ErrDiceAlreadyRolled, g.DiceValue)
	}

	msgs := messagesFor(sess.Config)
	player := g.CurrentPlayer()
	value := g.RollDice()
	movable := g.MovablePieces(value)

	result := &RollResult{
		Dice:          value,
		Player:        player.Color,
		PlayerName:    player.Name,
		MovablePieces: pieceIDs(movable),
	}

	if len(movable) == 0 {
		g.NextTurn()
		g.Message = msgs.NoMoves
		result.TurnPassed = true
	} else {
		g.Message = fmt.Sprintf("%s rolled %d.", player.Name, value)
	}
	result.Message = g.Message
	result.GameState = newGameState(g)
	s.persist(sess)

	log.WithFields(log.Fields{
		"game":    sess.ID,
		"player":  player.Color,
		"dice":    value,
		"movable": len(movable),
		"passed":  result.TurnPassed,
	}).Info("dice rolled")

	return result, nil
}

// MovePiece moves one of the current player's pieces by the active roll.
// Preconditions are checked before anything is mutated. A dice of 0 means
// "use the active roll"; any other value must match it.
func (s *gameServiceImpl) MovePiece(ctx context.Context, gameID, pieceID string, dice int) (*MoveResult, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	g := sess.Game
	if !g.IsActive() {
		return nil, engine.ErrGameNotActive
	}
	piece, ok := g.Piece(pieceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrPieceNotFound, pieceID)
	}
	player := g.CurrentPlayer()
	if piece.Owner != player.Color {
		return nil, fmt.Errorf("%w: %s moves now", engine.ErrNotPlayersTurn, player.Color)
	}
	if g.DiceValue == 0 {
		return nil, engine.ErrDiceNotRolled
	}
	if dice != 0 && dice != g.DiceValue {
		return nil, fmt.Errorf("%w: dice %d does not match the active roll %d", engine.ErrIllegalMove, dice, g.DiceValue)
	}
	if !piece.CanMove(g.DiceValue) {
		return nil, fmt.Errorf("%w: %s cannot move %d", engine.ErrIllegalMove, pieceID, g.DiceValue)
	}

	rolled := g.DiceValue
	outcome, ok := g.MovePiece(pieceID, rolled)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot move %d", engine.ErrIllegalMove, pieceID, rolled)
	}

	msgs := messagesFor(sess.Config)
	now := time.Now()
	to := outcome.To
	result := &MoveResult{
		Success:     true,
		PieceID:     pieceID,
		Dice:        rolled,
		From:        outcome.From,
		To:          outcome.To,
		Captured:    pieceIDs(outcome.Captured),
		EnteredHome: outcome.EnteredHome,
	}

	messages := []string{fmt.Sprintf(msgs.Moved, player.Name, pieceID, outcome.To)}
	result.Events = append(result.Events, GameEvent{
		Type:      "move",
		Message:   messages[0],
		Timestamp: now,
		Position:  &to,
	})

	if n := len(outcome.Captured); n > 0 {
		text := fmt.Sprintf(msgs.Captured, n)
		messages = append(messages, text)
		result.Events = append(result.Events, GameEvent{Type: "capture", Message: text, Timestamp: now, Position: &to})
	}
	if outcome.EnteredHome {
		messages = append(messages, msgs.EnteredHome)
		result.Events = append(result.Events, GameEvent{Type: "home", Message: msgs.EnteredHome, Timestamp: now, Position: &to})
	}
	if piece.State() == engine.OnPath {
		if task, found := sess.Config.TaskAt(outcome.To); found {
			t := *task
			result.SpecialTask = &t
			result.Events = append(result.Events, GameEvent{Type: "special_task", Message: t.Title, Timestamp: now, Position: &to})
		}
	}

	switch {
	case g.CheckWinner():
		winner := g.WinnerPlayer()
		result.GameOver = true
		result.Winner = g.Winner
		result.WinnerName = winner.Name
		text := fmt.Sprintf(msgs.Victory, winner.Name)
		messages = append(messages, text)
		result.Events = append(result.Events, GameEvent{Type: "victory", Message: text, Timestamp: now})
	case rolled == engine.RollToEnter:
		g.DiceValue = 0
		result.ExtraTurn = true
		messages = append(messages, msgs.ExtraTurn)
		result.Events = append(result.Events, GameEvent{Type: "extra_turn", Message: msgs.ExtraTurn, Timestamp: now})
	default:
		g.NextTurn()
	}

	if !result.GameOver {
		result.NextPlayer = g.CurrentPlayer().Color
	}
	g.Message = strings.Join(messages, " ")
	result.Message = g.Message
	result.GameState = newGameState(g)
	s.persist(sess)

	log.WithFields(log.Fields{
		"game":     sess.ID,
		"piece":    pieceID,
		"dice":     rolled,
		"from":     outcome.From,
		"to":       outcome.To,
		"captured": len(outcome.Captured),
	}).Info("piece moved")
	if result.GameOver {
		log.WithFields(log.Fields{"game": sess.ID, "winner": *result.Winner}).Info("game won")
	}

	return result, nil
}

// EndTurn passes the turn to the next player
func (s *gameServiceImpl) EndTurn(ctx context.Context, gameID string) (*GameState, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	g := sess.Game
	if !g.IsActive() {
		return nil, engine.ErrGameNotActive
	}
	g.NextTurn()
	if next := g.CurrentPlayer(); next != nil {
		g.Message = fmt.Sprintf("%s's turn.", next.Name)
	}
	s.persist(sess)

	return newGameState(g), nil
}

// Quit finishes the game regardless of its state
func (s *gameServiceImpl) Quit(ctx context.Context, gameID string) (*GameState, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	sess.Game.Quit()
	sess.Game.Message = "Game ended."
	s.persist(sess)

	log.WithField("game", sess.ID).Info("game quit")
	return newGameState(sess.Game), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, gameID string) (*GameState, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	return newGameState(sess.Game), nil
}

// ListPieces returns every piece of the game in seating order
func (s *gameServiceImpl) ListPieces(ctx context.Context, gameID string) ([]PieceInfo, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	pieces := sess.Game.Pieces()
	result := make([]PieceInfo, 0, len(pieces))
	for _, p := range pieces {
		result = append(result, newPieceInfo(p))
	}
	return result, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, gameID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.lockSession(gameID)
	if err != nil {
		return nil, err
	}
	history := make([]engine.MoveHistoryEntry, len(sess.Game.MoveHistory))
	copy(history, sess.Game.MoveHistory)
	sess.Unlock()

	return paginateHistory(history, opts), nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// lockSession looks up a game and returns its session locked.
func (s *gameServiceImpl) lockSession(gameID string) (*Session, error) {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		if errors.Is(err, ErrGameNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
		}
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	sess.Lock()
	s.sessions.UpdateLastAccessed(sess.ID)
	return sess, nil
}

// persist saves the session; storage failures are logged, not returned.
func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess); err != nil {
		log.WithError(err).WithField("game", sess.ID).Warn("failed to persist game")
	}
}

// resolveConfig loads the named config, or the default one for an empty name.
func (s *gameServiceImpl) resolveConfig(configName string) (*engine.GameConfig, string, error) {
	if configName == "" {
		config := s.configs.GetDefault()
		if config == nil {
			config = engine.DefaultGameConfig()
		}
		return config, s.configIDFor(config.Name), nil
	}

	config, err := s.configs.LoadConfig(configName)
	if err == nil {
		return config, configName, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return nil, "", fmt.Errorf("failed to load config %s: %w", configName, err)
	}

	// Provide helpful error message with available options
	available, listErr := s.configs.ListConfigs()
	if listErr == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, cfg := range available {
			ids = append(ids, cfg.ConfigID)
		}
		return nil, "", fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, ids)
	}
	return nil, "", fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
}

// configIDFor maps a display name back to the config identifier
func (s *gameServiceImpl) configIDFor(displayName string) string {
	available, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range available {
			if cfg.Name == displayName {
				return cfg.ConfigID
			}
		}
	}
	if displayName == "" {
		return "default"
	}
	return displayName
}

// normalizePlayerNames applies the seating defaults. Fewer than two
// supplied names fall back to the config's names or "Player N".
func normalizePlayerNames(supplied, defaults []string) ([]string, error) {
	var names []string
	for _, n := range supplied {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) > engine.PlayerCount {
		return nil, fmt.Errorf("%w: at most %d player names allowed, got %d", ErrInvalidRequest, engine.PlayerCount, len(names))
	}
	for _, n := range names {
		if len(n) > engine.MaxPlayerNameLength {
			return nil, fmt.Errorf("%w: player name exceeds %d characters", ErrInvalidRequest, engine.MaxPlayerNameLength)
		}
	}
	if len(names) < 2 {
		return append([]string(nil), defaults...), nil
	}
	return names, nil
}

// messagesFor returns the config's messages with blanks filled from the defaults.
func messagesFor(config *engine.GameConfig) engine.Messages {
	defaults := engine.DefaultGameConfig().Messages
	if config == nil {
		return defaults
	}
	m := config.Messages
	if m.Welcome == "" {
		m.Welcome = defaults.Welcome
	}
	if m.Moved == "" {
		m.Moved = defaults.Moved
	}
	if m.Captured == "" {
		m.Captured = defaults.Captured
	}
	if m.EnteredHome == "" {
		m.EnteredHome = defaults.EnteredHome
	}
	if m.ExtraTurn == "" {
		m.ExtraTurn = defaults.ExtraTurn
	}
	if m.NoMoves == "" {
		m.NoMoves = defaults.NoMoves
	}
	if m.Victory == "" {
		m.Victory = defaults.Victory
	}
	return m
}

func newGameInfo(sess *Session) *GameInfo {
	return &GameInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      newGameState(sess.Game),
		GameConfig:     sess.Config,
	}
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}
	// Pages past the end are empty; clamping keeps the offset from overflowing.
	if opts.Page > totalPages {
		opts.Page = totalPages + 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}
