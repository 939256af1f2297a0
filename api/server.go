package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/mensch/game/config"
	"github.com/wricardo/mcp-training/mensch/game/engine"
	"github.com/wricardo/mcp-training/mensch/game/service"
	"github.com/wricardo/mcp-training/mensch/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Game management
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleDeleteGame).Methods("DELETE")

	// Queries
	api.HandleFunc("/games/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/games/{id}/pieces", s.handleListPieces).Methods("GET")
	api.HandleFunc("/games/{id}/history", s.handleGetHistory).Methods("GET")

	// Commands
	api.HandleFunc("/games/{id}/roll", s.handleRoll).Methods("POST")
	api.HandleFunc("/games/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/games/{id}/end-turn", s.handleEndTurn).Methods("POST")
	api.HandleFunc("/games/{id}/quit", s.handleQuit).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError translates service and rule errors into HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return http.StatusNotFound, "GAME_NOT_FOUND"
	case errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound, "CONFIG_NOT_FOUND"
	case errors.Is(err, engine.ErrPieceNotFound):
		return http.StatusNotFound, engine.ErrorCode(err)
	case errors.Is(err, engine.ErrNotPlayersTurn):
		return http.StatusForbidden, engine.ErrorCode(err)
	case errors.Is(err, engine.ErrGameNotActive),
		errors.Is(err, engine.ErrDiceAlreadyRolled):
		return http.StatusConflict, engine.ErrorCode(err)
	case errors.Is(err, engine.ErrDiceNotRolled),
		errors.Is(err, engine.ErrIllegalMove):
		return http.StatusBadRequest, engine.ErrorCode(err)
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest, "INVALID_CONFIG"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// Game Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string   `json:"config_id,omitempty"`
		Players  []string `json:"players,omitempty"`
	}

	// An empty body creates a game from the default config
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	game, err := s.service.CreateGame(r.Context(), req.ConfigID, req.Players)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, game)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	status := query.Get("status")

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if status != "" {
		filtered := make([]*service.GameInfo, 0, len(games))
		for _, g := range games {
			if g.GameState != nil && string(g.GameState.Status) == status {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}
	total := len(games)

	sort.Slice(games, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = games[i].CreatedAt, games[j].CreatedAt
		} else {
			ti, tj = games[i].LastAccessedAt, games[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(games) {
			games = games[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(games),
		"total": total,
		"games": games,
		"sort":  sortBy,
		"order": order,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.service.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	if err := s.service.DeleteGame(r.Context(), gameID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Game %s deleted", gameID),
	})
}

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleListPieces(w http.ResponseWriter, r *http.Request) {
	pieces, err := s.service.ListPieces(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Optional filter by owner color
	if owner := r.URL.Query().Get("owner"); owner != "" {
		filtered := make([]service.PieceInfo, 0, engine.PiecesPerPlayer)
		for _, p := range pieces {
			if string(p.Owner) == owner {
				filtered = append(filtered, p)
			}
		}
		pieces = filtered
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(pieces),
		"pieces": pieces,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Command Handlers

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	result, err := s.service.RollDice(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(gameID, websocket.EventDiceRolled, map[string]any{
			"dice":           result.Dice,
			"player":         result.Player,
			"movable_pieces": result.MovablePieces,
			"turn_passed":    result.TurnPassed,
		})
		s.hub.BroadcastState(gameID, result.GameState)
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PieceID string `json:"piece_id"`
		Dice    int    `json:"dice,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PieceID == "" {
		respondError(w, http.StatusBadRequest, "piece_id is required")
		return
	}

	result, err := s.service.MovePiece(r.Context(), gameID, req.PieceID, req.Dice)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"game": gameID, "piece": req.PieceID}).Debug("move rejected")
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(gameID, websocket.EventPieceMoved, map[string]any{
			"piece_id": result.PieceID,
			"from":     result.From,
			"to":       result.To,
			"captured": result.Captured,
		})
		if result.GameOver {
			s.hub.BroadcastEvent(gameID, websocket.EventGameOver, map[string]any{
				"winner":      result.Winner,
				"winner_name": result.WinnerName,
			})
		}
		s.hub.BroadcastState(gameID, result.GameState)
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	state, err := s.service.EndTurn(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastState(gameID, state)
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	state, err := s.service.Quit(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(gameID, websocket.EventGameOver, map[string]any{"quit": true})
		s.hub.BroadcastState(gameID, state)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": state.Message,
		"state":   state,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id"`
		engine.GameConfig
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.Name
	}
	if configID == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	gameConfig := req.GameConfig
	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "live updates are disabled")
		return
	}

	gameID := r.URL.Query().Get("game")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "game parameter required")
		return
	}

	if _, err := s.service.GetGame(r.Context(), gameID); err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.ServeWS(w, r, gameID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
