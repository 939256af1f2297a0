package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/wricardo/mcp-training/mensch/game/engine"
	"github.com/wricardo/mcp-training/mensch/game/service"
)

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *service.GameState {
	winner := engine.Blue
	return &service.GameState{
		GameID:            "g1",
		Status:            engine.StatusInProgress,
		CurrentPlayer:     engine.Red,
		CurrentPlayerName: "Ana",
		DiceValue:         6,
		MovablePieces:     []string{"red-0", "red-1"},
		Players: []service.PlayerInfo{
			{Name: "Ana", Color: engine.Red, PiecesHome: 1},
			{Name: "Ben", Color: engine.Blue},
		},
		Pieces: []service.PieceInfo{
			{ID: "red-0", Owner: engine.Red, Position: -1, State: engine.InStart},
			{ID: "red-1", Owner: engine.Red, Position: 12, StepsTaken: 12, State: engine.OnPath},
			{ID: "red-2", Owner: engine.Red, Position: 41, StepsTaken: 41, InHome: true, State: engine.Home},
		},
		Winner: &winner,
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "g1", "status": "in_progress"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]any
	if err := client.apiCall(context.Background(), "GET", "/api/games/g1", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "g1" {
		t.Errorf("Expected id g1, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable server", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api/games", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("error body with code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "not your turn", "code": "NOT_YOUR_TURN"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "POST", "/api/games/g1/move", map[string]any{}, nil)
		if err == nil || err.Error() != "not your turn (NOT_YOUR_TURN)" {
			t.Errorf("Expected coded error, got %v", err)
		}
	})

	t.Run("plain HTTP error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api/games", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got %v", err)
		}
	})
}

func TestClient_handleCreateGame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/games" {
			t.Errorf("Expected POST /api/games, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["config_id"] != "quiet" {
			t.Errorf("Expected config_id quiet, got %v", body["config_id"])
		}
		if players, _ := body["players"].([]any); len(players) != 2 {
			t.Errorf("Expected 2 players, got %v", body["players"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.GameInfo{ID: "game-123", ConfigName: "quiet", GameState: sampleState()})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateGame(context.Background(), callRequest("create_game", map[string]any{
		"config_id": "quiet",
		"players":   []any{"Ana", "Ben"},
	}))
	if err != nil {
		t.Fatalf("handleCreateGame failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "game-123") {
		t.Errorf("Expected game ID in result, got: %s", text)
	}
}

func TestClient_handleMovePiece(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games/g1/move" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["piece_id"] != "red-1" {
			t.Errorf("Expected piece red-1, got %v", body["piece_id"])
		}
		json.NewEncoder(w).Encode(service.MoveResult{
			Success:   true,
			PieceID:   "red-1",
			Dice:      4,
			From:      8,
			To:        12,
			Captured:  []string{"blue-0"},
			GameState: sampleState(),
		})
	}))
	defer server.Close()

	hook := logtest.NewGlobal()
	defer hook.Reset()
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(level)

	client := NewClient(server.URL)
	result, err := client.handleMovePiece(context.Background(), callRequest("move_piece", map[string]any{
		"game_id":  "g1",
		"piece_id": "red-1",
		"intent":   "capture blue",
	}))
	if err != nil {
		t.Fatalf("handleMovePiece failed: %v", err)
	}

	intentLogged := false
	for _, entry := range hook.AllEntries() {
		if entry.Message == "move intent" && entry.Data["intent"] == "capture blue" {
			intentLogged = true
		}
	}
	if !intentLogged {
		t.Error("Expected the move intent to be logged at debug level")
	}

	text := resultText(t, result)
	for _, want := range []string{"✓ red-1 moved 4: 8 → 12", "Captured: blue-0"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_MissingGameID(t *testing.T) {
	client := NewClient("http://localhost:8080")

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"game_state":   client.handleGameState,
		"roll_dice":    client.handleRollDice,
		"move_piece":   client.handleMovePiece,
		"end_turn":     client.handleEndTurn,
		"quit_game":    client.handleQuitGame,
		"list_pieces":  client.handleListPieces,
		"move_history": client.handleMoveHistory,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := handler(context.Background(), callRequest(name, map[string]any{}))
			if err != nil {
				t.Fatalf("Expected tool error result, got %v", err)
			}
			if !result.IsError {
				t.Error("Expected IsError for missing game_id")
			}
		})
	}
}

func TestClient_handleMoveHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(service.HistoryResponse{
			Moves: []engine.MoveHistoryEntry{
				{MoveNumber: 6, Color: engine.Red, PieceID: "red-0", Dice: 6, From: -1, To: 0},
				{MoveNumber: 7, Color: engine.Red, PieceID: "red-0", Dice: 3, From: 0, To: 3, Captured: []string{"blue-1"}},
			},
			TotalMoves: 7,
			Page:       2,
			PageSize:   5,
			TotalPages: 2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleMoveHistory(context.Background(), callRequest("move_history", map[string]any{
		"game_id": "g1",
		"page":    float64(2),
		"limit":   float64(5),
	}))
	if err != nil {
		t.Fatalf("handleMoveHistory failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Page 2/2", "6. red red-0 rolled 6: -1 → 0", "captured blue-1"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in history, got: %s", want, text)
		}
	}
}

func TestFormatGameState(t *testing.T) {
	state := sampleState()
	state.Message = "Welcome!"

	result := formatGameState(state)

	expected := []string{
		"Status: in_progress",
		"Turn: Ana (red) | Dice: 6",
		"Movable: red-0, red-1",
		"Ana (red): 1/4 home",
		"red-0: start",
		"red-1: cell 12, 12 steps",
		"red-2: home (cell 41)",
		"Message: Welcome!",
	}
	for _, field := range expected {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in formatted output, got: %s", field, result)
		}
	}
}

func TestFormatGameState_Finished(t *testing.T) {
	state := sampleState()
	state.Status = engine.StatusFinished
	state.WinnerName = "Ben"

	if result := formatGameState(state); !strings.Contains(result, "🎉 WINNER: Ben (blue)") {
		t.Errorf("Expected winner line, got: %s", result)
	}

	state.Winner = nil
	if result := formatGameState(state); !strings.Contains(result, "GAME OVER") {
		t.Errorf("Expected GAME OVER, got: %s", result)
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatRollResult(t *testing.T) {
	passed := formatRollResult(&service.RollResult{
		Dice:       3,
		Player:     engine.Green,
		PlayerName: "Cleo",
		TurnPassed: true,
		GameState:  &service.GameState{CurrentPlayer: engine.Yellow, CurrentPlayerName: "Dan"},
	})
	if !strings.Contains(passed, "turn passed") || !strings.Contains(passed, "Next: Dan (yellow)") {
		t.Errorf("Unexpected passed roll output: %s", passed)
	}

	movable := formatRollResult(&service.RollResult{Dice: 6, Player: engine.Red, PlayerName: "Ana", MovablePieces: []string{"red-0"}})
	if !strings.Contains(movable, "Movable pieces: red-0") {
		t.Errorf("Unexpected roll output: %s", movable)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", map[string]any{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, section := range []string{"GAME OBJECTIVE:", "BOARD:", "TURN LOOP:", "MOVEMENT RULES:", "CAPTURES:", "ERRORS:"} {
		if !strings.Contains(text, section) {
			t.Errorf("Expected %q in instructions", section)
		}
	}
}
