package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/mensch/api"
	"github.com/wricardo/mcp-training/mensch/game/config"
	"github.com/wricardo/mcp-training/mensch/game/engine"
	"github.com/wricardo/mcp-training/mensch/game/service"
	"github.com/wricardo/mcp-training/mensch/game/session"
)

func setupServer(t *testing.T, seed uint64) *httptest.Server {
	t.Helper()
	configManager, err := config.NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	sessions := session.NewManager()
	sessions.SetDiceRollerFactory(func() engine.DiceRoller { return engine.NewSeededRoller(seed) })

	server := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configManager), nil))
	t.Cleanup(server.Close)
	return server
}

func TestPlay_FinishesGame(t *testing.T) {
	server := setupServer(t, 11)
	client := NewClient(server.URL + "/")
	ctx := context.Background()

	game, err := client.CreateGame(ctx, "classic", []string{"Ana", "Ben", "Cy", "Di"})
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if game.ConfigName == "" {
		t.Error("Expected config name on created game")
	}

	state, rolls, err := play(ctx, client, GreedyStrategy{}, playOptions{MaxTurns: 20000})
	if err != nil {
		t.Fatalf("play failed after %d rolls: %v", rolls, err)
	}
	if state.Status != engine.StatusFinished || state.Winner == nil {
		t.Fatalf("Expected finished game with a winner, got %s", state.Status)
	}
	for _, p := range state.Players {
		if p.Color == *state.Winner && p.PiecesHome != engine.PiecesPerPlayer {
			t.Errorf("Expected winner to have all pieces home, got %d", p.PiecesHome)
		}
	}
	if state.TotalMoves == 0 || rolls < state.TotalMoves {
		t.Errorf("Expected rolls (%d) >= moves (%d) > 0", rolls, state.TotalMoves)
	}
}

func TestPlay_TurnLimit(t *testing.T) {
	server := setupServer(t, 3)
	client := NewClient(server.URL)
	ctx := context.Background()

	if _, err := client.CreateGame(ctx, "", nil); err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	_, rolls, err := play(ctx, client, GreedyStrategy{}, playOptions{MaxTurns: 3})
	if !errors.Is(err, errTurnLimit) {
		t.Fatalf("Expected errTurnLimit, got %v", err)
	}
	if rolls != 3 {
		t.Errorf("Expected 3 rolls, got %d", rolls)
	}
}

func TestClient_Errors(t *testing.T) {
	server := setupServer(t, 1)
	client := NewClient(server.URL)
	ctx := context.Background()

	client.gameID = "missing"
	if _, err := client.GetState(ctx); err == nil || !strings.Contains(err.Error(), "GAME_NOT_FOUND") {
		t.Errorf("Expected GAME_NOT_FOUND, got %v", err)
	}

	if _, err := client.CreateGame(ctx, "nope", nil); err == nil || !strings.Contains(err.Error(), "CONFIG_NOT_FOUND") {
		t.Errorf("Expected CONFIG_NOT_FOUND, got %v", err)
	}

	if _, err := client.CreateGame(ctx, "", nil); err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if _, err := client.Move(ctx, "red-0", 0); err == nil || !strings.Contains(err.Error(), "DICE_NOT_ROLLED") {
		t.Errorf("Expected DICE_NOT_ROLLED, got %v", err)
	}
}

func TestNewCommand(t *testing.T) {
	cmd := newCommand()
	if cmd.Name != "autoplay" {
		t.Errorf("Expected command name autoplay, got %s", cmd.Name)
	}
	if len(cmd.Flags) == 0 {
		t.Error("Expected flags to be defined")
	}
}
