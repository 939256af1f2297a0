package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/mensch/game/engine"
	"github.com/wricardo/mcp-training/mensch/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mensch",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mensch - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Bring all four of your pieces from the start area around the board into your home lane.

TURN LOOP:
1. roll_dice for the current player
2. move_piece with one of the movable pieces listed in the roll result
3. A six grants another roll; otherwise play passes to the next color

AVAILABLE TOOLS:
- create_game: Start a new game (optional config and player names)
- list_games / get_game: Inspect hosted games
- game_state: Current player, dice value and every piece
- list_pieces: Pieces with position and state, optionally for one color
- roll_dice: Roll for the current player
- move_piece: Move a piece by ID (e.g. "red-0")
- end_turn: Pass without moving
- quit_game: End the game
- move_history: Paginated move log
- list_configs: Available game configurations
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func gameIDProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Game ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Game management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new four-color game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_id": map[string]any{
					"type":        "string",
					"description": "Config to use (optional, defaults to classic)",
				},
				"players": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Player names in seat order red, blue, green, yellow (optional)",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List hosted games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"status": map[string]any{
					"type":        "string",
					"enum":        []string{"waiting", "in_progress", "finished"},
					"description": "Only list games in this status",
				},
			},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get details of a specific game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleGetGame)

	// Queries
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_pieces",
		Description: "List pieces with their position, steps taken and state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"game_id": gameIDProperty(),
				"owner": map[string]any{
					"type":        "string",
					"enum":        []string{"red", "blue", "green", "yellow"},
					"description": "Only list pieces of this color",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleListPieces)

	// Commands
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "roll_dice",
		Description: "Roll the dice for the current player. The turn passes automatically when no piece can move.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleRollDice)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_piece",
		Description: "Move one of the current player's pieces by the rolled value",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"game_id": gameIDProperty(),
				"piece_id": map[string]any{
					"type":        "string",
					"description": "Piece ID such as red-0",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of why this piece (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"game_id", "piece_id"},
		},
	}, c.handleMovePiece)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_turn",
		Description: "Pass the turn to the next player",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleEndTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "quit_game",
		Description: "End the game without a winner",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleQuitGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"game_id": gameIDProperty(),
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete game rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			if code := errResp["code"]; code != "" {
				return fmt.Errorf("%s (%s)", msg, code)
			}
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func gamePath(gameID string, parts ...string) string {
	path := "/api/games/" + url.PathEscape(gameID)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]any{}
	if configID := request.GetString("config_id", ""); configID != "" {
		body["config_id"] = configID
	}
	if players := request.GetStringSlice("players", nil); len(players) > 0 {
		body["players"] = players
	}

	var game service.GameInfo
	if err := c.apiCall(ctx, "POST", "/api/games", body, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&game)), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/games"
	if status := request.GetString("status", ""); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var response struct {
		Count int                `json:"count"`
		Games []service.GameInfo `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		status := "unknown"
		if g.GameState != nil {
			status = string(g.GameState.Status)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Status: %s, Created: %s)\n",
			g.ID, g.ConfigName, status, g.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var game service.GameInfo
	if err := c.apiCall(ctx, "GET", gamePath(gameID), nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&game)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.GameState
	if err := c.apiCall(ctx, "GET", gamePath(gameID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleListPieces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path := gamePath(gameID, "pieces")
	if owner := request.GetString("owner", ""); owner != "" {
		path += "?owner=" + url.QueryEscape(owner)
	}

	var response struct {
		Count  int                 `json:"count"`
		Pieces []service.PieceInfo `json:"pieces"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pieces (%d):\n", response.Count)
	for _, p := range response.Pieces {
		b.WriteString(formatPieceLine(p))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleRollDice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.RollResult
	if err := c.apiCall(ctx, "POST", gamePath(gameID, "roll"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRollResult(&result)), nil
}

func (c *Client) handleMovePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pieceID, err := request.RequireString("piece_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if intent := request.GetString("intent", ""); intent != "" {
		log.WithFields(log.Fields{"game": gameID, "piece": pieceID, "intent": intent}).Debug("move intent")
	}

	var result service.MoveResult
	body := map[string]any{"piece_id": pieceID}
	if err := c.apiCall(ctx, "POST", gamePath(gameID, "move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.GameState
	if err := c.apiCall(ctx, "POST", gamePath(gameID, "end-turn"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Turn ended.\n\n" + formatGameState(&state)), nil
}

func (c *Client) handleQuitGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string             `json:"message"`
		State   *service.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", gamePath(gameID, "quit"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := gamePath(gameID, "history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Special tasks: %d %v\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.SpecialTaskCount, cfg.SpecialPositions)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Mensch - Complete Instructions

GAME OBJECTIVE:
Four players (red, blue, green, yellow) each own four pieces. The first player
to bring all four pieces into their home lane wins.

BOARD:
• Shared path: cells 0-39, walked in increasing order and wrapping at 39
• Start cells: red 0, blue 10, green 20, yellow 30
• Home lanes: red 40-43, blue 44-47, green 48-51, yellow 52-55
• A piece in the start area has position -1

TURN LOOP:
1. roll_dice: the current player rolls a value from 1 to 6
2. move_piece: move one of the listed movable pieces by that value
3. Rolling a six grants another roll; any other value passes the turn
4. If no piece can move, the turn passes automatically

MOVEMENT RULES:
• Leaving the start area requires a six and lands on your start cell
• A piece walks 40 steps around the board before entering its home lane
• Home lane moves must land exactly; overshooting is not allowed
• Pieces already in the home lane do not move again

CAPTURES:
• Landing on a path cell occupied by opponents sends every opponent piece
  there back to its start area
• Your own pieces are never captured; several of your pieces may share a cell

SPECIAL TASKS:
Some configs mark path cells with a task card. Landing there shows the task;
it has no effect on the rules.

ERRORS:
• GAME_NOT_ACTIVE: the game is over or not started
• NOT_YOUR_TURN: the piece belongs to another player
• DICE_NOT_ROLLED: roll before moving
• DICE_ALREADY_ROLLED: use the current roll first
• INVALID_MOVE: the piece cannot move by the rolled value

Have fun!`

// Formatting helpers

func formatGameInfo(game *service.GameInfo) string {
	configName := game.ConfigName
	if game.GameConfig != nil && game.GameConfig.Name != "" {
		configName = fmt.Sprintf("%s (%s)", game.GameConfig.Name, game.ConfigName)
	}
	return fmt.Sprintf("Game: %s\nConfig: %s\nCreated: %s\n\n%s",
		game.ID, configName,
		game.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(game.GameState))
}

func formatGameState(state *service.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s | Moves: %d\n", state.Status, state.TotalMoves)
	if state.Status == engine.StatusInProgress {
		dice := "not rolled"
		if state.DiceValue > 0 {
			dice = fmt.Sprint(state.DiceValue)
		}
		fmt.Fprintf(&b, "Turn: %s (%s) | Dice: %s\n", state.CurrentPlayerName, state.CurrentPlayer, dice)
		if len(state.MovablePieces) > 0 {
			fmt.Fprintf(&b, "Movable: %s\n", strings.Join(state.MovablePieces, ", "))
		}
	}

	b.WriteString("\nPlayers:\n")
	for _, pl := range state.Players {
		fmt.Fprintf(&b, "- %s (%s): %d/%d home\n", pl.Name, pl.Color, pl.PiecesHome, engine.PiecesPerPlayer)
	}

	b.WriteString("\nPieces:\n")
	for _, p := range state.Pieces {
		b.WriteString(formatPieceLine(p))
	}

	if state.Status == engine.StatusFinished {
		if state.Winner != nil {
			fmt.Fprintf(&b, "\n🎉 WINNER: %s (%s)", state.WinnerName, *state.Winner)
		} else {
			b.WriteString("\nGAME OVER")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatPieceLine(p service.PieceInfo) string {
	switch p.State {
	case engine.InStart:
		return fmt.Sprintf("  %s: start\n", p.ID)
	case engine.Home:
		return fmt.Sprintf("  %s: home (cell %d)\n", p.ID, p.Position)
	default:
		return fmt.Sprintf("  %s: cell %d, %d steps\n", p.ID, p.Position, p.StepsTaken)
	}
}

func formatRollResult(result *service.RollResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎲 %s (%s) rolled %d\n", result.PlayerName, result.Player, result.Dice)
	if result.TurnPassed {
		b.WriteString("No piece can move, turn passed\n")
	} else {
		fmt.Fprintf(&b, "Movable pieces: %s\n", strings.Join(result.MovablePieces, ", "))
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", result.Message)
	}
	if result.GameState != nil && result.TurnPassed {
		fmt.Fprintf(&b, "Next: %s (%s)\n", result.GameState.CurrentPlayerName, result.GameState.CurrentPlayer)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s moved %d: %d → %d\n", result.PieceID, result.Dice, result.From, result.To)
	} else {
		b.WriteString("✗ Move failed\n")
	}

	if len(result.Captured) > 0 {
		fmt.Fprintf(&b, "Captured: %s\n", strings.Join(result.Captured, ", "))
	}
	if result.SpecialTask != nil {
		fmt.Fprintf(&b, "Special task (%s): %s\n", result.SpecialTask.Title, result.SpecialTask.Task)
	}
	if result.ExtraTurn {
		b.WriteString("Rolled a six: roll again\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), total moves: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		fmt.Fprintf(&b, "%d. %s %s rolled %d: %d → %d", move.MoveNumber, move.Color, move.PieceID, move.Dice, move.From, move.To)
		if len(move.Captured) > 0 {
			fmt.Fprintf(&b, " captured %s", strings.Join(move.Captured, ", "))
		}
		if move.EnteredHome {
			b.WriteString(" (home)")
		}
		b.WriteString("\n")
	}

	return b.String()
}
