package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/mensch/game/service"
)

// Client drives one game through the REST API.
type Client struct {
	baseURL string
	gameID  string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// apiError is the error body written by the server.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) CreateGame(ctx context.Context, configID string, players []string) (*service.GameInfo, error) {
	req := map[string]any{}
	if configID != "" {
		req["config_id"] = configID
	}
	if len(players) > 0 {
		req["players"] = players
	}

	var game service.GameInfo
	if err := c.do(ctx, http.MethodPost, "/api/games", req, &game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	c.gameID = game.ID
	return &game, nil
}

func (c *Client) GetState(ctx context.Context) (*service.GameState, error) {
	var state service.GameState
	if err := c.do(ctx, http.MethodGet, c.gamePath("state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) Roll(ctx context.Context) (*service.RollResult, error) {
	var result service.RollResult
	if err := c.do(ctx, http.MethodPost, c.gamePath("roll"), nil, &result); err != nil {
		return nil, fmt.Errorf("roll: %w", err)
	}
	return &result, nil
}

func (c *Client) Move(ctx context.Context, pieceID string, dice int) (*service.MoveResult, error) {
	req := map[string]any{"piece_id": pieceID, "dice": dice}

	var result service.MoveResult
	if err := c.do(ctx, http.MethodPost, c.gamePath("move"), req, &result); err != nil {
		return nil, fmt.Errorf("move %s: %w", pieceID, err)
	}
	return &result, nil
}

func (c *Client) gamePath(action string) string {
	return fmt.Sprintf("/api/games/%s/%s", c.gameID, action)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("%s - %s", resp.Status, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
