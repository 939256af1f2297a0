package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestQuarterOf(t *testing.T) {
	tests := []struct {
		position int
		expected engine.Color
		ok       bool
	}{
		{0, engine.Red, true},
		{9, engine.Red, true},
		{10, engine.Blue, true},
		{25, engine.Green, true},
		{39, engine.Yellow, true},
		{40, "", false},
		{-1, "", false},
	}

	for _, test := range tests {
		color, ok := quarterOf(test.position)
		if color != test.expected || ok != test.ok {
			t.Errorf("quarterOf(%d) = %s, %v, expected %s, %v", test.position, color, ok, test.expected, test.ok)
		}
	}
}

func TestAnalyzeConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `{
		"name": "Test Config",
		"description": "Test configuration",
		"default_player_names": ["Ana"],
		"special_tasks": [
			{"position": 3, "title": "A", "type": "fun"},
			{"position": 5, "title": "B", "type": "challenge"},
			{"position": 30, "title": "C", "type": "fun"}
		],
		"messages": {"welcome": "Welcome!"}
	}`)

	analysis, err := analyzeConfig(path)
	if err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}

	if analysis.Name != "Test Config" {
		t.Errorf("Expected Name 'Test Config', got '%s'", analysis.Name)
	}
	if analysis.Quarters[engine.Red] != 2 || analysis.Quarters[engine.Yellow] != 1 {
		t.Errorf("Unexpected quarters: %v", analysis.Quarters)
	}
	if analysis.Types["fun"] != 2 || analysis.Types["challenge"] != 1 {
		t.Errorf("Unexpected types: %v", analysis.Types)
	}
	if analysis.FirstTask[engine.Red] != 3 {
		t.Errorf("Expected red first task after 3 steps, got %d", analysis.FirstTask[engine.Red])
	}
	if analysis.FirstTask[engine.Blue] != 20 {
		t.Errorf("Expected blue first task after 20 steps, got %d", analysis.FirstTask[engine.Blue])
	}
	if analysis.FirstTask[engine.Yellow] != 0 {
		t.Errorf("Expected yellow task on its start cell, got %d", analysis.FirstTask[engine.Yellow])
	}
	if len(analysis.OnStartCells) != 1 || analysis.OnStartCells[0] != 30 {
		t.Errorf("Expected start-cell task at 30, got %v", analysis.OnStartCells)
	}
	if analysis.Defaults != 1 {
		t.Errorf("Expected 1 default player, got %d", analysis.Defaults)
	}

	printAnalysis(analysis)
}

func TestAnalyzeConfig_NoTasks(t *testing.T) {
	analysis, err := analyzeConfig(writeConfig(t, `{"name": "Empty"}`))
	if err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}
	for _, color := range engine.AllColors {
		if analysis.FirstTask[color] != -1 {
			t.Errorf("Expected -1 for %s, got %d", color, analysis.FirstTask[color])
		}
	}
}

func TestAnalyzeConfig_InvalidFile(t *testing.T) {
	if _, err := analyzeConfig("/non/existent/file.json"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestAnalyzeConfig_InvalidJSON(t *testing.T) {
	if _, err := analyzeConfig(writeConfig(t, `{"name": "test", invalid json}`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestAnalyzeConfig_ShippedConfigs(t *testing.T) {
	analysis, err := analyzeConfig(filepath.Join("..", "..", "configs", "classic.json"))
	if err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}
	total := 0
	for _, n := range analysis.Quarters {
		total += n
	}
	if total != 10 {
		t.Errorf("Expected 10 classic tasks, got %d", total)
	}
	if len(analysis.OnStartCells) != 0 {
		t.Errorf("Expected no classic task on a start cell, got %v", analysis.OnStartCells)
	}
}
