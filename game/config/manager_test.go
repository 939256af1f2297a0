package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

func createValidConfig(name string) *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = name
	config.Description = "Test configuration"
	config.SpecialTasks = []engine.SpecialTask{
		{Position: 7, Title: "Catwalk!", Task: "Strut", Type: "challenge"},
		{Position: 13, Title: "Dance!", Task: "Dance", Type: "challenge"},
	}
	return config
}

func writeConfigFile(t *testing.T, dir, id string, config any) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("prefers classic", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "alpha", createValidConfig("Alpha"))
		writeConfigFile(t, dir, "classic", createValidConfig("Classic"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Classic" {
			t.Errorf("Expected Classic as default, got %s", got)
		}
	})

	t.Run("falls back to first valid config", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "zeta", createValidConfig("Zeta"))
		writeConfigFile(t, dir, "beta", createValidConfig("Beta"))

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Beta" {
			t.Errorf("Expected Beta as default, got %s", got)
		}
	})

	t.Run("empty directory uses built-in default", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without config files, got %v", err)
		}
		def := manager.GetDefault()
		if def == nil || def.Name != "default" {
			t.Fatalf("Expected built-in default, got %+v", def)
		}
		if err := engine.ValidateGameConfig(def); err != nil {
			t.Errorf("Built-in default should validate: %v", err)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		if _, err := NewManager("/non/existent/path"); err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "party", createValidConfig("Party"))
	writeConfigFile(t, dir, "broken", map[string]any{"name": "Broken"})
	if err := os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	config, err := manager.LoadConfig("party")
	if err != nil {
		t.Fatalf("Failed to load party: %v", err)
	}
	if len(config.SpecialTasks) != 2 {
		t.Errorf("Expected 2 special tasks, got %d", len(config.SpecialTasks))
	}

	again, err := manager.LoadConfig("party.json")
	if err != nil {
		t.Fatalf("Failed to load party.json: %v", err)
	}
	if again != config {
		t.Error("Expected cached config to be returned")
	}

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"missing", "nope", ErrConfigNotFound},
		{"fails validation", "broken", ErrInvalidConfig},
		{"bad json", "garbage", ErrInvalidConfig},
		{"path traversal", "../party", ErrInvalidConfig},
		{"empty", "", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.LoadConfig(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "broken", map[string]any{"name": "Broken"})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configs, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("Expected only the valid config, got %d", len(configs))
	}

	info := configs[0]
	if info.ConfigID != "classic" || info.Filename != "classic.json" || info.Name != "Classic" {
		t.Errorf("Unexpected config info: %+v", info)
	}
	if info.SpecialTaskCount != 2 || len(info.SpecialPositions) != 2 || info.SpecialPositions[0] != 7 {
		t.Errorf("Unexpected special tasks summary: %+v", info)
	}
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SaveConfig("house", createValidConfig("House")); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "house.json")); err != nil {
		t.Errorf("Expected house.json on disk: %v", err)
	}

	manager.RefreshCache()
	loaded, err := manager.LoadConfig("house")
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Name != "House" {
		t.Errorf("Expected House, got %s", loaded.Name)
	}
	if manager.GetDefault().Name != "House" {
		t.Errorf("Expected refreshed default House, got %s", manager.GetDefault().Name)
	}

	invalid := createValidConfig("Bad")
	invalid.SpecialTasks[1].Position = 7
	if err := manager.SaveConfig("bad", invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := manager.SaveConfig("../escape", createValidConfig("Escape")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for bad id, got %v", err)
	}
}

func TestSetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "quiet", createValidConfig("Quiet"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := manager.SetDefault("quiet"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Quiet" {
		t.Errorf("Expected Quiet default, got %s", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestShippedConfigs(t *testing.T) {
	manager, err := NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Failed to open shipped configs: %v", err)
	}

	classic, err := manager.LoadConfig("classic")
	if err != nil {
		t.Fatalf("classic.json should be valid: %v", err)
	}
	want := []int{3, 7, 13, 17, 19, 22, 26, 33, 37, 39}
	got := classic.SpecialPositions()
	if len(got) != len(want) {
		t.Fatalf("Expected %d special tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Task %d: expected position %d, got %d", i, want[i], got[i])
		}
	}
}

func TestConcurrentLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("classic"); err != nil {
				t.Errorf("LoadConfig failed: %v", err)
			}
			if _, err := manager.ListConfigs(); err != nil {
				t.Errorf("ListConfigs failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
