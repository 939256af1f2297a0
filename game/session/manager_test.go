package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

func createTestConfig() *engine.GameConfig {
	config := engine.DefaultGameConfig()
	config.Name = "Test Config"
	config.Description = "Test configuration"
	return config
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("Test-Game", "test", config, []string{"Ana", "Ben"})
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "Test-Game" {
			t.Errorf("Expected session ID 'Test-Game', got '%s'", session.ID)
		}
		if session.Game == nil || session.Game.ID != "Test-Game" {
			t.Fatal("Expected game to be initialized with the session ID")
		}
		if session.Game.Status != engine.StatusWaiting {
			t.Errorf("Expected waiting game, got %s", session.Game.Status)
		}
		if session.Game.Players[0].Name != "Ana" {
			t.Errorf("Expected Ana in seat 1, got %s", session.Game.Players[0].Name)
		}
		if session.ConfigID != "test" {
			t.Errorf("Expected config id 'test', got %s", session.ConfigID)
		}
	})

	t.Run("create with generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", config, nil)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if _, err := uuid.Parse(session.ID); err != nil {
			t.Errorf("Expected a UUID session ID, got %q", session.ID)
		}
	})

	t.Run("duplicate ID is case-insensitive", func(t *testing.T) {
		if _, err := manager.Create("test-game", "test", config, nil); !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		if _, err := manager.Create("../etc", "test", config, nil); !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("nil config uses built-in default", func(t *testing.T) {
		session, err := manager.Create("no-config", "", nil, nil)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.Config == nil || session.Config.Name != "default" {
			t.Errorf("Expected built-in default config, got %+v", session.Config)
		}
	})
}

func TestManager_GetAndDelete(t *testing.T) {
	manager := NewManager()
	if _, err := manager.Create("abc", "test", createTestConfig(), nil); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if _, err := manager.Get("ABC"); err != nil {
		t.Errorf("Expected case-insensitive lookup, got %v", err)
	}
	if _, err := manager.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	if manager.Count() != 1 || len(manager.List()) != 1 {
		t.Errorf("Expected one session, got %d", manager.Count())
	}

	if err := manager.Delete("abc"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := manager.Delete("abc"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
	if err := manager.DeleteFromMemory("abc"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_DiceRollerFactory(t *testing.T) {
	manager := NewManager()
	manager.SetDiceRollerFactory(func() engine.DiceRoller {
		return engine.NewSequenceRoller(5, 2)
	})

	session, err := manager.Create("dice", "test", createTestConfig(), nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if got := session.Game.RollDice(); got != 5 {
		t.Errorf("Expected injected roll 5, got %d", got)
	}
	if got := session.Game.RollDice(); got != 2 {
		t.Errorf("Expected injected roll 2, got %d", got)
	}
}

func TestManager_UpdateLastAccessedAndCleanup(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	old, _ := manager.Create("old", "test", config, nil)
	fresh, _ := manager.Create("fresh", "test", config, nil)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	before := fresh.LastAccessedAt
	time.Sleep(5 * time.Millisecond)
	if err := manager.UpdateLastAccessed("fresh"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !fresh.LastAccessedAt.After(before) {
		t.Error("Expected LastAccessedAt to advance")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	if removed := manager.CleanupExpiredSessions(time.Hour); removed != 1 {
		t.Errorf("Expected 1 expired session, got %d", removed)
	}
	if _, err := manager.Get("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected old session evicted, got %v", err)
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Expected fresh session kept, got %v", err)
	}
}

func TestManager_Concurrency(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", "test", config, nil)
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			if _, err := manager.Get(session.ID); err != nil {
				t.Errorf("Get failed: %v", err)
			}
			manager.UpdateLastAccessed(session.ID)
			manager.List()
		}()
	}
	wg.Wait()

	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
}

func TestManagerWithPersistence(t *testing.T) {
	configManager := newConfigManager(t)
	persistence, err := NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	manager := NewManagerWithPersistence(persistence)
	cfg := configManager.GetDefault()

	t.Run("Create Session Auto-Saves", func(t *testing.T) {
		if _, err := manager.Create("auto1", "classic", cfg, nil); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if !persistence.Exists("auto1") {
			t.Error("Session should be persisted on create")
		}
	})

	t.Run("Save Writes Current Game", func(t *testing.T) {
		session, _ := manager.Get("auto1")
		session.Lock()
		session.Game.Start()
		err := manager.Save(session)
		session.Unlock()
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := persistence.Load("auto1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Game.Status != engine.StatusInProgress {
			t.Errorf("Expected persisted in_progress, got %s", loaded.Game.Status)
		}
	})

	t.Run("Save Persists Session Evicted While Locked", func(t *testing.T) {
		session, _ := manager.Get("auto1")
		session.Lock()
		if err := manager.DeleteFromMemory("auto1"); err != nil {
			session.Unlock()
			t.Fatalf("DeleteFromMemory failed: %v", err)
		}
		session.Game.DiceValue = 5
		err := manager.Save(session)
		session.Unlock()
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := persistence.Load("auto1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Game.DiceValue != 5 {
			t.Errorf("Expected persisted dice 5, got %d", loaded.Game.DiceValue)
		}
		if _, err := manager.Get("auto1"); err != nil {
			t.Fatalf("Expected reload from storage, got %v", err)
		}
	})

	t.Run("Get Reloads Evicted Session", func(t *testing.T) {
		if err := manager.DeleteFromMemory("auto1"); err != nil {
			t.Fatalf("DeleteFromMemory failed: %v", err)
		}
		manager.SetDiceRollerFactory(func() engine.DiceRoller { return engine.NewSequenceRoller(4) })

		session, err := manager.Get("auto1")
		if err != nil {
			t.Fatalf("Expected reload from storage, got %v", err)
		}
		if session.Game.RollDice() != 4 {
			t.Error("Expected reloaded game to use the current dice factory")
		}
	})

	t.Run("LoadPersistedSessions", func(t *testing.T) {
		fresh := NewManagerWithPersistence(persistence)
		if err := fresh.LoadPersistedSessions(); err != nil {
			t.Fatalf("LoadPersistedSessions failed: %v", err)
		}
		if fresh.Count() != 1 {
			t.Errorf("Expected 1 loaded session, got %d", fresh.Count())
		}
	})

	t.Run("SaveAllSessions", func(t *testing.T) {
		if _, err := manager.Create("auto2", "classic", cfg, nil); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if err := manager.SaveAllSessions(); err != nil {
			t.Fatalf("SaveAllSessions failed: %v", err)
		}
		ids, _ := persistence.ListAll()
		if len(ids) != 2 {
			t.Errorf("Expected 2 persisted sessions, got %v", ids)
		}
	})

	t.Run("Delete Removes From Storage", func(t *testing.T) {
		if err := manager.Delete("auto2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if persistence.Exists("auto2") {
			t.Error("Expected persisted session removed")
		}
	})
}
