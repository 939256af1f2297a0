// Command validate checks game configuration JSON files. It reports:
//   - JSON structure, including unknown fields (usually typos)
//   - The rules the server enforces when loading a config
//   - Message templates: format verbs expected by the game service
//   - Special tasks placed on a start cell, which fire on every entry
//
// Usage: validate [config-dir] (defaults to ../configs)
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// messageVerbs lists the format verbs each template is rendered with.
var messageVerbs = []struct {
	key   string
	verbs []string
}{
	{"welcome", nil},
	{"moved", []string{"%s", "%s", "%d"}},
	{"captured", []string{"%d"}},
	{"entered_home", nil},
	{"extra_turn", nil},
	{"no_moves", nil},
	{"victory", []string{"%s"}},
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
	}

	messages := validateMessages(config.Messages)
	if !messages.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, messages.Errors...)

	for _, task := range config.SpecialTasks {
		for _, color := range engine.AllColors {
			if geo, ok := engine.GeometryFor(color); ok && geo.StartCell == task.Position {
				result.info("Task %q sits on %s's start cell and fires on every entry", task.Title, color)
			}
		}
	}

	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Special tasks: %d %v", len(config.SpecialTasks), config.SpecialPositions())
		if len(config.DefaultPlayerNames) > 0 {
			result.info("Default players: %s", strings.Join(config.DefaultPlayerNames, ", "))
		}
	}

	return result
}

// validateMessages checks that every non-empty template carries exactly the
// verbs it is formatted with. Empty templates fall back to built-in texts.
func validateMessages(messages engine.Messages) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	values := map[string]string{
		"welcome":      messages.Welcome,
		"moved":        messages.Moved,
		"captured":     messages.Captured,
		"entered_home": messages.EnteredHome,
		"extra_turn":   messages.ExtraTurn,
		"no_moves":     messages.NoMoves,
		"victory":      messages.Victory,
	}

	defaulted := 0
	for _, m := range messageVerbs {
		text := values[m.key]
		if text == "" {
			defaulted++
			continue
		}
		got := formatVerbs(text)
		if strings.Join(got, " ") != strings.Join(m.verbs, " ") {
			result.fail("Message %s has verbs %v, expected %v", m.key, got, m.verbs)
		}
	}

	if result.Valid {
		result.info("Messages: %d custom, %d default", len(messageVerbs)-defaulted, defaulted)
	}
	return result
}

// formatVerbs returns the fmt verbs in text in order, ignoring "%%".
func formatVerbs(text string) []string {
	var verbs []string
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '%' {
			continue
		}
		if text[i+1] == '%' {
			i++
			continue
		}
		verbs = append(verbs, text[i:i+2])
		i++
	}
	return verbs
}

// main validates every *.json file in the config directory, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
