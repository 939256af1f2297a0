// Command analyze prints quick, human-readable heuristics about configuration
// files in the project's configs directory. It summarizes special task
// placement per board quarter, task types, and how soon each color meets its
// first task after entering the path.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/mcp-training/mensch/game/engine"
)

// AnalysisConfig is a light struct for reading config files used by analysis.
type AnalysisConfig struct {
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	DefaultPlayerNames []string             `json:"default_player_names"`
	SpecialTasks       []engine.SpecialTask `json:"special_tasks"`
	Messages           map[string]string    `json:"messages"`
}

// Analysis is the result of analyzing one configuration.
type Analysis struct {
	Name string
	// Quarters counts tasks in the ten cells following each color's start cell.
	Quarters map[engine.Color]int
	Types    map[string]int
	// FirstTask is the number of steps from a color's start cell to the
	// nearest task ahead of it, or -1 when the board has no tasks.
	FirstTask    map[engine.Color]int
	OnStartCells []int
	Defaults     int
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analysis, err := analyzeConfig(file)
		if err != nil {
			fmt.Println(err)
			continue
		}
		printAnalysis(analysis)
	}
}

func analyzeConfig(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	var config AnalysisConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	analysis := &Analysis{
		Name:      config.Name,
		Quarters:  make(map[engine.Color]int),
		Types:     make(map[string]int),
		FirstTask: make(map[engine.Color]int),
		Defaults:  len(config.DefaultPlayerNames),
	}

	for _, task := range config.SpecialTasks {
		analysis.Types[task.Type]++
		if color, ok := quarterOf(task.Position); ok {
			analysis.Quarters[color]++
		}
	}

	for _, color := range engine.AllColors {
		geo, _ := engine.GeometryFor(color)
		nearest := -1
		for _, task := range config.SpecialTasks {
			if !engine.IsPathCell(task.Position) {
				continue
			}
			steps := (task.Position - geo.StartCell + engine.PathLength) % engine.PathLength
			if steps == 0 {
				analysis.OnStartCells = append(analysis.OnStartCells, task.Position)
			}
			if nearest == -1 || steps < nearest {
				nearest = steps
			}
		}
		analysis.FirstTask[color] = nearest
	}
	sort.Ints(analysis.OnStartCells)

	return analysis, nil
}

// quarterOf returns the color whose start cell opens the quarter holding
// position.
func quarterOf(position int) (engine.Color, bool) {
	if !engine.IsPathCell(position) {
		return "", false
	}
	quarter := engine.PathLength / len(engine.AllColors)
	return engine.AllColors[position/quarter], true
}

func printAnalysis(a *Analysis) {
	fmt.Printf("Name: %s\n", a.Name)
	fmt.Printf("Default Players: %d\n", a.Defaults)

	total := 0
	for _, color := range engine.AllColors {
		total += a.Quarters[color]
		fmt.Printf("Quarter %-6s tasks: %d, first task after %d steps\n", color, a.Quarters[color], a.FirstTask[color])
	}
	fmt.Printf("Total Special Tasks: %d\n", total)

	types := make([]string, 0, len(a.Types))
	for t := range a.Types {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %s: %d\n", t, a.Types[t])
	}

	if len(a.OnStartCells) > 0 {
		fmt.Printf("⚠️  WARNING: tasks on start cells %v fire every time a piece enters\n", a.OnStartCells)
	}

	low, high := total, 0
	for _, color := range engine.AllColors {
		low = min(low, a.Quarters[color])
		high = max(high, a.Quarters[color])
	}
	if high-low > 1 {
		fmt.Printf("⚠️  Unbalanced: quarters hold between %d and %d tasks\n", low, high)
	} else {
		fmt.Printf("✅ Tasks are spread evenly across quarters\n")
	}
}
