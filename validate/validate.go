// Package validate checks memory game configuration files and estimates how
// hard each board is. It backs the validate and analyze subcommands.
//
// A file is valid when it parses as a GameConfig and passes
// engine.ValidateGameConfig: 2 to 26 distinct non-empty symbols, a flip-back
// delay between 0 and 10000 ms, an idle message and a completion message
// with exactly one %d. Warnings never make a file invalid.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wricardo/memory-match-game/game/engine"
)

// Result captures the outcome of validating a single file
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Config   *engine.GameConfig
}

// File loads and validates a single configuration JSON file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config engine.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		// Unknown fields are tolerated by the server, so retry leniently
		if lenientErr := json.Unmarshal(data, &config); lenientErr != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", lenientErr))
			return result
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("Ignored content: %v", err))
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	result.Warnings = append(result.Warnings, warnings(&config)...)
	result.Config = &config
	return result
}

func warnings(config *engine.GameConfig) []string {
	var out []string

	if config.Description == "" {
		out = append(out, "No description")
	}
	if config.FlipBackDelayMs == 0 {
		out = append(out, fmt.Sprintf("flip_back_delay_ms not set, using %v", engine.DefaultFlipBackDelay))
	}
	for _, symbol := range config.Symbols {
		if strings.TrimFunc(symbol, unicode.IsSpace) != symbol {
			out = append(out, fmt.Sprintf("Symbol %q has surrounding whitespace", symbol))
		}
		if utf8.RuneCountInString(symbol) > 4 {
			out = append(out, fmt.Sprintf("Symbol %q is long and may not fit on a card", symbol))
		}
	}
	if name := strings.TrimSpace(config.Name); name != "" && strings.ContainsAny(name, `/\`) {
		out = append(out, "Name contains a path separator and cannot be saved through the API")
	}

	return out
}

// Dir validates every *.json file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints a per-file report and a summary. It returns true when every
// file is valid.
func Report(w io.Writer, results []Result) bool {
	validCount := 0

	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			validCount++
			pairs := 0
			if result.Config != nil {
				pairs = len(result.Config.Symbols)
			}
			fmt.Fprintf(w, "✅ VALID (%d pairs)\n", pairs)
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  - %s\n", e)
			}
		}

		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  ⚠️  %s\n", warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	fmt.Fprintf(w, "Summary: %d/%d configs valid\n", validCount, len(results))

	return validCount == len(results)
}
