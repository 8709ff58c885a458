package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:            "Test Config",
		Description:     "A valid test configuration",
		Symbols:         []string{"A", "B", "C", "D"},
		FlipBackDelayMs: 500,
		Messages: Messages{
			Idle:     "Pick a card",
			Complete: "Done in %d moves",
		},
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
	if err := ValidateGameConfig(DefaultConfig()); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GameConfig)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(c *GameConfig) { c.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			mutate:  func(c *GameConfig) { c.Description = "" },
			wantErr: "description is required",
		},
		{
			name:    "too few symbols",
			mutate:  func(c *GameConfig) { c.Symbols = []string{"A"} },
			wantErr: "symbols must have at least 2 entries, got 1",
		},
		{
			name: "too many symbols",
			mutate: func(c *GameConfig) {
				c.Symbols = nil
				for i := 0; i < 27; i++ {
					c.Symbols = append(c.Symbols, string(rune('a'+i)))
				}
			},
			wantErr: "symbols must have at most 26 entries, got 27",
		},
		{
			name:    "duplicate symbols",
			mutate:  func(c *GameConfig) { c.Symbols = []string{"A", "B", "A"} },
			wantErr: "symbols must not contain duplicates",
		},
		{
			name:    "empty symbol",
			mutate:  func(c *GameConfig) { c.Symbols = []string{"A", ""} },
			wantErr: "symbols[1] is required",
		},
		{
			name:    "symbol too long",
			mutate:  func(c *GameConfig) { c.Symbols = []string{"A", strings.Repeat("x", 17)} },
			wantErr: "symbols[1] must be at most 16 characters long",
		},
		{
			name:    "negative delay",
			mutate:  func(c *GameConfig) { c.FlipBackDelayMs = -1 },
			wantErr: "flip_back_delay_ms must be between 0 and 10000",
		},
		{
			name:    "delay too long",
			mutate:  func(c *GameConfig) { c.FlipBackDelayMs = 10001 },
			wantErr: "flip_back_delay_ms must be between 0 and 10000",
		},
		{
			name:    "missing idle message",
			mutate:  func(c *GameConfig) { c.Messages.Idle = "" },
			wantErr: "messages.idle is required",
		},
		{
			name:    "missing complete message",
			mutate:  func(c *GameConfig) { c.Messages.Complete = "" },
			wantErr: "messages.complete is required",
		},
		{
			name:    "complete message without verb",
			mutate:  func(c *GameConfig) { c.Messages.Complete = "Done!" },
			wantErr: "messages.complete must contain exactly one %d",
		},
		{
			name:    "complete message with two verbs",
			mutate:  func(c *GameConfig) { c.Messages.Complete = "%d of %d" },
			wantErr: "messages.complete must contain exactly one %d",
		},
		{
			name:    "complete message with another verb",
			mutate:  func(c *GameConfig) { c.Messages.Complete = "%s in %d" },
			wantErr: "messages.complete must contain exactly one %d",
		},
		{
			name:    "complete message with escaped verb only",
			mutate:  func(c *GameConfig) { c.Messages.Complete = "100%%d" },
			wantErr: "messages.complete must contain exactly one %d",
		},
		{
			name:    "idle message with verb",
			mutate:  func(c *GameConfig) { c.Messages.Idle = "Start %s" },
			wantErr: "messages.idle must not contain format verbs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.mutate(config)

			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.HasPrefix(err.Error(), "config validation: ") {
				t.Errorf("Expected config validation prefix, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateGameConfig_LiteralPercent(t *testing.T) {
	for _, complete := range []string{"100%% done in %d moves", "%d moves, 100%%", "%%%d"} {
		config := createValidConfig()
		config.Messages.Complete = complete
		if err := ValidateGameConfig(config); err != nil {
			t.Errorf("Expected %q to be valid, got %v", complete, err)
			continue
		}
		if got := fmt.Sprintf(complete, 7); strings.Contains(got, "%!") {
			t.Errorf("Expected %q to render cleanly, got %q", complete, got)
		}
	}
}

func TestValidateGameConfig_SymbolCountBounds(t *testing.T) {
	symbols := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = string(rune('a' + i))
		}
		return out
	}

	for _, n := range []int{MinSymbols, MaxSymbols} {
		config := createValidConfig()
		config.Symbols = symbols(n)
		if err := ValidateGameConfig(config); err != nil {
			t.Errorf("Expected %d symbols to be valid, got %v", n, err)
		}
	}

	for _, n := range []int{MinSymbols - 1, MaxSymbols + 1} {
		config := createValidConfig()
		config.Symbols = symbols(n)
		if err := ValidateGameConfig(config); err == nil {
			t.Errorf("Expected %d symbols to be rejected", n)
		}
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestValidateGameConfig_ZeroDelayAllowed(t *testing.T) {
	config := createValidConfig()
	config.FlipBackDelayMs = 0

	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected zero delay to be valid, got: %v", err)
	}
	if config.FlipBackDelay() != DefaultFlipBackDelay {
		t.Errorf("Expected zero delay to fall back to %v, got %v", DefaultFlipBackDelay, config.FlipBackDelay())
	}
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()

	validPath := filepath.Join(dir, "emoji.json")
	validContent := `{
		"name": "emoji",
		"description": "Animal faces",
		"symbols": ["🐶", "🐱", "🐭", "🐹"],
		"flip_back_delay_ms": 750,
		"messages": {
			"idle": "Find the pairs!",
			"complete": "All pairs in %d moves"
		}
	}`
	if err := os.WriteFile(validPath, []byte(validContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadGameConfig(validPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Name != "emoji" || len(config.Symbols) != 4 || config.FlipBackDelayMs != 750 {
		t.Errorf("Unexpected config: %+v", config)
	}
	if config.DeckSize() != 8 {
		t.Errorf("Expected deck size 8, got %d", config.DeckSize())
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadGameConfig(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		os.WriteFile(path, []byte(`{"name": `), 0644)
		if _, err := LoadGameConfig(path); err == nil {
			t.Error("Expected parse error")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		os.WriteFile(path, []byte(`{"name": "x", "description": "y", "symbols": ["A"]}`), 0644)
		_, err := LoadGameConfig(path)
		if err == nil || !strings.Contains(err.Error(), "config validation") {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if strings.Join(config.Symbols, "") != "ABCDEFGH" {
		t.Errorf("Expected symbols A..H, got %v", config.Symbols)
	}
	if config.FlipBackDelay().Milliseconds() != 1000 {
		t.Errorf("Expected 1000ms delay, got %v", config.FlipBackDelay())
	}
	if config.Messages.Idle != "カードをクリックしてスタート！" {
		t.Errorf("Unexpected idle message %q", config.Messages.Idle)
	}

	// Each call returns an independent copy.
	config.Symbols[0] = "Z"
	if DefaultConfig().Symbols[0] != "A" {
		t.Error("DefaultConfig must not share state between calls")
	}
}
