package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ClassicIdleMessage     = "カードをクリックしてスタート！"
	ClassicCompleteMessage = " ゲームクリア！ %d回で全て一致させました！"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("symbolcount", fmt.Sprintf("min=%d,max=%d", MinSymbols, MaxSymbols))
	return v
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}

	if err := validate.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("config validation: %s", describeFieldError(fieldErrs[0]))
		}
		return fmt.Errorf("config validation: %w", err)
	}

	// %% is a literal percent sign; what remains must be a single %d
	verbs := strings.ReplaceAll(config.Messages.Complete, "%%", "")
	if strings.Count(verbs, "%") != 1 || strings.Count(verbs, "%d") != 1 {
		return fmt.Errorf("config validation: messages.complete must contain exactly one %%d for the move count")
	}
	if strings.Contains(config.Messages.Idle, "%") {
		return fmt.Errorf("config validation: messages.idle must not contain format verbs")
	}

	return nil
}

// describeFieldError turns a validator error into "symbols must ..." form
func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries, got %d", field, fe.Param(), reflect.ValueOf(fe.Value()).Len())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries, got %d", field, fe.Param(), reflect.ValueOf(fe.Value()).Len())
		}
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "gte", "lte":
		return fmt.Sprintf("%s must be between 0 and %d, got %v", field, MaxFlipBackDelayMs, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the classic eight-pair board
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:            "classic",
		Description:     "Eight pairs of letters A to H, one second to memorise a miss",
		Symbols:         []string{"A", "B", "C", "D", "E", "F", "G", "H"},
		FlipBackDelayMs: int(DefaultFlipBackDelay.Milliseconds()),
		Messages: Messages{
			Idle:     ClassicIdleMessage,
			Complete: ClassicCompleteMessage,
		},
	}
}
