// Package config loads and validates the JSON configuration file at
// ~/.piew.json. Invalid fields fall back to defaults individually so a
// partially broken file still starts the viewer.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"piew/internal/filelist"
)

// Window size constants
const (
	defaultWidth  = 800
	defaultHeight = 600
	minWidth      = 400
	minHeight     = 300
)

// Animation constants
const (
	defaultInfiniteDelayMs = 2000
	minInfiniteDelayMs     = 100
	maxInfiniteDelayMs     = 60000
)

// StepTable maps a held modifier combination ("", "shift", "ctrl",
// "shift+ctrl") to a step size. The empty key is the default entry used
// when the pressed combination has no explicit entry.
type StepTable map[string]int

// Lookup returns the step for the given modifier key, falling back to
// the default entry.
func (t StepTable) Lookup(modifiers string) int {
	if v, ok := t[modifiers]; ok {
		return v
	}
	return t[""]
}

func defaultMoveSteps() StepTable {
	return StepTable{"": 50, "shift": 10, "ctrl": 200}
}

func defaultFileSteps() StepTable {
	return StepTable{"": 1, "shift": 5, "ctrl": 10}
}

// getDefaultKeybindings returns the default keybinding configuration
func getDefaultKeybindings() map[string][]string {
	return map[string][]string{
		"quit":             {"KeyQ", "Escape"},
		"fullscreen":       {"KeyF"},
		"next_file":        {"Space", "PageDown"},
		"prev_file":        {"Backspace", "PageUp"},
		"move_up":          {"ArrowUp"},
		"move_down":        {"ArrowDown"},
		"move_left":        {"ArrowLeft"},
		"move_right":       {"ArrowRight"},
		"zoom_in":          {"Equal", "NumpadAdd"},
		"zoom_out":         {"Minus", "NumpadSubtract"},
		"zoom_adjust":      {"KeyA"},
		"zoom_reset":       {"Key1"},
		"rotate_cw":        {"KeyR"},
		"toggle_animation": {"KeyP"},
		"step_frame":       {"KeyN"},
		"remove_file":      {"Delete"},
		"refresh_list":     {"F5"},
		"toggle_info":      {"KeyI"},
		"command_prompt":   {"Semicolon"},
	}
}

// validateKeybindings checks key formats and detects conflicts.
func validateKeybindings(keybindings map[string][]string) error {
	keyToAction := make(map[string]string)
	validKeys := getValidKeyNames()

	for action, keys := range keybindings {
		for _, keyStr := range keys {
			if err := validateKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %v", keyStr, action, err)
			}
			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}
	return nil
}

func validateKeyString(keyStr string, validKeys map[string]bool) error {
	parts := strings.Split(keyStr, "+")
	if len(parts) == 0 {
		return fmt.Errorf("empty key string")
	}

	keyName := parts[len(parts)-1]
	if !validKeys[keyName] {
		return fmt.Errorf("unknown key: %s", keyName)
	}

	for i := 0; i < len(parts)-1; i++ {
		modifier := strings.ToLower(parts[i])
		if modifier != "shift" && modifier != "ctrl" && modifier != "alt" {
			return fmt.Errorf("unknown modifier: %s", parts[i])
		}
	}
	return nil
}

func getValidKeyNames() map[string]bool {
	return map[string]bool{
		// Letters
		"KeyA": true, "KeyB": true, "KeyC": true, "KeyD": true,
		"KeyE": true, "KeyF": true, "KeyG": true, "KeyH": true,
		"KeyI": true, "KeyJ": true, "KeyK": true, "KeyL": true,
		"KeyM": true, "KeyN": true, "KeyO": true, "KeyP": true,
		"KeyQ": true, "KeyR": true, "KeyS": true, "KeyT": true,
		"KeyU": true, "KeyV": true, "KeyW": true, "KeyX": true,
		"KeyY": true, "KeyZ": true,

		// Numbers
		"Key0": true, "Key1": true, "Key2": true, "Key3": true,
		"Key4": true, "Key5": true, "Key6": true, "Key7": true,
		"Key8": true, "Key9": true,

		// Special keys
		"Space": true, "Backspace": true, "Enter": true, "Escape": true,
		"Tab": true, "Home": true, "End": true, "PageUp": true, "PageDown": true,
		"ArrowUp": true, "ArrowDown": true, "ArrowLeft": true, "ArrowRight": true,
		"Delete": true, "F5": true,

		// Punctuation
		"Comma": true, "Period": true, "Slash": true, "Semicolon": true,
		"Quote": true, "Minus": true, "Equal": true,

		// Numpad
		"Numpad0": true, "Numpad1": true, "Numpad2": true, "Numpad3": true,
		"Numpad4": true, "Numpad5": true, "Numpad6": true, "Numpad7": true,
		"Numpad8": true, "Numpad9": true, "NumpadEnter": true,
		"NumpadAdd": true, "NumpadSubtract": true,
	}
}

// LoadResult contains the result of loading configuration
type LoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
}

type Config struct {
	WindowWidth          int                 `json:"window_width"`
	WindowHeight         int                 `json:"window_height"`
	Fullscreen           bool                `json:"fullscreen"`
	SortMethod           int                 `json:"sort_method"`
	CacheSize            int                 `json:"cache_size"`
	InfiniteFrameDelayMs int                 `json:"infinite_frame_delay_ms"`
	MoveSteps            StepTable           `json:"move_steps"`
	FileSteps            StepTable           `json:"file_steps"`
	Keybindings          map[string][]string `json:"keybindings"`
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "piew.json"
	}
	return filepath.Join(homeDir, ".piew.json")
}

func defaultConfig() Config {
	return Config{
		WindowWidth:          defaultWidth,
		WindowHeight:         defaultHeight,
		Fullscreen:           false,
		SortMethod:           filelist.SortSimple,
		CacheSize:            16,
		InfiniteFrameDelayMs: defaultInfiniteDelayMs,
		MoveSteps:            defaultMoveSteps(),
		FileSteps:            defaultFileSteps(),
		Keybindings:          getDefaultKeybindings(),
	}
}

// Load reads the config from the default path.
func Load() LoadResult {
	return LoadFromPath(getConfigPath())
}

// LoadFromPath reads and validates a config file. A missing file is not
// an error; invalid fields are replaced by defaults one at a time.
func LoadFromPath(configPath string) LoadResult {
	config := defaultConfig()

	result := LoadResult{
		Config:   config,
		HasError: false,
		Warnings: []string{},
		Status:   "OK",
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config file not found is not an error - use defaults
		result.Status = "Default"
		return result
	}

	if err := json.Unmarshal(data, &config); err != nil {
		log.Printf("Warning: Invalid config file %s, using defaults: %v", configPath, err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
		return result
	}

	// Validate minimum size
	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	// Validate sort method
	if config.SortMethod < filelist.SortSimple || config.SortMethod > filelist.SortEntryOrder {
		config.SortMethod = filelist.SortSimple
	}

	// Validate cache size (minimum 1, maximum 64)
	if config.CacheSize < 1 {
		config.CacheSize = 16
	} else if config.CacheSize > 64 {
		config.CacheSize = 64
	}

	// Validate the substitute delay for frames with no finite duration
	if config.InfiniteFrameDelayMs < minInfiniteDelayMs || config.InfiniteFrameDelayMs > maxInfiniteDelayMs {
		config.InfiniteFrameDelayMs = defaultInfiniteDelayMs
	}

	var warnings []string
	config.MoveSteps, warnings = validateStepTable("move_steps", config.MoveSteps, defaultMoveSteps())
	if len(warnings) > 0 {
		result.Status = "Warning"
		result.Warnings = append(result.Warnings, warnings...)
	}
	config.FileSteps, warnings = validateStepTable("file_steps", config.FileSteps, defaultFileSteps())
	if len(warnings) > 0 {
		result.Status = "Warning"
		result.Warnings = append(result.Warnings, warnings...)
	}

	// Validate keybindings - ensure defaults exist for missing actions
	if config.Keybindings == nil {
		config.Keybindings = getDefaultKeybindings()
	} else {
		defaults := getDefaultKeybindings()
		for action, defaultKeys := range defaults {
			if _, exists := config.Keybindings[action]; !exists {
				config.Keybindings[action] = defaultKeys
			}
		}

		if err := validateKeybindings(config.Keybindings); err != nil {
			log.Printf("Warning: Invalid keybindings detected, using defaults: %v", err)
			config.Keybindings = getDefaultKeybindings()
			result.Status = "Warning"
			result.Warnings = append(result.Warnings, fmt.Sprintf("Keybinding errors: %v", err))
		}
	}

	result.Config = config
	return result
}

// validateStepTable requires a default entry and positive steps. A table
// that fails validation is replaced wholesale, like bad keybindings.
func validateStepTable(name string, table, fallback StepTable) (StepTable, []string) {
	if table == nil {
		return fallback, nil
	}
	if _, ok := table[""]; !ok {
		return fallback, []string{fmt.Sprintf("%s: missing default entry, using defaults", name)}
	}
	for mods, step := range table {
		if step <= 0 {
			return fallback, []string{fmt.Sprintf("%s: step for '%s' must be positive, using defaults", name, mods)}
		}
		if mods != "" {
			for _, m := range strings.Split(mods, "+") {
				switch strings.ToLower(m) {
				case "shift", "ctrl", "alt":
				default:
					return fallback, []string{fmt.Sprintf("%s: unknown modifier '%s', using defaults", name, m)}
				}
			}
		}
	}
	return table, nil
}

// Save persists the config to the default path. Only window geometry
// changes at runtime; everything else round-trips from the loaded file.
func Save(config Config) {
	SaveToPath(config, getConfigPath())
}

// SaveToPath writes the config as indented JSON.
func SaveToPath(config Config, configPath string) {
	// Don't save if size is too small
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		log.Printf("Warning: Not saving config with invalid window size: %dx%d",
			config.WindowWidth, config.WindowHeight)
		return
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		log.Printf("Error: Failed to marshal config: %v", err)
		return
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		log.Printf("Error: Failed to save config to %s: %v", configPath, err)
	}
}
