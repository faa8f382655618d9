package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// CLIConfig holds configuration loaded from ~/.cbot/cbot-cli.toml
type CLIConfig struct {
	TermBackground  string   `toml:"term_background"`  // "light", "dark", or "auto" (auto defaults to dark)
	Timer           int      `toml:"timer"`            // instruction budget per tick
	Encoding        string   `toml:"encoding"`         // default source encoding
	DebugCategories []string `toml:"debug_categories"` // categories enabled by -debug
}

// defaultCLIConfig returns the settings used when no file exists
func defaultCLIConfig() CLIConfig {
	return CLIConfig{
		TermBackground: "auto",
		Timer:          100,
		Encoding:       "utf-8",
	}
}

const defaultConfigText = `# CBot CLI Configuration
# This file is automatically created on first run

# Terminal background color for result colors
# Options: "auto", "dark", "light"
term_background = "auto"

# Instructions executed per tick (0 runs one step per tick)
timer = 100

# Encoding of script files: utf-8, latin1, windows-1252, utf-16le, utf-16be
encoding = "utf-8"

# Log categories shown with -debug (empty shows all)
# lexer, compile, run, stack, variable, class, call, save, memory, system, user
debug_categories = []
`

// getConfigDir returns the path to ~/.cbot
func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cbot")
}

// getConfigFilePath returns the path to ~/.cbot/cbot-cli.toml
func getConfigFilePath() string {
	dir := getConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "cbot-cli.toml")
}

// loadCLIConfig reads the configuration at path. A missing file is created
// with defaults; unreadable or invalid files leave the defaults in place.
func loadCLIConfig(path string) CLIConfig {
	cfg := defaultCLIConfig()
	if path == "" {
		return cfg
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		createDefaultConfig(path)
		return cfg
	}
	var loaded CLIConfig
	md, err := toml.DecodeFile(path, &loaded)
	if err != nil {
		errorPrintf("Warning: ignoring %s: %v\n", path, err)
		return cfg
	}
	return mergeConfig(cfg, loaded, md)
}

// mergeConfig copies the valid settings of loaded over cfg
func mergeConfig(cfg, loaded CLIConfig, md toml.MetaData) CLIConfig {
	switch bg := strings.ToLower(loaded.TermBackground); bg {
	case "light", "dark", "auto":
		cfg.TermBackground = bg
	}
	if md.IsDefined("timer") && loaded.Timer >= 0 {
		cfg.Timer = loaded.Timer
	}
	if loaded.Encoding != "" {
		cfg.Encoding = strings.ToLower(loaded.Encoding)
	}
	if len(loaded.DebugCategories) > 0 {
		cfg.DebugCategories = loaded.DebugCategories
	}
	return cfg
}

// createDefaultConfig writes the default config file
func createDefaultConfig(path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	_ = os.WriteFile(path, []byte(defaultConfigText), 0644)
}
