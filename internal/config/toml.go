// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/examclock/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Present PresentConfig `toml:"present"`
	Log     LogConfig     `toml:"log"`
}

// PresentConfig maps presenter settings.
type PresentConfig struct {
	Layout     *string `toml:"layout"`
	Fullscreen *bool   `toml:"fullscreen"`
	BigClock   *bool   `toml:"big-clock"`
	Progress   *bool   `toml:"progress"`
	History    *bool   `toml:"history"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Path  *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// LoadSheet reads an exam sheet: one or two [[component]] tables. The
// sheet is only read, never written back.
func LoadSheet(path string) (model.Sheet, error) {
	if path == "" {
		return model.Sheet{}, fmt.Errorf("sheet path is empty")
	}
	var sheet model.Sheet
	md, err := toml.DecodeFile(path, &sheet)
	if err != nil {
		return model.Sheet{}, fmt.Errorf("failed to decode sheet: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return model.Sheet{}, fmt.Errorf("unknown sheet key %q", undecoded[0].String())
	}
	for i, c := range sheet.Components {
		sheet.Components[i] = c.Trimmed()
	}
	return sheet, nil
}
