// Package config loads engine options from a TOML file.
//
// All options are presentation and interaction tuning; structural
// semantics never depend on configuration. A missing file yields the
// defaults, never an error.
package config

import (
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the engine's tunable options.
type Config struct {
	// DragThreshold is the logical-pixel movement that turns a pointer
	// press into a drag.
	DragThreshold int `toml:"drag_threshold"`

	// MinColumnWidth is the resize floor in logical pixels.
	MinColumnWidth int `toml:"min_column_width"`

	// DefaultColumnWidth is the pixel width of newly created columns in
	// pixel layout.
	DefaultColumnWidth int `toml:"default_column_width"`

	// RowHeight is the logical-pixel height of one row, used to quantize
	// add/remove-button drags.
	RowHeight int `toml:"row_height"`

	// GripHideDelayMs delays hiding hover grips. Presentation only.
	GripHideDelayMs int `toml:"grip_hide_delay_ms"`

	// Swatches are the hex colors offered by the selection color picker.
	Swatches []string `toml:"swatches"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DragThreshold:      4,
		MinColumnWidth:     50,
		DefaultColumnWidth: 120,
		RowHeight:          2,
		GripHideDelayMs:    300,
		Swatches: []string{
			"#f5f5f5", "#fde2e2", "#fcf1d6", "#d6f8de", "#d9eaff", "#ede2fe",
		},
	}
}

// Load reads configuration from path, layered over the defaults. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks option ranges and swatch colors.
func (c *Config) Validate() error {
	if c.DragThreshold < 1 {
		return fmt.Errorf("config: drag_threshold %d below 1", c.DragThreshold)
	}
	if c.MinColumnWidth < 1 {
		return fmt.Errorf("config: min_column_width %d below 1", c.MinColumnWidth)
	}
	if c.DefaultColumnWidth < c.MinColumnWidth {
		return fmt.Errorf("config: default_column_width %d below min_column_width %d",
			c.DefaultColumnWidth, c.MinColumnWidth)
	}
	if c.RowHeight < 1 {
		return fmt.Errorf("config: row_height %d below 1", c.RowHeight)
	}
	for _, s := range c.Swatches {
		if _, err := colorful.Hex(s); err != nil {
			return fmt.Errorf("config: invalid swatch %q: %w", s, err)
		}
	}
	return nil
}
