package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/layoutsync/internal/layout"
	"github.com/starford/layoutsync/internal/region"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Layout LayoutConfig      `yaml:"layout"`
	Watch  WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// LayoutConfig describes the pages to keep in sync. Paths are relative to Root.
type LayoutConfig struct {
	Root     string   `yaml:"root"`
	Template string   `yaml:"template"`
	Targets  []string `yaml:"targets"`
	Strict   bool     `yaml:"strict"`
}

// Validate validates the layout configuration.
func (c *LayoutConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Template, validation.Required),
		validation.Field(&c.Targets, validation.Required, validation.Each(validation.Required)),
	); err != nil {
		return err
	}
	for _, t := range c.Targets {
		if t == c.Template {
			return fmt.Errorf("layout: template %q is also listed as a target", t)
		}
	}
	return nil
}

// Plan builds the immutable synchronization plan with the built-in regions.
func (c *LayoutConfig) Plan() layout.Plan {
	targets := make([]string, len(c.Targets))
	copy(targets, c.Targets)
	return layout.Plan{
		Template: c.Template,
		Targets:  targets,
		Regions:  region.Defaults(),
		Strict:   c.Strict,
	}
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Layout: LayoutConfig{
			Root:     ".",
			Template: "shared-layout.html",
			Targets: []string{
				"index.html",
				"students/index.html",
			},
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}
