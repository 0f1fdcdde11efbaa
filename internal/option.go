package internal

import "io"

// Mode selects what Run does.
type Mode int

const (
	// ModeSync copies regions into targets once.
	ModeSync Mode = iota
	// ModeCheck reports drift without writing.
	ModeCheck
	// ModeWatch syncs once, then again on every change until cancelled.
	ModeWatch
	// ModeMCP serves the MCP tools over stdio.
	ModeMCP
	// ModeRegions prints the configured regions.
	ModeRegions
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   Mode
	stdout io.Writer
	stderr io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode. The default is ModeSync.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithOutput sets the writers for notices (stdout) and logs (stderr).
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *application) {
		a.stdout = stdout
		a.stderr = stderr
	}
}
