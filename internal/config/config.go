// Package config defines service configuration and the activity seed.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Loader errors are wrapped with this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// SeedFile points at a YAML activity seed. Empty uses the built-in seed.
	SeedFile string `koanf:"seed_file"`

	// QueueSize bounds the roster change queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of journal workers.
	WorkerCount int `koanf:"worker_count"`

	// JournalSize is how many recent roster changes are kept.
	JournalSize int `koanf:"journal_size"`

	// MaxHistoryLimit caps GET /history?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8000",
		QueueSize:       10_000,
		WorkerCount:     2,
		JournalSize:     1024,
		MaxHistoryLimit: 100,
	}
}
