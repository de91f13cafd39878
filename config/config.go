package config

// Config represents the complete tracer configuration
type Config struct {
	BaseDir   string          `yaml:"-"` // Directory containing config file, for resolving relative paths
	Seed      uint64          `yaml:"seed"`
	Inference InferenceConfig `yaml:"inference"`
	Logging   LoggingConfig   `yaml:"logging"`
	REPL      REPLConfig      `yaml:"repl"`
	Eval      EvalConfig      `yaml:"eval"`
}

// InferenceConfig holds defaults for the infer command
type InferenceConfig struct {
	Method      string `yaml:"method"`       // importance or rejection
	Particles   int    `yaml:"particles"`    // importance sampling particle count
	MaxAttempts int    `yaml:"max_attempts"` // rejection sampling attempt bound
	Workers     int    `yaml:"workers"`      // concurrent particles, 0 for unbounded
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stderr, stdout, or file path
}

// REPLConfig holds interactive session settings
type REPLConfig struct {
	History string `yaml:"history"` // history file, empty to disable
}

// EvalConfig holds evaluator limits
type EvalConfig struct {
	MaxStack string `yaml:"max_stack"` // goroutine stack limit such as "1GB", empty for the runtime default
}

// Methods lists the inference algorithms the infer command knows.
var Methods = []string{"importance", "rejection"}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Inference: InferenceConfig{
			Method:      "importance",
			Particles:   1000,
			MaxAttempts: 10000,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		REPL: REPLConfig{
			History: "~/.tracer_history",
		},
	}
}
