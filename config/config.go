package config

import "slices"

// Config represents the complete genia.yaml configuration
type Config struct {
	BaseDir     string            `yaml:"-"` // Directory containing config file, for resolving relative paths
	Trace       bool              `yaml:"trace"`
	Foreign     ForeignConfig     `yaml:"foreign"`
	Awk         AwkConfig         `yaml:"awk"`
	Database    DatabaseConfig    `yaml:"database"`
	Hosted      HostedConfig      `yaml:"hosted"`
	REPL        REPLConfig        `yaml:"repl"`
	Serve       ServeConfig       `yaml:"serve"`
	Compression CompressionConfig `yaml:"compression"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ForeignConfig filters which foreign targets scripts may bind
type ForeignConfig struct {
	Allow StringOrSlice `yaml:"allow"` // Glob patterns; empty allows every target
	Deny  StringOrSlice `yaml:"deny"`  // Glob patterns checked before allow
}

// AwkConfig holds record mode settings
type AwkConfig struct {
	FieldSeparator string `yaml:"field_separator"` // Empty splits on whitespace
}

// DatabaseConfig holds settings for the sql.* routines
type DatabaseConfig struct {
	Default string `yaml:"default"` // DSN used when a script passes "" (e.g., "sqlite:./data.db")
}

// HostedConfig holds settings for the other hosted routines
type HostedConfig struct {
	Locale string `yaml:"locale"` // time.format month and day names (default: "en")
	Seed   uint64 `yaml:"seed"`   // Non-zero makes random.* repeatable
}

// REPLConfig holds interactive settings
type REPLConfig struct {
	HistoryFile string `yaml:"history_file"`
}

// ServeConfig holds script service settings
type ServeConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Script  string `yaml:"script"`   // Script defining the handler
	Handler string `yaml:"handler"`  // Function called per request (default: "handle_request")
	Watch   bool   `yaml:"watch"`    // Reload the script when it changes
	MaxBody string `yaml:"max_body"` // Largest request body accepted (default: "1MB")
}

// CompressionConfig holds HTTP response compression settings
type CompressionConfig struct {
	Enabled bool   `yaml:"enabled"`  // Enable gzip compression (default: true)
	Level   string `yaml:"level"`    // Compression level: "fastest", "default", "best", "none" (default: "default")
	MinSize int    `yaml:"min_size"` // Minimum response size to compress in bytes (default: 1024)
}

// LoggingConfig holds request logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
	Output string `yaml:"output"` // stderr, stdout, or file path
	Quiet  bool   `yaml:"quiet"`  // suppress request logs
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// Contains checks if the slice contains the given string
func (s StringOrSlice) Contains(str string) bool {
	return slices.Contains(s, str)
}

// Defaults returns a Config with default values
func Defaults() *Config {
	return &Config{
		Hosted: HostedConfig{
			Locale: "en",
		},
		Serve: ServeConfig{
			Host:    "localhost",
			Port:    8080,
			Handler: "handle_request",
			MaxBody: "1MB",
		},
		Compression: CompressionConfig{
			Enabled: true,
			Level:   "default",
			MinSize: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
