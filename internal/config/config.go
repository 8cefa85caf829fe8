// Package config loads the optional .ward.yaml file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory when no
// explicit path is given.
const DefaultFile = ".ward.yaml"

// Config holds the parsed file contents. All fields are optional; zero
// values mean "use the default" and every field can be overridden by a flag.
type Config struct {
	ServiceKey string `yaml:"service_key"`
	Endpoint   string `yaml:"endpoint"`
	LogFile    string `yaml:"log_file"`
	RawTimeout string `yaml:"timeout"` // e.g. "30s", "5m"; empty = unbounded
	ExitMin    int    `yaml:"exit_min"`
	ExitMax    int    `yaml:"exit_max"`
	EchoStdout bool   `yaml:"echo_stdout"`
	EchoStderr bool   `yaml:"echo_stderr"`
	Quiet      bool   `yaml:"quiet"`
}

// Timeout returns the configured timeout, or zero for an unbounded run.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.RawTimeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Load reads the config file at path. A missing file yields an empty
// Config; a malformed file or an unparsable timeout is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.RawTimeout != "" {
		d, err := time.ParseDuration(cfg.RawTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q in %s: %w", cfg.RawTimeout, path, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid timeout %q in %s: must not be negative", cfg.RawTimeout, path)
		}
	}
	return cfg, nil
}
