// Package hostconfig decodes the YAML configuration a host process
// uses to parameterize a VM embedding: instruction budgets, logging
// level, and which modules to install. Grounded on
// gopkg.in/yaml.v3, used the same way by DataDog-datadog-agent and
// mna-nenuphar for their own top-level config structs.
package hostconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	// Budget is the default instruction budget handed to a fresh
	// VmExecution (spec §4.4.1). Zero means "unbounded" — the host
	// must opt into rationing.
	Budget int `yaml:"budget"`

	// Logging controls the rlog logger's verbosity and format.
	Logging LoggingConfig `yaml:"logging"`

	// Modules lists the named host modules to install into the
	// RuntimeContext, in order (spec §6.1 "Compose modules into a
	// Context").
	Modules []string `yaml:"modules"`

	// InstructionEncoding selects which unit.InstructionStore a
	// compiled Unit should use when building from source: "array" or
	// "bytecoded" (spec §6.2).
	InstructionEncoding string `yaml:"instruction_encoding"`
}

// LoggingConfig controls the rlog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Budget:              0,
		Logging:             LoggingConfig{Level: "info", Format: "json"},
		InstructionEncoding: "array",
	}
}

// Load reads and parses a YAML config file at path, filling in
// Default() values for anything the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hostconfig: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("hostconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the document for self-consistency beyond what
// unmarshalling alone catches.
func (c *Config) Validate() error {
	switch c.InstructionEncoding {
	case "array", "bytecoded":
	default:
		return fmt.Errorf("hostconfig: unknown instruction_encoding %q (want array or bytecoded)", c.InstructionEncoding)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("hostconfig: unknown logging.level %q", c.Logging.Level)
	}
	if c.Budget < 0 {
		return fmt.Errorf("hostconfig: budget must be >= 0, got %d", c.Budget)
	}
	return nil
}
