package format

import "fmt"

// Config represents formatting configuration options
type Config struct {
	// IndentSize is the indent of continuation lines of a wrapped expression
	IndentSize int `mapstructure:"indent_size"`
	// LineWidth is the width beyond which an expression is wrapped; 0 never wraps
	LineWidth int `mapstructure:"line_width"`
}

// DefaultConfig returns the default formatting configuration
func DefaultConfig() *Config {
	return &Config{
		IndentSize: 2,
		LineWidth:  80,
	}
}

// Validate reports settings the formatter cannot honour
func (c *Config) Validate() error {
	if c.IndentSize < 1 {
		return fmt.Errorf("format.indent_size must be at least 1, got %d", c.IndentSize)
	}
	if c.LineWidth < 0 {
		return fmt.Errorf("format.line_width must not be negative, got %d", c.LineWidth)
	}
	return nil
}
