package logger

import "io"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type config struct {
	format string
	writer io.Writer
	level  string
}

// Option configures Init and New.
type Option func(*config)

// WithFormat selects "text" or "json" output. Anything else means text.
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithWriter redirects output, mainly for tests.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.writer = w
		}
	}
}

// WithLevel sets the initial level (debug, info, warn, error).
func WithLevel(level string) Option {
	return func(c *config) {
		c.level = level
	}
}
