package assignment

type config struct {
	enforceEligibility bool
	actor              string
	expectVersion      bool
	version            int64
}

func newConfig(opts ...Option) config {
	c := config{enforceEligibility: true}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option configures a single Assign call.
type Option func(*config)

// WithEligibilityCheck toggles rejection of events outside the eligible set.
// It is on by default.
func WithEligibilityCheck(enabled bool) Option {
	return func(c *config) {
		c.enforceEligibility = enabled
	}
}

// WithActor records who performed the assignment in the audit entry.
func WithActor(actor string) Option {
	return func(c *config) {
		c.actor = actor
	}
}

// WithExpectedVersion rejects the assignment with ErrConflict unless the
// request in the snapshot is at version v.
func WithExpectedVersion(v int64) Option {
	return func(c *config) {
		c.expectVersion = true
		c.version = v
	}
}
