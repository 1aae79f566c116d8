package compact

import "fmt"

// Default configuration values.
const (
	// DefaultWindowBudget is the assumed context window in tokens.
	DefaultWindowBudget = 128000

	// DefaultTriggerFraction is the occupancy ratio at which compaction
	// becomes due.
	DefaultTriggerFraction = 0.7

	// DefaultRetainTailCount is the number of most-recent non-system
	// messages that are never summarized away.
	DefaultRetainTailCount = 4
)

// Config holds the compaction policy. It is treated as immutable: the
// engine replaces its config wholesale on update rather than mutating
// fields in place.
type Config struct {
	// WindowBudget is the context window size in tokens. Must be positive.
	WindowBudget int

	// TriggerFraction is the occupancy ratio (0, 1] that makes
	// compaction due. The boundary is inclusive: occupancy equal to the
	// fraction triggers.
	TriggerFraction float64

	// RetainTailCount is how many trailing non-system messages survive
	// every automatic compaction verbatim. Must be non-negative.
	RetainTailCount int
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		WindowBudget:    DefaultWindowBudget,
		TriggerFraction: DefaultTriggerFraction,
		RetainTailCount: DefaultRetainTailCount,
	}
}

// ApplyDefaults fills zero values with defaults. RetainTailCount zero is
// a meaningful setting (retain nothing), so it is left alone.
func (c *Config) ApplyDefaults() {
	if c.WindowBudget == 0 {
		c.WindowBudget = DefaultWindowBudget
	}
	if c.TriggerFraction == 0 {
		c.TriggerFraction = DefaultTriggerFraction
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.WindowBudget <= 0 {
		return fmt.Errorf("%w: window budget must be positive, got %d", ErrInvalidConfig, c.WindowBudget)
	}
	if c.TriggerFraction <= 0 || c.TriggerFraction > 1 {
		return fmt.Errorf("%w: trigger fraction must be in (0, 1], got %g", ErrInvalidConfig, c.TriggerFraction)
	}
	if c.RetainTailCount < 0 {
		return fmt.Errorf("%w: retain tail count must be non-negative, got %d", ErrInvalidConfig, c.RetainTailCount)
	}
	return nil
}
