package compact

import (
	"context"
	"fmt"

	"github.com/awein/winnow/session"
)

// Summarizer is the external language-model delegate. Failures are
// propagated unchanged to the engine's caller.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Store is the external session manager the forced rewrite path works
// against. The engine never retains session identity or message slices
// across calls.
type Store interface {
	GetMessages(sessionID string) ([]session.Message, error)
	ReplaceMessages(sessionID string, msgs []session.Message) error
}

// Logger is the subset of log/slog the engine uses. A *slog.Logger
// satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Outcome reports one compaction attempt. It is produced fresh per
// invocation and never retained by the engine.
type Outcome struct {
	DidCompact   bool
	BeforeCount  int
	AfterCount   int
	BeforeTokens int
	AfterTokens  int

	// Result is the history to use going forward. On a no-op outcome it
	// is the input slice, untouched.
	Result []session.Message
}

// Status is the read-only occupancy report.
type Status struct {
	Messages  int
	Tokens    int
	Budget    int
	Occupancy float64

	// Due is true when occupancy has reached the trigger fraction
	// (inclusive boundary).
	Due bool
}

// Engine decides when and how to shrink a conversation so it fits the
// configured context budget. It holds no per-session state: callers pass
// histories in and receive replacements out.
//
// The engine assumes the surrounding conversation loop invokes it from
// at most one in-flight turn per session; it performs no locking of its
// own around compaction.
type Engine struct {
	cfg        Config
	est        *Estimator
	summarizer Summarizer
	logger     Logger
}

// New constructs an engine. A nil estimator gets a default one using
// DefaultEncoding; a nil logger is replaced with a no-op. Configuration
// problems are fatal here, not at call time.
func New(cfg Config, est *Estimator, summarizer Summarizer, logger Logger) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if est == nil {
		var err error
		est, err = NewEstimator("")
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		cfg:        cfg,
		est:        est,
		summarizer: summarizer,
		logger:     logger,
	}, nil
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetConfig replaces the configuration wholesale after validating it.
func (e *Engine) SetConfig(cfg Config) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

// Estimate returns the token estimate for a history.
func (e *Engine) Estimate(history []session.Message) int {
	return e.est.Messages(history)
}

// Status reports occupancy for a history without mutating anything.
func (e *Engine) Status(history []session.Message) Status {
	tokens := e.est.Messages(history)
	occupancy := float64(tokens) / float64(e.cfg.WindowBudget)
	return Status{
		Messages:  len(history),
		Tokens:    tokens,
		Budget:    e.cfg.WindowBudget,
		Occupancy: occupancy,
		Due:       occupancy >= e.cfg.TriggerFraction,
	}
}

// CompactIfDue is the automatic path, cheap enough to call every turn.
// Below the trigger threshold (unless force is set) or with nothing to
// summarize it returns a no-op outcome carrying the input history
// untouched. Otherwise the middle region is summarized and replaced by
// a single system-role digest message between the preserved prefix and
// tail. A delegate failure is returned as-is with no partial result:
// the caller's history is still valid.
func (e *Engine) CompactIfDue(ctx context.Context, history []session.Message, force bool) (*Outcome, error) {
	before := e.est.Messages(history)
	noop := &Outcome{
		BeforeCount:  len(history),
		AfterCount:   len(history),
		BeforeTokens: before,
		AfterTokens:  before,
		Result:       history,
	}

	occupancy := float64(before) / float64(e.cfg.WindowBudget)
	if !force && occupancy < e.cfg.TriggerFraction {
		return noop, nil
	}

	p := PartitionHistory(history, e.cfg.RetainTailCount)
	if len(p.Middle) == 0 {
		e.logger.Debug("compaction skipped, nothing to summarize",
			"messages", len(history), "tokens", before)
		return noop, nil
	}

	summary, err := e.summarizer.Summarize(ctx, Transcript(p.Middle))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarizer, err)
	}

	result := make([]session.Message, 0, len(p.LeadingSystem)+1+len(p.Tail))
	result = append(result, p.LeadingSystem...)
	result = append(result, session.Message{
		Role:    session.RoleSystem,
		Content: "Summary of the earlier conversation:\n\n" + summary,
		Tag:     session.TagSummary,
	})
	result = append(result, p.Tail...)

	after := e.est.Messages(result)
	e.logger.Info("history compacted",
		"before_messages", len(history), "after_messages", len(result),
		"before_tokens", before, "after_tokens", after)

	return &Outcome{
		DidCompact:   true,
		BeforeCount:  len(history),
		AfterCount:   len(result),
		BeforeTokens: before,
		AfterTokens:  after,
		Result:       result,
	}, nil
}

// Rewrite is the forced full-rewrite path behind the explicit compact
// command. It always does real work regardless of occupancy: every
// system-role message and every context-tagged message is preserved,
// everything else is summarized into one assistant message, and the
// stored history is replaced with preserved ++ summary. Statistics are
// logged rather than returned; the caller only learns success or
// failure.
func (e *Engine) Rewrite(ctx context.Context, store Store, sessionID string) error {
	history, err := store.GetMessages(sessionID)
	if err != nil {
		return err
	}

	var preserved, rest []session.Message
	for _, m := range history {
		if m.Role == session.RoleSystem || m.Tag == session.TagContext {
			preserved = append(preserved, m)
		} else {
			rest = append(rest, m)
		}
	}
	if len(rest) == 0 {
		e.logger.Info("rewrite skipped, no conversation to summarize",
			"session", sessionID, "messages", len(history))
		return nil
	}

	before := e.est.Messages(history)
	summary, err := e.summarizer.Summarize(ctx, Transcript(rest))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSummarizer, err)
	}

	result := make([]session.Message, 0, len(preserved)+1)
	result = append(result, preserved...)
	result = append(result, session.Message{
		Role:    session.RoleAssistant,
		Content: "Summary of the conversation so far:\n\n" + summary,
		Tag:     session.TagSummary,
	})

	after := e.est.Messages(result)
	e.logger.Info("session rewritten",
		"session", sessionID,
		"before_messages", len(history), "after_messages", len(result),
		"before_tokens", before, "after_tokens", after)

	return store.ReplaceMessages(sessionID, result)
}
