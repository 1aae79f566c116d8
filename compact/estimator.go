package compact

import (
	"github.com/awein/winnow/errors"
	"github.com/awein/winnow/session"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tokenizer encoding used when none is specified.
const DefaultEncoding = "cl100k_base"

// Heuristic constants. The image costs approximate the vision API's
// documented token ranges and the overheads approximate message framing;
// none were validated against actual billing, so the Estimator exposes
// them as tunable fields rather than hard-coding them.
const (
	// DefaultPerMessageOverhead approximates role/metadata framing cost
	// per message.
	DefaultPerMessageOverhead = 4

	// DefaultPerRequestOverhead approximates the overall request framing
	// cost, added once per estimate.
	DefaultPerRequestOverhead = 3

	// DefaultImageTokensLow is the fixed cost of a low-detail image part.
	DefaultImageTokensLow = 85

	// DefaultImageTokens is the flat conservative cost of an image part
	// with unspecified or high detail, near the middle of the documented
	// 255-765 range for an unscaled image.
	DefaultImageTokens = 400
)

// Tokenizer counts the tokens in a piece of text.
type Tokenizer interface {
	Count(text string) int
}

// tiktokenTokenizer counts with a loaded tiktoken encoding.
type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// approxTokenizer estimates ~4 characters per token, the usual English
// average. Not billing-accurate, but it needs no vocabulary data.
type approxTokenizer struct{}

func (approxTokenizer) Count(text string) int {
	return (len(text) + 3) / 4
}

// Estimator computes integer token estimates for message sequences. It
// is a pure function over its inputs plus the tokenizer; the overhead
// fields may be tuned after construction but before use.
type Estimator struct {
	tok Tokenizer

	PerMessageOverhead int
	PerRequestOverhead int
	ImageTokensLow     int
	ImageTokens        int
}

// NewEstimator loads the named tiktoken encoding. An empty name selects
// DefaultEncoding. A load failure indicates a tokenizer/model mismatch
// and is fatal, not retryable.
func NewEstimator(encoding string) (*Estimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load tokenizer encoding %q", encoding)
	}
	return NewEstimatorWithTokenizer(tiktokenTokenizer{enc: enc}), nil
}

// NewApproxEstimator returns an estimator backed by the character-based
// approximation. Useful where loading tokenizer data is not an option.
func NewApproxEstimator() *Estimator {
	return NewEstimatorWithTokenizer(approxTokenizer{})
}

// NewEstimatorWithTokenizer builds an estimator around a custom
// tokenizer, with all overhead fields at their defaults.
func NewEstimatorWithTokenizer(tok Tokenizer) *Estimator {
	return &Estimator{
		tok:                tok,
		PerMessageOverhead: DefaultPerMessageOverhead,
		PerRequestOverhead: DefaultPerRequestOverhead,
		ImageTokensLow:     DefaultImageTokensLow,
		ImageTokens:        DefaultImageTokens,
	}
}

// Text returns the token count of a plain string.
func (e *Estimator) Text(s string) int {
	if s == "" {
		return 0
	}
	return e.tok.Count(s)
}

// Message estimates one message including its per-message overhead.
func (e *Estimator) Message(m session.Message) int {
	total := e.PerMessageOverhead
	if len(m.Parts) == 0 {
		return total + e.Text(m.Content)
	}
	for _, p := range m.Parts {
		switch p.Type {
		case session.PartText:
			total += e.Text(p.Text)
		case session.PartImage:
			if p.Detail == session.DetailLow {
				total += e.ImageTokensLow
			} else {
				total += e.ImageTokens
			}
		}
	}
	return total
}

// Messages estimates a full history including the per-request overhead.
// An empty history estimates to zero.
func (e *Estimator) Messages(msgs []session.Message) int {
	if len(msgs) == 0 {
		return 0
	}
	total := e.PerRequestOverhead
	for _, m := range msgs {
		total += e.Message(m)
	}
	return total
}
