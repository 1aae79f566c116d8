// Package compact manages the context window of a conversation.
//
// Conversations grow without bound while the model's context window does
// not. This package tracks an estimated token count against a configured
// budget and, when occupancy crosses a trigger fraction, replaces the
// summarizable span of history with a single model-written digest.
//
// # Entry points
//
// The Engine has two compaction paths:
//
//   - CompactIfDue is meant to run after every conversation turn. It
//     short-circuits below the trigger threshold, keeps the leading
//     system prefix and the most recent RetainTailCount messages
//     verbatim, and summarizes only the middle span.
//
//   - Rewrite backs the explicit "compact" command. It ignores the
//     threshold, keeps all system-role and context-tagged messages, and
//     collapses the entire remaining conversation into one assistant
//     summary, writing the result back through the Store.
//
// # Estimation
//
// Token counts come from a tiktoken encoding (cl100k_base by default)
// plus fixed heuristics: 4 tokens of framing per message, 3 per request,
// and flat costs for image parts (85 low-detail, 400 otherwise). The
// constants live on the Estimator so an operator can tune them.
//
// # Failure behavior
//
// The engine never mutates history before the summarization delegate has
// succeeded. A failed delegate call surfaces as an error wrapping
// ErrSummarizer while the caller's history stays valid, so an automatic
// compaction failure can be logged and skipped for the turn.
//
// Callers must not run two compactions concurrently against the same
// session history; the surrounding conversation loop is expected to keep
// one turn in flight at a time.
package compact
