package compact

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/awein/winnow/session"
)

type fakeSummarizer struct {
	summary    string
	err        error
	calls      int
	transcript string
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript string) (string, error) {
	f.calls++
	f.transcript = transcript
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type memStore struct {
	messages map[string][]session.Message
	replaced int
}

func newMemStore() *memStore {
	return &memStore{messages: make(map[string][]session.Message)}
}

func (s *memStore) GetMessages(id string) ([]session.Message, error) {
	msgs, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return msgs, nil
}

func (s *memStore) ReplaceMessages(id string, msgs []session.Message) error {
	s.messages[id] = msgs
	s.replaced++
	return nil
}

func newTestEngine(t *testing.T, cfg Config, sum Summarizer) *Engine {
	t.Helper()
	eng, err := New(cfg, testEstimator(), sum, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

// words returns a message whose payload estimates to exactly n tokens of
// content under the word encoder.
func words(role string, n int) session.Message {
	return session.Message{Role: role, Content: strings.TrimSpace(strings.Repeat("w ", n))}
}

func TestCompactIfDueBelowThresholdIsNoop(t *testing.T) {
	sum := &fakeSummarizer{summary: "unused"}
	eng := newTestEngine(t, Config{WindowBudget: 1000, TriggerFraction: 0.7, RetainTailCount: 2}, sum)

	// 1 system + 10 messages, ~500 tokens total.
	history := []session.Message{words(session.RoleSystem, 40)}
	for i := 0; i < 10; i++ {
		history = append(history, words(session.RoleUser, 41))
	}
	before := eng.Estimate(history)
	if before >= 700 {
		t.Fatalf("test setup: history estimates to %d, want < 700", before)
	}

	out, err := eng.CompactIfDue(context.Background(), history, false)
	if err != nil {
		t.Fatalf("CompactIfDue: %v", err)
	}
	if out.DidCompact {
		t.Error("DidCompact = true below threshold")
	}
	if out.BeforeTokens != out.AfterTokens || out.BeforeCount != out.AfterCount {
		t.Error("no-op outcome must have identical before/after stats")
	}
	if len(out.Result) != len(history) || &out.Result[0] != &history[0] {
		t.Error("no-op must return the input history untouched")
	}
	if sum.calls != 0 {
		t.Errorf("summarizer called %d times on no-op", sum.calls)
	}
}

func TestCompactIfDueScenarioA(t *testing.T) {
	sum := &fakeSummarizer{summary: "the earlier discussion"}
	eng := newTestEngine(t, Config{WindowBudget: 1000, TriggerFraction: 0.7, RetainTailCount: 2}, sum)

	// 1 system + 10 user/assistant messages totaling ~800 tokens.
	history := []session.Message{words(session.RoleSystem, 30)}
	for i := 0; i < 10; i++ {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		history = append(history, words(role, 72))
	}
	before := eng.Estimate(history)
	if before < 700 || before > 900 {
		t.Fatalf("test setup: history estimates to %d, want ~800", before)
	}
	if !eng.Status(history).Due {
		t.Fatal("test setup: compaction should be due")
	}

	out, err := eng.CompactIfDue(context.Background(), history, false)
	if err != nil {
		t.Fatalf("CompactIfDue: %v", err)
	}
	if !out.DidCompact {
		t.Fatal("DidCompact = false")
	}
	// 1 system + 1 summary + 2 tail.
	if out.AfterCount != 4 || len(out.Result) != 4 {
		t.Errorf("AfterCount = %d, want 4", out.AfterCount)
	}
	if out.AfterTokens >= out.BeforeTokens {
		t.Errorf("AfterTokens %d not reduced from %d", out.AfterTokens, out.BeforeTokens)
	}

	// Preservation: prefix and tail survive verbatim, in order.
	if !reflect.DeepEqual(out.Result[0], history[0]) {
		t.Error("leading system message changed")
	}
	if !reflect.DeepEqual(out.Result[2], history[9]) || !reflect.DeepEqual(out.Result[3], history[10]) {
		t.Error("tail messages changed or reordered")
	}
	summary := out.Result[1]
	if summary.Role != session.RoleSystem || summary.Tag != session.TagSummary {
		t.Errorf("summary message role/tag = %s/%s", summary.Role, summary.Tag)
	}
	if !strings.Contains(summary.Content, sum.summary) {
		t.Error("summary message does not carry the delegate's text")
	}
	if !strings.Contains(sum.transcript, "User:") || !strings.Contains(sum.transcript, "Assistant:") {
		t.Error("transcript is missing role labels")
	}
}

func TestCompactIfDueThresholdBoundaryInclusive(t *testing.T) {
	sum := &fakeSummarizer{summary: "s"}
	eng := newTestEngine(t, Config{WindowBudget: 1000, TriggerFraction: 0.7, RetainTailCount: 1}, sum)

	// Engineer exactly 700 tokens: 3 request + 5*4 message overhead +
	// 677 words of content.
	history := []session.Message{
		words(session.RoleUser, 137),
		words(session.RoleAssistant, 135),
		words(session.RoleUser, 135),
		words(session.RoleAssistant, 135),
		words(session.RoleUser, 135),
	}
	if got := eng.Estimate(history); got != 700 {
		t.Fatalf("test setup: estimate = %d, want exactly 700", got)
	}

	st := eng.Status(history)
	if !st.Due {
		t.Error("occupancy == trigger fraction must count as due")
	}
	out, err := eng.CompactIfDue(context.Background(), history, false)
	if err != nil {
		t.Fatalf("CompactIfDue: %v", err)
	}
	if !out.DidCompact {
		t.Error("DidCompact = false at inclusive boundary")
	}
}

func TestCompactIfDueForcedButEmptyMiddle(t *testing.T) {
	sum := &fakeSummarizer{summary: "s"}
	eng := newTestEngine(t, Config{WindowBudget: 1000, TriggerFraction: 0.7, RetainTailCount: 4}, sum)

	history := msgs("system", "user", "assistant")
	out, err := eng.CompactIfDue(context.Background(), history, true)
	if err != nil {
		t.Fatalf("CompactIfDue: %v", err)
	}
	if out.DidCompact {
		t.Error("forced compaction with an empty middle must be a no-op")
	}
	if sum.calls != 0 {
		t.Error("summarizer called despite empty middle")
	}
}

func TestCompactIfDueDelegateFailure(t *testing.T) {
	wantErr := errors.New("rate limited")
	sum := &fakeSummarizer{err: wantErr}
	eng := newTestEngine(t, Config{WindowBudget: 10, TriggerFraction: 0.1, RetainTailCount: 1}, sum)

	history := msgs("system", "user", "assistant", "user")
	out, err := eng.CompactIfDue(context.Background(), history, false)
	if out != nil {
		t.Error("failed compaction must not return a partial outcome")
	}
	if !errors.Is(err, ErrSummarizer) {
		t.Errorf("error %v does not wrap ErrSummarizer", err)
	}
}

func TestRewriteScenarioC(t *testing.T) {
	sum := &fakeSummarizer{summary: "everything that happened"}
	eng := newTestEngine(t, DefaultConfig(), sum)

	// 2 system messages, 1 context-injection message, 20 conversation
	// messages. Occupancy is nowhere near the threshold; Rewrite must
	// compact anyway.
	store := newMemStore()
	history := []session.Message{
		{Role: session.RoleSystem, Content: "sys one"},
		{Role: session.RoleSystem, Content: "sys two"},
		{Role: session.RoleUser, Content: "project notes", Tag: session.TagContext},
	}
	for i := 0; i < 20; i++ {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		history = append(history, session.Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}
	store.messages["work"] = history

	if err := eng.Rewrite(context.Background(), store, "work"); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	got := store.messages["work"]
	if len(got) != 4 {
		t.Fatalf("rewritten history has %d messages, want 4", len(got))
	}
	if !reflect.DeepEqual(got[:3], history[:3]) {
		t.Error("preserved messages changed or reordered")
	}
	last := got[3]
	if last.Role != session.RoleAssistant || last.Tag != session.TagSummary {
		t.Errorf("summary role/tag = %s/%s, want assistant/summary", last.Role, last.Tag)
	}
	if strings.Contains(sum.transcript, "sys one") || strings.Contains(sum.transcript, "sys two") {
		t.Error("forced-path transcript must exclude system messages")
	}
	if strings.Contains(sum.transcript, "project notes") {
		t.Error("forced-path transcript must exclude context-tagged messages")
	}
}

func TestRewriteDelegateFailureLeavesStoreUntouched(t *testing.T) {
	sum := &fakeSummarizer{err: errors.New("boom")}
	eng := newTestEngine(t, DefaultConfig(), sum)

	store := newMemStore()
	history := msgs("system", "user", "assistant")
	store.messages["s"] = history

	err := eng.Rewrite(context.Background(), store, "s")
	if !errors.Is(err, ErrSummarizer) {
		t.Errorf("error %v does not wrap ErrSummarizer", err)
	}
	if store.replaced != 0 {
		t.Error("store was written despite delegate failure")
	}
	if len(store.messages["s"]) != 3 {
		t.Error("history changed despite delegate failure")
	}
}

func TestRewriteNothingToSummarize(t *testing.T) {
	sum := &fakeSummarizer{summary: "s"}
	eng := newTestEngine(t, DefaultConfig(), sum)

	store := newMemStore()
	store.messages["s"] = msgs("system", "system")

	if err := eng.Rewrite(context.Background(), store, "s"); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if sum.calls != 0 || store.replaced != 0 {
		t.Error("rewrite of an all-preserved history must be a no-op")
	}
}

func TestStatus(t *testing.T) {
	eng := newTestEngine(t, Config{WindowBudget: 100, TriggerFraction: 0.5, RetainTailCount: 2}, &fakeSummarizer{})

	history := []session.Message{words(session.RoleUser, 43)} // 3 + 4 + 43 = 50
	st := eng.Status(history)
	if st.Tokens != 50 || st.Budget != 100 {
		t.Errorf("tokens/budget = %d/%d, want 50/100", st.Tokens, st.Budget)
	}
	if st.Occupancy != 0.5 {
		t.Errorf("occupancy = %g, want 0.5", st.Occupancy)
	}
	if !st.Due {
		t.Error("Due must be true at the inclusive boundary")
	}
	if st.Messages != 1 {
		t.Errorf("messages = %d, want 1", st.Messages)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []Config{
		{WindowBudget: -1, TriggerFraction: 0.5, RetainTailCount: 0},
		{WindowBudget: 100, TriggerFraction: 1.5, RetainTailCount: 0},
		{WindowBudget: 100, TriggerFraction: -0.2, RetainTailCount: 0},
		{WindowBudget: 100, TriggerFraction: 0.5, RetainTailCount: -3},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: Validate() = %v, want ErrInvalidConfig", i, err)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSetConfigReplacesWholesale(t *testing.T) {
	eng := newTestEngine(t, DefaultConfig(), &fakeSummarizer{})

	if err := eng.SetConfig(Config{WindowBudget: 500, TriggerFraction: 0.9, RetainTailCount: 1}); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if got := eng.Config(); got.WindowBudget != 500 || got.TriggerFraction != 0.9 || got.RetainTailCount != 1 {
		t.Errorf("config not replaced: %+v", got)
	}

	if err := eng.SetConfig(Config{WindowBudget: -5}); err == nil {
		t.Error("SetConfig accepted an invalid config")
	}
	if got := eng.Config(); got.WindowBudget != 500 {
		t.Error("failed SetConfig must leave the previous config in place")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{WindowBudget: 100, TriggerFraction: 2}, testEstimator(), &fakeSummarizer{}, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New = %v, want ErrInvalidConfig", err)
	}
}
