package compact

import (
	"reflect"
	"testing"

	"github.com/awein/winnow/session"
)

func msgs(roles ...string) []session.Message {
	out := make([]session.Message, len(roles))
	for i, r := range roles {
		out[i] = session.Message{Role: r, Content: r}
	}
	return out
}

func checkTotality(t *testing.T, history []session.Message, p Partition) {
	t.Helper()
	rebuilt := append(append(append([]session.Message{}, p.LeadingSystem...), p.Middle...), p.Tail...)
	if len(rebuilt) != len(history) {
		t.Fatalf("partition dropped or duplicated messages: %d != %d", len(rebuilt), len(history))
	}
	for i := range history {
		if !reflect.DeepEqual(rebuilt[i], history[i]) {
			t.Fatalf("message %d reordered or changed", i)
		}
	}
}

func TestPartitionBasic(t *testing.T) {
	history := msgs("system", "user", "assistant", "user", "assistant", "user")
	p := PartitionHistory(history, 2)

	if len(p.LeadingSystem) != 1 {
		t.Errorf("leading system = %d, want 1", len(p.LeadingSystem))
	}
	if len(p.Middle) != 3 {
		t.Errorf("middle = %d, want 3", len(p.Middle))
	}
	if len(p.Tail) != 2 {
		t.Errorf("tail = %d, want 2", len(p.Tail))
	}
	checkTotality(t, history, p)
}

func TestPartitionOnlyLeadingSystemsPreserved(t *testing.T) {
	// A system message after the first non-system message belongs to the
	// suffix, not the preserved prefix.
	history := msgs("system", "user", "system", "user", "user", "user")
	p := PartitionHistory(history, 1)
	if len(p.LeadingSystem) != 1 {
		t.Errorf("leading system = %d, want 1", len(p.LeadingSystem))
	}
	if len(p.Middle) != 4 {
		t.Errorf("middle = %d, want 4", len(p.Middle))
	}
	checkTotality(t, history, p)
}

func TestPartitionShortSuffix(t *testing.T) {
	history := msgs("system", "user", "assistant")
	p := PartitionHistory(history, 4)
	if len(p.Middle) != 0 {
		t.Errorf("middle = %d, want 0 when suffix fits in tail", len(p.Middle))
	}
	if len(p.Tail) != 2 {
		t.Errorf("tail = %d, want 2", len(p.Tail))
	}
	checkTotality(t, history, p)
}

func TestPartitionSuffixExactlyTail(t *testing.T) {
	history := msgs("user", "assistant")
	p := PartitionHistory(history, 2)
	if len(p.LeadingSystem) != 0 || len(p.Middle) != 0 || len(p.Tail) != 2 {
		t.Errorf("got %d/%d/%d, want 0/0/2",
			len(p.LeadingSystem), len(p.Middle), len(p.Tail))
	}
	checkTotality(t, history, p)
}

func TestPartitionZeroTail(t *testing.T) {
	history := msgs("system", "user", "assistant")
	p := PartitionHistory(history, 0)
	if len(p.Middle) != 2 || len(p.Tail) != 0 {
		t.Errorf("middle/tail = %d/%d, want 2/0", len(p.Middle), len(p.Tail))
	}
	checkTotality(t, history, p)
}

func TestPartitionEmptyHistory(t *testing.T) {
	p := PartitionHistory(nil, 4)
	if len(p.LeadingSystem) != 0 || len(p.Middle) != 0 || len(p.Tail) != 0 {
		t.Error("empty history should partition into empty segments")
	}
}

func TestPartitionAllSystem(t *testing.T) {
	history := msgs("system", "system", "system")
	p := PartitionHistory(history, 2)
	if len(p.LeadingSystem) != 3 || len(p.Middle) != 0 || len(p.Tail) != 0 {
		t.Errorf("got %d/%d/%d, want 3/0/0",
			len(p.LeadingSystem), len(p.Middle), len(p.Tail))
	}
	checkTotality(t, history, p)
}
