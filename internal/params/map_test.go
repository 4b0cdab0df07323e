package params

import (
	"reflect"
	"testing"

	"github.com/danmuck/plugctl/internal/testutil/testlog"
)

func TestInsertPreservesFirstInsertionOrder(t *testing.T) {
	testlog.Start(t)
	m := New()
	m.Insert("outputFile", "a.txt")
	m.Insert("limit", "101")
	m.Insert("verbose", "0")
	m.Update("limit", "50")
	if m.Insert("outputFile", "b.txt") {
		t.Fatalf("expected re-insert of existing key to report false")
	}

	want := []Entry{
		{Key: "outputFile", Value: "b.txt"},
		{Key: "limit", Value: "50"},
		{Key: "verbose", Value: "0"},
	}
	if got := m.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries mismatch: got=%v want=%v", got, want)
	}
}

func TestOrderSurvivesMixedSequences(t *testing.T) {
	testlog.Start(t)
	ops := []struct {
		insert bool
		key    string
		value  string
	}{
		{true, "c", "1"},
		{true, "a", "2"},
		{false, "c", "3"},
		{true, "b", "4"},
		{false, "a", "5"},
		{false, "missing", "6"},
		{true, "c", "7"},
	}
	m := New()
	for _, op := range ops {
		if op.insert {
			m.Insert(op.key, op.value)
			continue
		}
		m.Update(op.key, op.value)
	}
	if got, want := m.Keys(), []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys mismatch: got=%v want=%v", got, want)
	}
	if got, want := m.Values(), []string{"7", "5", "4"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("values mismatch: got=%v want=%v", got, want)
	}
}

func TestUpdateNeverAddsKeys(t *testing.T) {
	testlog.Start(t)
	m := FromEntries([]Entry{{Key: "inputFile", Value: "in.txt"}, {Key: "limit", Value: "10"}})
	if m.Update("bogus", "x") {
		t.Fatalf("expected update of unknown key to fail")
	}
	if m.Len() != 2 || m.Has("bogus") {
		t.Fatalf("unexpected mutation: %v", m.Entries())
	}
}

func TestGetIndexAt(t *testing.T) {
	testlog.Start(t)
	m := FromEntries([]Entry{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}, {Key: "a", Value: "3"}})
	if m.Len() != 2 {
		t.Fatalf("expected duplicate key to collapse, got %d entries", m.Len())
	}
	if v, ok := m.Get("a"); !ok || v != "3" {
		t.Fatalf("unexpected value for a: %q ok=%v", v, ok)
	}
	if m.Index("b") != 1 || m.Index("z") != -1 {
		t.Fatalf("unexpected indexes: b=%d z=%d", m.Index("b"), m.Index("z"))
	}
	if _, ok := m.At(2); ok {
		t.Fatalf("expected out of range At to fail")
	}
	if e, ok := m.At(0); !ok || e.Key != "a" {
		t.Fatalf("unexpected entry at 0: %+v", e)
	}
}

func TestReplaceDropsStaleKeys(t *testing.T) {
	testlog.Start(t)
	m := FromEntries([]Entry{{Key: "old", Value: "1"}, {Key: "keep", Value: "2"}})
	m.Replace(FromEntries([]Entry{{Key: "keep", Value: "9"}, {Key: "new", Value: "3"}}))
	if got, want := m.Keys(), []string{"keep", "new"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys mismatch after replace: got=%v want=%v", got, want)
	}
	m.Replace(nil)
	if m.Len() != 0 {
		t.Fatalf("expected empty map after nil replace")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	testlog.Start(t)
	m := FromEntries([]Entry{{Key: "a", Value: "1"}})
	entries := m.Entries()
	entries[0].Value = "changed"
	if v, _ := m.Get("a"); v != "1" {
		t.Fatalf("entries slice aliased internal storage")
	}
	clone := m.Clone()
	clone.Update("a", "2")
	if v, _ := m.Get("a"); v != "1" {
		t.Fatalf("clone aliased internal storage")
	}
}
