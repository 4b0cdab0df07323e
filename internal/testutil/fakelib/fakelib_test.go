package fakelib

import (
	"reflect"
	"testing"

	"github.com/danmuck/plugctl/internal/protocol"
	"github.com/danmuck/plugctl/internal/testutil/testlog"
)

func TestSetParamsSkipsEmptyTokensLikeStrtok(t *testing.T) {
	testlog.Start(t)
	loader := NewLoader()
	m := loader.Add("prime.so", NewModule(GenFunctions,
		[]string{"outputFile", "limit"},
		[]string{"primes.txt", "101"},
	))
	lib, err := loader.Open("prime.so")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer lib.Close()

	var setParams func(string) int32
	if err := lib.Bind("setParams", &setParams); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if status := setParams("\x1f202"); status != protocol.StatusOK {
		t.Fatalf("expected buffer with right separator count to be accepted, got %d", status)
	}
	if got := m.CurrentValues(); !reflect.DeepEqual(got, []string{"202", "101"}) {
		t.Fatalf("expected 202 to land in the first slot, got %v", got)
	}
	if status := setParams("only-one"); status != protocol.StatusError {
		t.Fatalf("expected count check to reject, got %d", status)
	}
}
