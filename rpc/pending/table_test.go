package pending

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mpRPC/rpc/message"
)

// TestRegisterAssignsUniqueIDs tests that concurrent registrations never
// share an id
func TestRegisterAssignsUniqueIDs(t *testing.T) {
	table := NewTable()

	const n = 1000
	ids := make(chan uint32, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- table.Register().ID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint32]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("Id %d assigned twice", id)
		}
		seen[id] = true
	}

	if table.Len() != n {
		t.Errorf("Table has %d entries, want %d", table.Len(), n)
	}
}

// TestReserveDuplicate tests that a caller-chosen id in flight is rejected
func TestReserveDuplicate(t *testing.T) {
	table := NewTable()

	if _, err := table.Reserve(7); err != nil {
		t.Fatalf("First Reserve failed: %v", err)
	}
	if _, err := table.Reserve(7); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Second Reserve returned %v, want ErrDuplicateID", err)
	}

	// after completion the id is free again
	table.Resolve(7, Outcome{Result: message.Int(1)})
	if _, err := table.Reserve(7); err != nil {
		t.Fatalf("Reserve after completion failed: %v", err)
	}
}

// TestOutOfOrderResolve tests that completions pair with their id, not with
// issue order
func TestOutOfOrderResolve(t *testing.T) {
	table := NewTable()

	first := table.Register()
	second := table.Register()

	// resolve in reverse order
	if !table.Resolve(second.ID(), Outcome{Result: message.Str("second")}) {
		t.Fatal("Failed to resolve second call")
	}
	if !table.Resolve(first.ID(), Outcome{Result: message.Str("first")}) {
		t.Fatal("Failed to resolve first call")
	}

	for _, tc := range []struct {
		call *Call
		want string
	}{
		{first, "first"},
		{second, "second"},
	} {
		select {
		case <-tc.call.Done():
		case <-time.After(time.Second):
			t.Fatal("Call never completed")
		}

		outcome, err := tc.call.Outcome()
		if err != nil {
			t.Fatalf("Call %d failed: %v", tc.call.ID(), err)
		}
		if s, _ := outcome.Result.AsString(); s != tc.want {
			t.Errorf("Call %d resolved with %q, want %q", tc.call.ID(), s, tc.want)
		}
	}

	if table.Len() != 0 {
		t.Errorf("Table still holds %d entries", table.Len())
	}
}

// TestOrphanResolve tests that a response for an unknown id is a no-op
func TestOrphanResolve(t *testing.T) {
	table := NewTable()

	if table.Resolve(99, Outcome{Result: message.Int(1)}) {
		t.Error("Resolved an id that was never reserved")
	}
	if table.Fail(99, fmt.Errorf("nope")) {
		t.Error("Failed an id that was never reserved")
	}
}

// TestRemoveThenLateResolve tests the abandon path: once a caller gives up,
// a late response resolves nothing
func TestRemoveThenLateResolve(t *testing.T) {
	table := NewTable()

	call := table.Register()
	if !table.Remove(call.ID()) {
		t.Fatal("Failed to remove outstanding call")
	}

	if table.Resolve(call.ID(), Outcome{Result: message.Int(1)}) {
		t.Error("Late response resolved a removed call")
	}

	select {
	case <-call.Done():
		t.Error("Removed call was completed")
	default:
	}

	if table.Len() != 0 {
		t.Errorf("Table still holds %d entries", table.Len())
	}
}

// TestFailAll tests that a connection loss wakes every waiting caller
func TestFailAll(t *testing.T) {
	table := NewTable()

	calls := []*Call{table.Register(), table.Register(), table.Register()}

	connErr := fmt.Errorf("connection lost")
	if n := table.FailAll(connErr); n != len(calls) {
		t.Fatalf("FailAll woke %d callers, want %d", n, len(calls))
	}

	for _, call := range calls {
		select {
		case <-call.Done():
		case <-time.After(time.Second):
			t.Fatal("Call never completed")
		}
		if _, err := call.Outcome(); !errors.Is(err, connErr) {
			t.Errorf("Call %d failed with %v, want %v", call.ID(), err, connErr)
		}
	}

	if table.Len() != 0 {
		t.Errorf("Table still holds %d entries", table.Len())
	}
}

// TestErrorOutcome tests the outcome discriminant
func TestErrorOutcome(t *testing.T) {
	table := NewTable()
	call := table.Register()

	table.Resolve(call.ID(), Outcome{Err: message.Str("boom"), Result: message.Nil()})

	<-call.Done()
	outcome, err := call.Outcome()
	if err != nil {
		t.Fatalf("Unexpected transport error: %v", err)
	}
	if !outcome.IsError() {
		t.Error("Error outcome reports success")
	}
}
