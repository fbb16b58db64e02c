package store

import (
	"context"
	"errors"
	"testing"
)

// TestCHAdapter_InsertRejectsUnknownShape guards the [][]any contract
func TestCHAdapter_InsertRejectsUnknownShape(t *testing.T) {
	t.Parallel()

	a := &clickhouseAdapter{}
	err := a.Insert(context.Background(), "some_table", struct{}{})
	if err == nil {
		t.Fatalf("Insert expected error for non [][]any payload, got nil")
	}
}

// TestCHAdapter_PingNilInner reports instead of panicking
func TestCHAdapter_PingNilInner(t *testing.T) {
	t.Parallel()

	a := &clickhouseAdapter{}
	if err := a.Ping(context.Background()); err == nil {
		t.Fatalf("Ping expected error on nil inner client, got nil")
	}
}

type fakeCHRows struct {
	nexts  int
	closed bool
	err    error
}

func (f *fakeCHRows) Next() bool             { f.nexts++; return false }
func (f *fakeCHRows) Scan(dest ...any) error { return nil }
func (f *fakeCHRows) Err() error             { return f.err }
func (f *fakeCHRows) Close() error           { f.closed = true; return nil }
func (f *fakeCHRows) Columns() []string      { return []string{"alpha", "beta"} }

// TestCHRowsAdapter_Delegates covers Next, Scan, Err, Close and Columns passthrough
func TestCHRowsAdapter_Delegates(t *testing.T) {
	t.Parallel()

	f := &fakeCHRows{err: errors.New("tail")}
	x := &rowsAdapter{r: f}

	if x.Next() {
		t.Fatalf("Next should be false on fake")
	}
	var v int
	if err := x.Scan(&v); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if x.Err() == nil {
		t.Fatalf("Err should pass through")
	}
	cols := x.Columns()
	if len(cols) != 2 || cols[0] != "alpha" || cols[1] != "beta" {
		t.Fatalf("Columns mismatch: %#v", cols)
	}
	x.Close()
	if !f.closed {
		t.Fatalf("Close did not delegate to underlying Rows")
	}
}
