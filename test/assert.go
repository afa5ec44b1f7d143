package test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkscript/zkscript/script"
)

// Assert is a helper to run generated scripts in tests.
type Assert struct {
	t *testing.T
	*require.Assertions
}

// NewAssert returns an Assert helper embedding testify's require.
func NewAssert(t *testing.T) *Assert {
	t.Helper()
	return &Assert{t: t, Assertions: require.New(t)}
}

// Run executes the scripts in order on a fresh engine and requires the
// execution to complete. It returns the engine for stack inspection.
func (a *Assert) Run(scripts ...script.Script) *Engine {
	a.t.Helper()
	e := NewEngine()
	for _, s := range scripts {
		a.NoError(e.Execute(s))
	}
	return e
}

// Fails executes the scripts in order on a fresh engine and requires the
// execution to fail.
func (a *Assert) Fails(scripts ...script.Script) {
	a.t.Helper()
	e := NewEngine()
	var err error
	for _, s := range scripts {
		if err = e.Execute(s); err != nil {
			break
		}
	}
	a.Error(err)
}

// StackNums requires the engine's final stack, bottom first, to decode to the
// given numbers.
func (a *Assert) StackNums(e *Engine, want ...*big.Int) {
	a.t.Helper()
	got := e.Nums()
	a.Len(got, len(want))
	for i := range want {
		a.Zerof(want[i].Cmp(got[i]), "stack element %d: want %s, got %s", i, want[i], got[i])
	}
}

// TopNums requires the topmost elements of the engine's final stack, deepest
// first, to decode to the given numbers.
func (a *Assert) TopNums(e *Engine, want ...*big.Int) {
	a.t.Helper()
	a.GreaterOrEqual(e.Depth(), len(want))
	for i := range want {
		got := e.Num(len(want) - 1 - i)
		a.Zerof(want[i].Cmp(got), "stack element %d from batch bottom: want %s, got %s", i, want[i], got)
	}
}

// CleanStack requires the engine to have exactly depth elements left.
func (a *Assert) CleanStack(e *Engine, depth int) {
	a.t.Helper()
	a.Equal(depth, e.Depth())
	a.Equal(0, e.AltDepth())
}
