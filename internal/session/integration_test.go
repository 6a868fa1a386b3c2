package session

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angrysky56/docker-swish-mcp/internal/proc"
	"github.com/angrysky56/docker-swish-mcp/internal/wire"
)

// requireSwipl skips unless a local swipl binary is installed. These
// tests exercise the real interpreter end to end.
func requireSwipl(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("swipl"); err != nil {
		t.Skip("swipl not installed")
	}
}

func newRealManager(t *testing.T) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Proc.SettleDelay = 200 * time.Millisecond
	m := NewManager(proc.NewDirectLauncher(), cfg)
	t.Cleanup(m.Shutdown)
	return m
}

func TestRealInterpreterGroundQuery(t *testing.T) {
	requireSwipl(t)
	m := newRealManager(t)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	assert.Equal(t, wire.ResultSimpleSuccess, m.Execute(ctx, "atom(hello).", 0).Type)
	assert.Equal(t, wire.ResultFailure, m.Execute(ctx, "atom(1).", 0).Type)
}

func TestRealInterpreterEnumeration(t *testing.T) {
	requireSwipl(t)
	m := newRealManager(t)
	ctx := context.Background()

	res := m.Execute(ctx, "member(X, [a,b,c]).", 0)
	require.Equal(t, wire.ResultSolutions, res.Type)
	require.Len(t, res.Solutions, 3)
	assert.Contains(t, res.Solutions[0], "a")
}

func TestRealInterpreterStatePersists(t *testing.T) {
	requireSwipl(t)
	m := newRealManager(t)
	ctx := context.Background()

	require.True(t, m.Execute(ctx, "assert(parent(tom, bob)).", 0).OK())
	assert.Equal(t, wire.ResultSimpleSuccess, m.Execute(ctx, "parent(tom, bob).", 0).Type)

	require.NoError(t, m.Restart(ctx))
	assert.Equal(t, wire.ResultFailure, m.Execute(ctx, "parent(tom, bob).", 0).Type)
}

func TestRealInterpreterError(t *testing.T) {
	requireSwipl(t)
	m := newRealManager(t)

	// An uncaught existence error aborts the wrapper before the
	// terminator prints, so the exchange surfaces as an error result and
	// taints the stream.
	res := m.Execute(context.Background(), "no_such_predicate_xyz(1).", 2*time.Second)
	assert.Equal(t, wire.ResultError, res.Type)
	assert.True(t, m.Status().Desynced)

	// The next query recovers via restart.
	assert.Equal(t, wire.ResultSimpleSuccess, m.Execute(context.Background(), "true.", 0).Type)
}
