package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Name:        "swish-test",
		Image:       "swipl/swish:latest",
		Port:        3050,
		DataDir:     "/tmp/swish-data",
		StopTimeout: 10 * time.Second,
		ReadyProbe:  time.Second,
	}
}

func TestURLAndName(t *testing.T) {
	m := &Manager{opts: testOptions()}
	assert.Equal(t, "swish-test", m.Name())
	assert.Equal(t, "http://localhost:3050", m.URL())
}

func TestOperationsRequireDocker(t *testing.T) {
	m := &Manager{opts: testOptions()} // docker never detected

	require.False(t, m.IsAvailable())

	ctx := context.Background()
	assert.Error(t, m.Up(ctx))
	assert.Error(t, m.Down(ctx))
	_, err := m.Inspect(ctx)
	assert.Error(t, err)
	_, err = m.Logs(ctx, 10)
	assert.Error(t, err)
}

// TestLifecycle exercises the real docker CLI and is skipped when the
// daemon is not reachable.
func TestLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker lifecycle test in short mode")
	}
	m := NewManager(testOptions())
	if !m.IsAvailable() {
		t.Skip("docker not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := m.Inspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "swish-test", st.Name)
}
