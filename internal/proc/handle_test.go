package proc

import (
	"context"
	"io"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// testLauncher spawns an arbitrary local command. cat(1) stands in for
// the interpreter: it echoes stdin lines back on stdout, which is all
// the handle layer cares about.
type testLauncher struct {
	binary string
	args   []string
}

func (l *testLauncher) Command() *exec.Cmd { return exec.Command(l.binary, l.args...) }
func (l *testLauncher) Describe() string   { return l.binary }

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.SettleDelay = 50 * time.Millisecond
	return cfg
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on unix utilities")
	}
}

func TestStartEchoRoundtrip(t *testing.T) {
	requireUnix(t)
	defer goleak.VerifyNone(t)

	h, err := Start(&testLauncher{binary: "cat"}, fastConfig())
	require.NoError(t, err)
	defer h.Stop(time.Second)

	require.True(t, h.Alive())
	assert.Equal(t, "cat", h.Target())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, h.WriteString("hello\nworld\n"))

	line, err := h.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	line, err = h.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", line)
}

func TestStartupFailure(t *testing.T) {
	requireUnix(t)
	defer goleak.VerifyNone(t)

	// false(1) exits immediately; the settle check must catch it.
	_, err := Start(&testLauncher{binary: "false"}, fastConfig())
	require.Error(t, err)

	var serr *StartupError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "false", serr.Target)
}

func TestStartMissingBinary(t *testing.T) {
	requireUnix(t)
	defer goleak.VerifyNone(t)

	_, err := Start(&testLauncher{binary: "definitely-not-a-real-binary-a8f2"}, fastConfig())
	var serr *StartupError
	require.ErrorAs(t, err, &serr)
}

func TestReadLineHonorsContext(t *testing.T) {
	requireUnix(t)
	defer goleak.VerifyNone(t)

	h, err := Start(&testLauncher{binary: "cat"}, fastConfig())
	require.NoError(t, err)
	defer h.Stop(time.Second)

	// No input written, so no output ever arrives.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = h.ReadLine(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStopIsIdempotent(t *testing.T) {
	requireUnix(t)
	defer goleak.VerifyNone(t)

	h, err := Start(&testLauncher{binary: "cat"}, fastConfig())
	require.NoError(t, err)

	h.Stop(time.Second)
	require.False(t, h.Alive())

	// Second stop must return without hanging.
	h.Stop(time.Second)

	require.ErrorIs(t, h.WriteString("late\n"), ErrNotAlive)
}

func TestReadLineAfterExit(t *testing.T) {
	requireUnix(t)
	defer goleak.VerifyNone(t)

	h, err := Start(&testLauncher{binary: "cat"}, fastConfig())
	require.NoError(t, err)
	h.Stop(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// cat echoes the halt instruction before exiting on stdin close;
	// drain it, then the stream end surfaces as EOF.
	for {
		_, err = h.ReadLine(ctx)
		if err != nil {
			break
		}
	}
	require.ErrorIs(t, err, io.EOF)
}

func TestStderrTail(t *testing.T) {
	requireUnix(t)
	defer goleak.VerifyNone(t)

	h, err := Start(&testLauncher{
		binary: "sh",
		args:   []string{"-c", "echo oops >&2; exec cat"},
	}, fastConfig())
	require.NoError(t, err)
	defer h.Stop(time.Second)

	assert.Eventually(t, func() bool {
		return h.StderrTail() == "oops"
	}, time.Second, 10*time.Millisecond)
}

func TestDockerLauncherCommand(t *testing.T) {
	l := NewDockerLauncher("swish-mcp")
	cmd := l.Command()
	assert.Equal(t, []string{"exec", "-i", "swish-mcp", "swipl", "-q", "--traditional"}, cmd.Args[1:])
	assert.Equal(t, "docker:swish-mcp/swipl", l.Describe())
}

func TestDirectLauncherCommand(t *testing.T) {
	l := NewDirectLauncher()
	cmd := l.Command()
	assert.Contains(t, cmd.Args[0], "swipl")
	assert.Equal(t, []string{"-q", "--traditional"}, cmd.Args[1:])
}
