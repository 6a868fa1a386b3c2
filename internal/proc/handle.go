package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/angrysky56/docker-swish-mcp/internal/logging"
)

// haltInstruction is the interpreter's graceful-halt goal, written to
// stdin as the first rung of the shutdown ladder.
const haltInstruction = "halt.\n"

// stderrTailSize bounds the stderr kept for startup diagnostics.
const stderrTailSize = 2048

// ErrNotAlive is returned when writing to a process that already exited.
var ErrNotAlive = errors.New("interpreter process not alive")

// Config tunes process supervision.
type Config struct {
	// SettleDelay is how long to wait after spawn before checking that
	// the process did not exit immediately (bad flags, missing binary
	// inside the container, ...).
	SettleDelay time.Duration
	// LineBuffer is the capacity of the output line channel.
	LineBuffer int
}

// DefaultConfig returns supervision defaults.
func DefaultConfig() Config {
	return Config{
		SettleDelay: 500 * time.Millisecond,
		LineBuffer:  256,
	}
}

// StartupError reports a process that exited during the settle window.
// It is fatal to the Start call that observed it; retries are the
// session's decision, not ours.
type StartupError struct {
	Target string
	Stderr string
	Err    error
}

func (e *StartupError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("interpreter %s failed to start: %v: %s", e.Target, e.Err, e.Stderr)
	}
	return fmt.Sprintf("interpreter %s failed to start: %v", e.Target, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

type outputLine struct {
	text string
	err  error
}

// Handle is a running interpreter process attached via its stdin and
// stdout streams. It is exclusively owned by one session; the session's
// lock is what serializes access to the pipes.
type Handle struct {
	cmd    *exec.Cmd
	target string
	stdin  io.WriteCloser
	lines  chan outputLine

	done     chan struct{} // closed when Wait returns
	stopping atomic.Bool

	stderrMu   sync.Mutex
	stderrTail []byte
}

// Start spawns the interpreter via the launcher, waits the settle delay
// and verifies the process has not already exited.
func Start(launcher Launcher, cfg Config) (*Handle, error) {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultConfig().SettleDelay
	}
	if cfg.LineBuffer <= 0 {
		cfg.LineBuffer = DefaultConfig().LineBuffer
	}

	cmd := launcher.Command()
	setupProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	logging.Proc("Spawning interpreter: %s", launcher.Describe())
	if err := cmd.Start(); err != nil {
		return nil, &StartupError{Target: launcher.Describe(), Err: err}
	}

	h := &Handle{
		cmd:    cmd,
		target: launcher.Describe(),
		stdin:  stdin,
		lines:  make(chan outputLine, cfg.LineBuffer),
		done:   make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		if err != nil {
			logging.ProcDebug("Interpreter %s exited: %v", h.target, err)
		}
		close(h.done)
	}()
	go h.drainStderr(stderr)
	go h.readLoop(stdout)

	// Give a broken spawn (missing binary in container, bad flags) time
	// to fail visibly before we claim success.
	time.Sleep(cfg.SettleDelay)
	if !h.Alive() {
		serr := &StartupError{
			Target: h.target,
			Stderr: h.StderrTail(),
			Err:    errors.New("process exited during startup"),
		}
		logging.ProcError("%v", serr)
		return nil, serr
	}

	logging.Proc("Interpreter %s running (pid %d)", h.target, cmd.Process.Pid)
	return h, nil
}

// readLoop pumps stdout lines into the channel. The final read error
// (io.EOF on clean exit) is delivered in-band, then the channel closes.
func (h *Handle) readLoop(stdout io.Reader) {
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\n")
		if line != "" {
			h.lines <- outputLine{text: line}
		}
		if err != nil {
			h.lines <- outputLine{err: err}
			close(h.lines)
			return
		}
	}
}

// drainStderr keeps a bounded tail of stderr for diagnostics and mirrors
// it to the proc log.
func (h *Handle) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		logging.ProcDebug("stderr[%s]: %s", h.target, line)

		h.stderrMu.Lock()
		h.stderrTail = append(h.stderrTail, line...)
		h.stderrTail = append(h.stderrTail, '\n')
		if len(h.stderrTail) > stderrTailSize {
			h.stderrTail = h.stderrTail[len(h.stderrTail)-stderrTailSize:]
		}
		h.stderrMu.Unlock()
	}
}

// StderrTail returns the retained stderr output.
func (h *Handle) StderrTail() string {
	h.stderrMu.Lock()
	defer h.stderrMu.Unlock()
	return strings.TrimSpace(string(h.stderrTail))
}

// Target names what this handle is attached to.
func (h *Handle) Target() string { return h.target }

// Alive reports whether the process has not yet reported an exit status.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// WriteString writes raw protocol text to the interpreter's stdin.
func (h *Handle) WriteString(s string) error {
	if !h.Alive() {
		return ErrNotAlive
	}
	if h.stopping.Load() {
		return ErrNotAlive
	}
	if _, err := io.WriteString(h.stdin, s); err != nil {
		return fmt.Errorf("write to interpreter: %w", err)
	}
	return nil
}

// ReadLine returns the next stdout line, suspending until one arrives,
// the context expires, or the stream ends.
func (h *Handle) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-h.lines:
		if !ok {
			return "", io.EOF
		}
		if line.err != nil {
			return "", line.err
		}
		return line.text, nil
	}
}

// Stop tears the process down: halt instruction and stdin close, then a
// grace wait, then a termination signal with a second bounded wait, then
// a kill with an unconditional wait. Every rung is best-effort because
// teardown must never fail loudly.
func (h *Handle) Stop(grace time.Duration) {
	if h.stopping.Swap(true) {
		<-h.done
		return
	}
	if grace <= 0 {
		grace = 2 * time.Second
	}

	if h.Alive() {
		if _, err := io.WriteString(h.stdin, haltInstruction); err != nil {
			logging.ProcDebug("halt write failed (process likely gone): %v", err)
		}
	}
	if err := h.stdin.Close(); err != nil {
		logging.ProcDebug("stdin close: %v", err)
	}

	if h.waitFor(grace) {
		logging.Proc("Interpreter %s halted gracefully", h.target)
		return
	}

	logging.ProcWarn("Interpreter %s ignored halt, sending SIGTERM", h.target)
	if err := signalGroup(h.cmd, syscall.SIGTERM); err != nil {
		logging.ProcDebug("SIGTERM: %v", err)
	}
	if h.waitFor(grace) {
		return
	}

	logging.ProcWarn("Interpreter %s ignored SIGTERM, killing", h.target)
	if err := killGroup(h.cmd); err != nil {
		logging.ProcDebug("kill: %v", err)
	}
	<-h.done
}

// waitFor blocks until exit or the timeout, reporting whether the
// process exited.
func (h *Handle) waitFor(d time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(d):
		return false
	}
}
