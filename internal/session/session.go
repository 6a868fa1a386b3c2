// Package session owns the long-lived swipl subprocess and serializes
// every query against it. The process keeps asserted facts and consulted
// knowledge bases in memory, so one Manager instance plus its exclusive
// lock is what turns a stateless sequence of caller queries into an
// interactive Prolog session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angrysky56/docker-swish-mcp/internal/logging"
	"github.com/angrysky56/docker-swish-mcp/internal/proc"
	"github.com/angrysky56/docker-swish-mcp/internal/wire"
)

// State is the lifecycle state of the session. The dead-process retry in
// Execute is a structural transition Dead -> Starting -> Active, taken
// at most once per call.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
	StateDead     State = "dead"
)

// Config tunes session behavior.
type Config struct {
	// QueryTimeout bounds an Execute call when the caller passes none.
	QueryTimeout time.Duration `yaml:"query_timeout"`
	// CanaryTimeout bounds the end-to-end self-test during Start.
	CanaryTimeout time.Duration `yaml:"canary_timeout"`
	// ConsultTimeout bounds each consult replayed during Restart.
	ConsultTimeout time.Duration `yaml:"consult_timeout"`
	// StopGrace is the per-rung wait of the shutdown ladder.
	StopGrace time.Duration `yaml:"stop_grace"`
	// Proc tunes subprocess supervision.
	Proc proc.Config `yaml:"-"`
}

// DefaultConfig returns production defaults, matching the behavior the
// SWISH knowledge bases were operated with.
func DefaultConfig() Config {
	return Config{
		QueryTimeout:   30 * time.Second,
		CanaryTimeout:  5 * time.Second,
		ConsultTimeout: 10 * time.Second,
		StopGrace:      2 * time.Second,
		Proc:           proc.DefaultConfig(),
	}
}

// transport is the slice of proc.Handle the manager depends on. Tests
// substitute an in-memory implementation speaking the same marker
// vocabulary.
type transport interface {
	WriteString(s string) error
	ReadLine(ctx context.Context) (string, error)
	Alive() bool
	Stop(grace time.Duration)
	Target() string
}

// Status is a best-effort diagnostic snapshot. It is taken without the
// session's exclusive lock so it stays responsive while a query runs.
type Status struct {
	Active         bool     `json:"active"`
	ProcessAlive   bool     `json:"process_alive"`
	Desynced       bool     `json:"desynced"`
	QueryCount     uint64   `json:"query_count"`
	ConsultedFiles []string `json:"consulted_files"`
	Target         string   `json:"target"`
}

// Manager is the only component callers interact with. It owns exactly
// one interpreter subprocess, an exclusive lock serializing the pipes, a
// monotonically increasing query counter and the ordered set of
// consulted knowledge bases.
type Manager struct {
	launcher proc.Launcher
	cfg      Config

	// spawn indirection exists for tests; production uses proc.Start.
	spawn func() (transport, error)

	// mu serializes every exchange on the subprocess pipes. The byte
	// stream has no framing of its own; interleaved writes would corrupt
	// the terminator-based parsing.
	mu       sync.Mutex
	handle   transport
	state    State
	desynced bool

	counter atomic.Uint64

	// snapMu guards the bookkeeping mirrored into Status snapshots.
	// Mutations happen while mu is also held.
	snapMu       sync.Mutex
	snapState    State
	snapDesynced bool
	snapHandle   transport
	consulted    []string // insertion order, de-duplicated
}

// NewManager creates an un-started session for the given interpreter
// launcher. The owner is responsible for calling Shutdown exactly once.
func NewManager(launcher proc.Launcher, cfg Config) *Manager {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}
	if cfg.CanaryTimeout <= 0 {
		cfg.CanaryTimeout = DefaultConfig().CanaryTimeout
	}
	if cfg.ConsultTimeout <= 0 {
		cfg.ConsultTimeout = DefaultConfig().ConsultTimeout
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultConfig().StopGrace
	}
	m := &Manager{
		launcher:  launcher,
		cfg:       cfg,
		state:     StateIdle,
		snapState: StateIdle,
	}
	m.spawn = func() (transport, error) {
		return proc.Start(launcher, cfg.Proc)
	}
	return m
}

// Start brings the session up. Idempotent: an already-active session
// with a live process returns immediately. The new process is verified
// with a canary query through the full encode/write/parse path before
// the session is marked active.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

func (m *Manager) startLocked(ctx context.Context) error {
	if m.state == StateActive && m.handle != nil && m.handle.Alive() {
		logging.SessionDebug("Start: session already active")
		return nil
	}

	m.setState(StateStarting)
	logging.Session("Starting interpreter session (%s)", m.launcher.Describe())

	h, err := m.spawn()
	if err != nil {
		m.setState(StateDead)
		logging.SessionError("Session start failed: %v", err)
		return fmt.Errorf("start session: %w", err)
	}

	// End-to-end self-test: the universal-truth literal must round-trip
	// as a simple success before any caller query is accepted.
	res, err := m.exchange(ctx, h, wire.NewQuery("true."), m.cfg.CanaryTimeout)
	if err != nil || res.Type != wire.ResultSimpleSuccess {
		h.Stop(m.cfg.StopGrace)
		m.setState(StateDead)
		logging.SessionError("Canary query failed: result=%+v err=%v", res, err)
		return ErrCanaryFailed
	}

	m.setHandle(h)
	m.setDesynced(false)
	m.setState(StateActive)
	logging.Session("Session active (%s)", h.Target())
	return nil
}

// Execute runs one query and always returns a Result, never panics or
// errors. timeout <= 0 selects the configured default. Concurrent
// callers block on the session lock and run in strict submission order.
func (m *Manager) Execute(ctx context.Context, raw string, timeout time.Duration) wire.Result {
	timer := logging.StartTimer(logging.CategorySession, "Execute")
	defer timer.Stop()

	if timeout <= 0 {
		timeout = m.cfg.QueryTimeout
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A timed-out exchange leaves unread bytes on the stream; the next
	// query cannot trust its framing. Force a restart (with consult
	// replay) before running anything else.
	if m.desynced {
		logging.SessionWarn("Stream desynced by an earlier timeout, restarting before query")
		if err := m.restartLocked(ctx); err != nil {
			return wire.ErrorResult(ErrSessionUnavailable.Error())
		}
	}

	if m.state != StateActive || m.handle == nil || !m.handle.Alive() {
		if err := m.startLocked(ctx); err != nil {
			return wire.ErrorResult(ErrSessionUnavailable.Error())
		}
	}

	q := wire.NewQuery(raw)
	res, err := m.exchange(ctx, m.handle, q, timeout)
	if err == nil {
		return res
	}

	// Dead process mid-query: one structural Dead -> Starting -> Active
	// transition, then retry the same query exactly once.
	logging.SessionWarn("Query transport failed (%v), restarting once and retrying", err)
	m.setState(StateDead)
	if m.handle != nil {
		// Reap the dead process; its exit already happened, so the stop
		// ladder returns immediately.
		m.handle.Stop(m.cfg.StopGrace)
		m.setHandle(nil)
	}
	if err := m.startLocked(ctx); err != nil {
		return wire.ErrorResult(ErrSessionUnavailable.Error())
	}
	res, err = m.exchange(ctx, m.handle, q, timeout)
	if err != nil {
		m.setState(StateDead)
		return wire.ErrorResult(fmt.Sprintf("%v: %v", ErrProcessDead, err))
	}
	return res
}

// exchange performs one encode/write/parse round trip on the given
// transport. The caller holds m.mu. A nil error covers every
// protocol-level outcome including timeouts (which taint the stream);
// a non-nil error means the transport itself broke.
func (m *Manager) exchange(ctx context.Context, h transport, q wire.Query, timeout time.Duration) (wire.Result, error) {
	n := m.counter.Add(1)
	term := wire.NewTerminator(n)
	payload := wire.Encode(q, term)

	logging.WireDebug("Q%d %s query: %s", n, queryKind(q), q.Text)

	if err := h.WriteString(payload); err != nil {
		return wire.Result{}, err
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := wire.Parse(pctx, h, term)
	if errors.Is(err, wire.ErrTimeout) {
		m.setDesynced(true)
		logging.SessionWarn("Q%d timed out after %s, stream marked desynced", n, timeout)
		return res, nil
	}
	if err != nil {
		return wire.Result{}, err
	}

	logging.WireDebug("Q%d result: %s", n, res.Type)
	return res, nil
}

func queryKind(q wire.Query) string {
	if q.HasVariables {
		return "variable"
	}
	return "ground"
}

// Consult loads a knowledge-base file by the name the interpreter's own
// consult/1 resolves, and tracks it for replay on restart. Only
// successful consults are tracked.
func (m *Manager) Consult(ctx context.Context, name string) wire.Result {
	res := m.Execute(ctx, fmt.Sprintf("consult(%s).", name), m.cfg.ConsultTimeout)
	if res.OK() {
		m.trackConsult(name)
	}
	return res
}

// TrackConsult records an externally issued consult for restart replay.
func (m *Manager) TrackConsult(name string) {
	m.trackConsult(name)
}

func (m *Manager) trackConsult(name string) {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()
	for _, existing := range m.consulted {
		if existing == name {
			return
		}
	}
	m.consulted = append(m.consulted, name)
	logging.Session("Tracking consulted file: %s (%d total)", name, len(m.consulted))
}

// Restart tears the subprocess down and brings a fresh one up, then
// replays every previously consulted knowledge base in insertion order.
// Replay failures are logged and drop the file from tracking; they do
// not fail the restart.
func (m *Manager) Restart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restartLocked(ctx)
}

func (m *Manager) restartLocked(ctx context.Context) error {
	logging.Session("Restarting interpreter session")

	snapshot := m.consultedSnapshot()
	m.stopLocked()
	// The desync flag describes the torn-down stream, not the new one.
	m.setDesynced(false)

	if err := m.startLocked(ctx); err != nil {
		return err
	}

	var kept []string
	for _, name := range snapshot {
		logging.Session("Re-consulting %s", name)
		res, err := m.exchange(ctx, m.handle, wire.NewQuery(fmt.Sprintf("consult(%s).", name)), m.cfg.ConsultTimeout)
		if err == nil && res.OK() {
			kept = append(kept, name)
		} else {
			logging.SessionWarn("Failed to re-consult %s: result=%+v err=%v", name, res, err)
		}
	}
	m.setConsulted(kept)
	return nil
}

// Shutdown stops the subprocess and marks the session inactive. Errors
// during teardown are logged, never returned; the owner calls this
// exactly once.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	logging.Session("Shutting down session")
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.handle != nil {
		m.handle.Stop(m.cfg.StopGrace)
	}
	m.setHandle(nil)
	m.setState(StateIdle)
}

// Status returns a diagnostic snapshot without taking the exclusive
// lock, so it never blocks behind a slow query.
func (m *Manager) Status() Status {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()

	st := Status{
		Active:     m.snapState == StateActive,
		Desynced:   m.snapDesynced,
		QueryCount: m.counter.Load(),
		Target:     m.launcher.Describe(),
	}
	if m.snapHandle != nil {
		st.ProcessAlive = m.snapHandle.Alive()
		st.Target = m.snapHandle.Target()
	}
	st.ConsultedFiles = append(st.ConsultedFiles, m.consulted...)
	return st
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()
	return m.snapState
}

// --- snapshot bookkeeping -------------------------------------------------
//
// The primary fields (handle, state, desynced) are mutated only under
// m.mu; these mirrors exist so Status can read them without it.

func (m *Manager) setState(s State) {
	m.state = s
	m.snapMu.Lock()
	m.snapState = s
	m.snapMu.Unlock()
}

func (m *Manager) setDesynced(v bool) {
	m.desynced = v
	m.snapMu.Lock()
	m.snapDesynced = v
	m.snapMu.Unlock()
}

func (m *Manager) setHandle(h transport) {
	m.handle = h
	m.snapMu.Lock()
	m.snapHandle = h
	m.snapMu.Unlock()
}

func (m *Manager) setConsulted(names []string) {
	m.snapMu.Lock()
	m.consulted = names
	m.snapMu.Unlock()
}

func (m *Manager) consultedSnapshot() []string {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()
	return append([]string(nil), m.consulted...)
}
