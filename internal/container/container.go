// Package container provisions the SWISH docker container that hosts
// the swipl interpreter. The session manager only needs a running host
// able to execute swipl by name; this package supplies one and manages
// its lifecycle via the docker CLI.
package container

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angrysky56/docker-swish-mcp/internal/logging"
)

// Options describes the SWISH container to provision.
type Options struct {
	Name    string // container name, also the docker exec target
	Image   string // swipl/swish image
	Port    int    // host port mapped to SWISH's 3050
	DataDir string // host directory bound to /data (consult root)

	StopTimeout time.Duration // docker stop -t
	ReadyProbe  time.Duration // max wait for the port to accept
}

// Status is a point-in-time view of the managed container.
type Status struct {
	Name      string `json:"name"`
	Exists    bool   `json:"exists"`
	Running   bool   `json:"running"`
	Image     string `json:"image,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Manager drives the docker CLI for one named SWISH container.
type Manager struct {
	opts       Options
	dockerPath string
	available  bool
}

// NewManager creates a container manager and detects docker.
func NewManager(opts Options) *Manager {
	m := &Manager{opts: opts}
	m.detectDocker()
	return m
}

// detectDocker checks that the docker CLI exists and responds.
func (m *Manager) detectDocker() {
	dockerPath, err := exec.LookPath("docker")
	if err != nil {
		logging.ContainerDebug("docker binary not found in PATH")
		return
	}
	m.dockerPath = dockerPath

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, dockerPath, "version", "--format", "{{.Server.Version}}").Run(); err != nil {
		logging.ContainerWarn("docker found but not responsive: %v", err)
		return
	}

	m.available = true
	logging.Container("docker available: %s", dockerPath)
}

// IsAvailable reports whether docker can be used on this host.
func (m *Manager) IsAvailable() bool { return m.available }

// Name returns the managed container's name.
func (m *Manager) Name() string { return m.opts.Name }

// URL returns the SWISH base URL for the mapped port.
func (m *Manager) URL() string {
	return fmt.Sprintf("http://localhost:%d", m.opts.Port)
}

// Up ensures the SWISH container is running and its port accepts
// connections. An already-running container is reused; a stopped one is
// removed and recreated so the mount and port mapping match the current
// options.
func (m *Manager) Up(ctx context.Context) error {
	if !m.available {
		return fmt.Errorf("docker is not available")
	}
	timer := logging.StartTimer(logging.CategoryContainer, "container up")
	defer timer.Stop()

	st, err := m.Inspect(ctx)
	if err != nil {
		return err
	}
	if st.Running {
		logging.Container("container %s already running", m.opts.Name)
		return m.awaitReady(ctx)
	}
	if st.Exists {
		logging.Container("removing stopped container %s", m.opts.Name)
		if out, err := m.docker(ctx, "rm", m.opts.Name); err != nil {
			return fmt.Errorf("failed to remove stopped container: %w: %s", err, out)
		}
	}

	// Best effort: a stale local image still runs.
	if out, err := m.docker(ctx, "pull", m.opts.Image); err != nil {
		logging.ContainerWarn("could not pull %s: %v: %s", m.opts.Image, err, out)
	}

	args := []string{
		"run", "-d",
		"--name", m.opts.Name,
		"-p", fmt.Sprintf("%d:3050", m.opts.Port),
		"-v", fmt.Sprintf("%s:/data", m.opts.DataDir),
		"--label", "managed-by=docker-swish-mcp",
		m.opts.Image,
	}
	logging.ContainerDebug("docker run args: %v", args)

	out, err := m.docker(ctx, args...)
	if err != nil {
		logging.ContainerError("failed to start container: %v: %s", err, out)
		return fmt.Errorf("failed to start container: %w: %s", err, out)
	}
	id := strings.TrimSpace(out)
	if len(id) > 12 {
		id = id[:12]
	}
	logging.Container("container %s started (%s)", m.opts.Name, id)

	return m.awaitReady(ctx)
}

// awaitReady waits until the container reports running and the mapped
// port accepts a TCP connection. Both probes poll concurrently; the
// slower one bounds readiness.
func (m *Manager) awaitReady(ctx context.Context) error {
	probe := m.opts.ReadyProbe
	if probe <= 0 {
		probe = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, probe)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.pollUntil(gctx, func() bool {
			st, err := m.Inspect(gctx)
			return err == nil && st.Running
		}, "container running")
	})
	g.Go(func() error {
		addr := net.JoinHostPort("localhost", strconv.Itoa(m.opts.Port))
		return m.pollUntil(gctx, func() bool {
			conn, err := net.DialTimeout("tcp", addr, time.Second)
			if err != nil {
				return false
			}
			conn.Close()
			return true
		}, "port accepting")
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("container %s not ready within %s: %w", m.opts.Name, probe, err)
	}
	logging.Container("container %s ready at %s", m.opts.Name, m.URL())
	return nil
}

func (m *Manager) pollUntil(ctx context.Context, ok func() bool, what string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if ok() {
			logging.ContainerDebug("ready: %s", what)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", what, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Down stops and removes the container. Best-effort: a missing
// container is not an error.
func (m *Manager) Down(ctx context.Context) error {
	if !m.available {
		return fmt.Errorf("docker is not available")
	}

	st, err := m.Inspect(ctx)
	if err != nil {
		return err
	}
	if !st.Exists {
		logging.Container("container %s does not exist, nothing to stop", m.opts.Name)
		return nil
	}

	stopSecs := int(m.opts.StopTimeout.Seconds())
	if stopSecs <= 0 {
		stopSecs = 10
	}
	if st.Running {
		if out, err := m.docker(ctx, "stop", "-t", strconv.Itoa(stopSecs), m.opts.Name); err != nil {
			logging.ContainerWarn("docker stop failed: %v: %s", err, out)
		}
	}
	if out, err := m.docker(ctx, "rm", "-f", m.opts.Name); err != nil {
		return fmt.Errorf("failed to remove container: %w: %s", err, out)
	}
	logging.Container("container %s stopped and removed", m.opts.Name)
	return nil
}

// Inspect queries docker for the container's current state.
func (m *Manager) Inspect(ctx context.Context) (Status, error) {
	if !m.available {
		return Status{}, fmt.Errorf("docker is not available")
	}

	out, err := m.docker(ctx, "inspect", "-f",
		"{{.State.Running}}|{{.Config.Image}}|{{.State.StartedAt}}", m.opts.Name)
	if err != nil {
		// docker inspect fails for unknown names; treat as absent.
		return Status{Name: m.opts.Name}, nil
	}

	parts := strings.SplitN(strings.TrimSpace(out), "|", 3)
	st := Status{Name: m.opts.Name, Exists: true}
	if len(parts) == 3 {
		st.Running = parts[0] == "true"
		st.Image = parts[1]
		st.StartedAt = parts[2]
	}
	if st.Running {
		st.URL = m.URL()
	}
	return st, nil
}

// Logs returns the last tail lines of the container's output.
func (m *Manager) Logs(ctx context.Context, tail int) (string, error) {
	if !m.available {
		return "", fmt.Errorf("docker is not available")
	}
	if tail <= 0 {
		tail = 100
	}
	out, err := m.docker(ctx, "logs", "--tail", strconv.Itoa(tail), m.opts.Name)
	if err != nil {
		return "", fmt.Errorf("failed to read container logs: %w", err)
	}
	return out, nil
}

// docker runs one docker CLI invocation and returns combined output.
func (m *Manager) docker(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, m.dockerPath, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
