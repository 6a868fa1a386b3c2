// Package proc spawns and supervises the swipl interpreter subprocess.
// It owns the stdin/stdout pipes, liveness tracking and the graceful
// shutdown ladder; what gets written over those pipes is the wire
// package's business.
package proc

import (
	"fmt"
	"os/exec"
)

// Default interpreter invocation. Quiet mode suppresses the banner and
// prompts so they cannot be mistaken for protocol lines; traditional
// syntax matches the behavior the knowledge bases were written against.
const (
	DefaultBinary = "swipl"
)

// DefaultArgs returns the interpreter flags for non-interactive use.
func DefaultArgs() []string {
	return []string{"-q", "--traditional"}
}

// Launcher builds the command that spawns the interpreter. It abstracts
// where the process runs: directly on this host, or inside a container
// the host merely needs to be able to reach by name.
type Launcher interface {
	// Command returns a fresh, unstarted command. Implementations must
	// not reuse commands across calls.
	Command() *exec.Cmd
	// Describe names the target for logs and status output.
	Describe() string
}

// DirectLauncher runs swipl from PATH on the local host.
type DirectLauncher struct {
	Binary string
	Args   []string
}

// NewDirectLauncher returns a launcher for a locally installed swipl.
func NewDirectLauncher() *DirectLauncher {
	return &DirectLauncher{Binary: DefaultBinary, Args: DefaultArgs()}
}

func (l *DirectLauncher) Command() *exec.Cmd {
	return exec.Command(l.Binary, l.Args...)
}

func (l *DirectLauncher) Describe() string {
	return l.Binary
}

// DockerLauncher runs swipl inside a running container via docker exec
// with stdin attached.
type DockerLauncher struct {
	DockerPath string
	Container  string
	Binary     string
	Args       []string
}

// NewDockerLauncher returns a launcher targeting the named container.
func NewDockerLauncher(container string) *DockerLauncher {
	dockerPath, err := exec.LookPath("docker")
	if err != nil {
		dockerPath = "docker"
	}
	return &DockerLauncher{
		DockerPath: dockerPath,
		Container:  container,
		Binary:     DefaultBinary,
		Args:       DefaultArgs(),
	}
}

func (l *DockerLauncher) Command() *exec.Cmd {
	args := []string{"exec", "-i", l.Container, l.Binary}
	args = append(args, l.Args...)
	return exec.Command(l.DockerPath, args...)
}

func (l *DockerLauncher) Describe() string {
	return fmt.Sprintf("docker:%s/%s", l.Container, l.Binary)
}
