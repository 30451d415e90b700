// Package viewer launches an external document viewer on the rendered
// output, detached from the calling process.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
)

var (
	// ErrViewerNotFound indicates the viewer executable was not detected on PATH.
	ErrViewerNotFound = errors.New("viewer binary not found")
	// ErrOutputMissing indicates the rendered output does not exist yet.
	ErrOutputMissing = errors.New("rendered output not found")
)

// Open spawns the configured viewer on <base>.pdf in dir and returns as soon
// as the process has started. The viewer's lifetime and exit status are not
// observed; once the spawn succeeds the operation is considered done.
func Open(command, dir, base string) error {
	final := artifact.FinalPath(dir, base)
	if _, err := os.Stat(final); err != nil {
		return fmt.Errorf("%w: %s (run the paper target first)", ErrOutputMissing, final)
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty viewer command", ErrViewerNotFound)
	}
	bin, extra := fields[0], fields[1:]
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%w: %w", ErrViewerNotFound, err)
	}

	args := append(append([]string{}, extra...), final)
	cmd := exec.Command(bin, args...)
	// Detach fully: no inherited stdio, no process handle kept.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		slog.Warn("Failed to release viewer process handle", "pid", pid, "error", err)
	}
	slog.Info("Viewer launched", "command", bin, "output", final, "pid", pid)
	return nil
}
