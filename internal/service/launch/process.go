package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/mcsync/internal/domain/resource"
	"github.com/oshokin/mcsync/internal/logger"
)

// markerFileMode is used for the running marker.
const markerFileMode = 0o644

// ErrGameRunning is returned when the version is already being played.
var ErrGameRunning = errors.New("game is already running")

// Guard fails with ErrGameRunning when the marker names a live process.
// A stale or unreadable marker is removed.
func Guard(ctx context.Context, marker string) error {
	data, err := os.ReadFile(marker)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("%w: read marker: %w", resource.ErrFilesystem, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err == nil && pid > 0 {
		process, findErr := ps.FindProcess(pid)
		if findErr != nil {
			return fmt.Errorf("find process %d: %w", pid, findErr)
		}

		if process != nil {
			return fmt.Errorf("%w: pid %d (%s)", ErrGameRunning, pid, process.Executable())
		}
	}

	logger.InfoKV(ctx, "Removing stale running marker", "marker", marker)

	if err = os.Remove(marker); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove marker: %w", resource.ErrFilesystem, err)
	}

	return nil
}

// RunOptions configure a game process.
type RunOptions struct {
	// Marker receives the pid while the process runs. Empty disables it.
	Marker string
	// Stdout and Stderr default to the launcher's own streams.
	Stdout io.Writer
	Stderr io.Writer
	// OnStart is called once the process has started.
	OnStart func(pid int)
}

// Run starts the invocation and waits for it to exit.
// Cancelling ctx kills the process.
func Run(ctx context.Context, inv *Invocation, opts RunOptions) error {
	ctx = logger.WithName(ctx, "launch")

	cmd := exec.CommandContext(ctx, inv.Java, inv.Args()...) //nolint:gosec // The command line comes from the version descriptor.
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}

	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	logger.InfoKV(ctx, "Starting game", "java", inv.Java, "main_class", inv.MainClass, "dir", inv.Dir)
	logger.DebugKV(ctx, "Game arguments", "args", inv.Args())

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", inv.Java, err)
	}

	pid := cmd.Process.Pid

	if opts.Marker != "" {
		if err := writeMarker(opts.Marker, pid); err != nil {
			logger.WarnKV(ctx, "Unable to write running marker", "error", err)
		}

		defer func() {
			_ = os.Remove(opts.Marker)
		}()
	}

	if opts.OnStart != nil {
		opts.OnStart(pid)
	}

	err := cmd.Wait()

	logger.InfoKV(ctx, "Game exited", "pid", pid, "state", cmd.ProcessState.String())

	if err != nil {
		return fmt.Errorf("game process: %w", err)
	}

	return nil
}

func writeMarker(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(strconv.Itoa(pid)), markerFileMode)
}
