package release

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/oshokin/mcsync/internal/logger"
	"github.com/oshokin/mcsync/internal/metadata"
	"github.com/oshokin/mcsync/internal/service/launch"
	"github.com/oshokin/mcsync/internal/service/syncer"
)

// Versions prints the versions published in the manifest, newest first.
// Snapshots are listed only when requested.
func Versions(ctx context.Context, opts *Options, out io.Writer) error {
	ctx = logger.WithName(ctx, "versions")

	if out == nil {
		out = os.Stdout
	}

	s, err := open(ctx, opts)
	if err != nil {
		return err
	}

	manifest, err := s.store.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	versions := manifest.Filter(func(v metadata.ManifestVersion) bool {
		return v.Type == metadata.TypeRelease || (opts.Snapshots && v.Type == metadata.TypeSnapshot)
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	for _, v := range versions {
		var marks string

		switch v.ID {
		case manifest.Latest.Release, manifest.Latest.Snapshot:
			marks = "latest"
		}

		if _, statErr := os.Stat(s.layout.VersionDocument(v.ID)); statErr == nil {
			marks = joinMarks(marks, "installed")
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Type, v.ReleaseTime.Format(time.DateOnly), marks)
	}

	if err = w.Flush(); err != nil {
		return fmt.Errorf("write versions: %w", err)
	}

	return nil
}

// Sync synchronises a version onto disk.
func Sync(ctx context.Context, opts *Options) (*syncer.Report, error) {
	ctx = logger.WithName(ctx, "sync")

	s, err := open(ctx, opts)
	if err != nil {
		return nil, err
	}

	stop, err := s.serveStatus(ctx)
	if err != nil {
		return nil, err
	}

	defer stop()

	v, err := s.resolve(ctx, opts.Version)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "version", v.ID)

	return s.sync(ctx, v, opts.Force)
}

// Launch synchronises a version unless asked not to, then runs the game and
// waits for it to exit.
func Launch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "launch")

	s, err := open(ctx, opts)
	if err != nil {
		return err
	}

	stop, err := s.serveStatus(ctx)
	if err != nil {
		return err
	}

	defer stop()

	v, err := s.resolve(ctx, opts.Version)
	if err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "version", v.ID)

	marker := s.layout.RunningMarker(v.ID)

	if opts.SkipSync {
		if err = launch.Guard(ctx, marker); err != nil {
			return err
		}

		s.status.Synced()
	} else if _, err = s.sync(ctx, v, opts.Force); err != nil {
		return err
	}

	vars, err := launch.NewVariables(launch.Settings{
		Layout:   s.layout,
		Version:  v,
		Platform: s.platform,
		Player:   launch.Player{Name: s.cfg.PlayerName},
		Width:    s.cfg.Resolution.Width,
		Height:   s.cfg.Resolution.Height,
	})
	if err != nil {
		return err
	}

	invocation, err := launch.BuildCommand(v, s.layout, s.platform, vars, s.cfg.JavaPath)
	if err != nil {
		return err
	}

	defer s.status.GameExited()

	return launch.Run(ctx, invocation, launch.RunOptions{
		Marker: marker,
		OnStart: func(pid int) {
			logger.InfoKV(ctx, "Game started", "pid", pid)
			s.status.GameStarted()
		},
	})
}

func joinMarks(marks, mark string) string {
	if marks == "" {
		return mark
	}

	return marks + ", " + mark
}
