package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/mcsync/internal/service/release"
)

var (
	// forceSync re-downloads every file.
	forceSync bool

	syncCmd = &cobra.Command{
		Use:   "sync [version]",
		Short: "Download a version and verify its files.",
		Long: `Brings a version onto disk. The version is an id, "release" or "snapshot";
without one the latest release is used.

Existing files are verified by size and SHA-1 and kept when they match.
The first failure stops the sync; transfers already running are finished.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			opts := releaseOptions(args)
			opts.Force = forceSync

			_, err := release.Sync(ctx, opts)

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	syncCmd.Flags().BoolVarP(&forceSync, "force", "f", false, "download every file even when it is valid")
}
