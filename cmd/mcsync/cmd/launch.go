package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/mcsync/internal/service/release"
)

var (
	// forceLaunch re-downloads every file before launching.
	forceLaunch bool
	// skipSync launches with the files already on disk.
	skipSync bool

	launchCmd = &cobra.Command{
		Use:   "launch [version]",
		Short: "Sync a version and start the game.",
		Long: `Synchronises a version like "sync" does, then starts it with the configured
Java executable and waits for the game to exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			opts := releaseOptions(args)
			opts.Force = forceLaunch
			opts.SkipSync = skipSync

			return release.Launch(ctx, opts)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	launchCmd.Flags().BoolVarP(&forceLaunch, "force", "f", false, "download every file even when it is valid")
	launchCmd.Flags().BoolVar(&skipSync, "skip-sync", false, "start without verifying files")
	launchCmd.MarkFlagsMutuallyExclusive("force", "skip-sync")
}
