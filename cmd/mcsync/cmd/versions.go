package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/mcsync/internal/service/release"
)

var (
	// snapshots also lists snapshot versions.
	snapshots bool

	versionsCmd = &cobra.Command{
		Use:   "versions",
		Short: "List published versions.",
		Long: `Lists the versions of the remote manifest, newest first, with their release date.
The latest release and snapshot and the versions already on disk are marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			opts := releaseOptions(args)
			opts.Snapshots = snapshots

			return release.Versions(ctx, opts, cmd.OutOrStdout())
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	versionsCmd.Flags().BoolVarP(&snapshots, "snapshots", "s", false, "include snapshots")
}
