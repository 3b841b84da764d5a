package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/mcsync/internal/config"
	"github.com/oshokin/mcsync/internal/service/status"
)

var (
	// wait blocks until the awaited service is SERVING.
	wait bool
	// waitFor names the awaited service.
	waitFor string
	// pollInterval is the delay between checks while waiting.
	pollInterval time.Duration

	statusCmd = &cobra.Command{
		Use:   "status <address>",
		Short: "Query the status endpoint of a running launcher.",
		Long: `Prints whether the release is synchronised and whether the game is running,
as reported by the status endpoint of another mcsync process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return status.Run(ctx, &status.Options{
				Address:      args[0],
				Wait:         wait,
				Service:      waitFor,
				PollInterval: pollInterval,
				Timeout:      config.DefaultTimeout,
				Out:          cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	statusCmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait until the service is serving")
	statusCmd.Flags().StringVar(&waitFor, "service", status.ServiceSync, "service to wait for")
	statusCmd.Flags().DurationVar(&pollInterval, "interval", status.DefaultPollInterval, "delay between checks")
}
