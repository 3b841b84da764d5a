package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mcsync/internal/config"
	"github.com/oshokin/mcsync/internal/logger"
	"github.com/oshokin/mcsync/internal/service/release"
	"github.com/oshokin/mcsync/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel is the minimum level written to stderr.
	logLevel string
	// rootDir overrides the configured game directory.
	rootDir string
	// offline restricts the launcher to cached documents.
	offline bool

	// rootCmd is the base command; every action is a subcommand.
	rootCmd = &cobra.Command{
		Use:   version.Name,
		Short: "Synchronise and launch game releases.",
		Long: `Keeps a game version on disk in sync with its remote description and starts it.

Every file of a version (assets, libraries, native archives, the client and its
logging configuration) is checked by size and SHA-1; only missing or damaged
files are downloaded. Settings are read from the configuration file; a missing
file means defaults.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// releaseOptions collects the persistent flags.
func releaseOptions(args []string) *release.Options {
	opts := &release.Options{
		ConfigPath: configPath,
		RootDir:    rootDir,
		Offline:    offline,
	}

	if len(args) > 0 {
		opts.Version = args[0]
	}

	return opts
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVarP(&rootDir, "root", "r", "", "game directory, overrides the configuration")
	flags.BoolVar(&offline, "offline", false, "use cached metadata only")

	rootCmd.AddCommand(versionsCmd, syncCmd, launchCmd, statusCmd)
}
