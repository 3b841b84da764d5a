package status

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/mcsync/internal/logger"
)

// Options controls `mcsync status`.
type Options struct {
	// Address of the status endpoint.
	Address string
	// Wait blocks until the awaited service is SERVING.
	Wait bool
	// Service is awaited when Wait is set. Defaults to ServiceSync.
	Service string
	// PollInterval is the delay between checks while waiting.
	PollInterval time.Duration
	// Timeout bounds each check.
	Timeout time.Duration
	// Out receives the report. Defaults to stdout.
	Out io.Writer
}

// Run prints the status of every service, optionally waiting first.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "status")

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	client, err := Dial(ctx, opts.Address, WithCallTimeout(opts.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if opts.Wait {
		service := opts.Service
		if service == "" {
			service = ServiceSync
		}

		logger.InfoKV(ctx, "Waiting for service", "address", opts.Address, "service", service)

		if err = client.Wait(ctx, service, opts.PollInterval); err != nil {
			return err
		}
	}

	for _, service := range []string{ServiceSync, ServiceGame} {
		serving, checkErr := client.Check(ctx, service)
		if checkErr != nil {
			return checkErr
		}

		if _, err = fmt.Fprintf(out, "%s: %s\n", service, serving); err != nil {
			return fmt.Errorf("write status: %w", err)
		}
	}

	return nil
}
