// Command httpdemo is a minimal HTTP server whose single handler exercises
// the cooperative runtime's SleepFor suspension point and SyncWait bridge
// across a request's lifetime, serving a synthetic cpu/io/cpu "work"
// endpoint on net/http.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskforge/taskforge/internal/server"
)

// startupError marks a failure that happened after flags were already
// validated — building the logger or running the server — as distinct
// from a cobra argument/flag error. main maps the two to different exit
// codes.
type startupError struct{ err error }

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)

	var started *startupError
	if errors.As(err, &started) {
		os.Exit(1)
	}
	os.Exit(2)
}

func newRootCmd() *cobra.Command {
	var (
		addr       string
		workers    int
		admission  int
		poolKind   string
		minWorkers int
	)

	cmd := &cobra.Command{
		Use:   "httpdemo",
		Short: "Serve a synthetic cpu/io/cpu workload through a pool-backed cooperative runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return &startupError{fmt.Errorf("httpdemo: build logger: %w", err)}
			}
			defer logger.Sync() //nolint:errcheck

			cfg := server.Config{
				Addr:         addr,
				PoolKind:     poolKind,
				Workers:      workers,
				MinWorkers:   minWorkers,
				AdmissionCap: admission,
				Logger:       logger,
			}
			if err := server.Run(cfg); err != nil {
				return &startupError{err}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":8080", "listen address")
	flags.IntVar(&workers, "workers", 8, "pool worker count (or max, for elastic kinds)")
	flags.IntVar(&minWorkers, "min-workers", 1, "pool minimum worker count (elastic kinds only)")
	flags.IntVar(&admission, "admission", 64, "maximum concurrently admitted requests")
	flags.StringVar(&poolKind, "pool-kind", "work-stealing", "classic-fixed|elastic-global|work-stealing|advanced-elastic-stealing")

	return cmd
}
