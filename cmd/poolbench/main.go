// Command poolbench runs a batch of CPU-bound Fibonacci computations across
// a chosen pool.Pool variant and reports per-run timings.
package main

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskforge/taskforge/pkg/pool"
	"github.com/taskforge/taskforge/pkg/poolconfig"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poolbench <pool-kind> <fib-n> <threads> <warmup> <reps> [tasks] [split-threshold]",
		Short: "Benchmark a pool variant with a batch of Fibonacci tasks",
		Args:  cobra.RangeArgs(5, 7),
		RunE:  runBench,
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	kind, err := resolveKind(args[0])
	if err != nil {
		return err
	}

	fibN, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("poolbench: invalid fib-n %q: %w", args[1], err)
	}
	threads, err := strconv.Atoi(args[2])
	if err != nil || threads <= 0 {
		return fmt.Errorf("poolbench: invalid threads %q: must be > 0", args[2])
	}
	warmup, err := strconv.Atoi(args[3])
	if err != nil || warmup < 0 {
		return fmt.Errorf("poolbench: invalid warmup %q: must be >= 0", args[3])
	}
	reps, err := strconv.Atoi(args[4])
	if err != nil || reps <= 0 {
		return fmt.Errorf("poolbench: invalid reps %q: must be > 0", args[4])
	}

	tasks := threads
	if len(args) >= 6 {
		tasks, err = strconv.Atoi(args[5])
		if err != nil || tasks <= 0 {
			return fmt.Errorf("poolbench: invalid tasks %q: must be > 0", args[5])
		}
	}

	splitThreshold := 32
	if len(args) >= 7 {
		splitThreshold, err = strconv.Atoi(args[6])
		if err != nil {
			return fmt.Errorf("poolbench: invalid split-threshold %q: %w", args[6], err)
		}
	}

	p, err := poolconfig.Build(poolconfig.Config{
		Kind:        kind,
		N:           threads,
		Min:         1,
		Max:         threads * 2,
		IdleTimeout: 200 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("poolbench: build pool: %w", err)
	}
	defer p.Close() //nolint:errcheck

	fibValue := fibTask(fibN, splitThreshold)

	fmt.Printf("Fibonacci benchmark (batched CPU-bound tasks)\n")
	fmt.Printf("pool=%s fib_n=%d fib_value=%d threads=%d warmup=%d reps=%d tasks=%d split_threshold=%d\n",
		args[0], fibN, fibValue, threads, warmup, reps, tasks, splitThreshold)

	for i := 0; i < warmup; i++ {
		runBatch(p, fibN, splitThreshold, tasks)
	}

	best := time.Duration(1<<63 - 1)
	var total time.Duration
	var lastChecksum uint64

	for r := 0; r < reps; r++ {
		elapsed, checksum := runBatch(p, fibN, splitThreshold, tasks)
		if elapsed < best {
			best = elapsed
		}
		total += elapsed
		lastChecksum = checksum
		fmt.Printf("Run %d: %.6f s\n", r, elapsed.Seconds())
	}

	fmt.Printf("Best: %.6f s\n", best.Seconds())
	fmt.Printf("Avg: %.6f s\n", (total / time.Duration(reps)).Seconds())
	fmt.Printf("Fib(%d): %d\n", fibN, fibValue)
	fmt.Printf("Checksum: %d\n", lastChecksum)
	fmt.Printf("Expected checksum: %d\n", fibValue*uint64(tasks))

	return nil
}

func resolveKind(s string) (poolconfig.Kind, error) {
	switch s {
	case "classic":
		return poolconfig.KindClassicFixed, nil
	case "elastic":
		return poolconfig.KindElasticGlobal, nil
	case "ws":
		return poolconfig.KindWorkStealing, nil
	case "advws":
		return poolconfig.KindAdvancedElasticStealing, nil
	default:
		return "", fmt.Errorf("poolbench: unknown pool kind %q (want classic|elastic|ws|advws)", s)
	}
}

func runBatch(p pool.Pool, fibN, splitThreshold, tasks int) (time.Duration, uint64) {
	out := make([]uint64, tasks)
	var done atomic.Int64
	var wg sync.WaitGroup
	wg.Add(tasks)

	t0 := time.Now()
	for i := 0; i < tasks; i++ {
		i := i
		if err := p.Submit(func() {
			defer wg.Done()
			out[i] = fibTask(fibN, splitThreshold)
			done.Add(1)
		}); err != nil {
			wg.Done()
		}
	}
	wg.Wait()
	elapsed := time.Since(t0)

	var checksum uint64
	for _, v := range out {
		checksum += v
	}
	return elapsed, checksum
}

func fibSeq(n int) uint64 {
	if n < 2 {
		return uint64(n)
	}
	var a, b uint64 = 0, 1
	for i := 2; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

func fibTask(n, splitThreshold int) uint64 {
	if n <= splitThreshold {
		return fibSeq(n)
	}
	return fibTask(n-1, splitThreshold) + fibTask(n-2, splitThreshold)
}
