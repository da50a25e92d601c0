package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	runImage     string
	runCapacity  int
	runChunk     int
	runChecked   bool
	runVerifyOps bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runImage, "image", "", "Back the heap with this file and keep it after the run")
	cmd.Flags().IntVar(&runCapacity, "capacity", 0, "Heap region capacity in bytes (default 16 MiB)")
	cmd.Flags().IntVar(&runChunk, "chunk", 0, "Minimum heap extension in bytes (default 4096)")
	cmd.Flags().BoolVar(&runChecked, "checked", false, "Reject invalid and double frees instead of corrupting the heap")
	cmd.Flags().BoolVar(&runVerifyOps, "verify", false, "Check heap invariants after every operation")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Replay an allocation trace",
		Long: `The run command replays a trace file against a fresh heap and checks
every payload for alignment, overlap and data integrity.

Example:
  mmctl run short1.rep
  mmctl run short1.rep --verify --checked
  mmctl run short1.rep --image heap.img --capacity 1048576
  mmctl run short1.rep --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, args)
		},
	}
	return cmd
}

// RunReport is the machine-readable result of a replay.
type RunReport struct {
	Trace       string      `json:"trace"`
	Image       string      `json:"image,omitempty"`
	Ops         int         `json:"ops"`
	Allocs      int         `json:"allocs"`
	Reallocs    int         `json:"reallocs"`
	Frees       int         `json:"frees"`
	PeakLive    int         `json:"peak_live"`
	HeapSize    int         `json:"heap_size"`
	Utilization float64     `json:"utilization"`
	ElapsedNS   int64       `json:"elapsed_ns"`
	Stats       alloc.Stats `json:"stats"`
}

func runTrace(cmd *cobra.Command, args []string) error {
	tracePath := args[0]

	printVerbose("Parsing trace: %s\n", tracePath)
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	tr, err := trace.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to parse trace: %w", err)
	}
	printVerbose("Parsed %s ops\n", formatNumber(len(tr.Ops)))

	p, err := memlib.New(memlib.Options{Capacity: runCapacity, Path: runImage})
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Teardown(); err != nil {
			logger.Warn("heap teardown failed", "error", err)
		}
	}()

	var dt *dirty.Tracker
	var tracker alloc.DirtyTracker
	if runImage != "" {
		dt = dirty.NewTracker(p)
		tracker = dt
	}

	fa, err := alloc.NewFirstFit(p, tracker, &alloc.Options{ChunkSize: runChunk, Checked: runChecked})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, runErr := trace.Run(ctx, fa, p, tr, trace.RunOptions{Verify: runVerifyOps})

	if dt != nil {
		printVerbose("Flushing %d dirty ranges\n", len(dt.Ranges()))
		if err := dt.Flush(ctx); err != nil {
			return fmt.Errorf("failed to flush heap image: %w", err)
		}
		if err := p.Sync(); err != nil {
			return fmt.Errorf("failed to sync heap image: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("replay failed after %d ops: %w", res.Ops(), runErr)
	}

	report := RunReport{
		Trace:       tracePath,
		Image:       runImage,
		Ops:         res.Ops(),
		Allocs:      res.Allocs,
		Reallocs:    res.Reallocs,
		Frees:       res.Frees,
		PeakLive:    res.PeakLive,
		HeapSize:    res.HeapSize,
		Utilization: res.Utilization(),
		ElapsedNS:   res.Elapsed.Nanoseconds(),
		Stats:       fa.Stats(),
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Trace: %s\n", tracePath)
	printInfo("  Ops: %s (%s alloc, %s realloc, %s free)\n",
		formatNumber(report.Ops), formatNumber(report.Allocs),
		formatNumber(report.Reallocs), formatNumber(report.Frees))
	printInfo("  Peak live: %s\n", formatBytes(int64(report.PeakLive)))
	printInfo("  Heap size: %s (%s bytes)\n", formatBytes(int64(report.HeapSize)), formatNumber(report.HeapSize))
	printInfo("  Utilization: %.1f%%\n", 100*report.Utilization)
	printInfo("  Elapsed: %s\n", res.Elapsed)
	if runImage != "" {
		printInfo("  Image: %s\n", runImage)
	}

	st := report.Stats
	printVerbose("\nAllocator:\n")
	printVerbose("  Heap extensions: %s (%s)\n", formatNumber(st.GrowCalls), formatBytes(st.GrowBytes))
	printVerbose("  Splits: %s\n", formatNumber(st.SplitCount))
	printVerbose("  Coalesce: %s forward, %s backward\n", formatNumber(st.CoalesceForward), formatNumber(st.CoalesceBackward))
	printVerbose("  Realloc: %s in place, %s moved\n", formatNumber(st.InPlaceShrinks), formatNumber(st.ReallocCopies))
	printVerbose("  Failed allocations: %s\n", formatNumber(st.FailedAllocs))
	return nil
}
