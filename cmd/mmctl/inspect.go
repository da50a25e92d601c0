package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

var inspectLimit int

func init() {
	cmd := newInspectCmd()
	cmd.Flags().IntVar(&inspectLimit, "limit", 0, "Show at most this many blocks (0 = all)")
	rootCmd.AddCommand(cmd)
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "List the blocks of a heap image",
		Long: `The inspect command walks the block list of a heap image saved by
"mmctl run --image" and prints every block with a summary.

Example:
  mmctl inspect heap.img
  mmctl inspect heap.img --limit 20
  mmctl inspect heap.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

// HeapSummary describes the blocks of one heap image.
type HeapSummary struct {
	Path           string           `json:"path"`
	FileSize       int              `json:"file_size"`
	Break          int              `json:"break"`
	Blocks         int              `json:"blocks"`
	AllocatedCount int              `json:"allocated_count"`
	AllocatedBytes int              `json:"allocated_bytes"`
	FreeCount      int              `json:"free_count"`
	FreeBytes      int              `json:"free_bytes"`
	LargestFree    int              `json:"largest_free"`
	List           []heap.BlockInfo `json:"list"`
}

func summarize(path string, data []byte) (*HeapSummary, error) {
	end, err := heap.End(data)
	if err != nil {
		return nil, fmt.Errorf("failed to walk block list: %w", err)
	}
	blocks, err := heap.Scan(data[:end])
	if err != nil {
		return nil, fmt.Errorf("failed to walk block list: %w", err)
	}

	s := &HeapSummary{
		Path:     path,
		FileSize: len(data),
		Break:    end,
		Blocks:   len(blocks),
		List:     blocks,
	}
	for _, b := range blocks {
		if b.Allocated {
			s.AllocatedCount++
			s.AllocatedBytes += b.Size
			continue
		}
		s.FreeCount++
		s.FreeBytes += b.Size
		s.LargestFree = max(s.LargestFree, b.Size)
	}
	return s, nil
}

func runInspect(args []string) error {
	imagePath := args[0]

	printVerbose("Opening image: %s\n", imagePath)
	im, err := mmfile.Open(imagePath)
	if err != nil {
		return err
	}
	defer im.Close()

	s, err := summarize(imagePath, im.Data)
	if err != nil {
		return err
	}

	if inspectLimit > 0 && len(s.List) > inspectLimit {
		s.List = s.List[:inspectLimit]
	}

	if jsonOut {
		return printJSON(s)
	}

	printInfo("Heap image: %s\n", imagePath)
	printInfo("  File size: %s (%s bytes)\n", formatBytes(int64(s.FileSize)), formatNumber(s.FileSize))
	printInfo("  Break: %s\n", formatNumber(s.Break))
	printInfo("  Blocks: %s\n", formatNumber(s.Blocks))
	printInfo("  Allocated: %s blocks, %s bytes\n", formatNumber(s.AllocatedCount), formatNumber(s.AllocatedBytes))
	printInfo("  Free: %s blocks, %s bytes (largest %s)\n\n",
		formatNumber(s.FreeCount), formatNumber(s.FreeBytes), formatNumber(s.LargestFree))

	printInfo("%10s  %10s  %s\n", "OFFSET", "SIZE", "STATE")
	for _, b := range s.List {
		state := "free"
		if b.Allocated {
			state = "allocated"
		}
		printInfo("%10d  %10d  %s\n", b.BP, b.Size, state)
	}
	if len(s.List) < s.Blocks {
		printInfo("  ... (%d more blocks)\n", s.Blocks-len(s.List))
	}
	return nil
}
