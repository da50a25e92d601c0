package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <image>",
		Short: "Check the structural invariants of a heap image",
		Long: `The verify command checks a heap image for a valid prologue, matching
header and footer tags, aligned block sizes, no adjacent free blocks and an
epilogue at the break.

Example:
  mmctl verify heap.img
  mmctl verify heap.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args)
		},
	}
	return cmd
}

// VerifyReport is the machine-readable verify result.
type VerifyReport struct {
	Path   string `json:"path"`
	Valid  bool   `json:"valid"`
	Type   string `json:"type,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Error  string `json:"error,omitempty"`
}

// errInvalid is returned after the problem has already been reported.
var errInvalid = errors.New("heap image is invalid")

func runVerify(args []string) error {
	imagePath := args[0]

	im, err := mmfile.Open(imagePath)
	if err != nil {
		return err
	}
	defer im.Close()

	report := VerifyReport{Path: imagePath, Valid: true}
	if verr := checkImage(im.Data); verr != nil {
		report.Valid = false
		report.Error = verr.Error()
		var ve *verify.ValidationError
		if errors.As(verr, &ve) {
			report.Type = ve.Type
			report.Offset = ve.Offset
		}
	}

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else if report.Valid {
		printInfo("%s: OK\n", imagePath)
	} else {
		printInfo("%s: INVALID\n  %s\n", imagePath, report.Error)
	}

	if !report.Valid {
		return errInvalid
	}
	return nil
}

// checkImage verifies the heap prefix of a saved image, ignoring the unused
// capacity after the epilogue.
func checkImage(data []byte) error {
	if err := verify.Prologue(data); err != nil {
		return err
	}
	end, err := heap.End(data)
	if err != nil {
		return &verify.ValidationError{
			Type:    "BlockList",
			Message: err.Error(),
			Offset:  -1,
		}
	}
	if err := verify.AllInvariants(data[:end]); err != nil {
		return fmt.Errorf("break %d: %w", end, err)
	}
	return nil
}
