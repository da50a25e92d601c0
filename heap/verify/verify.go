package verify

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
)

// ValidationError describes the first broken invariant found in an image.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates the prologue, every block and the epilogue of an
// image whose break is len(data). Returns the first error encountered, or
// nil if all checks pass.
func AllInvariants(data []byte) error {
	if err := Prologue(data); err != nil {
		return err
	}
	if err := Blocks(data); err != nil {
		return err
	}
	return Epilogue(data, len(data))
}

// Prologue validates the pad word and the prologue block.
func Prologue(data []byte) error {
	if len(data) < format.InitialHeapSize {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("image too small: %d bytes (need %d)", len(data), format.InitialHeapSize),
			Offset:  -1,
		}
	}

	if pad := format.ReadU32(data, format.PadOffset); pad != 0 {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("alignment pad is 0x%X, expected 0", pad),
			Offset:  format.PadOffset,
		}
	}

	want := format.Pack(format.DoubleWordSize, true)
	hdrOff := format.HeaderOffset(format.PrologueOffset)
	ftrOff := format.FooterOffset(format.PrologueOffset, format.DoubleWordSize)
	if hdr := format.ReadU32(data, hdrOff); hdr != want {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("header is 0x%X, expected 0x%X", hdr, want),
			Offset:  hdrOff,
		}
	}
	if ftr := format.ReadU32(data, ftrOff); ftr != want {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("footer is 0x%X, expected 0x%X", ftr, want),
			Offset:  ftrOff,
		}
	}
	return nil
}

// Blocks walks every real block and checks alignment, size, tag agreement
// and that free blocks are never adjacent.
func Blocks(data []byte) error {
	it := heap.Blocks(data)
	prevFree := false

	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &ValidationError{
				Type:    "BlockList",
				Message: err.Error(),
				Offset:  format.HeaderOffset(it.Epilogue()),
			}
		}

		if b.BP%format.DoubleWordSize != 0 {
			return &ValidationError{
				Type:    "Block",
				Message: fmt.Sprintf("payload at %d is not %d-byte aligned", b.BP, format.DoubleWordSize),
				Offset:  b.Header(),
			}
		}

		if hdr, ftr := b.HeaderWord(), b.FooterWord(); hdr != ftr {
			return &ValidationError{
				Type:    "Block",
				Message: fmt.Sprintf("header 0x%X does not match footer 0x%X", hdr, ftr),
				Offset:  b.Header(),
			}
		}

		free := !b.IsAllocated()
		if free && prevFree {
			return &ValidationError{
				Type:    "Coalesce",
				Message: fmt.Sprintf("free block at %d follows another free block", b.BP),
				Offset:  b.Header(),
			}
		}
		prevFree = free
	}
}

// Epilogue checks that the block walk ends at an allocated size-0 header
// sitting at brk-4, directly after the last block's footer.
func Epilogue(data []byte, brk int) error {
	if brk > len(data) || brk < format.InitialHeapSize {
		return &ValidationError{
			Type:    "Epilogue",
			Message: fmt.Sprintf("break %d outside image of %d bytes", brk, len(data)),
			Offset:  -1,
		}
	}

	it := heap.Blocks(data[:brk])
	for {
		_, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &ValidationError{
				Type:    "Epilogue",
				Message: fmt.Sprintf("block walk failed before epilogue: %v", err),
				Offset:  -1,
			}
		}
	}

	off := format.HeaderOffset(it.Epilogue())
	if off != brk-format.WordSize {
		return &ValidationError{
			Type:    "Epilogue",
			Message: fmt.Sprintf("epilogue header at %d, expected %d", off, brk-format.WordSize),
			Offset:  off,
		}
	}
	if tag := format.ReadU32(data, off); tag != format.Pack(0, true) {
		return &ValidationError{
			Type:    "Epilogue",
			Message: fmt.Sprintf("epilogue tag is 0x%X, expected 0x%X", tag, format.Pack(0, true)),
			Offset:  off,
		}
	}
	return nil
}
