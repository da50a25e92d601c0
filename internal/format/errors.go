package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a tag.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates a payload offset that is not double-word aligned.
	ErrMisaligned = errors.New("format: misaligned payload offset")
)
