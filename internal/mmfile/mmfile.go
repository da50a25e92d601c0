// Package mmfile maps saved heap images read-only for inspection.
package mmfile

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// ErrTooSmall indicates a file shorter than the heap skeleton.
var ErrTooSmall = errors.New("mmfile: file smaller than a heap skeleton")

// Image is a read-only view of a heap image file.
type Image struct {
	Path string
	Data []byte // Whole file, including any unused capacity after the break

	release func() error
}

// Open maps the image at path. Close must be called to release it.
func Open(path string) (*Image, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	if len(data) < format.InitialHeapSize {
		_ = release()
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooSmall, path, len(data))
	}
	return &Image{Path: path, Data: data, release: release}, nil
}

// Close unmaps the image. Calling it twice is a no-op.
func (im *Image) Close() error {
	if im.release == nil {
		return nil
	}
	err := im.release()
	im.release = nil
	im.Data = nil
	return err
}
