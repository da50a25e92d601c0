//go:build !unix

package memlib

import "os"

// sliceRegion is a heap-allocated slab. A file-backed slab is written out on
// Sync and Teardown since there is no shared mapping to flush.
type sliceRegion struct {
	data []byte
	path string
}

func reserve(capacity int, path string) (region, error) {
	if path != "" {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, err
		}
	}
	return &sliceRegion{data: make([]byte, capacity), path: path}, nil
}

func (r *sliceRegion) bytes() []byte { return r.data }

func (r *sliceRegion) fileBacked() bool { return r.path != "" }

func (r *sliceRegion) sync(brk int) error {
	if r.path == "" {
		return nil
	}
	return os.WriteFile(r.path, r.data[:brk], 0o644)
}

func (r *sliceRegion) release(brk int) error {
	err := r.sync(brk)
	r.data = nil
	return err
}
