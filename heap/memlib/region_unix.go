//go:build unix

package memlib

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// mmapRegion is an anonymous private mapping, or a shared mapping of a file
// when f is set.
type mmapRegion struct {
	data []byte
	f    *os.File
}

func reserve(capacity int, path string) (region, error) {
	if path == "" {
		data, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
		if err != nil {
			return nil, err
		}
		return &mmapRegion{data: data}, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	// Sparse file: pages past the break never hit the disk.
	if err := f.Truncate(int64(capacity)); err != nil {
		_ = f.Close()
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &mmapRegion{data: data, f: f}, nil
}

func (r *mmapRegion) bytes() []byte { return r.data }

func (r *mmapRegion) fileBacked() bool { return r.f != nil }

func (r *mmapRegion) sync(brk int) error {
	if r.f == nil || brk == 0 {
		return nil
	}
	return unix.Msync(r.data[:brk], unix.MS_SYNC)
}

func (r *mmapRegion) release(brk int) error {
	var errs []error
	if err := r.sync(brk); err != nil {
		errs = append(errs, err)
	}
	if err := unix.Munmap(r.data); err != nil && !errors.Is(err, unix.EINVAL) {
		errs = append(errs, err)
	}
	r.data = nil
	if r.f != nil {
		if err := r.f.Close(); err != nil {
			errs = append(errs, err)
		}
		r.f = nil
	}
	return errors.Join(errs...)
}
