package alloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecked_DoubleFree(t *testing.T) {
	fa, _ := newAllocatorForTest(t, &Options{Checked: true})

	p, err := fa.Alloc(32)
	require.NoError(t, err)
	_, err = fa.Alloc(32)
	require.NoError(t, err)
	require.NoError(t, fa.Free(p))
	before := bytes.Clone(fa.Image())

	err = fa.Free(p)
	assert.ErrorIs(t, err, ErrDoubleFree)
	assert.Equal(t, before, fa.Image(), "rejected free must not touch the heap")
	assertInvariants(t, fa)
}

func TestChecked_ForeignPointer(t *testing.T) {
	fa, _ := newAllocatorForTest(t, &Options{Checked: true})

	p, err := fa.Alloc(100)
	require.NoError(t, err)
	before := bytes.Clone(fa.Image())

	for _, bad := range []Ptr{p + 8, 4, 1 << 20} {
		assert.ErrorIs(t, fa.Free(bad), ErrBadPtr, "Free(%d)", bad)

		q, err := fa.Realloc(bad, 10)
		assert.ErrorIs(t, err, ErrBadPtr, "Realloc(%d)", bad)
		assert.Equal(t, bad, q)
	}
	assert.Equal(t, before, fa.Image())
}

func TestChecked_ReallocFreedPointer(t *testing.T) {
	fa, _ := newAllocatorForTest(t, &Options{Checked: true})

	p, err := fa.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, fa.Free(p))

	q, err := fa.Realloc(p, 64)
	assert.ErrorIs(t, err, ErrDoubleFree)
	assert.Equal(t, p, q)
}

func TestChecked_ReallocZeroOfFreedPointer(t *testing.T) {
	fa, _ := newAllocatorForTest(t, &Options{Checked: true})

	p, err := fa.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, fa.Free(p))
	before := bytes.Clone(fa.Image())

	q, err := fa.Realloc(p, 0)
	assert.ErrorIs(t, err, ErrDoubleFree)
	assert.Equal(t, p, q)
	assert.Equal(t, before, fa.Image())
}

func TestChecked_MovedPointerIsStale(t *testing.T) {
	fa, _ := newAllocatorForTest(t, &Options{Checked: true})

	p, err := fa.Alloc(16)
	require.NoError(t, err)
	_, err = fa.Alloc(16)
	require.NoError(t, err)

	q, err := fa.Realloc(p, 500)
	require.NoError(t, err)
	require.NotEqual(t, p, q)

	assert.ErrorIs(t, fa.Free(p), ErrDoubleFree)
	assert.NoError(t, fa.Free(q))
}

func TestChecked_AddressReuse(t *testing.T) {
	fa, _ := newAllocatorForTest(t, &Options{Checked: true})

	p, err := fa.Alloc(8)
	require.NoError(t, err)
	require.NoError(t, fa.Free(p))

	// The freed block merged back into the tail, so the same address comes
	// back and is live again.
	q, err := fa.Alloc(8)
	require.NoError(t, err)
	require.Equal(t, p, q)
	assert.NoError(t, fa.Free(q))
}

func TestChecked_Live(t *testing.T) {
	fa, _ := newAllocatorForTest(t, &Options{Checked: true})
	assert.Equal(t, 0, fa.Live())

	p1, err := fa.Alloc(10)
	require.NoError(t, err)
	_, err = fa.Alloc(10)
	require.NoError(t, err)
	assert.Equal(t, 2, fa.Live())

	require.NoError(t, fa.Free(p1))
	assert.Equal(t, 1, fa.Live())

	unchecked, _ := newAllocatorForTest(t, nil)
	assert.Equal(t, -1, unchecked.Live())
}

func TestChecked_SameLayoutAsUnchecked(t *testing.T) {
	plain, _ := newAllocatorForTest(t, nil)
	checked, _ := newAllocatorForTest(t, &Options{Checked: true})

	for _, fa := range []*FirstFitAllocator{plain, checked} {
		a, err := fa.Alloc(10)
		require.NoError(t, err)
		b, err := fa.Alloc(300)
		require.NoError(t, err)
		_, err = fa.Alloc(20)
		require.NoError(t, err)
		require.NoError(t, fa.Free(a))
		_, err = fa.Realloc(b, 40)
		require.NoError(t, err)
	}

	assert.Equal(t, plain.Image(), checked.Image())
}
