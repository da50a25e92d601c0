package alloc

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

type liveBlock struct {
	n int
	v byte
}

// TestRandomOps drives a seeded mix of Alloc, Free and Realloc and checks
// every structural invariant and every payload after each step.
func TestRandomOps(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1337} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			runRandomOps(t, seed, 3000)
		})
	}
}

func runRandomOps(t *testing.T, seed int64, ops int) {
	rng := rand.New(rand.NewSource(seed))

	p := newTestHeap(t, 1<<20)
	fa, err := NewFirstFit(p, nil, &Options{Checked: true})
	require.NoError(t, err)

	live := make(map[Ptr]liveBlock)
	var ptrs []Ptr

	remove := func(i int) Ptr {
		ptr := ptrs[i]
		ptrs[i] = ptrs[len(ptrs)-1]
		ptrs = ptrs[:len(ptrs)-1]
		delete(live, ptr)
		return ptr
	}

	checkPayload := func(ptr Ptr, n int, v byte) {
		payload := fa.Payload(ptr)
		require.GreaterOrEqual(t, len(payload), n)
		for i := range n {
			if payload[i] != v {
				t.Fatalf("seed %d: payload %d byte %d = 0x%X, want 0x%X", seed, ptr, i, payload[i], v)
			}
		}
	}

	for op := range ops {
		switch r := rng.Intn(10); {
		case r < 5 || len(ptrs) == 0:
			n := 1 + rng.Intn(2048)
			ptr, err := fa.Alloc(n)
			if errors.Is(err, ErrNoSpace) {
				continue
			}
			require.NoError(t, err)
			require.Zero(t, int(ptr)%format.DoubleWordSize)
			require.GreaterOrEqual(t, fa.UsableSize(ptr), n)
			_, dup := live[ptr]
			require.False(t, dup, "seed %d op %d: %d handed out twice", seed, op, ptr)

			v := byte(rng.Intn(256))
			fill(fa.Payload(ptr)[:n], v)
			live[ptr] = liveBlock{n, v}
			ptrs = append(ptrs, ptr)

		case r < 8:
			i := rng.Intn(len(ptrs))
			lb := live[ptrs[i]]
			checkPayload(ptrs[i], lb.n, lb.v)
			require.NoError(t, fa.Free(remove(i)))

		default:
			i := rng.Intn(len(ptrs))
			old := ptrs[i]
			lb := live[old]
			n := 1 + rng.Intn(4096)

			ptr, err := fa.Realloc(old, n)
			if err != nil {
				require.ErrorIs(t, err, ErrNoSpace)
				require.Equal(t, old, ptr)
				checkPayload(old, lb.n, lb.v)
				continue
			}
			checkPayload(ptr, min(lb.n, n), lb.v)
			require.GreaterOrEqual(t, fa.UsableSize(ptr), n)

			remove(i)
			_, dup := live[ptr]
			require.False(t, dup, "seed %d op %d: realloc returned live %d", seed, op, ptr)

			v := byte(rng.Intn(256))
			fill(fa.Payload(ptr)[:n], v)
			live[ptr] = liveBlock{n, v}
			ptrs = append(ptrs, ptr)
		}

		assertInvariants(t, fa)

		if op%100 == 0 {
			allocated := 0
			for _, b := range scanBlocks(t, fa) {
				if b.Allocated {
					allocated++
					_, ok := live[Ptr(b.BP)]
					require.True(t, ok, "seed %d op %d: allocated block %d is not live", seed, op, b.BP)
				}
			}
			require.Equal(t, len(live), allocated)
			require.Equal(t, len(live), fa.Live())
		}
	}
}
