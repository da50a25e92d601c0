//go:build heapdebug

package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

func checkTag(b []byte, off int) {
	if _, err := buf.CheckRange(len(b), off, format.WordSize); err != nil {
		panic(fmt.Sprintf("heap: tag at %d: %v", off, err))
	}
}

func checkPayload(b []byte, bp int) {
	if bp%format.DoubleWordSize != 0 {
		panic(fmt.Sprintf("heap: payload offset %d: %v", bp, format.ErrMisaligned))
	}
	checkTag(b, format.HeaderOffset(bp))
}
