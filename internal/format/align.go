package format

// Align8 returns n aligned up to the next double-word boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + DoubleWordSize - 1) &^ (DoubleWordSize - 1)
}

// AdjustedSize converts a requested payload size into the total block size
// the allocator needs: small requests get the minimum block, larger ones get
// header and footer added and are rounded up to the alignment unit.
//
// Example:
//
//	AdjustedSize(1)  = 16
//	AdjustedSize(8)  = 16
//	AdjustedSize(9)  = 24
//	AdjustedSize(20) = 32
func AdjustedSize(n int) int {
	if n <= DoubleWordSize {
		return MinBlockSize
	}
	return DoubleWordSize * ((n + DoubleWordSize + (DoubleWordSize - 1)) / DoubleWordSize)
}

// EvenWords rounds a word count up to an even number and returns it in
// bytes, which keeps heap extensions double-word aligned.
func EvenWords(words int) int {
	if words%2 != 0 {
		words++
	}
	return words * WordSize
}
