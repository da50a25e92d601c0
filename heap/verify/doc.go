// Package verify checks the structural invariants of a boundary-tag heap
// image. The allocator tests run it after every operation; the CLI runs it
// against saved images.
//
// An image starts at the alignment pad and ends at the break:
//
//	pad | prologue hdr | prologue ftr | blocks ... | epilogue hdr
//
// Checks performed:
//   - pad word is zero; prologue header and footer are both Pack(8, 1)
//   - every block payload is 8-aligned and its size is a multiple of 8, at
//     least 16, and fits inside the image
//   - every header equals its footer
//   - no two free blocks are adjacent
//   - the walk ends at an allocated size-0 epilogue placed at brk-4
package verify
