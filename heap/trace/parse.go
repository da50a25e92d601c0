package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrSyntax indicates a malformed trace line.
var ErrSyntax = errors.New("trace: syntax error")

const (
	commentPrefix = "#"

	// maxLine bounds a single trace line.
	maxLine = 64 * 1024
)

// OpKind identifies a trace operation.
type OpKind byte

const (
	OpAlloc   OpKind = 'a'
	OpRealloc OpKind = 'r'
	OpFree    OpKind = 'f'
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpRealloc:
		return "realloc"
	case OpFree:
		return "free"
	default:
		return fmt.Sprintf("OpKind(%q)", byte(k))
	}
}

// Op is one trace operation.
type Op struct {
	Kind OpKind
	ID   int
	Size int // Unused for OpFree
	Line int // 1-based source line
}

// Trace is a parsed trace file.
type Trace struct {
	SuggestedHeap int // Header field 1 (0 if absent)
	NumIDs        int // Header field 2 (0 if absent)
	NumOps        int // Header field 3 (0 if absent)
	Weight        int // Header field 4 (0 if absent)

	Ops []Op
}

// Parse reads a trace. The header counts, when present, are checked against
// the operations that follow.
func Parse(r io.Reader) (*Trace, error) {
	// BOMOverride switches to UTF-16 when the input starts with a UTF-16
	// byte order mark and strips a UTF-8 one.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	scanner.Buffer(make([]byte, 0, 4096), maxLine)

	tr := &Trace{}
	header := []*int{&tr.SuggestedHeap, &tr.NumIDs, &tr.NumOps, &tr.Weight}
	inHeader := true
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		if inHeader {
			if v, err := strconv.Atoi(line); err == nil {
				if len(header) == 0 {
					return nil, fmt.Errorf("%w: line %d: too many header values", ErrSyntax, lineNo)
				}
				if v < 0 {
					return nil, fmt.Errorf("%w: line %d: negative header value %d", ErrSyntax, lineNo, v)
				}
				*header[0] = v
				header = header[1:]
				continue
			}
			inHeader = false
		}

		op, err := parseOp(line, lineNo)
		if err != nil {
			return nil, err
		}
		if tr.NumIDs > 0 && op.ID >= tr.NumIDs {
			return nil, fmt.Errorf("%w: line %d: id %d out of range (header declares %d ids)", ErrSyntax, lineNo, op.ID, tr.NumIDs)
		}
		tr.Ops = append(tr.Ops, op)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}

	if tr.NumOps > 0 && tr.NumOps != len(tr.Ops) {
		return nil, fmt.Errorf("%w: header declares %d ops, found %d", ErrSyntax, tr.NumOps, len(tr.Ops))
	}
	return tr, nil
}

func parseOp(line string, lineNo int) (Op, error) {
	fields := strings.Fields(line)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("%w: line %d: unknown op %q", ErrSyntax, lineNo, fields[0])
	}

	op := Op{Kind: OpKind(fields[0][0]), Line: lineNo}
	want := 3
	switch op.Kind {
	case OpAlloc, OpRealloc:
	case OpFree:
		want = 2
	default:
		return Op{}, fmt.Errorf("%w: line %d: unknown op %q", ErrSyntax, lineNo, fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%w: line %d: %s takes %d arguments, got %d", ErrSyntax, lineNo, op.Kind, want-1, len(fields)-1)
	}

	var err error
	if op.ID, err = parseNonNegative(fields[1]); err != nil {
		return Op{}, fmt.Errorf("%w: line %d: id: %w", ErrSyntax, lineNo, err)
	}
	if want == 3 {
		if op.Size, err = parseNonNegative(fields[2]); err != nil {
			return Op{}, fmt.Errorf("%w: line %d: size: %w", ErrSyntax, lineNo, err)
		}
	}
	return op, nil
}

func parseNonNegative(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}
