package filesystem

import (
	"sync"

	"github.com/wippyai/wasi-virtfs/vfs"
)

// HandleKind identifies what a table slot refers to.
type HandleKind uint8

const (
	// HandleFile is an open file descriptor with a read cursor.
	HandleFile HandleKind = iota
	// HandleDirectory is an open directory descriptor.
	HandleDirectory
	// HandleDirStream is a directory enumeration cursor.
	HandleDirStream
)

// String returns a human-readable kind name.
func (k HandleKind) String() string {
	switch k {
	case HandleFile:
		return "file"
	case HandleDirectory:
		return "directory"
	case HandleDirStream:
		return "directory-stream"
	default:
		return "unknown"
	}
}

const (
	handleIndexBits = 24
	handleIndexMask = (1 << handleIndexBits) - 1
	handleGenMask   = 0xFF
)

type slot struct {
	node   *vfs.Node
	kind   HandleKind
	cursor int
	pos    int64
	gen    uint32
	live   bool
}

// Table maps guest-visible handle ids onto tree nodes. Slots are reused
// after release, with a generation counter packed into the handle's top
// bits so a released id never aliases a newer allocation in the same slot.
// Handle 0 is never issued.
type Table struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{}
}

// Allocate stores a node under a fresh handle of the given kind.
func (t *Table) Allocate(node *vfs.Node, kind HandleKind) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.node = node
		s.kind = kind
		s.cursor = 0
		s.pos = 0
		s.live = true
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot{node: node, kind: kind, live: true})
	}
	return pack(idx, t.slots[idx].gen)
}

// Node returns the node behind a live handle of the expected kind. A
// handle of the wrong descriptor kind maps to is-directory or
// not-directory depending on what was expected; anything released, stale
// or unknown is a bad descriptor.
func (t *Table) Node(handle uint32, want HandleKind) (*vfs.Node, *Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(handle)
	if !ok {
		return nil, &Error{Code: ErrorBadDescriptor}
	}
	if s.kind != want {
		switch {
		case want == HandleFile && s.kind == HandleDirectory:
			return nil, &Error{Code: ErrorIsDirectory}
		case want == HandleDirectory && s.kind == HandleFile:
			return nil, &Error{Code: ErrorNotDirectory}
		default:
			return nil, &Error{Code: ErrorBadDescriptor}
		}
	}
	return s.node, nil
}

// Descriptor returns the node and kind behind a live file or directory
// handle.
func (t *Table) Descriptor(handle uint32) (*vfs.Node, HandleKind, *Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(handle)
	if !ok || s.kind == HandleDirStream {
		return nil, 0, &Error{Code: ErrorBadDescriptor}
	}
	return s.node, s.kind, nil
}

// Next advances a directory stream cursor and returns the next child, or
// (nil, nil) once the directory is exhausted. The end state is sticky.
func (t *Table) Next(handle uint32) (*vfs.Node, *Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(handle)
	if !ok || s.kind != HandleDirStream {
		return nil, &Error{Code: ErrorBadDescriptor}
	}
	children := s.node.Children()
	if s.cursor >= len(children) {
		return nil, nil
	}
	child := children[s.cursor]
	s.cursor++
	return child, nil
}

// Position returns the read cursor of a file handle.
func (t *Table) Position(handle uint32) (int64, *Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(handle)
	if !ok || s.kind != HandleFile {
		return 0, &Error{Code: ErrorBadDescriptor}
	}
	return s.pos, nil
}

// SetPosition moves the read cursor of a file handle.
func (t *Table) SetPosition(handle uint32, pos int64) *Error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(handle)
	if !ok || s.kind != HandleFile {
		return &Error{Code: ErrorBadDescriptor}
	}
	s.pos = pos
	return nil
}

// Release frees a handle. Releasing an unknown or already-released handle
// is a bad-descriptor error, never a silent no-op.
func (t *Table) Release(handle uint32) *Error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.lookup(handle)
	if !ok {
		return &Error{Code: ErrorBadDescriptor}
	}
	idx := (handle & handleIndexMask) - 1
	s.node = nil
	s.live = false
	s.gen = (s.gen + 1) & handleGenMask
	t.free = append(t.free, idx)
	return nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots) - len(t.free)
}

// Clear releases every live handle.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots = nil
	t.free = nil
}

// lookup resolves a handle to its slot. Callers hold t.mu.
func (t *Table) lookup(handle uint32) (*slot, bool) {
	raw := handle & handleIndexMask
	if raw == 0 {
		return nil, false
	}
	idx := raw - 1
	if idx >= uint32(len(t.slots)) {
		return nil, false
	}
	s := &t.slots[idx]
	if !s.live || s.gen != (handle>>handleIndexBits)&handleGenMask {
		return nil, false
	}
	return s, true
}

func pack(idx, gen uint32) uint32 {
	return (idx + 1) | (gen&handleGenMask)<<handleIndexBits
}
