package vfs

import "strings"

// Kind identifies what a node holds.
type Kind uint8

const (
	KindFile Kind = iota
	KindDirectory
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Node is a single entry in an immutable virtual tree. A node is either a
// file carrying a byte payload or a directory carrying a name-sorted list
// of children. Nodes are created by the tree constructors and never change
// afterwards, so they are safe to share across readers.
type Node struct {
	name     string
	kind     Kind
	parent   *Node
	content  []byte
	children []*Node
	index    map[string]*Node
}

// Name returns the entry name within the parent directory. The root
// directory has an empty name.
func (n *Node) Name() string { return n.name }

// Kind reports whether the node is a file or a directory.
func (n *Node) Kind() Kind { return n.kind }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.kind == KindDirectory }

// Parent returns the containing directory, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Size returns the content length for files. Directories always report
// size zero.
func (n *Node) Size() uint64 {
	if n.kind == KindDirectory {
		return 0
	}
	return uint64(len(n.content))
}

// Bytes returns the file content. The returned slice is shared with the
// node and must not be modified. Directories return nil.
func (n *Node) Bytes() []byte { return n.content }

// Children returns the directory entries in byte-wise name order. The
// returned slice is shared with the node and must not be modified. Files
// return nil.
func (n *Node) Children() []*Node { return n.children }

// Lookup finds a direct child by name.
func (n *Node) Lookup(name string) (*Node, bool) {
	child, ok := n.index[name]
	return child, ok
}

// ReadAt returns up to length bytes of file content starting at offset.
// Reads at or past the end of the content return an empty slice, never an
// error. The returned slice is shared with the node and must not be
// modified.
func (n *Node) ReadAt(offset, length uint64) []byte {
	size := uint64(len(n.content))
	if offset >= size {
		return nil
	}
	end := offset + length
	if end > size || end < offset {
		end = size
	}
	return n.content[offset:end]
}

// Path returns the canonical slash-separated path of the node, starting
// with "/". The root directory's path is "/".
func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}
	var parts []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		parts = append(parts, cur.name)
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String()
}

func newDir(name string, parent *Node) *Node {
	return &Node{
		name:   name,
		kind:   KindDirectory,
		parent: parent,
		index:  make(map[string]*Node),
	}
}

func newFile(name string, parent *Node, data []byte) *Node {
	return &Node{
		name:    name,
		kind:    KindFile,
		parent:  parent,
		content: data,
	}
}

func attach(dir, child *Node) {
	dir.children = append(dir.children, child)
	dir.index[child.name] = child
}
