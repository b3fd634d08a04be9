package filesystem

import (
	"github.com/wippyai/wasm-runtime/wasi/preview2"

	"github.com/wippyai/wasi-virtfs/vfs"
)

// FileStreamResource is a read-via-stream window over a file node. It is
// added to the runtime's shared resource table, where the stock
// wasi:io/streams host serves its reads. Reads return views of the node
// content without copying, and the stream closes once the content is
// exhausted.
type FileStreamResource struct {
	node   *vfs.Node
	offset uint64
	closed bool
}

// NewFileStreamResource opens a read stream over a file node starting at
// offset. An offset at or past the end of the file yields a stream that
// closes on its first read.
func NewFileStreamResource(node *vfs.Node, offset uint64) *FileStreamResource {
	return &FileStreamResource{node: node, offset: offset}
}

func (s *FileStreamResource) Type() preview2.ResourceType { return preview2.ResourceInputStream }
func (s *FileStreamResource) Drop()                       { s.closed = true }

// Read returns up to length bytes from the current stream position. End of
// stream follows the wasi:io input-stream contract of a closed error.
func (s *FileStreamResource) Read(length uint64) ([]byte, error) {
	if s.closed {
		return nil, &preview2.StreamError{Closed: true}
	}
	if length > preview2.MaxAllocationSize {
		length = preview2.MaxAllocationSize
	}
	if s.offset >= s.node.Size() {
		s.closed = true
		return nil, &preview2.StreamError{Closed: true}
	}
	data := s.node.ReadAt(s.offset, length)
	s.offset += uint64(len(data))
	return data, nil
}
