package filesystem

import (
	"context"
	"encoding/binary"
	"hash/fnv"

	"github.com/wippyai/wasm-runtime/wasi/preview2"
	"go.uber.org/zap"

	"github.com/wippyai/wasi-virtfs/vfs"
)

// TypesHost implements wasi:filesystem/types over a provider's virtual
// tree. Descriptors and directory streams live in the provider's handle
// table. Read streams go into the runtime's shared resource table, where
// the stock wasi:io/streams host serves them.
type TypesHost struct {
	provider  *Provider
	resources *preview2.ResourceTable
}

func NewTypesHost(provider *Provider, resources *preview2.ResourceTable) *TypesHost {
	return &TypesHost{provider: provider, resources: resources}
}

func (h *TypesHost) Namespace() string {
	return "wasi:filesystem/types@0.2.3"
}

type DescriptorType uint8

const (
	DescriptorTypeUnknown DescriptorType = iota
	DescriptorTypeBlockDevice
	DescriptorTypeCharacterDevice
	DescriptorTypeDirectory
	DescriptorTypeFifo
	DescriptorTypeSymbolicLink
	DescriptorTypeRegularFile
	DescriptorTypeSocket
)

type DescriptorStat struct {
	Type DescriptorType
	Size uint64
}

// wasi:filesystem/types open-flags bits.
const (
	openFlagCreate    = 1 << 0
	openFlagDirectory = 1 << 1
	openFlagExclusive = 1 << 2
	openFlagTruncate  = 1 << 3
)

// wasi:filesystem/types descriptor-flags bits.
const (
	descriptorFlagRead            = 1 << 0
	descriptorFlagWrite           = 1 << 1
	descriptorFlagMutateDirectory = 1 << 5
)

func nodeType(n *vfs.Node) DescriptorType {
	if n.IsDir() {
		return DescriptorTypeDirectory
	}
	return DescriptorTypeRegularFile
}

// metadataHash derives a stable identity hash from a node's canonical
// path, kind and size. Handles to the same node always hash equal.
func metadataHash(n *vfs.Node) uint64 {
	h := fnv.New64a()
	h.Write([]byte(n.Path()))
	h.Write([]byte{byte(n.Kind())})
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], n.Size())
	h.Write(size[:])
	return h.Sum64()
}

// denyMutation rejects a mutating operation against the read-only tree.
// The handle has already been validated and no path resolution or tree
// access happens for the denied request.
func (h *TypesHost) denyMutation(op string, self uint32) *Error {
	h.provider.log.Debug("rejected mutating filesystem operation",
		zap.String("op", op),
		zap.Uint32("handle", self))
	return &Error{Code: ErrorReadOnly}
}

// resolveAt resolves a relative path against a directory handle.
func (h *TypesHost) resolveAt(self uint32, path string) (*vfs.Node, *Error) {
	base, err := h.provider.handles.Node(self, HandleDirectory)
	if err != nil {
		return nil, err
	}
	node, resErr := h.provider.tree.Resolve(base, path)
	if resErr != nil {
		return nil, mapTreeError(resErr)
	}
	return node, nil
}

func (h *TypesHost) FilesystemErrorCode(_ context.Context, err *Error) ErrorCode {
	if err == nil {
		return ErrorIo
	}
	return err.Code
}

func (h *TypesHost) MethodDescriptorRead(_ context.Context, self uint32, length uint64, offset uint64) ([]byte, *Error) {
	node, err := h.provider.handles.Node(self, HandleFile)
	if err != nil {
		return nil, err
	}

	// Limit allocation size to prevent DoS
	if length > preview2.MaxAllocationSize {
		length = preview2.MaxAllocationSize
	}

	// Reads at or past end of file succeed with no data.
	return node.ReadAt(offset, length), nil
}

func (h *TypesHost) MethodDescriptorWrite(_ context.Context, self uint32, buffer []byte, offset uint64) (uint64, *Error) {
	if _, _, err := h.provider.handles.Descriptor(self); err != nil {
		return 0, err
	}
	return 0, h.denyMutation("write", self)
}

func (h *TypesHost) MethodDescriptorGetType(_ context.Context, self uint32) (DescriptorType, *Error) {
	node, _, err := h.provider.handles.Descriptor(self)
	if err != nil {
		return DescriptorTypeUnknown, err
	}
	return nodeType(node), nil
}

func (h *TypesHost) MethodDescriptorStat(_ context.Context, self uint32) (*DescriptorStat, *Error) {
	node, _, err := h.provider.handles.Descriptor(self)
	if err != nil {
		return nil, err
	}
	return &DescriptorStat{
		Type: nodeType(node),
		Size: node.Size(),
	}, nil
}

func (h *TypesHost) MethodDescriptorStatAt(_ context.Context, self uint32, _ uint32, path string) (*DescriptorStat, *Error) {
	node, err := h.resolveAt(self, path)
	if err != nil {
		return nil, err
	}
	return &DescriptorStat{
		Type: nodeType(node),
		Size: node.Size(),
	}, nil
}

func (h *TypesHost) MethodDescriptorSeek(_ context.Context, self uint32, offset int64, whence uint8) (uint64, *Error) {
	node, err := h.provider.handles.Node(self, HandleFile)
	if err != nil {
		return 0, err
	}

	var newPosition int64
	switch whence {
	case 0: // Set - absolute position
		newPosition = offset
	case 1: // Cur - relative to current position
		pos, err := h.provider.handles.Position(self)
		if err != nil {
			return 0, err
		}
		newPosition = pos + offset
	case 2: // End - relative to file end
		newPosition = int64(node.Size()) + offset
	default:
		return 0, &Error{Code: ErrorInvalid}
	}

	if newPosition < 0 {
		return 0, &Error{Code: ErrorInvalid}
	}

	if err := h.provider.handles.SetPosition(self, newPosition); err != nil {
		return 0, err
	}
	return uint64(newPosition), nil
}

func (h *TypesHost) MethodDescriptorGetFlags(_ context.Context, self uint32) (uint32, *Error) {
	if _, _, err := h.provider.handles.Descriptor(self); err != nil {
		return 0, err
	}
	return descriptorFlagRead, nil
}

func (h *TypesHost) MethodDescriptorOpenAt(_ context.Context, self uint32, _ uint32, path string, openFlags uint32, descriptorFlags uint32) (uint32, *Error) {
	base, err := h.provider.handles.Node(self, HandleDirectory)
	if err != nil {
		return 0, err
	}

	if openFlags&(openFlagCreate|openFlagExclusive|openFlagTruncate) != 0 ||
		descriptorFlags&(descriptorFlagWrite|descriptorFlagMutateDirectory) != 0 {
		return 0, h.denyMutation("open-at", self)
	}

	node, resErr := h.provider.tree.Resolve(base, path)
	if resErr != nil {
		return 0, mapTreeError(resErr)
	}

	if openFlags&openFlagDirectory != 0 && !node.IsDir() {
		return 0, &Error{Code: ErrorNotDirectory}
	}

	kind := HandleFile
	if node.IsDir() {
		kind = HandleDirectory
	}
	return h.provider.handles.Allocate(node, kind), nil
}

func (h *TypesHost) MethodDescriptorCreateDirectoryAt(_ context.Context, self uint32, path string) *Error {
	if _, err := h.provider.handles.Node(self, HandleDirectory); err != nil {
		return err
	}
	return h.denyMutation("create-directory-at", self)
}

func (h *TypesHost) MethodDescriptorReadDirectory(_ context.Context, self uint32) (uint32, *Error) {
	node, err := h.provider.handles.Node(self, HandleDirectory)
	if err != nil {
		return 0, err
	}

	// Every call starts an independent cursor over the fixed child order.
	return h.provider.handles.Allocate(node, HandleDirStream), nil
}

func (h *TypesHost) MethodDescriptorSync(_ context.Context, self uint32) *Error {
	if _, _, err := h.provider.handles.Descriptor(self); err != nil {
		return err
	}
	return nil
}

func (h *TypesHost) MethodDescriptorSyncData(_ context.Context, self uint32) *Error {
	if _, _, err := h.provider.handles.Descriptor(self); err != nil {
		return err
	}
	return nil
}

func (h *TypesHost) MethodDescriptorReadViaStream(_ context.Context, self uint32, offset uint64) (uint32, *Error) {
	node, err := h.provider.handles.Node(self, HandleFile)
	if err != nil {
		return 0, err
	}

	stream := NewFileStreamResource(node, offset)
	handle := h.resources.Add(stream)
	return handle, nil
}

func (h *TypesHost) MethodDescriptorWriteViaStream(_ context.Context, self uint32, offset uint64) (uint32, *Error) {
	if _, err := h.provider.handles.Node(self, HandleFile); err != nil {
		return 0, err
	}
	return 0, h.denyMutation("write-via-stream", self)
}

func (h *TypesHost) MethodDescriptorAppendViaStream(_ context.Context, self uint32) (uint32, *Error) {
	if _, err := h.provider.handles.Node(self, HandleFile); err != nil {
		return 0, err
	}
	return 0, h.denyMutation("append-via-stream", self)
}

func (h *TypesHost) MethodDescriptorMetadataHash(_ context.Context, self uint32) (uint64, *Error) {
	node, _, err := h.provider.handles.Descriptor(self)
	if err != nil {
		return 0, err
	}
	return metadataHash(node), nil
}

func (h *TypesHost) MethodDescriptorMetadataHashAt(_ context.Context, self uint32, _ uint32, path string) (uint64, *Error) {
	node, err := h.resolveAt(self, path)
	if err != nil {
		return 0, err
	}
	return metadataHash(node), nil
}

func (h *TypesHost) MethodDescriptorRenameAt(_ context.Context, self uint32, oldPath string, newDescriptor uint32, newPath string) *Error {
	if _, err := h.provider.handles.Node(self, HandleDirectory); err != nil {
		return err
	}
	if _, err := h.provider.handles.Node(newDescriptor, HandleDirectory); err != nil {
		return err
	}
	return h.denyMutation("rename-at", self)
}

func (h *TypesHost) MethodDescriptorUnlinkFileAt(_ context.Context, self uint32, path string) *Error {
	if _, err := h.provider.handles.Node(self, HandleDirectory); err != nil {
		return err
	}
	return h.denyMutation("unlink-file-at", self)
}

func (h *TypesHost) MethodDescriptorRemoveDirectoryAt(_ context.Context, self uint32, path string) *Error {
	if _, err := h.provider.handles.Node(self, HandleDirectory); err != nil {
		return err
	}
	return h.denyMutation("remove-directory-at", self)
}

func (h *TypesHost) MethodDescriptorSymlinkAt(_ context.Context, self uint32, oldPath string, newPath string) *Error {
	if _, err := h.provider.handles.Node(self, HandleDirectory); err != nil {
		return err
	}
	return h.denyMutation("symlink-at", self)
}

func (h *TypesHost) MethodDescriptorReadlinkAt(_ context.Context, self uint32, path string) (string, *Error) {
	if _, err := h.resolveAt(self, path); err != nil {
		return "", err
	}

	// The tree has no symbolic links, so any entry that resolves is not one.
	return "", &Error{Code: ErrorInvalid}
}

func (h *TypesHost) MethodDescriptorLinkAt(_ context.Context, self uint32, _ uint32, oldPath string, newDescriptor uint32, newPath string) *Error {
	if _, err := h.provider.handles.Node(self, HandleDirectory); err != nil {
		return err
	}
	if _, err := h.provider.handles.Node(newDescriptor, HandleDirectory); err != nil {
		return err
	}
	return h.denyMutation("link-at", self)
}

func (h *TypesHost) MethodDescriptorSetTimes(_ context.Context, self uint32, dataAccessTimestamp uint64, dataModificationTimestamp uint64) *Error {
	if _, _, err := h.provider.handles.Descriptor(self); err != nil {
		return err
	}
	return h.denyMutation("set-times", self)
}

func (h *TypesHost) MethodDescriptorSetTimesAt(_ context.Context, self uint32, _ uint32, path string, dataAccessTimestamp uint64, dataModificationTimestamp uint64) *Error {
	if _, err := h.provider.handles.Node(self, HandleDirectory); err != nil {
		return err
	}
	return h.denyMutation("set-times-at", self)
}

func (h *TypesHost) MethodDescriptorSetSize(_ context.Context, self uint32, size uint64) *Error {
	if _, _, err := h.provider.handles.Descriptor(self); err != nil {
		return err
	}
	return h.denyMutation("set-size", self)
}

func (h *TypesHost) MethodDescriptorAdvise(_ context.Context, self uint32, _ uint64, _ uint64, _ uint8) *Error {
	if _, _, err := h.provider.handles.Descriptor(self); err != nil {
		return err
	}
	return nil
}

func (h *TypesHost) ResourceDropDescriptor(_ context.Context, self uint32) {
	if err := h.provider.handles.Release(self); err != nil {
		h.provider.log.Warn("descriptor drop on invalid handle",
			zap.Uint32("handle", self))
	}
}

func (h *TypesHost) ResourceDropDirectoryEntryStream(_ context.Context, self uint32) {
	if err := h.provider.handles.Release(self); err != nil {
		h.provider.log.Warn("directory stream drop on invalid handle",
			zap.Uint32("handle", self))
	}
}

func (h *TypesHost) MethodDescriptorIsSameObject(_ context.Context, self uint32, other uint32) bool {
	selfNode, _, err := h.provider.handles.Descriptor(self)
	if err != nil {
		return false
	}
	otherNode, _, err := h.provider.handles.Descriptor(other)
	if err != nil {
		return false
	}
	return selfNode == otherNode
}

func (h *TypesHost) MethodDirectoryEntryStreamReadDirectoryEntry(_ context.Context, self uint32) (*preview2.DirectoryEntry, *Error) {
	child, err := h.provider.handles.Next(self)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, nil
	}
	return &preview2.DirectoryEntry{
		Type: uint8(nodeType(child)),
		Name: child.Name(),
	}, nil
}

func (h *TypesHost) Register() map[string]any {
	return map[string]any{
		"filesystem-error-code": h.FilesystemErrorCode,
		// Descriptor methods
		"[method]descriptor.read":                h.MethodDescriptorRead,
		"[method]descriptor.write":               h.MethodDescriptorWrite,
		"[method]descriptor.get-type":            h.MethodDescriptorGetType,
		"[method]descriptor.stat":                h.MethodDescriptorStat,
		"[method]descriptor.stat-at":             h.MethodDescriptorStatAt,
		"[method]descriptor.seek":                h.MethodDescriptorSeek,
		"[method]descriptor.get-flags":           h.MethodDescriptorGetFlags,
		"[method]descriptor.open-at":             h.MethodDescriptorOpenAt,
		"[method]descriptor.create-directory-at": h.MethodDescriptorCreateDirectoryAt,
		"[method]descriptor.read-directory":      h.MethodDescriptorReadDirectory,
		"[method]descriptor.sync":                h.MethodDescriptorSync,
		"[method]descriptor.sync-data":           h.MethodDescriptorSyncData,
		"[method]descriptor.read-via-stream":     h.MethodDescriptorReadViaStream,
		"[method]descriptor.write-via-stream":    h.MethodDescriptorWriteViaStream,
		"[method]descriptor.append-via-stream":   h.MethodDescriptorAppendViaStream,
		"[method]descriptor.metadata-hash":       h.MethodDescriptorMetadataHash,
		"[method]descriptor.metadata-hash-at":    h.MethodDescriptorMetadataHashAt,
		"[method]descriptor.rename-at":           h.MethodDescriptorRenameAt,
		"[method]descriptor.unlink-file-at":      h.MethodDescriptorUnlinkFileAt,
		"[method]descriptor.remove-directory-at": h.MethodDescriptorRemoveDirectoryAt,
		"[method]descriptor.symlink-at":          h.MethodDescriptorSymlinkAt,
		"[method]descriptor.readlink-at":         h.MethodDescriptorReadlinkAt,
		"[method]descriptor.link-at":             h.MethodDescriptorLinkAt,
		"[method]descriptor.set-times":           h.MethodDescriptorSetTimes,
		"[method]descriptor.set-times-at":        h.MethodDescriptorSetTimesAt,
		"[method]descriptor.set-size":            h.MethodDescriptorSetSize,
		"[method]descriptor.advise":              h.MethodDescriptorAdvise,
		"[method]descriptor.is-same-object":      h.MethodDescriptorIsSameObject,
		// Directory entry stream methods
		"[method]directory-entry-stream.read-directory-entry": h.MethodDirectoryEntryStreamReadDirectoryEntry,
		// Resource drops
		"[resource-drop]descriptor":             h.ResourceDropDescriptor,
		"[resource-drop]directory-entry-stream": h.ResourceDropDirectoryEntryStream,
	}
}
