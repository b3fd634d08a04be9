package filesystem

import (
	"errors"

	"github.com/wippyai/wasi-virtfs/vfs"
)

// Error is the wasi:filesystem error-code payload returned by descriptor
// operations.
type Error struct {
	Code ErrorCode
}

// ErrorCode values follow the wasi:filesystem/types error-code enum in
// declaration order.
type ErrorCode uint8

const (
	ErrorAccess ErrorCode = iota
	ErrorWouldBlock
	ErrorAlready
	ErrorBadDescriptor
	ErrorBusy
	ErrorDeadlock
	ErrorQuota
	ErrorExist
	ErrorFileTooLarge
	ErrorIllegalByteSequence
	ErrorInProgress
	ErrorInterrupted
	ErrorInvalid
	ErrorIo
	ErrorIsDirectory
	ErrorLoop
	ErrorTooManyLinks
	ErrorMessageSize
	ErrorNameTooLong
	ErrorNoDevice
	ErrorNoEntry
	ErrorNoLock
	ErrorInsufficientMemory
	ErrorInsufficientSpace
	ErrorNotDirectory
	ErrorNotEmpty
	ErrorNotRecoverable
	ErrorUnsupported
	ErrorNoTty
	ErrorNoSuchDevice
	ErrorOverflow
	ErrorNotPermitted
	ErrorPipe
	ErrorReadOnly
	ErrorInvalidSeek
	ErrorTextFileBusy
	ErrorCrossDevice
)

func (e *Error) Error() string {
	return "filesystem error"
}

// mapTreeError translates vfs resolution errors into WASI error codes.
func mapTreeError(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, vfs.ErrNotExist):
		return &Error{Code: ErrorNoEntry}
	case errors.Is(err, vfs.ErrNotDirectory):
		return &Error{Code: ErrorNotDirectory}
	case errors.Is(err, vfs.ErrInvalidPath):
		return &Error{Code: ErrorInvalid}
	default:
		return &Error{Code: ErrorIo}
	}
}
