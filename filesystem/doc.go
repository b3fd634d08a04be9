// Package filesystem serves an immutable vfs.Tree as a read-only WASI
// filesystem.
//
// Implements:
//   - wasi:filesystem/types@0.2.3 - Descriptor and directory stream operations
//   - wasi:filesystem/preopens@0.2.3 - A single preopened root directory
//
// Every mutating operation fails with the read-only error code before any
// path resolution happens, so the tree observed by a guest never changes.
// Handles carry a generation counter, which keeps released ids invalid
// even after their table slot is reused.
package filesystem
