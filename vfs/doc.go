// Package vfs provides an immutable in-memory filesystem tree.
//
// A Tree is built once from a declarative description and never changes
// afterwards, so lookups, reads and directory listings need no locking and
// always observe the same namespace.
//
// # Building Trees
//
// Trees come from a map description or from a snapshot of an fs.FS:
//
//	tree, err := vfs.New(vfs.Map{
//	    "a.txt":     {Data: []byte("hi")},
//	    "sub/b.txt": {},
//	})
//
//	tree, err := vfs.FromFS(os.DirFS("/srv/data"))
//
// Directory children are kept in byte-wise name order, fixed at build
// time, so enumeration is deterministic across runs.
//
// # Path Resolution
//
// Tree.Resolve walks relative slash-separated paths from any directory
// node. "." stays in place, ".." moves to the parent, and stepping above
// the root or using an absolute path fails with ErrInvalidPath. There are
// no symbolic links; every entry is a plain file or directory.
package vfs
