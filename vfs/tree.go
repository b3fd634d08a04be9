package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Resolution errors returned by Tree.Resolve. The filesystem provider
// translates these into WASI error codes.
var (
	// ErrNotExist means a path names an entry that does not exist.
	ErrNotExist = errors.New("entry does not exist")
	// ErrNotDirectory means a path traverses through a file.
	ErrNotDirectory = errors.New("not a directory")
	// ErrInvalidPath means a path is absolute or steps above the root.
	ErrInvalidPath = errors.New("invalid path")
)

// MapFile describes a single entry for New. Entries with Dir set declare
// an empty directory, all others are files carrying Data. The tree retains
// Data without copying.
type MapFile struct {
	Data []byte
	Dir  bool
}

// Map describes a tree as slash-separated relative paths, in the shape of
// testing/fstest.MapFS. Intermediate directories are implied by the keys.
type Map map[string]*MapFile

// Tree is an immutable in-memory filesystem namespace with a single root
// directory. A tree is built once and is safe for concurrent readers
// afterwards.
type Tree struct {
	root *Node
}

// Root returns the root directory.
func (t *Tree) Root() *Node { return t.root }

// New builds a tree from a map description. Keys must be relative
// slash-separated paths without "." or ".." components, and a path cannot
// name both a file and a directory.
func New(files Map) (*Tree, error) {
	root := newDir("", nil)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := insert(root, name, files[name]); err != nil {
			return nil, err
		}
	}
	sortChildren(root)
	return &Tree{root: root}, nil
}

// FromFS snapshots an fs.FS into a tree. Regular files and directories are
// captured, other file types are skipped.
func FromFS(fsys fs.FS) (*Tree, error) {
	m := Map{}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		if d.IsDir() {
			m[path] = &MapFile{Dir: true}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		m[path] = &MapFile{Data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return New(m)
}

// Resolve walks a slash-separated relative path starting from a directory
// node. "." keeps the current node, ".." moves to its parent, and empty
// components are skipped. A path that is absolute or steps above the root
// returns ErrInvalidPath, a file in a non-final position returns
// ErrNotDirectory, and a missing entry returns ErrNotExist. The empty path
// returns ErrNotExist.
func (t *Tree) Resolve(start *Node, path string) (*Node, error) {
	if start == nil || !start.IsDir() {
		return nil, ErrNotDirectory
	}
	if path == "" {
		return nil, ErrNotExist
	}
	if strings.HasPrefix(path, "/") {
		return nil, ErrInvalidPath
	}
	cur := start
	for _, part := range strings.Split(path, "/") {
		if !cur.IsDir() {
			return nil, ErrNotDirectory
		}
		switch part {
		case "", ".":
			continue
		case "..":
			if cur.parent == nil {
				return nil, ErrInvalidPath
			}
			cur = cur.parent
			continue
		}
		next, ok := cur.Lookup(part)
		if !ok {
			return nil, ErrNotExist
		}
		cur = next
	}
	return cur, nil
}

// Walk visits every node below the root in depth-first, name-sorted order.
// Paths passed to fn start with "/". The root itself is not visited.
// Returning an error from fn stops the walk.
func (t *Tree) Walk(fn func(path string, n *Node) error) error {
	return walk(t.root, "", fn)
}

func walk(dir *Node, prefix string, fn func(string, *Node) error) error {
	for _, child := range dir.children {
		path := prefix + "/" + child.name
		if err := fn(path, child); err != nil {
			return err
		}
		if child.IsDir() {
			if err := walk(child, path, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats counts the files and directories below the root and the total file
// content size in bytes.
func (t *Tree) Stats() (files, dirs int, size int64) {
	t.Walk(func(_ string, n *Node) error {
		if n.IsDir() {
			dirs++
		} else {
			files++
			size += int64(len(n.content))
		}
		return nil
	})
	return files, dirs, size
}

func insert(root *Node, path string, entry *MapFile) error {
	if entry == nil {
		return fmt.Errorf("vfs: nil entry for %q", path)
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("vfs: absolute path %q", path)
	}
	parts := strings.Split(path, "/")
	cur := root
	for i, part := range parts {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("vfs: invalid component %q in path %q", part, path)
		}
		last := i == len(parts)-1
		if !last {
			next, ok := cur.index[part]
			if !ok {
				next = newDir(part, cur)
				attach(cur, next)
			} else if next.kind != KindDirectory {
				return fmt.Errorf("vfs: %q is a file but %q requires it as a directory", next.Path(), path)
			}
			cur = next
			continue
		}
		if existing, ok := cur.index[part]; ok {
			if entry.Dir && existing.kind == KindDirectory {
				return nil
			}
			return fmt.Errorf("vfs: conflicting entries for %q", path)
		}
		if entry.Dir {
			attach(cur, newDir(part, cur))
		} else {
			attach(cur, newFile(part, cur, entry.Data))
		}
	}
	return nil
}

func sortChildren(n *Node) {
	sort.Slice(n.children, func(i, j int) bool {
		return n.children[i].name < n.children[j].name
	})
	for _, child := range n.children {
		if child.kind == KindDirectory {
			sortChildren(child)
		}
	}
}
