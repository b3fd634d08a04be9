// Package snapshot builds vfs trees from backing descriptions.
//
// Three sources are supported:
//   - Load / LoadFile: a versioned JSON manifest listing files inline
//   - FromAfero: a one-time walk of any afero filesystem
//   - FromDir: a one-time walk of a real directory
//
// Every source produces an immutable vfs.Tree. Changes to the source after
// the snapshot are never observed by a guest.
package snapshot
