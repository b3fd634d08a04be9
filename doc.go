// Package virtfs serves an immutable in-memory filesystem to WebAssembly
// components as their WASI preview2 filesystem.
//
// A guest linked against wasi:filesystem sees a single preopened root
// directory backed entirely by host memory. Nothing it does can touch the
// real disk: reads come from a snapshot taken at startup, and every
// mutating operation fails with the read-only error code before any path
// is resolved.
//
// # Architecture Overview
//
// The module extends github.com/wippyai/wasm-runtime and is organized into
// a few packages with distinct responsibilities:
//
//	virtfs/              Root package wiring the hosts into a runtime
//	├── vfs/             Immutable in-memory tree and path resolution
//	├── filesystem/      wasi:filesystem hosts and the handle table
//	├── snapshot/        Tree sources: JSON manifest, afero, os directories
//	└── cmd/vfsrun/      CLI for running components against a virtual tree
//
// # Quick Start
//
// Snapshot a directory and run a component against it:
//
//	tree, err := snapshot.FromDir("./site")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := filesystem.NewProvider(tree)
//	defer provider.Close()
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	wasi := preview2.New().WithArgs([]string{"guest"})
//	if err := virtfs.RegisterWASI(rt, wasi, provider); err != nil {
//	    log.Fatal(err)
//	}
//
//	mod, err := rt.LoadComponent(ctx, wasmBytes)
//	...
//
// # Read-Only Contract
//
// The provider rejects create, write, truncate, rename, link, symlink,
// unlink, remove, set-times and set-size requests unconditionally. The
// denial happens after handle validation and before path resolution, so a
// denied request never observes or changes tree state. Directory listings
// are deterministic: entries always arrive in byte-wise name order.
//
// # Thread Safety
//
// A provider serves one component instance at a time, matching the WASI
// context it is registered with. The handle table carries its own lock,
// and the tree itself is immutable, so sharing a tree across providers is
// safe.
package virtfs
