package snapshot

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/wippyai/wasm-runtime/errors"

	"github.com/wippyai/wasi-virtfs/vfs"
)

// FromAfero snapshots a directory of an afero filesystem into a tree.
// Regular files and directories are captured, anything else is skipped.
func FromAfero(fsys afero.Fs, root string) (*vfs.Tree, error) {
	files := vfs.Map{}
	walkErr := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		key := filepath.ToSlash(rel)
		if info.IsDir() {
			files[key] = &vfs.MapFile{Dir: true}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		data, readErr := afero.ReadFile(fsys, path)
		if readErr != nil {
			return readErr
		}
		files[key] = &vfs.MapFile{Data: data}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Load("snapshot directory walk", walkErr)
	}

	tree, err := vfs.New(files)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindInvalidData, err,
			"snapshot directory")
	}
	return tree, nil
}

// FromDir snapshots a real directory once at startup. The guest never
// touches the disk afterwards.
func FromDir(dir string) (*vfs.Tree, error) {
	return FromAfero(afero.NewOsFs(), dir)
}
