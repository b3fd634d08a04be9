package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/coreos/go-semver/semver"
	"github.com/wippyai/wasm-runtime/errors"

	"github.com/wippyai/wasi-virtfs/vfs"
)

// SchemaMajor is the manifest schema major version this loader accepts.
const SchemaMajor = 1

// Manifest is the JSON description of a virtual tree.
//
//	{
//	  "version": "1.0.0",
//	  "files": {
//	    "README.md":     {"content": "hello\n"},
//	    "data/blob.bin": {"base64": "AAEC"},
//	    "logs":          {"dir": true}
//	  }
//	}
type Manifest struct {
	Version string           `json:"version"`
	Files   map[string]Entry `json:"files"`
}

// Entry describes one manifest path. Content and Base64 are mutually
// exclusive, and directory entries carry neither.
type Entry struct {
	Content string `json:"content,omitempty"`
	Base64  string `json:"base64,omitempty"`
	Dir     bool   `json:"dir,omitempty"`
}

// Load reads a JSON manifest and builds the tree it describes.
func Load(r io.Reader) (*vfs.Tree, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errors.ParseFailed("snapshot manifest", err)
	}
	return m.Tree()
}

// LoadFile reads a JSON manifest from disk and builds its tree.
func LoadFile(path string) (*vfs.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open snapshot manifest", err)
	}
	defer f.Close()
	return Load(f)
}

// Tree validates the manifest and builds the described tree.
func (m *Manifest) Tree() (*vfs.Tree, error) {
	if m.Version == "" {
		return nil, errors.InvalidData(errors.PhaseValidate, []string{"version"},
			"manifest version is required")
	}
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindInvalidData, err,
			"manifest version")
	}
	if v.Major != SchemaMajor {
		return nil, errors.InvalidData(errors.PhaseValidate, []string{"version"},
			fmt.Sprintf("unsupported manifest schema %s, want major %d", m.Version, SchemaMajor))
	}

	files := make(vfs.Map, len(m.Files))
	for path, entry := range m.Files {
		mf, err := entry.mapFile(path)
		if err != nil {
			return nil, err
		}
		files[path] = mf
	}

	tree, treeErr := vfs.New(files)
	if treeErr != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindInvalidData, treeErr,
			"snapshot manifest files")
	}
	return tree, nil
}

func (e Entry) mapFile(path string) (*vfs.MapFile, error) {
	switch {
	case e.Dir:
		if e.Content != "" || e.Base64 != "" {
			return nil, errors.InvalidData(errors.PhaseValidate, []string{"files", path},
				"directory entry cannot carry content")
		}
		return &vfs.MapFile{Dir: true}, nil
	case e.Content != "" && e.Base64 != "":
		return nil, errors.InvalidData(errors.PhaseValidate, []string{"files", path},
			"content and base64 are mutually exclusive")
	case e.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(e.Base64)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseValidate, errors.KindInvalidData, err,
				"base64 content for "+path)
		}
		return &vfs.MapFile{Data: data}, nil
	default:
		return &vfs.MapFile{Data: []byte(e.Content)}, nil
	}
}
