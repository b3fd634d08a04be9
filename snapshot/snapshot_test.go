package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoad_Manifest(t *testing.T) {
	manifest := `{
		"version": "1.0.0",
		"files": {
			"README.md":     {"content": "hello\n"},
			"data/blob.bin": {"base64": "AAEC"},
			"logs":          {"dir": true}
		}
	}`

	tree, err := Load(strings.NewReader(manifest))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	readme, err := tree.Resolve(tree.Root(), "README.md")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if string(readme.Bytes()) != "hello\n" {
		t.Errorf("README.md = %q", readme.Bytes())
	}

	blob, err := tree.Resolve(tree.Root(), "data/blob.bin")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := blob.Bytes(); len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("blob.bin = %v", got)
	}

	logs, err := tree.Resolve(tree.Root(), "logs")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !logs.IsDir() {
		t.Error("logs should be a directory")
	}
}

func TestLoad_VersionGate(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
	}{
		{"missing version", `{"files": {}}`},
		{"wrong major", `{"version": "2.0.0", "files": {}}`},
		{"unparseable", `{"version": "not-semver", "files": {}}`},
	}
	for _, tc := range cases {
		if _, err := Load(strings.NewReader(tc.manifest)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLoad_MinorVersionAccepted(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"version": "1.4.2", "files": {}}`)); err != nil {
		t.Errorf("minor version bump should load: %v", err)
	}
}

func TestLoad_InvalidEntries(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
	}{
		{"content and base64", `{"version": "1.0.0", "files": {"f": {"content": "a", "base64": "YQ=="}}}`},
		{"dir with content", `{"version": "1.0.0", "files": {"d": {"dir": true, "content": "x"}}}`},
		{"bad base64", `{"version": "1.0.0", "files": {"f": {"base64": "!!!"}}}`},
		{"absolute path", `{"version": "1.0.0", "files": {"/abs": {"content": "x"}}}`},
		{"unknown field", `{"version": "1.0.0", "files": {}, "extra": 1}`},
		{"bad json", `{"version": "1.0.0"`},
	}
	for _, tc := range cases {
		if _, err := Load(strings.NewReader(tc.manifest)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	content := `{"version": "1.0.0", "files": {"a.txt": {"content": "hi"}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tree, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	node, err := tree.Resolve(tree.Root(), "a.txt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if string(node.Bytes()) != "hi" {
		t.Errorf("a.txt = %q", node.Bytes())
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestFromAfero(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/srv/data/sub", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := afero.WriteFile(fsys, "/srv/data/a.txt", []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := afero.WriteFile(fsys, "/srv/data/sub/b.txt", nil, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tree, err := FromAfero(fsys, "/srv/data")
	if err != nil {
		t.Fatalf("FromAfero failed: %v", err)
	}

	node, err := tree.Resolve(tree.Root(), "a.txt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if string(node.Bytes()) != "hi" {
		t.Errorf("a.txt = %q", node.Bytes())
	}

	sub, err := tree.Resolve(tree.Root(), "sub/b.txt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if sub.Size() != 0 {
		t.Errorf("sub/b.txt size = %d", sub.Size())
	}
}

func TestFromAfero_SnapshotIsDetached(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/data/f.txt", []byte("before"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tree, err := FromAfero(fsys, "/data")
	if err != nil {
		t.Fatalf("FromAfero failed: %v", err)
	}

	// Later source changes are invisible to the snapshot.
	if err := afero.WriteFile(fsys, "/data/f.txt", []byte("after"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	node, err := tree.Resolve(tree.Root(), "f.txt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if string(node.Bytes()) != "before" {
		t.Errorf("f.txt = %q, expected the snapshot content", node.Bytes())
	}
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.txt"), []byte("t"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "deep.txt"), []byte("d"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tree, err := FromDir(dir)
	if err != nil {
		t.Fatalf("FromDir failed: %v", err)
	}

	files, dirs, size := tree.Stats()
	if files != 2 || dirs != 1 || size != 2 {
		t.Errorf("stats = %d files %d dirs %d bytes", files, dirs, size)
	}

	node, err := tree.Resolve(tree.Root(), "nested/deep.txt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if string(node.Bytes()) != "d" {
		t.Errorf("deep.txt = %q", node.Bytes())
	}
}
