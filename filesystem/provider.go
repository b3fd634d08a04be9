package filesystem

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasi-virtfs/vfs"
)

// DefaultPreopen is the guest-visible path of the provider's single
// preopened directory.
const DefaultPreopen = "/"

// Provider serves a single immutable tree as a read-only WASI filesystem.
// It owns the handle table shared by the types and preopens hosts. One
// provider backs one guest instance at a time.
type Provider struct {
	tree    *vfs.Tree
	handles *Table
	log     *zap.Logger
	preopen string
}

// NewProvider creates a provider over a tree. The guest sees the tree root
// as a single preopened directory at DefaultPreopen.
func NewProvider(tree *vfs.Tree) *Provider {
	return &Provider{
		tree:    tree,
		handles: NewTable(),
		log:     zap.NewNop(),
		preopen: DefaultPreopen,
	}
}

// WithLogger sets the logger used for policy denials and drop failures.
func (p *Provider) WithLogger(log *zap.Logger) *Provider {
	if log != nil {
		p.log = log
	}
	return p
}

// WithPreopen sets the guest-visible path of the preopened root directory.
func (p *Provider) WithPreopen(path string) *Provider {
	if path != "" {
		p.preopen = path
	}
	return p
}

// Tree returns the tree the provider serves.
func (p *Provider) Tree() *vfs.Tree { return p.tree }

// Handles returns the provider's handle table.
func (p *Provider) Handles() *Table { return p.handles }

// Preopen returns the guest-visible path of the preopened root.
func (p *Provider) Preopen() string { return p.preopen }

// Close releases every live handle. The tree itself is untouched and can
// back a new provider.
func (p *Provider) Close() {
	p.handles.Clear()
}
