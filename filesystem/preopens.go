package filesystem

import (
	"context"
)

// PreopensHost implements wasi:filesystem/preopens. The provider exposes
// exactly one preopened directory, the tree root.
type PreopensHost struct {
	provider *Provider
}

func NewPreopensHost(provider *Provider) *PreopensHost {
	return &PreopensHost{provider: provider}
}

func (h *PreopensHost) Namespace() string {
	return "wasi:filesystem/preopens@0.2.3"
}

func (h *PreopensHost) GetDirectories(_ context.Context) [][2]interface{} {
	handle := h.provider.handles.Allocate(h.provider.tree.Root(), HandleDirectory)
	return [][2]interface{}{
		{handle, h.provider.preopen},
	}
}
