package webglshader

import "github.com/gogpu/webglshader/wasmgen"

// moduleRef shares one compiled module between the Shader that
// produced it and every Program that linked it, so deleting a shader
// after attach does not free bytes a program still needs. Counts are
// maintained under the host's external exclusion (the core itself is
// single-threaded).
type moduleRef struct {
	cm   *wasmgen.CompiledModule
	refs int
}

func newModuleRef(cm *wasmgen.CompiledModule) *moduleRef {
	return &moduleRef{cm: cm, refs: 1}
}

// retain adds one owner and returns the ref for chaining.
func (r *moduleRef) retain() *moduleRef {
	r.refs++
	return r
}

// release drops one owner; the module is collectable once the last
// owner releases.
func (r *moduleRef) release() {
	r.refs--
	if r.refs <= 0 {
		r.cm = nil
	}
}
