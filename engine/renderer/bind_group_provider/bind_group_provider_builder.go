package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer sets a buffer for a specific binding index. The provider takes ownership of the buffer.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf renderer.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithTexture binds a texture at binding and its sampler at samplerBinding. The texture is not owned.
//
// Parameters:
//   - binding: the binding index for the texture
//   - samplerBinding: the binding index for the texture's sampler
//   - tex: the texture
//
// Returns:
//   - BindGroupProviderOption: a function that sets the texture for the specified bindings
func WithTexture(binding, samplerBinding int, tex renderer.Texture) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textures[binding] = textureBinding{texture: tex, samplerBinding: samplerBinding}
	}
}

// WithVertexBuffer sets the mesh batch vertex buffer. The provider takes ownership of the buffer.
//
// Parameters:
//   - buf: the vertex buffer
//
// Returns:
//   - BindGroupProviderOption: a function that sets the vertex buffer for this provider
func WithVertexBuffer(buf renderer.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.vertexBuffer = buf
	}
}

// WithIndexBuffer sets the mesh batch index buffer and its format. The provider takes ownership of the buffer.
//
// Parameters:
//   - buf: the index buffer
//   - format: the index format
//
// Returns:
//   - BindGroupProviderOption: a function that sets the index buffer for this provider
func WithIndexBuffer(buf renderer.Buffer, format wgpu.IndexFormat) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexBuffer = buf
		p.indexFormat = format
	}
}
