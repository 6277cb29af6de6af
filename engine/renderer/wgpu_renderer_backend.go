package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuBuffer is the WebGPU implementation of the Buffer interface.
type wgpuBuffer struct {
	label  string
	size   uint64
	buffer *wgpu.Buffer
}

var _ Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) Label() string {
	return b.label
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Release() {
	if b.buffer == nil {
		return
	}
	b.buffer.Release()
	b.buffer = nil
}

// wgpuTexture is the WebGPU implementation of the Texture interface.
type wgpuTexture struct {
	width, height uint32
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	sampler       *wgpu.Sampler
}

var _ Texture = &wgpuTexture{}

func (t *wgpuTexture) Width() uint32 {
	return t.width
}

func (t *wgpuTexture) Height() uint32 {
	return t.height
}

func (t *wgpuTexture) Release() {
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// wgpuBindGroup is the WebGPU implementation of the BindGroup interface.
type wgpuBindGroup struct {
	bindGroup *wgpu.BindGroup
}

var _ BindGroup = &wgpuBindGroup{}

func (g *wgpuBindGroup) Release() {
	if g.bindGroup == nil {
		return
	}
	g.bindGroup.Release()
	g.bindGroup = nil
}

// wgpuPipeline is the WebGPU implementation of the Pipeline interface.
type wgpuPipeline struct {
	label    string
	pipeline *wgpu.RenderPipeline
	layouts  []*wgpu.BindGroupLayout
}

var _ Pipeline = &wgpuPipeline{}

func (p *wgpuPipeline) Label() string {
	return p.label
}

func (p *wgpuPipeline) Release() {
	for _, l := range p.layouts {
		if l != nil {
			l.Release()
		}
	}
	p.layouts = nil
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
}

// wgpuDevice is the WebGPU implementation of the Device interface.
type wgpuDevice struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	colorFormat wgpu.TextureFormat
	sampleCount MSAASampleCount

	limits   Limits
	features Features
}

var _ Device = &wgpuDevice{}

func (d *wgpuDevice) Limits() Limits {
	return d.limits
}

func (d *wgpuDevice) Features() Features {
	return d.features
}

func (d *wgpuDevice) CreateBuffer(label string, usage wgpu.BufferUsage, contents []byte) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// WebGPU requires buffer sizes and writes aligned to 4 bytes.
	size := common.AlignUp(uint64(len(contents)), 4)
	if size == 0 {
		size = 4
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	if len(contents) > 0 {
		data := contents
		if uint64(len(data)) != size {
			data = make([]byte, size)
			copy(data, contents)
		}
		d.queue.WriteBuffer(buf, 0, data)
	}
	return &wgpuBuffer{label: label, size: size, buffer: buf}, nil
}

func (d *wgpuDevice) CreateTexture(label string, width, height uint32, rgba []byte, sampler *common.SamplerStagingData) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if uint64(len(rgba)) != uint64(width)*uint64(height)*4 {
		return nil, fmt.Errorf("texture %q: %d bytes of pixel data for %dx%d", label, len(rgba), width, height)
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		rgba,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view %q: %w", label, err)
	}

	s := common.DefaultSampler()
	if sampler != nil {
		s = sampler
	}
	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, fmt.Errorf("failed to create sampler %q: %w", label, err)
	}

	return &wgpuTexture{width: width, height: height, texture: tex, view: view, sampler: samp}, nil
}

func (d *wgpuDevice) CreatePipeline(desc PipelineDescriptor) (Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %q: %w", desc.Label, err)
	}
	defer module.Release()

	out := &wgpuPipeline{label: desc.Label}
	for g, entries := range desc.BindGroups {
		layout, layoutErr := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s Group %d", desc.Label, g),
			Entries: layoutEntries(entries),
		})
		if layoutErr != nil {
			out.Release()
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		out.layouts = append(out.layouts, layout)
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: out.layouts,
	})
	if err != nil {
		out.Release()
		return nil, err
	}
	defer pipelineLayout.Release()

	target := wgpu.ColorTargetState{
		Format:    d.colorFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if desc.Blend {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    []wgpu.VertexBufferLayout{desc.VertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         desc.Topology,
			StripIndexFormat: desc.StripIndexFormat,
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         desc.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(d.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		out.Release()
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", desc.Label, err)
	}
	out.pipeline = created
	return out, nil
}

// layoutEntries converts binding layouts into WebGPU bind group layout entries.
func layoutEntries(entries []BindingLayout) []wgpu.BindGroupLayoutEntry {
	out := make([]wgpu.BindGroupLayoutEntry, len(entries))
	for i, e := range entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: e.Visibility,
		}
		switch e.Kind {
		case BindingUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case BindingStorage:
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		case BindingTexture:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case BindingSampler:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		out[i] = entry
	}
	return out
}

func (d *wgpuDevice) CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := desc.Pipeline.(*wgpuPipeline)
	if !ok || p.pipeline == nil {
		return nil, errors.New("bind group requires a live pipeline created by this device")
	}
	if int(desc.Group) >= len(p.layouts) {
		return nil, fmt.Errorf("pipeline %q has no bind group %d", p.label, desc.Group)
	}

	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		switch {
		case e.Buffer != nil:
			buf, ok := e.Buffer.(*wgpuBuffer)
			if !ok || buf.buffer == nil {
				return nil, fmt.Errorf("binding %d: buffer is not live", e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: e.Binding,
				Buffer:  buf.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		case e.Texture != nil:
			tex, ok := e.Texture.(*wgpuTexture)
			if !ok || tex.view == nil {
				return nil, fmt.Errorf("binding %d: texture is not live", e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: e.Binding, TextureView: tex.view}
		case e.Sampler != nil:
			tex, ok := e.Sampler.(*wgpuTexture)
			if !ok || tex.sampler == nil {
				return nil, fmt.Errorf("binding %d: sampler is not live", e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: e.Binding, Sampler: tex.sampler}
		default:
			return nil, fmt.Errorf("binding %d has no resource", e.Binding)
		}
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  p.layouts[desc.Group],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{bindGroup: bg}, nil
}

// wgpuRenderPass is the WebGPU implementation of the RenderPass interface.
type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

var _ RenderPass = &wgpuRenderPass{}

func (p *wgpuRenderPass) SetPipeline(pl Pipeline) {
	p.pass.SetPipeline(pl.(*wgpuPipeline).pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(group uint32, bg BindGroup) {
	p.pass.SetBindGroup(group, bg.(*wgpuBindGroup).bindGroup, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buffer, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(buf Buffer, format wgpu.IndexFormat) {
	p.pass.SetIndexBuffer(buf.(*wgpuBuffer).buffer, format, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *wgpuRenderPass) DrawIndirect(buf Buffer, offset uint64) {
	p.pass.DrawIndirect(buf.(*wgpuBuffer).buffer, offset)
}

func (p *wgpuRenderPass) DrawIndexedIndirect(buf Buffer, offset uint64) {
	p.pass.DrawIndexedIndirect(buf.(*wgpuBuffer).buffer, offset)
}

// wgpuRendererBackendImpl owns the WebGPU instance, surface and per-frame encoder state.
type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpuDevice

	surfaceFormat        wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount
	clearColor  wgpu.Color

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, clearColor wgpu.Color) *wgpuRendererBackendImpl {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
		clearColor:  clearColor,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	var required []wgpu.FeatureName
	indirectFirstInstance := a.HasFeature(wgpu.FeatureNameIndirectFirstInstance)
	if indirectFirstInstance {
		required = append(required, wgpu.FeatureNameIndirectFirstInstance)
	}

	limits := wgpu.DefaultLimits()
	supported := a.GetLimits().Limits
	limits.MaxUniformBufferBindingSize = supported.MaxUniformBufferBindingSize
	limits.MaxStorageBufferBindingSize = supported.MaxStorageBufferBindingSize

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Instancing Device",
		RequiredFeatures: required,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}

	capabilities := b.surface.GetCapabilities(a)
	b.surfaceFormat = capabilities.Formats[0]

	b.device = &wgpuDevice{
		mu:          &sync.Mutex{},
		device:      d,
		queue:       d.GetQueue(),
		colorFormat: b.surfaceFormat,
		sampleCount: sampleCount,
		limits: Limits{
			MaxUniformBufferBindingSize:     limits.MaxUniformBufferBindingSize,
			MaxStorageBufferBindingSize:     limits.MaxStorageBufferBindingSize,
			MaxStorageBuffersPerShaderStage: limits.MaxStorageBuffersPerShaderStage,
		},
		features: Features{
			IndirectFirstInstance: indirectFirstInstance,
			VertexStorage:         limits.MaxStorageBuffersPerShaderStage > 0,
		},
	}
	common.Logger().Info("device created",
		"format", b.surfaceFormat,
		"msaa", uint32(sampleCount),
		"indirect_first_instance", indirectFirstInstance,
		"max_uniform_binding", limits.MaxUniformBufferBindingSize,
	)
	return b
}

func (b *wgpuRendererBackendImpl) Device() Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1
	size := wgpu.Extent3D{
		Width:              uint32(width),
		Height:             uint32(height),
		DepthOrArrayLayers: 1,
	}

	if msaaEnabled {
		msaaTexture, err := b.device.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	depthTexture, err := b.device.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				// View is the MSAA target, or nil until BeginFrame sets the swapchain view.
				View:       b.msaaTextureView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() (RenderPass, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil || b.device.device == nil {
		return nil, fmt.Errorf("begin frame: %w", common.ErrDeviceLost)
	}
	if b.frameSurface != nil {
		return nil, errors.New("previous frame surface not yet presented")
	}
	if b.renderPassDescriptor == nil {
		return nil, errors.New("surface is not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}
	encoder, err := b.device.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return &wgpuRenderPass{pass: pass}, nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		common.Logger().Error("failed to finish frame encoder", "err", err)
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.releaseFrameSurface()
		return
	}

	b.device.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrameSurface()
}

// releaseFrameSurface drops the references to the acquired swapchain image. Callers hold b.mu.
func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrameSurface()
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.device != nil && b.device.device != nil {
		b.device.device.Release()
		b.device.device = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
