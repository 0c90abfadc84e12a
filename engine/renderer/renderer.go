package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dustin/go-humanize"
)

//go:embed assets/gallery.wgsl
var galleryShaderSource string

// ShaderSource returns the complete WGSL program the renderer compiles:
// the shared camera uniform definition followed by the gallery shader.
func ShaderSource() string {
	return camera.GPUCameraUniformSource + "\n" + galleryShaderSource
}

// ErrReleased is returned by Render after Release.
var ErrReleased = errors.New("renderer: released")

// itemResources are the GPU objects owned by one gallery object.
type itemResources struct {
	uniform   *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	source    *common.TextureStagingData // the staged pixels the texture was uploaded from
}

func (i *itemResources) release() {
	if i.bindGroup != nil {
		i.bindGroup.Release()
	}
	if i.view != nil {
		i.view.Release()
	}
	if i.texture != nil {
		i.texture.Release()
	}
	if i.uniform != nil {
		i.uniform.Release()
	}
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend *wgpuBackend

	// Pre-creation config collected from builder options
	presentMode          PresentMode
	sampleCount          MSAASampleCount
	forceFallbackAdapter bool
	clear                [3]uint8
	highlightStrength    float32

	mesh        Mesh
	vertexBuf   *wgpu.Buffer
	indexBuf    *wgpu.Buffer
	cameraBuf   *wgpu.Buffer
	cameraGroup *wgpu.BindGroup
	itemLayout  *wgpu.BindGroupLayout
	sampler     *wgpu.Sampler

	placeholderTex  *wgpu.Texture
	placeholderView *wgpu.TextureView

	opaque    *wgpu.RenderPipeline
	highlight *wgpu.RenderPipeline

	items      map[int]*itemResources
	generation uint64
	uploaded   uint64
	released   bool
}

// Renderer draws scene frames to a window surface with WebGPU.
//
// Every gallery object shares one mesh. Per-object state (model matrix, highlight, artwork texture)
// lives in a uniform buffer and bind group that the renderer creates the first time an index is seen
// and keeps until the frame generation changes.
type Renderer interface {
	// Render draws one frame and presents it.
	//
	// Parameters:
	//   - frame: the draw list; nil draws only the clear colour
	//
	// Returns:
	//   - error: error if the surface could not be acquired or the renderer was released
	Render(frame *scene.Frame) error

	// Resize configures the underlying surface for a new size.
	// Sizes with a zero dimension (a minimized window) are ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Release frees every GPU resource. Render returns ErrReleased afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a WebGPU renderer for the given surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface from the window
//   - width, height: the initial surface size in pixels
//   - options: functional options for present mode, MSAA, clear colour and highlight strength
//
// Returns:
//   - Renderer: the renderer
//   - error: error if the device, surface or pipelines could not be created
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:                &sync.Mutex{},
		presentMode:       PresentModeVSync,
		sampleCount:       MSAA4x,
		clear:             [3]uint8{0xf7, 0xf7, 0xf5},
		highlightStrength: 0.32,
		mesh:              NewFrameMesh(),
		items:             make(map[int]*itemResources),
	}
	for _, opt := range options {
		opt(r)
	}

	clear := wgpu.Color{
		R: SRGBToLinear(r.clear[0]),
		G: SRGBToLinear(r.clear[1]),
		B: SRGBToLinear(r.clear[2]),
		A: 1,
	}
	backend, err := newWGPUBackend(surfaceDescriptor, r.forceFallbackAdapter, r.sampleCount, r.presentMode.wgpu(), clear)
	if err != nil {
		return nil, err
	}
	r.backend = backend

	if err := backend.configureSurface(width, height); err != nil {
		backend.release()
		return nil, err
	}
	if err := r.initResources(); err != nil {
		r.Release()
		return nil, err
	}
	log.Printf("[Renderer] ready: %dx%d, msaa %dx, %d mesh vertices", width, height, r.sampleCount, len(r.mesh.Vertices))
	return r, nil
}

// initResources creates the shared mesh buffers, camera binding, sampler, placeholder texture and pipelines.
func (r *renderer) initResources() error {
	b := r.backend
	var err error

	if r.vertexBuf, err = b.createBuffer("Frame Vertices", uint64(len(r.mesh.Vertices)*vertexStride), wgpu.BufferUsageVertex, r.mesh.VertexBytes()); err != nil {
		return fmt.Errorf("renderer: vertex buffer: %w", err)
	}
	if r.indexBuf, err = b.createBuffer("Frame Indices", uint64(len(r.mesh.Indices)*4), wgpu.BufferUsageIndex, r.mesh.IndexBytes()); err != nil {
		return fmt.Errorf("renderer: index buffer: %w", err)
	}

	var cam camera.GPUCameraUniform
	if r.cameraBuf, err = b.createBuffer("Camera Uniform", uint64(cam.Size()), wgpu.BufferUsageUniform, nil); err != nil {
		return fmt.Errorf("renderer: camera buffer: %w", err)
	}

	if r.sampler, err = b.createSampler(); err != nil {
		return fmt.Errorf("renderer: sampler: %w", err)
	}
	white := common.TextureStagingData{Pixels: []byte{0xff, 0xff, 0xff, 0xff}, Width: 1, Height: 1}
	if r.placeholderTex, r.placeholderView, err = b.createTexture("Placeholder Texture", white); err != nil {
		return fmt.Errorf("renderer: placeholder texture: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cameraLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		}},
	})
	if err != nil {
		return fmt.Errorf("renderer: camera layout: %w", err)
	}
	defer cameraLayout.Release()

	item := GPUItemUniform{}
	r.itemLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Item Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: uint64(item.Size())},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: item layout: %w", err)
	}

	r.cameraGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Camera Bind Group",
		Layout:  cameraLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: r.cameraBuf, Size: wgpu.WholeSize}},
	})
	if err != nil {
		return fmt.Errorf("renderer: camera bind group: %w", err)
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Gallery Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: ShaderSource()},
	})
	if err != nil {
		return fmt.Errorf("renderer: shader: %w", err)
	}
	defer module.Release()

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Gallery Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{cameraLayout, r.itemLayout},
	})
	if err != nil {
		return fmt.Errorf("renderer: pipeline layout: %w", err)
	}
	defer layout.Release()

	if r.opaque, err = b.createPipeline("Gallery Opaque Pipeline", module, layout, false); err != nil {
		return fmt.Errorf("renderer: opaque pipeline: %w", err)
	}
	if r.highlight, err = b.createPipeline("Gallery Highlight Pipeline", module, layout, true); err != nil {
		return fmt.Errorf("renderer: highlight pipeline: %w", err)
	}
	return nil
}

// resourcesFor returns the GPU objects for one frame item, creating them or uploading a newly
// loaded texture as needed. Caller must hold the mutex.
func (r *renderer) resourcesFor(item scene.FrameItem) (*itemResources, error) {
	res, ok := r.items[item.Index]
	if !ok {
		var u GPUItemUniform
		buf, err := r.backend.createBuffer(fmt.Sprintf("Item %d Uniform", item.Index), uint64(u.Size()), wgpu.BufferUsageUniform, nil)
		if err != nil {
			return nil, err
		}
		res = &itemResources{uniform: buf}
		r.items[item.Index] = res
	}

	if res.bindGroup != nil && res.source == item.Texture {
		return res, nil
	}

	view := r.placeholderView
	if item.Texture.Valid() {
		tex, tv, err := r.backend.createTexture(fmt.Sprintf("Item %d Artwork", item.Index), *item.Texture)
		if err != nil {
			return nil, err
		}
		if res.view != nil {
			res.view.Release()
			res.texture.Release()
		}
		res.texture, res.view = tex, tv
		view = tv
		r.uploaded += uint64(len(item.Texture.Pixels))
	}
	res.source = item.Texture

	r.backend.mu.Lock()
	bg, err := r.backend.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  fmt.Sprintf("Item %d Bind Group", item.Index),
		Layout: r.itemLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: res.uniform, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: view},
			{Binding: 2, Sampler: r.sampler},
		},
	})
	r.backend.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if res.bindGroup != nil {
		res.bindGroup.Release()
	}
	res.bindGroup = bg
	return res, nil
}

// resetItems drops every per-item resource. Caller must hold the mutex.
func (r *renderer) resetItems() {
	for idx, res := range r.items {
		res.release()
		delete(r.items, idx)
	}
}

func (r *renderer) Render(frame *scene.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}

	if frame != nil && frame.Generation != r.generation {
		r.resetItems()
		r.generation = frame.Generation
		log.Printf("[Renderer] generation %d: per-item resources reset (%s uploaded so far)", frame.Generation, humanize.Bytes(r.uploaded))
	}

	type draw struct {
		res       *itemResources
		highlight bool
	}
	var draws []draw
	if frame != nil {
		r.backend.writeBuffer(r.cameraBuf, frame.Camera.Marshal())
		draws = make([]draw, 0, len(frame.Items))
		for _, item := range frame.Items {
			res, err := r.resourcesFor(item)
			if err != nil {
				return fmt.Errorf("renderer: item %d: %w", item.Index, err)
			}
			u := NewGPUItemUniform(item, r.highlightStrength)
			r.backend.writeBuffer(res.uniform, u.Marshal())
			draws = append(draws, draw{res: res, highlight: item.Highlight > 0.001})
		}
	}

	pass, err := r.backend.beginFrame()
	if err != nil {
		return err
	}

	if len(draws) > 0 {
		pass.SetVertexBuffer(0, r.vertexBuf, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(r.indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.SetBindGroup(0, r.cameraGroup, nil)

		pass.SetPipeline(r.opaque)
		for _, d := range draws {
			pass.SetBindGroup(1, d.res.bindGroup, nil)
			pass.DrawIndexed(r.mesh.HighlightStart, 1, 0, 0, 0)
		}

		// Highlights blend over the finished opaque pass.
		highlightCount := uint32(len(r.mesh.Indices)) - r.mesh.HighlightStart
		pass.SetPipeline(r.highlight)
		for _, d := range draws {
			if !d.highlight {
				continue
			}
			pass.SetBindGroup(1, d.res.bindGroup, nil)
			pass.DrawIndexed(highlightCount, 1, r.mesh.HighlightStart, 0, 0)
		}
	}

	return r.backend.endFrame()
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || width <= 0 || height <= 0 {
		return
	}
	if err := r.backend.configureSurface(width, height); err != nil {
		log.Printf("[Renderer] resize to %dx%d failed: %v", width, height, err)
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	r.resetItems()

	for _, p := range []*wgpu.RenderPipeline{r.opaque, r.highlight} {
		if p != nil {
			p.Release()
		}
	}
	if r.cameraGroup != nil {
		r.cameraGroup.Release()
	}
	if r.itemLayout != nil {
		r.itemLayout.Release()
	}
	if r.placeholderView != nil {
		r.placeholderView.Release()
		r.placeholderTex.Release()
	}
	if r.sampler != nil {
		r.sampler.Release()
	}
	for _, buf := range []*wgpu.Buffer{r.vertexBuf, r.indexBuf, r.cameraBuf} {
		if buf != nil {
			buf.Release()
		}
	}
	r.backend.release()
}
