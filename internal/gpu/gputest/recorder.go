// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// ErrCompile is returned by CompileProgram when Recorder.FailCompile is set.
var ErrCompile = errors.New("gputest: compile failed")

// TextureInfo describes a texture created through the recorder.
type TextureInfo struct {
	Width, Height int
	SRGB          bool
	Sampler       gpu.Sampler
	SamplerSet    bool
	Pixel         [4]uint8 // first pixel
}

// AttribBinding is a vertex stream bound at draw time.
type AttribBinding struct {
	Buffer gpu.Buffer
	Size   int32
}

// Draw is a snapshot of the binding state at one DrawIndexed call.
type Draw struct {
	Mode        gpu.Mode
	Count       int32
	Program     gpu.Program
	IndexBuffer gpu.Buffer
	Attribs     map[gpu.Location]AttribBinding
	Textures    map[int]gpu.Texture
	Matrices    map[gpu.Location]math.Mat4
	Floats      map[gpu.Location]float32
	Vec4s       map[gpu.Location][4]float32
	Ints        map[gpu.Location]int32
	DepthTest   bool
}

// State is the global binding state of the device.
type State struct {
	Program     gpu.Program
	IndexBuffer gpu.Buffer
	Textures    map[int]gpu.Texture
	Attribs     map[gpu.Location]AttribBinding
	DepthTest   bool
}

// Neutral reports whether nothing is bound.
func (s State) Neutral() bool {
	if s.Program != gpu.NoProgram || s.IndexBuffer != gpu.NoBuffer || s.DepthTest {
		return false
	}
	for _, tex := range s.Textures {
		if tex != gpu.NoTexture {
			return false
		}
	}
	return len(s.Attribs) == 0
}

// Recorder is an in-memory gpu.Device that records every call.
// Uniform values set while no program is in use are reported in Errors, and
// values are dropped when the program is unbound so each draw must set its own.
type Recorder struct {
	// Attribs and Uniforms map names to locations. Names absent from the maps
	// resolve to gpu.NotFound. Nil maps use DefaultAttribs / DefaultUniforms.
	Attribs  map[string]gpu.Location
	Uniforms map[string]gpu.Location

	// FailCompile makes CompileProgram fail.
	FailCompile bool
	// FailBufferAfter makes NewBuffer fail once this many buffers exist; 0 disables.
	FailBufferAfter int
	// FailTextures makes NewTexture fail.
	FailTextures bool

	Buffers       map[gpu.Buffer]any
	BufferTargets map[gpu.Buffer]gpu.BufferTarget
	Textures      map[gpu.Texture]*TextureInfo
	Programs      map[gpu.Program]bool
	Draws         []Draw
	Errors        []string

	next    uint32
	created int

	state    State
	matrices map[gpu.Location]math.Mat4
	floats   map[gpu.Location]float32
	vec4s    map[gpu.Location][4]float32
	ints     map[gpu.Location]int32
}

// DefaultAttribs is the attribute layout of the embedded glTF shader.
var DefaultAttribs = map[string]gpu.Location{
	"vertex":        0,
	"vertex_normal": 1,
	"vertex_tex0":   2,
}

// DefaultUniforms is the uniform layout of the embedded glTF shader.
var DefaultUniforms = map[string]gpu.Location{
	"model":               0,
	"projection":          1,
	"baseColour":          2,
	"baseColour_tex":      3,
	"metallic_tex":        4,
	"metallicFactor":      5,
	"roughnessFactor":     6,
	"clearcoat":           7,
	"clearcoat_roughness": 8,
}

// New returns a recorder using the default shader layout.
func New() *Recorder {
	return &Recorder{
		Buffers:       make(map[gpu.Buffer]any),
		BufferTargets: make(map[gpu.Buffer]gpu.BufferTarget),
		Textures:      make(map[gpu.Texture]*TextureInfo),
		Programs:      make(map[gpu.Program]bool),
		state: State{
			Textures: make(map[int]gpu.Texture),
			Attribs:  make(map[gpu.Location]AttribBinding),
		},
		matrices: make(map[gpu.Location]math.Mat4),
		floats:   make(map[gpu.Location]float32),
		vec4s:    make(map[gpu.Location][4]float32),
		ints:     make(map[gpu.Location]int32),
	}
}

func (r *Recorder) id() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// State returns a copy of the current binding state.
func (r *Recorder) State() State {
	s := r.state
	s.Textures = make(map[int]gpu.Texture, len(r.state.Textures))
	for k, v := range r.state.Textures {
		s.Textures[k] = v
	}
	s.Attribs = make(map[gpu.Location]AttribBinding, len(r.state.Attribs))
	for k, v := range r.state.Attribs {
		s.Attribs[k] = v
	}
	return s
}

// Live returns the number of buffers and textures that have not been deleted.
func (r *Recorder) Live() (buffers, textures int) {
	return len(r.Buffers), len(r.Textures)
}

// NewBuffer implements gpu.Device.
func (r *Recorder) NewBuffer(target gpu.BufferTarget, data any) (gpu.Buffer, error) {
	if r.FailBufferAfter > 0 && r.created >= r.FailBufferAfter {
		return gpu.NoBuffer, fmt.Errorf("gputest: %w", gpu.ErrOutOfMemory)
	}
	switch v := data.(type) {
	case []float32:
		data = slices.Clone(v)
	case []uint32:
		data = slices.Clone(v)
	default:
		return gpu.NoBuffer, fmt.Errorf("gputest: unsupported buffer data %T", data)
	}
	r.created++
	b := gpu.Buffer(r.id())
	r.Buffers[b] = data
	r.BufferTargets[b] = target
	return b, nil
}

// DeleteBuffer implements gpu.Device.
func (r *Recorder) DeleteBuffer(b gpu.Buffer) {
	if b == gpu.NoBuffer {
		return
	}
	if _, ok := r.Buffers[b]; !ok {
		r.errorf("delete of unknown buffer %d", b)
		return
	}
	delete(r.Buffers, b)
	delete(r.BufferTargets, b)
}

// NewTexture implements gpu.Device.
func (r *Recorder) NewTexture(img *image.RGBA, srgb bool) (gpu.Texture, error) {
	if r.FailTextures {
		return gpu.NoTexture, fmt.Errorf("gputest: %w", gpu.ErrOutOfMemory)
	}
	b := img.Bounds()
	info := &TextureInfo{Width: b.Dx(), Height: b.Dy(), SRGB: srgb}
	if len(img.Pix) >= 4 {
		copy(info.Pixel[:], img.Pix[:4])
	}
	tex := gpu.Texture(r.id())
	r.Textures[tex] = info
	return tex, nil
}

// SetSampler implements gpu.Device.
func (r *Recorder) SetSampler(tex gpu.Texture, s gpu.Sampler) {
	info, ok := r.Textures[tex]
	if !ok {
		r.errorf("sampler on unknown texture %d", tex)
		return
	}
	info.Sampler = s
	info.SamplerSet = true
}

// DeleteTexture implements gpu.Device.
func (r *Recorder) DeleteTexture(tex gpu.Texture) {
	if tex == gpu.NoTexture {
		return
	}
	if _, ok := r.Textures[tex]; !ok {
		r.errorf("delete of unknown texture %d", tex)
		return
	}
	delete(r.Textures, tex)
}

// BindTexture implements gpu.Device.
func (r *Recorder) BindTexture(unit int, tex gpu.Texture) {
	if tex != gpu.NoTexture {
		if _, ok := r.Textures[tex]; !ok {
			r.errorf("bind of unknown texture %d", tex)
		}
	}
	r.state.Textures[unit] = tex
}

// CompileProgram implements gpu.Device.
func (r *Recorder) CompileProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	if r.FailCompile || vertexSrc == "" || fragmentSrc == "" {
		return gpu.NoProgram, ErrCompile
	}
	p := gpu.Program(r.id())
	r.Programs[p] = true
	return p, nil
}

// DeleteProgram implements gpu.Device.
func (r *Recorder) DeleteProgram(p gpu.Program) {
	delete(r.Programs, p)
}

// AttribLocation implements gpu.Device.
func (r *Recorder) AttribLocation(p gpu.Program, name string) gpu.Location {
	m := r.Attribs
	if m == nil {
		m = DefaultAttribs
	}
	if loc, ok := m[name]; ok {
		return loc
	}
	return gpu.NotFound
}

// UniformLocation implements gpu.Device.
func (r *Recorder) UniformLocation(p gpu.Program, name string) gpu.Location {
	m := r.Uniforms
	if m == nil {
		m = DefaultUniforms
	}
	if loc, ok := m[name]; ok {
		return loc
	}
	return gpu.NotFound
}

// UseProgram implements gpu.Device.
func (r *Recorder) UseProgram(p gpu.Program) {
	if p != gpu.NoProgram && !r.Programs[p] {
		r.errorf("use of unknown program %d", p)
	}
	r.state.Program = p
	if p == gpu.NoProgram {
		r.matrices = make(map[gpu.Location]math.Mat4)
		r.floats = make(map[gpu.Location]float32)
		r.vec4s = make(map[gpu.Location][4]float32)
		r.ints = make(map[gpu.Location]int32)
	}
}

// BindIndexBuffer implements gpu.Device.
func (r *Recorder) BindIndexBuffer(b gpu.Buffer) {
	if b != gpu.NoBuffer && r.BufferTargets[b] != gpu.IndexBuffer {
		r.errorf("buffer %d bound as index buffer", b)
	}
	r.state.IndexBuffer = b
}

// BindVertexAttrib implements gpu.Device.
func (r *Recorder) BindVertexAttrib(loc gpu.Location, b gpu.Buffer, size int32) {
	if !loc.Found() {
		r.errorf("vertex attribute bound at inactive location")
		return
	}
	if _, ok := r.Buffers[b]; !ok || r.BufferTargets[b] != gpu.VertexBuffer {
		r.errorf("buffer %d bound as vertex stream", b)
	}
	r.state.Attribs[loc] = AttribBinding{Buffer: b, Size: size}
}

// DisableVertexAttrib implements gpu.Device.
func (r *Recorder) DisableVertexAttrib(loc gpu.Location) {
	delete(r.state.Attribs, loc)
}

func (r *Recorder) checkUniform(loc gpu.Location) bool {
	if !loc.Found() {
		r.errorf("uniform set at inactive location")
		return false
	}
	if r.state.Program == gpu.NoProgram {
		r.errorf("uniform %d set without a program", loc)
		return false
	}
	return true
}

// UniformMatrix4 implements gpu.Device.
func (r *Recorder) UniformMatrix4(loc gpu.Location, m math.Mat4) {
	if r.checkUniform(loc) {
		r.matrices[loc] = m
	}
}

// Uniform1f implements gpu.Device.
func (r *Recorder) Uniform1f(loc gpu.Location, v float32) {
	if r.checkUniform(loc) {
		r.floats[loc] = v
	}
}

// Uniform4f implements gpu.Device.
func (r *Recorder) Uniform4f(loc gpu.Location, v [4]float32) {
	if r.checkUniform(loc) {
		r.vec4s[loc] = v
	}
}

// Uniform1i implements gpu.Device.
func (r *Recorder) Uniform1i(loc gpu.Location, v int32) {
	if r.checkUniform(loc) {
		r.ints[loc] = v
	}
}

// SetDepthTest implements gpu.Device.
func (r *Recorder) SetDepthTest(enabled bool) {
	r.state.DepthTest = enabled
}

// DrawIndexed implements gpu.Device.
func (r *Recorder) DrawIndexed(mode gpu.Mode, count int32) {
	if r.state.Program == gpu.NoProgram {
		r.errorf("draw without a program")
	}
	if r.state.IndexBuffer == gpu.NoBuffer {
		r.errorf("draw without an index buffer")
	}
	s := r.State()
	d := Draw{
		Mode:        mode,
		Count:       count,
		Program:     s.Program,
		IndexBuffer: s.IndexBuffer,
		Attribs:     s.Attribs,
		Textures:    s.Textures,
		DepthTest:   s.DepthTest,
		Matrices:    make(map[gpu.Location]math.Mat4, len(r.matrices)),
		Floats:      make(map[gpu.Location]float32, len(r.floats)),
		Vec4s:       make(map[gpu.Location][4]float32, len(r.vec4s)),
		Ints:        make(map[gpu.Location]int32, len(r.ints)),
	}
	for k, v := range r.matrices {
		d.Matrices[k] = v
	}
	for k, v := range r.floats {
		d.Floats[k] = v
	}
	for k, v := range r.vec4s {
		d.Vec4s[k] = v
	}
	for k, v := range r.ints {
		d.Ints[k] = v
	}
	r.Draws = append(r.Draws, d)
}

var _ gpu.Device = (*Recorder)(nil)
