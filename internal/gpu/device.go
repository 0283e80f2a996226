// Package gpu defines the boundary between the rendering core and the graphics API.
//
// All binding state behind a Device is global to the context. Callers that
// bind something restore the neutral state (handle 0) before returning.
package gpu

import (
	"errors"
	"image"

	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// ErrOutOfMemory is returned when the driver cannot allocate a buffer or texture.
var ErrOutOfMemory = errors.New("gpu: out of memory")

// Buffer is a buffer object handle. NoBuffer means "not present".
type Buffer uint32

// Texture is a texture object handle. NoTexture means "not present".
type Texture uint32

// Program is a linked shader program handle. NoProgram means "none".
type Program uint32

// Location is an attribute or uniform location. NotFound marks an inactive name.
type Location int32

const (
	NoBuffer  Buffer   = 0
	NoTexture Texture  = 0
	NoProgram Program  = 0
	NotFound  Location = -1
)

// Found reports whether the location resolved.
func (l Location) Found() bool { return l >= 0 }

// BufferTarget selects what a buffer holds.
type BufferTarget int

const (
	VertexBuffer BufferTarget = iota
	IndexBuffer
)

// Mode is the primitive topology used by DrawIndexed.
type Mode int

const (
	Triangles Mode = iota
	Points
	Lines
	LineLoop
	LineStrip
	TriangleStrip
	TriangleFan
)

// Filter is a texture filter. FilterDefault leaves the API default in place.
type Filter int

const (
	FilterDefault Filter = iota
	FilterNearest
	FilterLinear
	FilterNearestMipmapNearest
	FilterLinearMipmapNearest
	FilterNearestMipmapLinear
	FilterLinearMipmapLinear
)

// Wrap is a texture coordinate wrap mode. WrapDefault leaves the API default in place.
type Wrap int

const (
	WrapDefault Wrap = iota
	WrapRepeat
	WrapClampToEdge
	WrapMirroredRepeat
)

// Sampler holds the filter and wrap parameters of a texture.
type Sampler struct {
	Mag   Filter
	Min   Filter
	WrapS Wrap
	WrapT Wrap
}

// Device is the stateful graphics service used by the loader and renderer.
type Device interface {
	// NewBuffer uploads data once as a static buffer. data is []float32 or []uint32.
	NewBuffer(target BufferTarget, data any) (Buffer, error)
	DeleteBuffer(b Buffer)

	// NewTexture uploads img as a 2D texture with mipmaps. srgb selects the colour space.
	NewTexture(img *image.RGBA, srgb bool) (Texture, error)
	SetSampler(tex Texture, s Sampler)
	DeleteTexture(tex Texture)
	BindTexture(unit int, tex Texture)

	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	DeleteProgram(p Program)
	AttribLocation(p Program, name string) Location
	UniformLocation(p Program, name string) Location
	UseProgram(p Program)

	BindIndexBuffer(b Buffer)
	// BindVertexAttrib points attribute loc at b with size float components per vertex.
	BindVertexAttrib(loc Location, b Buffer, size int32)
	DisableVertexAttrib(loc Location)

	UniformMatrix4(loc Location, m math.Mat4)
	Uniform1f(loc Location, v float32)
	Uniform4f(loc Location, v [4]float32)
	Uniform1i(loc Location, v int32)

	SetDepthTest(enabled bool)
	DrawIndexed(mode Mode, count int32)
}
