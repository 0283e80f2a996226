package gpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// GL is a Device backed by an OpenGL 4.1 core context.
// gl.Init must have been called on the current thread.
type GL struct {
	vao uint32
}

// NewGL creates the OpenGL device and its shared vertex array object.
func NewGL() *GL {
	d := &GL{}
	// Core profile refuses attribute pointers without a bound VAO.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.DepthFunc(gl.LESS)
	return d
}

// Close releases the device's vertex array object.
func (d *GL) Close() {
	if d.vao != 0 {
		gl.BindVertexArray(0)
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

// NewBuffer implements Device.
func (d *GL) NewBuffer(target BufferTarget, data any) (Buffer, error) {
	var ptr unsafe.Pointer
	var size int
	switch v := data.(type) {
	case []float32:
		if len(v) > 0 {
			ptr, size = unsafe.Pointer(&v[0]), len(v)*4
		}
	case []uint32:
		if len(v) > 0 {
			ptr, size = unsafe.Pointer(&v[0]), len(v)*4
		}
	default:
		return NoBuffer, fmt.Errorf("gpu: unsupported buffer data %T", data)
	}

	glTarget := uint32(gl.ARRAY_BUFFER)
	if target == IndexBuffer {
		glTarget = gl.ELEMENT_ARRAY_BUFFER
	}

	drainErrors()
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(glTarget, id)
	gl.BufferData(glTarget, size, ptr, gl.STATIC_DRAW)
	gl.BindBuffer(glTarget, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &id)
		if code == gl.OUT_OF_MEMORY {
			return NoBuffer, fmt.Errorf("buffer of %d bytes: %w", size, ErrOutOfMemory)
		}
		return NoBuffer, fmt.Errorf("gpu: buffer upload failed: 0x%x", code)
	}
	return Buffer(id), nil
}

// DeleteBuffer implements Device.
func (d *GL) DeleteBuffer(b Buffer) {
	if b == NoBuffer {
		return
	}
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

// NewTexture implements Device.
func (d *GL) NewTexture(img *image.RGBA, srgb bool) (Texture, error) {
	w, h := int32(img.Bounds().Dx()), int32(img.Bounds().Dy())
	if w == 0 || h == 0 {
		return NoTexture, fmt.Errorf("gpu: empty texture %dx%d", w, h)
	}

	internal := int32(gl.RGBA8)
	if srgb {
		internal = gl.SRGB8_ALPHA8
	}

	drainErrors()
	var id uint32
	gl.GenTextures(1, &id)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		if code == gl.OUT_OF_MEMORY {
			return NoTexture, fmt.Errorf("texture %dx%d: %w", w, h, ErrOutOfMemory)
		}
		return NoTexture, fmt.Errorf("gpu: texture upload failed: 0x%x", code)
	}
	return Texture(id), nil
}

// SetSampler implements Device.
func (d *GL) SetSampler(tex Texture, s Sampler) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	if v, ok := glFilter(s.Mag); ok {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, v)
	}
	if v, ok := glFilter(s.Min); ok {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, v)
	}
	if v, ok := glWrap(s.WrapS); ok {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, v)
	}
	if v, ok := glWrap(s.WrapT); ok {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, v)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// DeleteTexture implements Device.
func (d *GL) DeleteTexture(tex Texture) {
	if tex == NoTexture {
		return
	}
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

// BindTexture implements Device.
func (d *GL) BindTexture(unit int, tex Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func (d *GL) CompileProgram(vertexSrc, fragmentSrc string) (Program, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return NoProgram, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return NoProgram, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return NoProgram, fmt.Errorf("link: %s", string(log[:logLen]))
	}

	return Program(program), nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log[:logLen]))
	}

	return shader, nil
}

// DeleteProgram implements Device.
func (d *GL) DeleteProgram(p Program) {
	if p != NoProgram {
		gl.DeleteProgram(uint32(p))
	}
}

// AttribLocation implements Device.
func (d *GL) AttribLocation(p Program, name string) Location {
	return Location(gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00")))
}

// UniformLocation implements Device.
func (d *GL) UniformLocation(p Program, name string) Location {
	return Location(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

// UseProgram implements Device.
func (d *GL) UseProgram(p Program) {
	gl.UseProgram(uint32(p))
}

// BindIndexBuffer implements Device.
func (d *GL) BindIndexBuffer(b Buffer) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(b))
}

// BindVertexAttrib implements Device.
func (d *GL) BindVertexAttrib(loc Location, b Buffer, size int32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.VertexAttribPointerWithOffset(uint32(loc), size, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(uint32(loc))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// DisableVertexAttrib implements Device.
func (d *GL) DisableVertexAttrib(loc Location) {
	gl.DisableVertexAttribArray(uint32(loc))
}

// UniformMatrix4 implements Device.
func (d *GL) UniformMatrix4(loc Location, m math.Mat4) {
	gl.UniformMatrix4fv(int32(loc), 1, false, m.Ptr())
}

// Uniform1f implements Device.
func (d *GL) Uniform1f(loc Location, v float32) {
	gl.Uniform1f(int32(loc), v)
}

// Uniform4f implements Device.
func (d *GL) Uniform4f(loc Location, v [4]float32) {
	gl.Uniform4f(int32(loc), v[0], v[1], v[2], v[3])
}

// Uniform1i implements Device.
func (d *GL) Uniform1i(loc Location, v int32) {
	gl.Uniform1i(int32(loc), v)
}

// SetDepthTest implements Device.
func (d *GL) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

// DrawIndexed implements Device.
func (d *GL) DrawIndexed(mode Mode, count int32) {
	gl.DrawElementsWithOffset(glMode(mode), count, gl.UNSIGNED_INT, 0)
}

// drainErrors clears stale error flags so the next GetError reflects our call.
func drainErrors() {
	for i := 0; i < 16 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}

func glMode(m Mode) uint32 {
	switch m {
	case Points:
		return gl.POINTS
	case Lines:
		return gl.LINES
	case LineLoop:
		return gl.LINE_LOOP
	case LineStrip:
		return gl.LINE_STRIP
	case TriangleStrip:
		return gl.TRIANGLE_STRIP
	case TriangleFan:
		return gl.TRIANGLE_FAN
	default:
		return gl.TRIANGLES
	}
}

func glFilter(f Filter) (int32, bool) {
	switch f {
	case FilterNearest:
		return gl.NEAREST, true
	case FilterLinear:
		return gl.LINEAR, true
	case FilterNearestMipmapNearest:
		return gl.NEAREST_MIPMAP_NEAREST, true
	case FilterLinearMipmapNearest:
		return gl.LINEAR_MIPMAP_NEAREST, true
	case FilterNearestMipmapLinear:
		return gl.NEAREST_MIPMAP_LINEAR, true
	case FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR, true
	default:
		return 0, false
	}
}

func glWrap(w Wrap) (int32, bool) {
	switch w {
	case WrapRepeat:
		return gl.REPEAT, true
	case WrapClampToEdge:
		return gl.CLAMP_TO_EDGE, true
	case WrapMirroredRepeat:
		return gl.MIRRORED_REPEAT, true
	default:
		return 0, false
	}
}
