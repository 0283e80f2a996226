// Package shader binds the glTF object shader program and its named locations.
package shader

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/shader/shaders"
	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/internal/logger"
)

// Attribute and uniform names declared by the object shader.
const (
	AttrVertex       = "vertex"
	AttrVertexNormal = "vertex_normal"
	AttrVertexTex0   = "vertex_tex0"

	UniformModel              = "model"
	UniformProjection         = "projection"
	UniformBaseColour         = "baseColour"
	UniformBaseColourTex      = "baseColour_tex"
	UniformMetallicTex        = "metallic_tex"
	UniformMetallicFactor     = "metallicFactor"
	UniformRoughnessFactor    = "roughnessFactor"
	UniformClearcoat          = "clearcoat"
	UniformClearcoatRoughness = "clearcoat_roughness"
)

// Shader is a linked object program with its resolved locations.
// Any location may be gpu.NotFound when the driver optimized the name away;
// callers skip those instead of failing.
type Shader struct {
	Program gpu.Program

	// Attributes
	Vertex       gpu.Location
	VertexNormal gpu.Location
	VertexTex0   gpu.Location

	// Vertex uniforms
	Model      gpu.Location
	Projection gpu.Location

	// Fragment uniforms
	BaseColour         gpu.Location
	BaseColourTex      gpu.Location
	MetallicTex        gpu.Location
	MetallicFactor     gpu.Location
	RoughnessFactor    gpu.Location
	Clearcoat          gpu.Location
	ClearcoatRoughness gpu.Location
}

// Load compiles and links the given sources and resolves every known name.
func Load(dev gpu.Device, vertexSrc, fragmentSrc string) (*Shader, error) {
	program, err := dev.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("object shader: %w", err)
	}
	if program == gpu.NoProgram {
		return nil, fmt.Errorf("object shader: no program")
	}

	s := &Shader{Program: program}

	attrib := func(name string) gpu.Location {
		loc := dev.AttribLocation(program, name)
		if !loc.Found() {
			logger.Debug("shader attribute inactive", zap.String("name", name))
		}
		return loc
	}
	uniform := func(name string) gpu.Location {
		loc := dev.UniformLocation(program, name)
		if !loc.Found() {
			logger.Debug("shader uniform inactive", zap.String("name", name))
		}
		return loc
	}

	s.Vertex = attrib(AttrVertex)
	s.VertexNormal = attrib(AttrVertexNormal)
	s.VertexTex0 = attrib(AttrVertexTex0)

	s.Model = uniform(UniformModel)
	s.Projection = uniform(UniformProjection)

	s.BaseColour = uniform(UniformBaseColour)
	s.BaseColourTex = uniform(UniformBaseColourTex)
	s.MetallicTex = uniform(UniformMetallicTex)
	s.MetallicFactor = uniform(UniformMetallicFactor)
	s.RoughnessFactor = uniform(UniformRoughnessFactor)
	s.Clearcoat = uniform(UniformClearcoat)
	s.ClearcoatRoughness = uniform(UniformClearcoatRoughness)

	return s, nil
}

// LoadDefault loads the embedded object shader.
func LoadDefault(dev gpu.Device) (*Shader, error) {
	return Load(dev, shaders.ObjectVertexShader, shaders.ObjectFragmentShader)
}

// LoadFiles loads shader sources from disk. An empty path falls back to the
// embedded source for that stage.
func LoadFiles(dev gpu.Device, vertexPath, fragmentPath string) (*Shader, error) {
	vertexSrc := shaders.ObjectVertexShader
	fragmentSrc := shaders.ObjectFragmentShader

	if vertexPath != "" {
		data, err := os.ReadFile(vertexPath)
		if err != nil {
			return nil, fmt.Errorf("reading vertex shader: %w", err)
		}
		vertexSrc = string(data)
	}
	if fragmentPath != "" {
		data, err := os.ReadFile(fragmentPath)
		if err != nil {
			return nil, fmt.Errorf("reading fragment shader: %w", err)
		}
		fragmentSrc = string(data)
	}

	return Load(dev, vertexSrc, fragmentSrc)
}

// Destroy deletes the program.
func (s *Shader) Destroy(dev gpu.Device) {
	if s.Program != gpu.NoProgram {
		dev.DeleteProgram(s.Program)
		s.Program = gpu.NoProgram
	}
}
