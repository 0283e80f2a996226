// Package scene draws loaded glTF objects with the object shader.
package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/model"
	"github.com/Faultbox/midgard-gltf/internal/engine/shader"
	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// Texture units used by the object shader.
const (
	unitBaseColour = 0
	unitMetallic   = 1
)

// Options configures a Renderer.
type Options struct {
	// ProjectionScale is the uniform scale used as projection until a camera exists.
	ProjectionScale float32
	// VertexShader and FragmentShader override the embedded sources when set.
	VertexShader   string
	FragmentShader string
}

// DefaultOptions returns the default renderer options.
func DefaultOptions() Options {
	return Options{ProjectionScale: 0.1}
}

// Renderer owns the object shader and the shared fallback textures.
type Renderer struct {
	dev        gpu.Device
	shader     *shader.Shader
	fallback   *texture.Fallback
	projection math.Mat4
}

// NewRenderer compiles the object shader and creates the fallback textures.
func NewRenderer(dev gpu.Device, opts Options) (*Renderer, error) {
	if opts.ProjectionScale == 0 {
		opts.ProjectionScale = DefaultOptions().ProjectionScale
	}

	r := &Renderer{
		dev:        dev,
		projection: math.UniformScale(opts.ProjectionScale),
	}

	var err error
	r.fallback, err = texture.NewFallback(dev)
	if err != nil {
		return nil, fmt.Errorf("creating fallback textures: %w", err)
	}

	r.shader, err = shader.LoadFiles(dev, opts.VertexShader, opts.FragmentShader)
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("creating object shader: %w", err)
	}

	logger.Debug("renderer initialized",
		zap.Float32("projection_scale", opts.ProjectionScale),
		zap.Uint32("program", uint32(r.shader.Program)))
	return r, nil
}

// Destroy releases the shader and fallback textures. Objects must be freed first.
func (r *Renderer) Destroy() {
	if r.shader != nil {
		r.shader.Destroy(r.dev)
		r.shader = nil
	}
	if r.fallback != nil {
		r.fallback.Release(r.dev)
		r.fallback = nil
	}
}

// Fallback returns the shared fallback textures.
func (r *Renderer) Fallback() *texture.Fallback {
	return r.fallback
}

// SetProjection replaces the projection matrix.
func (r *Renderer) SetProjection(m math.Mat4) {
	r.projection = m
}

// Load reads a glTF file and uploads it for rendering.
func (r *Renderer) Load(path string) (*model.Object, error) {
	return model.LoadFromFile(r.dev, path, r.fallback)
}

// Free releases every GPU resource owned by obj. Safe on nil and repeated calls.
func (r *Renderer) Free(obj *model.Object) {
	obj.Release(r.dev)
}

// Render draws every mesh of obj in its rest pose.
func (r *Renderer) Render(obj *model.Object) {
	r.RenderWith(obj, math.Identity())
}

// RenderWith draws obj with root applied before every node transform.
func (r *Renderer) RenderWith(obj *model.Object, root math.Mat4) {
	if obj == nil || r.shader == nil {
		return
	}
	for _, n := range obj.Nodes {
		r.renderNode(obj, n, root)
	}
}

func (r *Renderer) renderNode(obj *model.Object, n *model.Node, parent math.Mat4) {
	world := parent.Mul(n.Local)
	for i := range n.Meshes {
		r.drawMesh(obj, &n.Meshes[i], world)
	}
	for _, c := range n.Children {
		r.renderNode(obj, c, world)
	}
}

// drawMesh issues one indexed draw and leaves the device with nothing bound.
func (r *Renderer) drawMesh(obj *model.Object, m *model.Mesh, world math.Mat4) {
	if m.IndexCount == 0 || m.Indices == gpu.NoBuffer {
		return
	}
	s := r.shader
	dev := r.dev

	dev.SetDepthTest(true)
	dev.BindIndexBuffer(m.Indices)

	var enabled []gpu.Location
	bind := func(loc gpu.Location, b gpu.Buffer, size int32) {
		if !loc.Found() || b == gpu.NoBuffer {
			return
		}
		dev.BindVertexAttrib(loc, b, size)
		enabled = append(enabled, loc)
	}
	bind(s.Vertex, m.Positions, 3)
	bind(s.VertexNormal, m.Normals, 3)
	bind(s.VertexTex0, m.TexCoords, 2)

	mat := obj.Material(m.Material)
	dev.BindTexture(unitBaseColour, r.fallback.Or(mat.BaseColorTex))
	dev.BindTexture(unitMetallic, r.fallback.Or(mat.MetallicRoughnessTex))

	dev.UseProgram(s.Program)
	if s.Model.Found() {
		dev.UniformMatrix4(s.Model, world)
	}
	if s.Projection.Found() {
		dev.UniformMatrix4(s.Projection, r.projection)
	}
	if s.BaseColour.Found() {
		dev.Uniform4f(s.BaseColour, mat.BaseColor)
	}
	if s.BaseColourTex.Found() {
		dev.Uniform1i(s.BaseColourTex, unitBaseColour)
	}
	if s.MetallicTex.Found() {
		dev.Uniform1i(s.MetallicTex, unitMetallic)
	}
	if s.MetallicFactor.Found() {
		dev.Uniform1f(s.MetallicFactor, mat.MetallicFactor)
	}
	if s.RoughnessFactor.Found() {
		dev.Uniform1f(s.RoughnessFactor, mat.RoughnessFactor)
	}
	if s.Clearcoat.Found() {
		dev.Uniform1f(s.Clearcoat, mat.Clearcoat)
	}
	if s.ClearcoatRoughness.Found() {
		dev.Uniform1f(s.ClearcoatRoughness, mat.ClearcoatRoughness)
	}

	dev.DrawIndexed(m.Mode, m.IndexCount)

	dev.UseProgram(gpu.NoProgram)
	dev.BindTexture(unitMetallic, gpu.NoTexture)
	dev.BindTexture(unitBaseColour, gpu.NoTexture)
	for _, loc := range enabled {
		dev.DisableVertexAttrib(loc)
	}
	dev.BindIndexBuffer(gpu.NoBuffer)
	dev.SetDepthTest(false)
}
