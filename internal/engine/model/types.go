// Package model loads glTF documents into GPU-resident scene graphs.
package model

import (
	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// NoMaterial marks a primitive without a material reference.
const NoMaterial = -1

// Object is the root of a loaded asset. It owns every node, mesh buffer and
// texture created for it; the fallback textures it refers to are shared.
type Object struct {
	Nodes     []*Node
	Materials []Material
	// Default is used by meshes with NoMaterial. It never aliases Materials[0].
	Default Material
	// Radius bounds all world-space vertex positions around the origin.
	Radius float32

	textures []gpu.Texture
	released bool
}

// Node is a transform with attached primitives and owned children.
type Node struct {
	Name     string
	Local    math.Mat4
	Meshes   []Mesh
	Children []*Node
}

// Mesh is one drawable glTF primitive.
// Normals and TexCoords are gpu.NoBuffer when the stream is absent.
type Mesh struct {
	IndexCount int32
	Mode       gpu.Mode
	Indices    gpu.Buffer
	Positions  gpu.Buffer
	Normals    gpu.Buffer
	TexCoords  gpu.Buffer
	Material   int
}

// Material holds resolved metallic-roughness shading parameters.
// A texture of gpu.NoTexture means "use the fallback texture".
type Material struct {
	Name string

	BaseColor            [4]float32
	BaseColorTex         gpu.Texture
	MetallicFactor       float32
	RoughnessFactor      float32
	MetallicRoughnessTex gpu.Texture

	Clearcoat          float32
	ClearcoatRoughness float32

	// Not consumed by the renderer yet.
	NormalTex      gpu.Texture
	OcclusionTex   gpu.Texture
	EmissiveTex    gpu.Texture
	EmissiveFactor [3]float32
}

// DefaultMaterial returns the opaque white material used when a file declares
// none, textured with the shared ones texture.
func DefaultMaterial(ones gpu.Texture) Material {
	return Material{
		Name:                 "default",
		BaseColor:            [4]float32{1, 1, 1, 1},
		BaseColorTex:         ones,
		MetallicFactor:       0,
		RoughnessFactor:      0.5,
		MetallicRoughnessTex: ones,
	}
}

// Material resolves a mesh material reference. NoMaterial and out-of-range
// ids resolve to the default material.
func (o *Object) Material(id int) *Material {
	if id < 0 || id >= len(o.Materials) {
		return &o.Default
	}
	return &o.Materials[id]
}

// Walk visits every node depth-first in pre-order.
func (o *Object) Walk(fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, n := range o.Nodes {
		walk(n, 0)
	}
}

// Stats counts nodes, meshes and indices in the object.
func (o *Object) Stats() (nodes, meshes int, indices int64) {
	o.Walk(func(n *Node, _ int) {
		nodes++
		meshes += len(n.Meshes)
		for _, m := range n.Meshes {
			indices += int64(m.IndexCount)
		}
	})
	return nodes, meshes, indices
}

// Release deletes every GPU buffer and texture the object owns.
// It is safe to call more than once.
func (o *Object) Release(dev gpu.Device) {
	if o == nil || o.released {
		return
	}
	o.Walk(func(n *Node, _ int) {
		for i := range n.Meshes {
			m := &n.Meshes[i]
			dev.DeleteBuffer(m.Indices)
			dev.DeleteBuffer(m.Positions)
			dev.DeleteBuffer(m.Normals)
			dev.DeleteBuffer(m.TexCoords)
			*m = Mesh{Material: m.Material}
		}
	})
	for _, tex := range o.textures {
		dev.DeleteTexture(tex)
	}
	o.textures = nil
	o.released = true
}
