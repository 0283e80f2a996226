package model

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// uploader copies primitive streams from a document into GPU buffers.
type uploader struct {
	dev gpu.Device
	doc *gltf.Document
}

// primitive uploads one primitive. It returns the mesh together with its
// world-space bounding radius. On error no buffer created here is left alive.
func (u *uploader) primitive(p *gltf.Primitive, world math.Mat4) (mesh Mesh, radius float32, err error) {
	mesh = Mesh{Mode: primitiveMode(p.Mode), Material: NoMaterial}
	if p.Material != nil {
		mesh.Material = *p.Material
	}

	defer func() {
		if err != nil {
			u.dev.DeleteBuffer(mesh.Indices)
			u.dev.DeleteBuffer(mesh.Positions)
			u.dev.DeleteBuffer(mesh.Normals)
			u.dev.DeleteBuffer(mesh.TexCoords)
			mesh = Mesh{}
		}
	}()

	positions, err := read(func() ([][3]float32, error) {
		return modeler.ReadPosition(u.doc, u.doc.Accessors[p.Attributes[gltf.POSITION]], nil)
	})
	if err != nil {
		return mesh, 0, fmt.Errorf("reading positions: %w", err)
	}
	for _, v := range positions {
		if l := math.Length(world.TransformPoint(v)); l > radius {
			radius = l
		}
	}
	if mesh.Positions, err = u.dev.NewBuffer(gpu.VertexBuffer, flatten3(positions)); err != nil {
		return mesh, 0, fmt.Errorf("uploading positions: %w", err)
	}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		normals, err := read(func() ([][3]float32, error) {
			return modeler.ReadNormal(u.doc, u.doc.Accessors[idx], nil)
		})
		if err != nil {
			return mesh, 0, fmt.Errorf("reading normals: %w", err)
		}
		if mesh.Normals, err = u.dev.NewBuffer(gpu.VertexBuffer, flatten3(normals)); err != nil {
			return mesh, 0, fmt.Errorf("uploading normals: %w", err)
		}
	}

	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := read(func() ([][2]float32, error) {
			return modeler.ReadTextureCoord(u.doc, u.doc.Accessors[idx], nil)
		})
		if err != nil {
			return mesh, 0, fmt.Errorf("reading texture coordinates: %w", err)
		}
		if mesh.TexCoords, err = u.dev.NewBuffer(gpu.VertexBuffer, flatten2(uvs)); err != nil {
			return mesh, 0, fmt.Errorf("uploading texture coordinates: %w", err)
		}
	}

	var indices []uint32
	if p.Indices != nil {
		if indices, err = read(func() ([]uint32, error) {
			return modeler.ReadIndices(u.doc, u.doc.Accessors[*p.Indices], nil)
		}); err != nil {
			return mesh, 0, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = sequence(len(positions))
	}
	if mesh.Indices, err = u.dev.NewBuffer(gpu.IndexBuffer, indices); err != nil {
		return mesh, 0, fmt.Errorf("uploading indices: %w", err)
	}
	mesh.IndexCount = int32(len(indices))

	return mesh, radius, nil
}

// read runs an accessor read. The reader indexes buffers without bounds
// checks, so anything validation missed surfaces as a panic; it is reported
// as an invalid document instead.
func read[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidDocument, r)
		}
	}()
	return fn()
}

func primitiveMode(m gltf.PrimitiveMode) gpu.Mode {
	switch m {
	case gltf.PrimitivePoints:
		return gpu.Points
	case gltf.PrimitiveLines:
		return gpu.Lines
	case gltf.PrimitiveLineLoop:
		return gpu.LineLoop
	case gltf.PrimitiveLineStrip:
		return gpu.LineStrip
	case gltf.PrimitiveTriangleStrip:
		return gpu.TriangleStrip
	case gltf.PrimitiveTriangleFan:
		return gpu.TriangleFan
	default:
		return gpu.Triangles
	}
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, e := range v {
		out = append(out, e[0], e[1], e[2])
	}
	return out
}

func flatten2(v [][2]float32) []float32 {
	out := make([]float32, 0, len(v)*2)
	for _, e := range v {
		out = append(out, e[0], e[1])
	}
	return out
}

// sequence returns 0..n-1 for primitives drawn without an index accessor.
func sequence(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
