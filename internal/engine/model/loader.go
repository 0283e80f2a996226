package model

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

var (
	// ErrNoScene is returned for documents without a scene to display.
	ErrNoScene = errors.New("document has no scene")
	// ErrInvalidDocument is returned for structurally broken documents.
	ErrInvalidDocument = errors.New("invalid glTF document")
)

// LoadFromFile reads a .gltf or .glb file and uploads it to the device.
// Relative resources are resolved against the file's directory.
func LoadFromFile(dev gpu.Device, path string, fallback *texture.Fallback) (*Object, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	obj, err := Load(dev, doc, filepath.Dir(path), fallback)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	nodes, meshes, indices := obj.Stats()
	logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("nodes", nodes),
		zap.Int("meshes", meshes),
		zap.Int64("indices", indices),
		zap.Int("materials", len(obj.Materials)),
		zap.Int("textures", len(obj.textures)),
		zap.Float32("radius", obj.Radius))
	return obj, nil
}

// Load builds an Object from a parsed document. The document is validated
// before any GPU resource is created; if an upload fails midway everything
// created so far is released.
func Load(dev gpu.Device, doc *gltf.Document, dir string, fallback *texture.Fallback) (*Object, error) {
	scene, err := selectScene(doc)
	if err != nil {
		return nil, err
	}
	if err := validate(doc, scene); err != nil {
		return nil, err
	}

	textures := texture.NewLoader(dev, doc, dir)
	obj := &Object{Default: DefaultMaterial(fallback.Ones)}
	obj.Materials = loadMaterials(doc, textures, fallback.Ones)

	b := builder{up: uploader{dev: dev, doc: doc}, obj: obj}
	for _, idx := range scene.Nodes {
		n := &Node{}
		obj.Nodes = append(obj.Nodes, n)
		if err := b.node(n, idx, math.Identity()); err != nil {
			obj.textures = textures.Textures()
			obj.Release(dev)
			return nil, err
		}
	}
	obj.textures = textures.Textures()

	return obj, nil
}

func selectScene(doc *gltf.Document) (*gltf.Scene, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	idx := 0
	if doc.Scene != nil {
		idx = *doc.Scene
	}
	if idx < 0 || idx >= len(doc.Scenes) || doc.Scenes[idx] == nil {
		return nil, fmt.Errorf("%w: default scene %d out of range", ErrInvalidDocument, idx)
	}
	return doc.Scenes[idx], nil
}

// validate checks every reference reachable from the scene. Nodes must form
// a forest: a node reached twice is either shared or part of a cycle.
func validate(doc *gltf.Document, scene *gltf.Scene) error {
	seen := make(map[int]bool)

	var visit func(idx int) error
	visit = func(idx int) error {
		if idx < 0 || idx >= len(doc.Nodes) || doc.Nodes[idx] == nil {
			return fmt.Errorf("%w: node %d out of range", ErrInvalidDocument, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: node %d has more than one parent", ErrInvalidDocument, idx)
		}
		seen[idx] = true

		n := doc.Nodes[idx]
		if n.Mesh != nil {
			if err := validateMesh(doc, *n.Mesh); err != nil {
				return fmt.Errorf("node %d: %w", idx, err)
			}
		}
		for _, c := range n.Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, idx := range scene.Nodes {
		if err := visit(idx); err != nil {
			return err
		}
	}
	return nil
}

func validateMesh(doc *gltf.Document, idx int) error {
	if idx < 0 || idx >= len(doc.Meshes) || doc.Meshes[idx] == nil {
		return fmt.Errorf("%w: mesh %d out of range", ErrInvalidDocument, idx)
	}

	for pi, p := range doc.Meshes[idx].Primitives {
		pos, ok := p.Attributes[gltf.POSITION]
		if !ok {
			return fmt.Errorf("%w: mesh %d primitive %d has no POSITION", ErrInvalidDocument, idx, pi)
		}
		for name, a := range p.Attributes {
			if err := validateAccessor(doc, a); err != nil {
				return fmt.Errorf("mesh %d primitive %d %s: %w", idx, pi, name, err)
			}
		}
		if doc.Accessors[pos].Type != gltf.AccessorVec3 {
			return fmt.Errorf("%w: mesh %d primitive %d: POSITION is not VEC3", ErrInvalidDocument, idx, pi)
		}
		if p.Indices != nil {
			if err := validateAccessor(doc, *p.Indices); err != nil {
				return fmt.Errorf("mesh %d primitive %d indices: %w", idx, pi, err)
			}
		}
		if p.Material != nil && (*p.Material < 0 || *p.Material >= len(doc.Materials)) {
			return fmt.Errorf("%w: mesh %d primitive %d: material %d out of range", ErrInvalidDocument, idx, pi, *p.Material)
		}
	}
	return nil
}

// validateAccessor checks that every byte the accessor reads, sparse
// substitutions included, lies inside its buffer views.
func validateAccessor(doc *gltf.Document, idx int) error {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return fmt.Errorf("%w: accessor %d out of range", ErrInvalidDocument, idx)
	}
	a := doc.Accessors[idx]
	if a.Count < 0 {
		return fmt.Errorf("%w: accessor %d has negative count", ErrInvalidDocument, idx)
	}
	elem := gltf.SizeOfElement(a.ComponentType, a.Type)
	if elem <= 0 {
		return fmt.Errorf("%w: accessor %d has unsupported element type", ErrInvalidDocument, idx)
	}

	if a.BufferView != nil {
		if err := validateRange(doc, *a.BufferView, a.ByteOffset, a.Count, elem); err != nil {
			return fmt.Errorf("accessor %d: %w", idx, err)
		}
	}

	if s := a.Sparse; s != nil {
		if s.Count < 0 || s.Count > a.Count {
			return fmt.Errorf("%w: accessor %d sparse count %d", ErrInvalidDocument, idx, s.Count)
		}
		ielem := gltf.SizeOfElement(s.Indices.ComponentType, gltf.AccessorScalar)
		if ielem <= 0 {
			return fmt.Errorf("%w: accessor %d has unsupported sparse index type", ErrInvalidDocument, idx)
		}
		if err := validateRange(doc, s.Indices.BufferView, s.Indices.ByteOffset, s.Count, ielem); err != nil {
			return fmt.Errorf("accessor %d sparse indices: %w", idx, err)
		}
		if err := validateRange(doc, s.Values.BufferView, s.Values.ByteOffset, s.Count, elem); err != nil {
			return fmt.Errorf("accessor %d sparse values: %w", idx, err)
		}
	}
	return nil
}

// validateRange checks count elements of elem bytes starting at offset in
// buffer view. The bound matches what the accessor reader consumes.
func validateRange(doc *gltf.Document, view, offset, count, elem int) error {
	if view < 0 || view >= len(doc.BufferViews) || doc.BufferViews[view] == nil {
		return fmt.Errorf("%w: buffer view %d out of range", ErrInvalidDocument, view)
	}
	bv := doc.BufferViews[view]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) || doc.Buffers[bv.Buffer] == nil {
		return fmt.Errorf("%w: buffer view %d: buffer %d out of range", ErrInvalidDocument, view, bv.Buffer)
	}
	if bv.ByteOffset < 0 || bv.ByteLength < 0 || bv.ByteStride < 0 ||
		bv.ByteOffset+bv.ByteLength > len(doc.Buffers[bv.Buffer].Data) {
		return fmt.Errorf("%w: buffer view %d exceeds buffer %d", ErrInvalidDocument, view, bv.Buffer)
	}
	if offset < 0 || offset > bv.ByteLength {
		return fmt.Errorf("%w: byte offset %d outside buffer view %d", ErrInvalidDocument, offset, view)
	}
	if count == 0 {
		return nil
	}

	stride := bv.ByteStride
	if stride == 0 {
		stride = elem
	}
	if need := (count-1)*stride + elem; need > bv.ByteLength-offset {
		return fmt.Errorf("%w: %d elements at offset %d overrun buffer view %d (%d bytes)",
			ErrInvalidDocument, count, offset, view, bv.ByteLength)
	}
	return nil
}

type builder struct {
	up  uploader
	obj *Object
}

// node fills n from document node idx. n is already attached to the object,
// so a failure leaves everything built so far reachable for Release.
func (b *builder) node(n *Node, idx int, parent math.Mat4) error {
	src := b.up.doc.Nodes[idx]
	n.Name = src.Name
	n.Local = LocalMatrix(src)
	world := parent.Mul(n.Local)

	if src.Mesh != nil {
		m := b.up.doc.Meshes[*src.Mesh]
		for pi, p := range m.Primitives {
			mesh, radius, err := b.up.primitive(p, world)
			if err != nil {
				return fmt.Errorf("node %d mesh %d primitive %d: %w", idx, *src.Mesh, pi, err)
			}
			n.Meshes = append(n.Meshes, mesh)
			if radius > b.obj.Radius {
				b.obj.Radius = radius
			}
		}
		logger.Debug("mesh uploaded",
			zap.Int("node", idx),
			zap.String("name", m.Name),
			zap.Int("primitives", len(m.Primitives)))
	}

	for _, c := range src.Children {
		child := &Node{}
		n.Children = append(n.Children, child)
		if err := b.node(child, c, world); err != nil {
			return err
		}
	}
	return nil
}
