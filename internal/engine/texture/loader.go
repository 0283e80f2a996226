package texture

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/internal/logger"
)

type cacheKey struct {
	index int
	srgb  bool
}

// Loader uploads the textures of one glTF document.
// Textures referenced by several materials are uploaded once.
type Loader struct {
	dev   gpu.Device
	doc   *gltf.Document
	dir   string
	cache map[cacheKey]gpu.Texture
	owned []gpu.Texture
}

// NewLoader creates a loader resolving relative image URIs against dir.
func NewLoader(dev gpu.Device, doc *gltf.Document, dir string) *Loader {
	return &Loader{
		dev:   dev,
		doc:   doc,
		dir:   dir,
		cache: make(map[cacheKey]gpu.Texture),
	}
}

// Load returns the texture for the glTF texture index, or gpu.NoTexture when
// index is nil or the image cannot be decoded or uploaded. Failures are logged
// and never leave a texture allocated.
func (l *Loader) Load(index *int, srgb bool) gpu.Texture {
	if index == nil {
		return gpu.NoTexture
	}

	key := cacheKey{index: *index, srgb: srgb}
	if tex, ok := l.cache[key]; ok {
		return tex
	}

	tex, err := l.load(*index, srgb)
	if err != nil {
		logger.Warn("texture unavailable, using fallback",
			zap.Int("texture", *index),
			zap.Error(err))
		tex = gpu.NoTexture
	} else {
		l.owned = append(l.owned, tex)
	}
	l.cache[key] = tex
	return tex
}

func (l *Loader) load(index int, srgb bool) (gpu.Texture, error) {
	if index < 0 || index >= len(l.doc.Textures) {
		return gpu.NoTexture, fmt.Errorf("texture index %d out of range", index)
	}
	t := l.doc.Textures[index]
	if t.Source == nil {
		return gpu.NoTexture, fmt.Errorf("texture %d has no image source", index)
	}
	if *t.Source < 0 || *t.Source >= len(l.doc.Images) {
		return gpu.NoTexture, fmt.Errorf("image index %d out of range", *t.Source)
	}

	data, hint, err := l.imageData(l.doc.Images[*t.Source])
	if err != nil {
		return gpu.NoTexture, err
	}

	// Decode before creating anything on the GPU so failures leak nothing.
	img, err := Decode(data, hint)
	if err != nil {
		return gpu.NoTexture, err
	}

	tex, err := l.dev.NewTexture(img, srgb)
	if err != nil {
		return gpu.NoTexture, err
	}

	if t.Sampler != nil {
		if *t.Sampler < 0 || *t.Sampler >= len(l.doc.Samplers) {
			logger.Warn("sampler index out of range", zap.Int("sampler", *t.Sampler))
		} else {
			l.dev.SetSampler(tex, SamplerParams(l.doc.Samplers[*t.Sampler]))
		}
	}

	l.dev.BindTexture(0, gpu.NoTexture)

	logger.Debug("texture loaded",
		zap.Int("texture", index),
		zap.String("source", hint),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return tex, nil
}

// imageData returns the encoded bytes of an image and a name or MIME type hint.
func (l *Loader) imageData(img *gltf.Image) ([]byte, string, error) {
	switch {
	case img.BufferView != nil:
		data, err := bufferViewData(l.doc, *img.BufferView)
		return data, img.MimeType, err
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, img.MimeType, fmt.Errorf("embedded image: %w", err)
		}
		return data, img.MimeType, nil
	case img.URI == "":
		return nil, "", fmt.Errorf("image %q has no data", img.Name)
	}

	name, err := url.PathUnescape(img.URI)
	if err != nil {
		name = img.URI
	}
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(l.dir, filepath.FromSlash(name))
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, name, fmt.Errorf("reading image: %w", err)
	}
	return data, name, nil
}

func bufferViewData(doc *gltf.Document, index int) ([]byte, error) {
	if index < 0 || index >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", index)
	}
	bv := doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	buf := doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer %d", index, bv.Buffer)
	}
	return buf[bv.ByteOffset:end], nil
}

// SamplerParams converts a glTF sampler to GPU sampler parameters.
// Undefined filters keep the API defaults; wrap modes are always explicit.
func SamplerParams(s *gltf.Sampler) gpu.Sampler {
	var p gpu.Sampler

	switch s.MagFilter {
	case gltf.MagNearest:
		p.Mag = gpu.FilterNearest
	case gltf.MagLinear:
		p.Mag = gpu.FilterLinear
	}

	switch s.MinFilter {
	case gltf.MinNearest:
		p.Min = gpu.FilterNearest
	case gltf.MinLinear:
		p.Min = gpu.FilterLinear
	case gltf.MinNearestMipMapNearest:
		p.Min = gpu.FilterNearestMipmapNearest
	case gltf.MinLinearMipMapNearest:
		p.Min = gpu.FilterLinearMipmapNearest
	case gltf.MinNearestMipMapLinear:
		p.Min = gpu.FilterNearestMipmapLinear
	case gltf.MinLinearMipMapLinear:
		p.Min = gpu.FilterLinearMipmapLinear
	}

	p.WrapS = wrapMode(s.WrapS)
	p.WrapT = wrapMode(s.WrapT)
	return p
}

func wrapMode(w gltf.WrappingMode) gpu.Wrap {
	switch w {
	case gltf.WrapClampToEdge:
		return gpu.WrapClampToEdge
	case gltf.WrapMirroredRepeat:
		return gpu.WrapMirroredRepeat
	default:
		return gpu.WrapRepeat
	}
}

// Textures returns every texture this loader created.
func (l *Loader) Textures() []gpu.Texture {
	return l.owned
}
