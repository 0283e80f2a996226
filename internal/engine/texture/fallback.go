package texture

import (
	"fmt"
	"image"

	"github.com/Faultbox/midgard-gltf/internal/gpu"
)

// Fallback holds the shared 1x1 textures substituted for absent material textures.
type Fallback struct {
	Zero gpu.Texture // (0, 0, 0, 0)
	Ones gpu.Texture // (255, 255, 255, 255)
}

// NewFallback creates both fallback textures.
func NewFallback(dev gpu.Device) (*Fallback, error) {
	f := &Fallback{}

	var err error
	if f.Zero, err = solid(dev, 0); err != nil {
		return nil, fmt.Errorf("zero texture: %w", err)
	}
	if f.Ones, err = solid(dev, 255); err != nil {
		dev.DeleteTexture(f.Zero)
		return nil, fmt.Errorf("ones texture: %w", err)
	}
	dev.BindTexture(0, gpu.NoTexture)
	return f, nil
}

func solid(dev gpu.Device, v uint8) (gpu.Texture, error) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(img.Pix, []uint8{v, v, v, v})
	return dev.NewTexture(img, false)
}

// Or returns tex, or the Ones texture when tex is absent.
func (f *Fallback) Or(tex gpu.Texture) gpu.Texture {
	if tex == gpu.NoTexture {
		return f.Ones
	}
	return tex
}

// Release deletes both textures.
func (f *Fallback) Release(dev gpu.Device) {
	dev.DeleteTexture(f.Zero)
	dev.DeleteTexture(f.Ones)
	f.Zero, f.Ones = gpu.NoTexture, gpu.NoTexture
}
