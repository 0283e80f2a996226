// Package texture decodes glTF images into GPU textures.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode decodes PNG, JPEG, BMP, WebP or TGA data into tightly packed RGBA.
// hint is a file name or MIME type used to recognize TGA, which has no signature.
func Decode(data []byte, hint string) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return ToRGBA(img), nil
	}
	if errors.Is(err, image.ErrFormat) && isTGA(hint) {
		return DecodeTGA(data)
	}
	return nil, fmt.Errorf("decoding %s: %w", hint, err)
}

func isTGA(hint string) bool {
	hint = strings.ToLower(hint)
	return path.Ext(hint) == ".tga" || strings.HasSuffix(hint, "x-tga") || strings.HasSuffix(hint, "/tga")
}

// ToRGBA converts any image to an *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
