package debug

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCaptureFromPixelsFlipsRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "helmet")
	sc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	// 1x2: bottom row red, top row blue, as glReadPixels returns them.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	name, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels: %v", err)
	}
	if want := filepath.Join(dir, "helmet_2024-05-01_12-30-00.000.png"); name != want {
		t.Errorf("file %s, want %s", name, want)
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	top := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	bottom := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA)
	if top != (color.RGBA{0, 0, 255, 255}) || bottom != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("rows not flipped: top %v, bottom %v", top, bottom)
	}
}

func TestCaptureFromPixelsSizeMismatch(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "x")
	if _, err := sc.CaptureFromPixels(make([]byte, 7), 1, 2); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerateFilename(t *testing.T) {
	sc := NewScreenshotCapture("", "shot")
	name := sc.GenerateFilename()
	if !strings.HasPrefix(name, "shot_") || filepath.Ext(name) != ".png" || filepath.Dir(name) != "." {
		t.Errorf("unexpected name %s", name)
	}
}
