package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/logger"
)

// InitGL loads OpenGL function pointers for the current context and returns
// the device bound to it. Call it after the window's context is current.
func InitGL() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))))

	return NewGL(), nil
}

// Viewport sets the drawable area.
func (d *GL) Viewport(width, height int32) {
	gl.Viewport(0, 0, width, height)
	logger.Debug("viewport resized", zap.Int32("width", width), zap.Int32("height", height))
}

// Clear starts a frame by clearing colour and depth.
func (d *GL) Clear(color [4]float32) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (d *GL) ReadPixels(width, height int32) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}
