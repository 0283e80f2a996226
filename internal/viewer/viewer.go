// Package viewer implements the interactive loop that displays one glTF asset.
package viewer

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/config"
	"github.com/Faultbox/midgard-gltf/internal/engine/camera"
	"github.com/Faultbox/midgard-gltf/internal/engine/debug"
	"github.com/Faultbox/midgard-gltf/internal/engine/input"
	"github.com/Faultbox/midgard-gltf/internal/engine/model"
	"github.com/Faultbox/midgard-gltf/internal/engine/scene"
	"github.com/Faultbox/midgard-gltf/internal/engine/window"
	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// Viewer owns the window, the rendering core and the displayed object.
type Viewer struct {
	cfg      *config.Config
	window   *window.Window
	device   *gpu.GL
	renderer *scene.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	object   *model.Object
	shots    *debug.ScreenshotCapture

	width, height int32
	capture       bool
}

// New opens the window, initializes the rendering core and loads the model.
func New(cfg *config.Config) (*Viewer, error) {
	if cfg.Model.Path == "" {
		return nil, fmt.Errorf("no model given")
	}

	v := &Viewer{cfg: cfg}

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the window's context to be current.
	v.device, err = gpu.InitGL()
	if err != nil {
		v.Close()
		return nil, err
	}
	v.resize(v.window.DrawableSize())

	v.renderer, err = scene.NewRenderer(v.device, scene.Options{
		ProjectionScale: cfg.Render.ProjectionScale,
		VertexShader:    cfg.Render.VertexShader,
		FragmentShader:  cfg.Render.FragmentShader,
	})
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.object, err = v.renderer.Load(cfg.Model.Path)
	if err != nil {
		v.Close()
		return nil, err
	}

	v.input = input.New()
	v.shots = debug.NewScreenshotCapture(cfg.Render.ScreenshotDir, "gltfview")
	if cfg.Render.Camera == config.CameraOrbit {
		v.camera = camera.NewOrbitCamera()
		v.camera.Frame(v.object.Radius)
	}

	v.window.SetTitle(fmt.Sprintf("%s - %s", cfg.Window.Title, cfg.Model.Path))
	return v, nil
}

// Run draws frames until the window is closed or Escape is pressed.
func (v *Viewer) Run() error {
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var angle float32

	logger.Info("starting render loop", zap.String("model", v.cfg.Model.Path))

	for {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			return nil
		}
		v.handleEvents()

		angle += v.cfg.Render.Spin * float32(dt)

		if v.camera != nil {
			v.renderer.SetProjection(v.camera.ViewProjection(float32(v.width) / float32(v.height)))
		}
		v.device.Clear(v.cfg.Render.ClearColor)
		v.renderer.RenderWith(v.object, math.RotateY(angle))
		if v.capture {
			v.capture = false
			v.screenshot()
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

func (v *Viewer) handleEvents() {
	for _, e := range v.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			v.resize(v.window.DrawableSize())
		case input.EventDrag:
			if v.camera != nil {
				v.camera.HandleDrag(e.DeltaX, e.DeltaY)
			}
		case input.EventZoom:
			if v.camera != nil {
				v.camera.HandleZoom(e.DeltaY)
			}
		case input.EventKeyDown:
			switch {
			case e.Key == sdl.SCANCODE_R && v.camera != nil:
				v.camera = camera.NewOrbitCamera()
				v.camera.Frame(v.object.Radius)
			case e.Key == sdl.SCANCODE_F12:
				v.capture = true
			}
		}
	}
}

func (v *Viewer) screenshot() {
	if v.width <= 0 || v.height <= 0 {
		return
	}
	pixels := v.device.ReadPixels(v.width, v.height)
	name, err := v.shots.CaptureFromPixels(pixels, int(v.width), int(v.height))
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", name))
}

func (v *Viewer) resize(width, height int32) {
	if height == 0 {
		height = 1
	}
	v.width, v.height = width, height
	v.device.Viewport(width, height)
}

// Close frees the object and tears down the core and window in reverse order.
func (v *Viewer) Close() {
	logger.Debug("closing viewer")

	if v.renderer != nil {
		v.renderer.Free(v.object)
		v.object = nil
		v.renderer.Destroy()
		v.renderer = nil
	}
	if v.device != nil {
		v.device.Close()
		v.device = nil
	}
	if v.window != nil {
		v.window.Close()
		v.window = nil
	}
}
