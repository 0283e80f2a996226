// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// Camera modes.
const (
	CameraScale = "scale" // uniform scale projection
	CameraOrbit = "orbit" // perspective orbit camera framing the object
)

// RenderConfig holds renderer settings.
type RenderConfig struct {
	Camera          string     `yaml:"camera"`
	ProjectionScale float32    `yaml:"projection_scale"`
	ClearColor      [4]float32 `yaml:"clear_color"`
	// Spin rotates the object around Y in radians per second; 0 disables.
	Spin float32 `yaml:"spin"`
	// Shader overrides; empty paths use the embedded shader.
	VertexShader   string `yaml:"vertex_shader"`
	FragmentShader string `yaml:"fragment_shader"`
	ScreenshotDir  string `yaml:"screenshot_dir"`
}

// ModelConfig holds the asset to display.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "glTF Viewer",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: RenderConfig{
			Camera:          CameraScale,
			ProjectionScale: 0.1,
			ClearColor:      [4]float32{0.1, 0.1, 0.12, 1},
			ScreenshotDir:   "screenshots",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
