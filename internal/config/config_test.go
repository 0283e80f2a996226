package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Render.ProjectionScale != 0.1 {
		t.Errorf("expected projection scale 0.1, got %f", cfg.Render.ProjectionScale)
	}
	if cfg.Render.Camera != CameraScale {
		t.Errorf("expected scale camera, got %s", cfg.Render.Camera)
	}
	if cfg.Render.VertexShader != "" || cfg.Render.FragmentShader != "" {
		t.Error("expected embedded shaders by default")
	}

	if cfg.Render.ScreenshotDir != "screenshots" {
		t.Errorf("expected screenshot dir 'screenshots', got %s", cfg.Render.ScreenshotDir)
	}

	if cfg.Model.Path != "" {
		t.Errorf("expected no model by default, got %s", cfg.Model.Path)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  title: "Helmet"
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

render:
  camera: orbit
  projection_scale: 0.5
  clear_color: [0, 0, 0, 1]
  spin: 0.75
  fragment_shader: "shaders/debug.frag"

model:
  path: "assets/DamagedHelmet.glb"

logging:
  level: "debug"
  log_file: "viewer.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Title != "Helmet" {
		t.Errorf("expected title Helmet, got %s", cfg.Window.Title)
	}
	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Window.VSync {
		t.Error("expected vsync to be false")
	}

	if cfg.Render.Camera != CameraOrbit {
		t.Errorf("expected orbit camera, got %s", cfg.Render.Camera)
	}
	if cfg.Render.ProjectionScale != 0.5 {
		t.Errorf("expected projection scale 0.5, got %f", cfg.Render.ProjectionScale)
	}
	if cfg.Render.ClearColor != [4]float32{0, 0, 0, 1} {
		t.Errorf("unexpected clear color %v", cfg.Render.ClearColor)
	}
	if cfg.Render.Spin != 0.75 {
		t.Errorf("expected spin 0.75, got %f", cfg.Render.Spin)
	}
	if cfg.Render.FragmentShader != "shaders/debug.frag" || cfg.Render.VertexShader != "" {
		t.Errorf("unexpected shader paths %q %q", cfg.Render.VertexShader, cfg.Render.FragmentShader)
	}

	if cfg.Model.Path != "assets/DamagedHelmet.glb" {
		t.Errorf("expected model path, got %s", cfg.Model.Path)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileKeepsUnsetDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("model:\n  path: box.gltf\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Window.Width != 1280 || cfg.Render.ProjectionScale != 0.1 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
	if filepath.Dir(DefaultPath()) != dir {
		t.Errorf("DefaultPath %s not inside %s", DefaultPath(), dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("config.yaml", []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "model flag",
			setup: func() { *flagModel = "scenes/box.gltf" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Model.Path != "scenes/box.gltf" {
					t.Errorf("expected model scenes/box.gltf, got %s", cfg.Model.Path)
				}
			},
			teardown: func() { *flagModel = "" },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Window.Width)
				}
				if cfg.Window.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "scale flag",
			setup: func() { *flagScale = 0.25 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.ProjectionScale != 0.25 {
					t.Errorf("expected projection scale 0.25, got %f", cfg.Render.ProjectionScale)
				}
			},
			teardown: func() { *flagScale = 0 },
		},
		{
			name:  "orbit flag",
			setup: func() { *flagOrbit = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Render.Camera != CameraOrbit {
					t.Errorf("expected orbit camera, got %s", cfg.Render.Camera)
				}
			},
			teardown: func() { *flagOrbit = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"negative height", func(c *Config) { c.Window.Height = -1 }},
		{"zero scale", func(c *Config) { c.Render.ProjectionScale = 0 }},
		{"unknown camera", func(c *Config) { c.Render.Camera = "fisheye" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from the flag, height from the file.
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Model.Path = "box.glb"
	cfg.Render.Spin = 1.5
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Model.Path != "box.glb" || loaded.Render.Spin != 1.5 {
		t.Errorf("saved config not reloaded: %+v", loaded)
	}
}
