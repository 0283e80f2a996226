package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagModel       = flag.String("model", "", "Path to a .gltf or .glb file")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagScale       = flag.Float64("scale", 0, "Projection scale")
	flagOrbit       = flag.Bool("orbit", false, "Use the perspective orbit camera")
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the path given to --write-config, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config. A positional
// argument names the model when --model is not set.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagModel != "" {
		cfg.Model.Path = *flagModel
	} else if flag.NArg() > 0 {
		cfg.Model.Path = flag.Arg(0)
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagOrbit {
		cfg.Render.Camera = CameraOrbit
	}
	if *flagScale > 0 {
		cfg.Render.ProjectionScale = float32(*flagScale)
	}
}
