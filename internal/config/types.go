package config

// Config is the top-level configuration structure parsed from leakgate YAML.
type Config struct {
	Scanner  Scanner  `yaml:"scanner"`
	Mount    Mount    `yaml:"mount"`
	Result   Result   `yaml:"result"`
	Report   Report   `yaml:"report"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
}

// Scanner describes the external secret scanner binary.
type Scanner struct {
	Name    string `yaml:"name"`    // substring of argv[0] that triggers the rewrite
	Display string `yaml:"display"` // name used in output lines
	Path    string `yaml:"path"`
	Timeout string `yaml:"timeout"` // empty means the scan may run forever
}

// Mount is the directory holding the code under scan.
type Mount struct {
	Path   string `yaml:"path"`
	Prefix string `yaml:"prefix"`
}

// Result is the file the scanner writes its raw findings to.
type Result struct {
	Path string `yaml:"path"`
}

// Report configures an optional on-disk copy of the normalized report.
type Report struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Database configures the optional run history store.
type Database struct {
	URL string `yaml:"url"`
}

type Log struct {
	Debug bool `yaml:"debug"`
}

// Default returns the configuration of the stock container image.
func Default() *Config {
	return &Config{
		Scanner: Scanner{
			Name:    "gitleaks",
			Display: "Gitleaks",
			Path:    "/app/gitleaks",
		},
		Mount: Mount{
			Path:   "/code/",
			Prefix: "/code",
		},
		Result: Result{
			Path: "./code/output.json",
		},
		Report: Report{
			Format: "json",
		},
	}
}
