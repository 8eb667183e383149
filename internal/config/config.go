// Package config loads launchcore's optional TOML configuration file, the
// way the teacher's CLI loads .sift.toml with pelletier/go-toml/v2.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk shape of launchcore.toml. Every field is
// optional; zero values mean "use the built-in default."
type Config struct {
	Index struct {
		Roots       []string `toml:"roots"`
		Extensions  []string `toml:"extensions"`
		MaxFiles    int      `toml:"max-files"`
		MaxDepth    int      `toml:"max-depth"`
		IndexHidden bool     `toml:"index-hidden"`
	} `toml:"index"`

	Search struct {
		DefaultLimit int `toml:"default-limit"`
	} `toml:"search"`

	Dispatcher struct {
		ExtensionDir   string `toml:"extension-dir"`
		ImportDefaults bool   `toml:"import-defaults"`
	} `toml:"dispatcher"`
}

// Load reads and parses path. A missing file is not an error — it
// returns a zero-value Config so callers fall back to built-in defaults.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
