// Package config loads tool defaults from a TOML file. Values absent from the
// file keep their built-in defaults, and command line flags override both.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/mikegeo98/cloud-sort/pkg/simulate"
)

type RunConfig struct {
	NElem   int    `toml:"nelem"`
	Seed    int64  `toml:"seed"`
	Input   string `toml:"input"`
	Device  string `toml:"device"`
	Workers int    `toml:"workers"`
}

type BenchConfig struct {
	NElem  int    `toml:"nelem"`
	Repeat int    `toml:"repeat"`
	Seed   int64  `toml:"seed"`
	Local  bool   `toml:"local"`
	JSON   string `toml:"json"`
}

type Config struct {
	Verbose  bool               `toml:"verbose"`
	Run      RunConfig          `toml:"run"`
	Bench    BenchConfig        `toml:"bench"`
	Simulate *simulate.Scenario `toml:"simulate"`
}

func Default() *Config {
	return &Config{
		Run: RunConfig{
			NElem:  1 << 20,
			Seed:   42,
			Device: "pool",
		},
		Bench: BenchConfig{
			NElem:  1 << 20,
			Repeat: 5,
			Seed:   42,
			Local:  true,
		},
		Simulate: simulate.DefaultScenario(),
	}
}

// Load reads the file at path over the built-in defaults. An empty path means
// no file, just the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "Couldn't load config %v", path)
	}
	return cfg, nil
}
