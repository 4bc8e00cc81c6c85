// Package config handles church.toml project configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"tlog.app/go/errors"

	"github.com/churchlang/church/compiler/analyze"
)

const FileName = "church.toml"

type (
	Config struct {
		Compile Compile `toml:"compile"`
		Output  Output  `toml:"output"`

		// Dir is the directory containing the config file, empty for defaults.
		Dir string `toml:"-"`
	}

	Compile struct {
		Typecheck    bool `toml:"typecheck"`
		Abstractions bool `toml:"abstractions"`
	}

	Output struct {
		// Path is where compile writes the binary. Relative to Dir. Empty means stdout.
		Path string `toml:"path"`
	}
)

func Default() *Config {
	return &Config{
		Compile: Compile{
			Typecheck: true,
		},
	}
}

// Load parses the config file. Missing keys keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", path)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(err, "resolve dir")
	}

	return c, nil
}

// Parse decodes config text over the defaults. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	c := Default()

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	if und := md.Undecoded(); len(und) != 0 {
		keys := make([]string, len(und))

		for i, k := range und {
			keys[i] = k.String()
		}

		return nil, errors.New("unknown keys: %s", strings.Join(keys, ", "))
	}

	return c, nil
}

// FindAndLoad walks up from dir looking for church.toml.
// Defaults are returned if there is none.
func FindAndLoad(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "resolve dir")
	}

	for {
		path := filepath.Join(dir, FileName)

		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}

		dir = parent
	}
}

func (c *Config) Analyze() analyze.Options {
	return analyze.Options{
		Typecheck:    c.Compile.Typecheck,
		Abstractions: c.Compile.Abstractions,
	}
}

// OutputPath returns the output file path or empty string for stdout.
func (c *Config) OutputPath() string {
	if c.Output.Path == "" || filepath.IsAbs(c.Output.Path) || c.Dir == "" {
		return c.Output.Path
	}

	return filepath.Join(c.Dir, c.Output.Path)
}
