// Package config loads the optional .semguard.yaml project file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the solution directory.
const FileName = ".semguard.yaml"

// Config is the decoded project file. Zero values mean "not set"; command
// line flags take precedence over anything set here.
type Config struct {
	// Components restricts analysis to these component names.
	Components []string `yaml:"components"`
	// Descriptors are XML package descriptors bumped alongside the source,
	// relative to the solution directory.
	Descriptors []string `yaml:"descriptors"`
	// Strict makes descriptor rewrites fail instead of skipping.
	Strict bool `yaml:"strict"`
	// Format is the default output format.
	Format string `yaml:"format"`
}

// Parse decodes a project file. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return cfg, nil
}

// Load reads the project file at path. When path is empty, FileName is
// looked up in dir and a missing file yields the zero Config.
func Load(path, dir string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ResolveDescriptors returns the descriptor paths joined onto dir.
func (c Config) ResolveDescriptors(dir string) []string {
	out := make([]string, 0, len(c.Descriptors))
	for _, d := range c.Descriptors {
		if filepath.IsAbs(d) {
			out = append(out, d)
			continue
		}
		out = append(out, filepath.Join(dir, d))
	}
	return out
}
