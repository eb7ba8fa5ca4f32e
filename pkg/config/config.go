// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📚 Config is the optional tool configuration
type Config struct {
	Token          string            `json:"token,omitempty" yaml:"token,omitempty" hcl:"token,optional"`
	Languages      map[string]string `json:"languages,omitempty" yaml:"languages,omitempty" hcl:"languages,optional"`
	IgnorePatterns []string          `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty" hcl:"ignore_patterns,optional"`
	Output         string            `json:"output,omitempty" yaml:"output,omitempty" hcl:"output,optional"`
	Progress       bool              `json:"progress,omitempty" yaml:"progress,omitempty" hcl:"progress,optional"`
}

// 🏭 Default returns the zero configuration used when no file is present
func Default() *Config {
	return &Config{}
}

// 🗂️ candidates are the file names probed when no explicit path is given
var candidates = []string{
	".repomd",
	".repomd.yaml",
	".repomd.yml",
	".repomd.json",
	".repomd.hcl",
}

// 🎯 Load loads the configuration. With an empty path it probes the default
// candidate files and falls back to Default() when none exists.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	if path == "" {
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			logger.Debug().Msg("no config file found, using defaults")
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg, err := parse(data, path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Str("path", path).Msg("loaded configuration")
	return cfg, nil
}

// 🔄 parse picks the format from the file extension. Bare .repomd files try
// YAML first and HCL second.
func parse(data []byte, path string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".repomd" || filepath.Base(path) == ".repomd" {
		cfg, yamlErr := parseYAML(data)
		if yamlErr == nil {
			return cfg, nil
		}
		cfg, hclErr := parseHCL(data, path)
		if hclErr == nil {
			return cfg, nil
		}
		return nil, errors.Errorf("parsing %s as YAML or HCL: %w", path, yamlErr)
	}

	switch ext {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".hcl":
		return parseHCL(data, path)
	default:
		return nil, errors.Errorf("unsupported config extension %q", ext)
	}
}

// 📝 parseJSON loads a configuration from JSON data
func parseJSON(data []byte) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &cfg, nil
}

// 📝 parseYAML loads a configuration from YAML data
func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// 📝 parseHCL loads a configuration from HCL data
func parseHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &cfg, nil
}

// ✅ Validate checks the ignore patterns are valid globs
func (c *Config) Validate() error {
	for _, pattern := range c.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return nil
}
