// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration file. Every field has a
// command line flag of the same name; flags given explicitly win.
type FileConfig struct {
	Addr           string        `yaml:"addr"`
	DataDir        string        `yaml:"data-dir"`
	Debug          bool          `yaml:"debug"`
	TLSCert        string        `yaml:"tls-cert"`
	TLSKey         string        `yaml:"tls-key"`
	AllowedOrigins []string      `yaml:"allowed-origins"`
	ThreeOutsDelay time.Duration `yaml:"three-outs-delay"`
}

// LoadConfig reads a FileConfig from path.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Apply copies the file values into opts, skipping the settings named in
// explicit.
func (c *FileConfig) Apply(opts *Options, explicit map[string]bool) {
	if c.Addr != "" && !explicit["addr"] {
		opts.Addr = c.Addr
	}
	if c.DataDir != "" && !explicit["data-dir"] {
		opts.DataDir = c.DataDir
	}
	if c.Debug && !explicit["debug"] {
		opts.Debug = true
	}
	if len(c.AllowedOrigins) > 0 && !explicit["allowed-origins"] {
		opts.AllowedOrigins = c.AllowedOrigins
	}
	if c.ThreeOutsDelay > 0 && !explicit["three-outs-delay"] {
		opts.ThreeOutsDelay = c.ThreeOutsDelay
	}
}
