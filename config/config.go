// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads searchdbctl's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for searchdbctl.
type Config struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	Query   QueryConfig   `yaml:"query"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// CorpusConfig controls document ingestion.
type CorpusConfig struct {
	Dir      string        `yaml:"dir"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
	Parallel int           `yaml:"parallel"`
}

// QueryConfig sets the default candidate-set sizes for the two sub-indexes.
type QueryConfig struct {
	BM25K int `yaml:"bm25_k"`
	KNNK  int `yaml:"knn_k"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig holds log level and format settings. No searchdbctl command reads
// them; logging goes through the standard log package.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with the same defaults searchdbctl runs with when
// no --config flag is given.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir:      ".",
			Watch:    false,
			Debounce: 500 * time.Millisecond,
			Parallel: 8,
		},
		Query: QueryConfig{
			BM25K: 10,
			KNNK:  10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses a YAML config file at path, starting from Default()
// so that any field the file omits keeps its default value. An empty path
// returns Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields Load cannot trust blindly: k sizes must be
// non-negative and the corpus directory must be set.
func (c *Config) Validate() error {
	if c.Corpus.Dir == "" {
		return fmt.Errorf("corpus.dir must not be empty")
	}
	if c.Query.BM25K < 0 {
		return fmt.Errorf("query.bm25_k must be >= 0, got %d", c.Query.BM25K)
	}
	if c.Query.KNNK < 0 {
		return fmt.Errorf("query.knn_k must be >= 0, got %d", c.Query.KNNK)
	}
	if c.Corpus.Debounce < 0 {
		return fmt.Errorf("corpus.debounce must be >= 0, got %s", c.Corpus.Debounce)
	}
	return nil
}
