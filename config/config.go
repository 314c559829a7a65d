// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the optional YAML configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jcodagnone/trackeval/projection"
	"gopkg.in/yaml.v3"
)

// Config holds the evaluation defaults. Command line flags take precedence.
type Config struct {
	// CRS is the planar system used to project predictions onto trajectories.
	CRS          string `yaml:"crs" validate:"required"`
	Concurrency  int    `yaml:"concurrency" validate:"gte=0"`
	H3Resolution int    `yaml:"h3_resolution" validate:"gte=0,lte=15"`
	DbPath       string `yaml:"db_path"`
	Listen       string `yaml:"listen" validate:"required,hostname_port"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		CRS:    projection.WebMercator,
		Listen: "localhost:8080",
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field ranges and that the CRS is supported.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := projection.New(c.CRS); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}
