// Package config reads and writes the chargectl configuration file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

type Location struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type Config struct {
	// Catalog is "static" or "remote".
	Catalog      string `yaml:"catalog"`
	SeedFile     string `yaml:"seed_file,omitempty"`
	CatalogURL   string `yaml:"catalog_url,omitempty"`
	CatalogToken string `yaml:"catalog_token,omitempty"`

	// Home, when set, orders station listings by distance from it.
	Home *Location `yaml:"home,omitempty"`

	PaymentMethod string  `yaml:"payment_method"`
	EnergyKwh     float64 `yaml:"energy_kwh"`
}

var DefaultPath = filepath.Join(xdg.ConfigHome, "chargebook", "config.yaml")

func Default() *Config {
	return &Config{
		Catalog:       "static",
		PaymentMethod: "e_wallet",
		EnergyKwh:     5,
	}
}

// Load reads path, or DefaultPath when path is empty. A missing file yields
// the defaults; fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return yaml.NewEncoder(f).Encode(cfg)
}
