package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds persistent overrides for the offload driver.
// Zero values mean "unspecified"; command-line flags win over file values.
type Config struct {
	CudaPath         string `json:"cuda_path" yaml:"cuda_path" toml:"cuda_path"`
	GCNDeviceLibPath string `json:"gcn_device_lib_path" yaml:"gcn_device_lib_path" toml:"gcn_device_lib_path"`
	PtxasPath        string `json:"ptxas_path" yaml:"ptxas_path" toml:"ptxas_path"`
	TempDir          string `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir"`
	KeepTemps        bool   `json:"keep_temps" yaml:"keep_temps" toml:"keep_temps"`
	Verbose          bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
	LogLevel         string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Flags converts file-sourced overrides into driver argument tokens so
// they flow through the same typed argument list as the command line.
func (c Config) Flags() []string {
	var out []string
	if c.CudaPath != "" {
		out = append(out, "--cuda-path="+c.CudaPath)
	}
	if c.GCNDeviceLibPath != "" {
		out = append(out, "--gcn-device-lib-path="+c.GCNDeviceLibPath)
	}
	if c.PtxasPath != "" {
		out = append(out, "--ptxas-path="+c.PtxasPath)
	}
	if c.KeepTemps {
		out = append(out, "-save-temps")
	}
	if c.Verbose {
		out = append(out, "-v")
	}
	return out
}
