package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// HostConfig overrides the environment-query defaults a standalone Host
// reports through `the`. An embedder that wants `the moviepath` or
// `the platform` to mean something real supplies one of these rather than
// hardcoding it into the VM, mirroring how the toolchain's own config
// files override built-in defaults.
type HostConfig struct {
	MoviePath    string `yaml:"moviepath"`
	DirSeparator string `yaml:"dirseparator"`
	Platform     string `yaml:"platform"`
	RandomSeed   int32  `yaml:"randomseed"`
}

// LoadHostConfig reads a YAML host-config file. A missing file is not an
// error; callers get a zero-value HostConfig and fall back to built-in
// defaults.
func LoadHostConfig(path string) (HostConfig, error) {
	var cfg HostConfig
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
