package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent echotext configuration stored as
// config.toml in the .echotext/ directory. The TOML layout uses sections for
// logical grouping: one reservoir profile per experiment kind, plus the run
// registry, results API and event stream settings.
type Config struct {
	Version  int            `toml:"version"`
	Cluster  ClusterConfig  `toml:"cluster"`
	Embed    EmbedConfig    `toml:"embed"`
	Registry RegistryConfig `toml:"registry"`
	API      APIConfig      `toml:"api"`
	Events   EventsConfig   `toml:"events"`
}

// ClusterConfig is the reservoir profile for the POS author-clustering
// experiment.
type ClusterConfig struct {
	Size           uint    `toml:"size,omitempty"`
	LeakRate       float64 `toml:"leak_rate,omitempty"`
	InputScaling   float64 `toml:"input_scaling,omitempty"`
	SpectralRadius float64 `toml:"spectral_radius,omitempty"`
	Sparsity       float64 `toml:"sparsity,omitempty"`
	Seed           int64   `toml:"seed,omitempty"`
}

// EmbedConfig is the reservoir profile for the document-embedding
// experiment.
type EmbedConfig struct {
	Size              uint    `toml:"size,omitempty"`
	LeakRate          float64 `toml:"leak_rate,omitempty"`
	InputScaling      float64 `toml:"input_scaling,omitempty"`
	SpectralRadius    float64 `toml:"spectral_radius,omitempty"`
	InputSparsity     float64 `toml:"input_sparsity,omitempty"`
	RecurrentSparsity float64 `toml:"recurrent_sparsity,omitempty"`
	Seed              int64   `toml:"seed,omitempty"`
}

// RegistryConfig holds run registry settings.
type RegistryConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// APIConfig holds results API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds run-lifecycle event stream settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(get func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if v := *get(c); v != 0 {
				return strconv.FormatUint(uint64(v), 10)
			}
			return ""
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid unsigned integer %q: %w", v, err)
			}
			*get(c) = uint(n)
			return nil
		},
	}
}

func floatKey(get func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if v := *get(c); v != 0 {
				return strconv.FormatFloat(v, 'g', -1, 64)
			}
			return ""
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid float %q: %w", v, err)
			}
			*get(c) = f
			return nil
		},
	}
}

func intKey(get func(c *Config) *int64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if v := *get(c); v != 0 {
				return strconv.FormatInt(v, 10)
			}
			return ""
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer %q: %w", v, err)
			}
			*get(c) = n
			return nil
		},
	}
}

func stringKey(get func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *get(c) },
		set: func(c *Config, v string) error { *get(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"cluster.size":            uintKey(func(c *Config) *uint { return &c.Cluster.Size }),
	"cluster.leak_rate":       floatKey(func(c *Config) *float64 { return &c.Cluster.LeakRate }),
	"cluster.input_scaling":   floatKey(func(c *Config) *float64 { return &c.Cluster.InputScaling }),
	"cluster.spectral_radius": floatKey(func(c *Config) *float64 { return &c.Cluster.SpectralRadius }),
	"cluster.sparsity":        floatKey(func(c *Config) *float64 { return &c.Cluster.Sparsity }),
	"cluster.seed":            intKey(func(c *Config) *int64 { return &c.Cluster.Seed }),

	"embed.size":               uintKey(func(c *Config) *uint { return &c.Embed.Size }),
	"embed.leak_rate":          floatKey(func(c *Config) *float64 { return &c.Embed.LeakRate }),
	"embed.input_scaling":      floatKey(func(c *Config) *float64 { return &c.Embed.InputScaling }),
	"embed.spectral_radius":    floatKey(func(c *Config) *float64 { return &c.Embed.SpectralRadius }),
	"embed.input_sparsity":     floatKey(func(c *Config) *float64 { return &c.Embed.InputSparsity }),
	"embed.recurrent_sparsity": floatKey(func(c *Config) *float64 { return &c.Embed.RecurrentSparsity }),
	"embed.seed":               intKey(func(c *Config) *int64 { return &c.Embed.Seed }),

	"registry.sqlite_path": stringKey(func(c *Config) *string { return &c.Registry.SQLitePath }),
	"api.listen":           stringKey(func(c *Config) *string { return &c.API.Listen }),
	"events.provider":      stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":       stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":         stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
