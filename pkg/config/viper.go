package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/echolab/echotext/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ECHOTEXT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ECHOTEXT_EMBED_SIZE, ECHOTEXT_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: ECHOTEXT_CLUSTER_SIZE, ECHOTEXT_EVENTS_BROKERS, etc.
	v.SetEnvPrefix("ECHOTEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Cluster reservoir profile
	v.SetDefault("cluster.size", d.Cluster.Size)
	v.SetDefault("cluster.leak_rate", d.Cluster.LeakRate)
	v.SetDefault("cluster.input_scaling", d.Cluster.InputScaling)
	v.SetDefault("cluster.spectral_radius", d.Cluster.SpectralRadius)
	v.SetDefault("cluster.sparsity", d.Cluster.Sparsity)
	v.SetDefault("cluster.seed", d.Cluster.Seed)

	// Embed reservoir profile
	v.SetDefault("embed.size", d.Embed.Size)
	v.SetDefault("embed.leak_rate", d.Embed.LeakRate)
	v.SetDefault("embed.input_scaling", d.Embed.InputScaling)
	v.SetDefault("embed.spectral_radius", d.Embed.SpectralRadius)
	v.SetDefault("embed.input_sparsity", d.Embed.InputSparsity)
	v.SetDefault("embed.recurrent_sparsity", d.Embed.RecurrentSparsity)
	v.SetDefault("embed.seed", d.Embed.Seed)

	// Registry
	v.SetDefault("registry.sqlite_path", d.Registry.SQLitePath)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
