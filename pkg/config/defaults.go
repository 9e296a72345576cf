package config

const (
	// Cluster profile: a small reservoir driven by POS one-hots, heavy
	// temporal smoothing.
	defaultClusterSize           = 100
	defaultClusterLeakRate       = 0.05
	defaultClusterInputScaling   = 0.5
	defaultClusterSpectralRadius = 0.9
	defaultClusterSparsity       = 0.5

	// Embed profile: a large reservoir driven by one-hot word vectors with
	// a very sparse input projection.
	defaultEmbedSize              = 2000
	defaultEmbedLeakRate          = 0.5
	defaultEmbedInputScaling      = 1.0
	defaultEmbedSpectralRadius    = 0.99
	defaultEmbedInputSparsity     = 0.005
	defaultEmbedRecurrentSparsity = 0.1

	defaultSeed = 1

	defaultAPIListen = ":8089"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "echotext.runs"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Cluster: ClusterConfig{
			Size:           defaultClusterSize,
			LeakRate:       defaultClusterLeakRate,
			InputScaling:   defaultClusterInputScaling,
			SpectralRadius: defaultClusterSpectralRadius,
			Sparsity:       defaultClusterSparsity,
			Seed:           defaultSeed,
		},
		Embed: EmbedConfig{
			Size:              defaultEmbedSize,
			LeakRate:          defaultEmbedLeakRate,
			InputScaling:      defaultEmbedInputScaling,
			SpectralRadius:    defaultEmbedSpectralRadius,
			InputSparsity:     defaultEmbedInputSparsity,
			RecurrentSparsity: defaultEmbedRecurrentSparsity,
			Seed:              defaultSeed,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
