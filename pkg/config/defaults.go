package config

const (
	defaultStorageProvider = "sqlite"
	defaultAPIListen       = ":8090"

	defaultClientAPITarget = "http://localhost:8090"

	defaultVectorProvider = "sqlite-vec"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultSearchLimit     = 10
	defaultSearchThreshold = 0.1

	defaultEventsProvider = "none"

	defaultIngestWorkers   uint = 3
	defaultIngestQueueSize uint = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Search: SearchConfig{
			Limit:               defaultSearchLimit,
			Threshold:           defaultSearchThreshold,
			IncludeGraphContext: true,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
		},
	}
}
