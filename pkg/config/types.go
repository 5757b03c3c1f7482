package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent engram configuration stored as config.toml
// in the .engram/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Search      SearchConfig      `toml:"search"`
	Events      EventsConfig      `toml:"events"`
	Ingest      IngestConfig      `toml:"ingest"`
}

// StorageConfig holds record store settings.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresURL string `toml:"postgres_url,omitempty"`
	LibSQLURL   string `toml:"libsql_url,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. engram search). Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Host       string `toml:"host,omitempty"`
	Port       int    `toml:"port,omitempty"`
	Collection string `toml:"collection,omitempty"`
	DBPath     string `toml:"db_path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// SearchConfig holds default search behavior.
type SearchConfig struct {
	Limit               int     `toml:"limit,omitempty"`
	Threshold           float64 `toml:"threshold,omitempty"`
	IncludeGraphContext bool    `toml:"include_graph_context"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// IngestConfig holds indexing worker pool settings.
type IngestConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_url": {
		get: func(c *Config) string { return c.Storage.PostgresURL },
		set: func(c *Config, v string) error { c.Storage.PostgresURL = v; return nil },
	},
	"storage.libsql_url": {
		get: func(c *Config) string { return c.Storage.LibSQLURL },
		set: func(c *Config, v string) error { c.Storage.LibSQLURL = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.host": {
		get: func(c *Config) string { return c.VectorStore.Host },
		set: func(c *Config, v string) error { c.VectorStore.Host = v; return nil },
	},
	"vector_store.port": {
		get: func(c *Config) string {
			if c.VectorStore.Port == 0 {
				return ""
			}
			return strconv.Itoa(c.VectorStore.Port)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for vector_store.port: %w", err)
			}
			c.VectorStore.Port = n
			return nil
		},
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"vector_store.db_path": {
		get: func(c *Config) string { return c.VectorStore.DBPath },
		set: func(c *Config, v string) error { c.VectorStore.DBPath = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"search.limit": {
		get: func(c *Config) string {
			if c.Search.Limit == 0 {
				return ""
			}
			return strconv.Itoa(c.Search.Limit)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.limit: %w", err)
			}
			c.Search.Limit = n
			return nil
		},
	},
	"search.threshold": {
		get: func(c *Config) string {
			if c.Search.Threshold == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Search.Threshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.threshold: %w", err)
			}
			c.Search.Threshold = f
			return nil
		},
	},
	"search.include_graph_context": {
		get: func(c *Config) string { return strconv.FormatBool(c.Search.IncludeGraphContext) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.include_graph_context: %w", err)
			}
			c.Search.IncludeGraphContext = b
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for _, broker := range strings.Split(v, ",") {
				if broker = strings.TrimSpace(broker); broker != "" {
					c.Events.Brokers = append(c.Events.Brokers, broker)
				}
			}
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"ingest.workers": {
		get: func(c *Config) string {
			if c.Ingest.Workers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Ingest.Workers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for ingest.workers: %w", err)
			}
			c.Ingest.Workers = uint(n)
			return nil
		},
	},
	"ingest.queue_size": {
		get: func(c *Config) string {
			if c.Ingest.QueueSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Ingest.QueueSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for ingest.queue_size: %w", err)
			}
			c.Ingest.QueueSize = uint(n)
			return nil
		},
	},
}
