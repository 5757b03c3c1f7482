// Package servecmder provides the serve command for running the engram server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/engramhq/engram/api"
	"github.com/engramhq/engram/api/mcp"
	"github.com/engramhq/engram/pkg/config"
	"github.com/engramhq/engram/pkg/dotdir"
	"github.com/engramhq/engram/pkg/embeddings"
	embeddingutils "github.com/engramhq/engram/pkg/embeddings/utils"
	"github.com/engramhq/engram/pkg/eventstream"
	kafkastream "github.com/engramhq/engram/pkg/eventstream/kafka"
	"github.com/engramhq/engram/pkg/eventstream/nop"
	"github.com/engramhq/engram/pkg/ingest"
	"github.com/engramhq/engram/pkg/logger"
	"github.com/engramhq/engram/pkg/record"
	"github.com/engramhq/engram/pkg/record/inmemory"
	"github.com/engramhq/engram/pkg/record/libsql"
	"github.com/engramhq/engram/pkg/record/postgres"
	"github.com/engramhq/engram/pkg/record/sqlite"
	"github.com/engramhq/engram/pkg/search"
	"github.com/engramhq/engram/pkg/vector"
	vectorutils "github.com/engramhq/engram/pkg/vector/utils"
)

type ServeCommander struct {
	listen    string
	debug     bool
	configDir string
	logger    *zap.Logger
	v         *viper.Viper
}

const serveLongDesc string = `Run the Engram server.

Starts the HTTP API and the MCP endpoint on a single listener. Storage,
vector store, embedding and event stream backends are selected via
config.toml, environment variables (ENGRAM_*), or flags.

  engram serve
  engram serve --listen :9000
  ENGRAM_STORAGE_PROVIDER=postgres engram serve`

const serveShortDesc string = "Run the Engram server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("listen") {
				_ = v.BindPFlag("api.listen", cmd.Flags().Lookup("listen"))
			}

			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the server to listen on")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithJSON(true))
	defer func() { _ = c.logger.Sync() }()

	v := c.v

	// Resolve the data directory up front so sqlite-backed components get
	// stable default paths.
	ddm := dotdir.NewManager()
	dataDir, err := ddm.Target(c.configDir)
	if err != nil {
		return fmt.Errorf("resolving data dir: %w", err)
	}

	store, err := c.createStore(v, dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, vectorDriver := c.createVectorStack(v, dataDir)
	if embedder != nil {
		defer embedder.Close()
	}
	if vectorDriver != nil {
		defer vectorDriver.Close()
	}

	publisher, err := c.createPublisher(v)
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := ingest.NewPool(&ingest.Config{
		VectorDriver: vectorDriver,
		Embedder:     embedder,
		Publisher:    publisher,
		StoreName:    v.GetString("storage.provider"),
		NumWorkers:   v.GetUint("ingest.workers"),
		QueueSize:    v.GetUint("ingest.queue_size"),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating indexing pool: %w", err)
	}

	var vectorChannel *search.VectorChannel
	if vectorDriver != nil && embedder != nil {
		vectorChannel = search.NewVectorChannel(embedder, vectorDriver, c.logger)
	}
	orchestrator := search.NewOrchestrator(store, vectorChannel, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Store:        store,
		Orchestrator: orchestrator,
		Pool:         pool,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer := api.NewServer(
		api.Config{ListenAddr: v.GetString("api.listen")},
		store,
		orchestrator,
		pool,
		mcpServer.Handler(),
		c.logger,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	stopWatch := c.watchConfig(dataDir)
	defer stopWatch()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		pool.Close()
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	if err := apiServer.Shutdown(); err != nil {
		c.logger.Warn("API server shutdown", zap.Error(err))
	}

	// Drain pending indexing work after the listener has stopped accepting.
	pool.Close()

	return nil
}

func (c *ServeCommander) createStore(v *viper.Viper, dataDir string) (record.Store, error) {
	provider := v.GetString("storage.provider")

	switch provider {
	case "inmemory":
		c.logger.Info("using in-memory record store")
		return inmemory.NewStore(), nil

	case "sqlite":
		path := v.GetString("storage.sqlite_path")
		if path == "" {
			path = filepath.Join(dataDir, "engram.db")
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite store: %w", err)
		}
		c.logger.Info("using sqlite record store", zap.String("path", path))
		return store, nil

	case "postgres":
		url := v.GetString("storage.postgres_url")
		if url == "" {
			return nil, fmt.Errorf("storage.postgres_url is required for the postgres provider")
		}
		store, err := postgres.NewStore(context.Background(), url)
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		c.logger.Info("using postgres record store")
		return store, nil

	case "libsql":
		url := v.GetString("storage.libsql_url")
		if url == "" {
			return nil, fmt.Errorf("storage.libsql_url is required for the libsql provider")
		}
		store, err := libsql.NewStore(context.Background(), url)
		if err != nil {
			return nil, fmt.Errorf("creating libsql store: %w", err)
		}
		c.logger.Info("using libsql record store")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}

// createVectorStack builds the embedder and vector driver. Both are optional:
// a failure here degrades the server to exact-only search rather than
// preventing startup.
func (c *ServeCommander) createVectorStack(v *viper.Viper, dataDir string) (embeddings.Embedder, vector.Driver) {
	provider := v.GetString("vector_store.provider")
	if provider == "" || provider == "none" {
		c.logger.Info("vector store disabled, search runs exact-only")
		return nil, nil
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
		Dimensions:   v.GetUint("embedding.dimensions"),
	})
	if err != nil {
		c.logger.Warn("embedder unavailable, search runs exact-only", zap.Error(err))
		return nil, nil
	}

	dbPath := v.GetString("vector_store.db_path")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "vectors.db")
	}

	driver, err := vectorutils.NewVectorDriver(context.Background(), &vectorutils.NewVectorDriverOpts{
		ProviderType: provider,
		TargetURL:    v.GetString("vector_store.target"),
		Host:         v.GetString("vector_store.host"),
		Port:         v.GetInt("vector_store.port"),
		Collection:   v.GetString("vector_store.collection"),
		DBPath:       dbPath,
		Dimensions:   v.GetUint("embedding.dimensions"),
		Logger:       c.logger,
	})
	if err != nil {
		c.logger.Warn("vector store unavailable, search runs exact-only", zap.Error(err))
		_ = embedder.Close()
		return nil, nil
	}

	c.logger.Info("using vector store", zap.String("provider", provider))
	return embedder, driver
}

func (c *ServeCommander) createPublisher(v *viper.Viper) (eventstream.Publisher, error) {
	provider := v.GetString("events.provider")

	switch provider {
	case "", "none":
		return nop.NewPublisher(), nil

	case "kafka":
		publisher, err := kafkastream.NewPublisher(kafkastream.Config{
			Brokers: v.GetStringSlice("events.brokers"),
			Topic:   v.GetString("events.topic"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing indexed events to kafka",
			zap.Strings("brokers", v.GetStringSlice("events.brokers")),
		)
		return publisher, nil

	default:
		return nil, fmt.Errorf("unsupported events provider: %s", provider)
	}
}

// watchConfig watches the resolved config directory and logs a notice when
// config.toml changes. Config is read once at startup; the notice tells the
// operator a restart is needed for the change to apply.
func (c *ServeCommander) watchConfig(dataDir string) func() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Debug("config watcher unavailable", zap.Error(err))
		return func() {}
	}

	if err := watcher.Add(dataDir); err != nil {
		c.logger.Debug("config watcher unavailable", zap.Error(err))
		_ = watcher.Close()
		return func() {}
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != "config.toml" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				c.logger.Info("config.toml changed, restart to apply",
					zap.String("path", event.Name),
				)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() { _ = watcher.Close() }
}
