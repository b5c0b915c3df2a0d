package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/pkg/describe"
	"github.com/shelfsight/shelfsight/pkg/embeddings"
	"github.com/shelfsight/shelfsight/pkg/featurestore"
	"github.com/shelfsight/shelfsight/pkg/gcpclient"
	"github.com/shelfsight/shelfsight/pkg/models"
	"github.com/shelfsight/shelfsight/pkg/search"
	"github.com/shelfsight/shelfsight/pkg/server"
	"github.com/shelfsight/shelfsight/pkg/store/postgres"
)

// run is the entrypoint for the shelfsight server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring shelfsight: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting shelfsight server version %s", config.VersionString)

	config.SetLogLevel(cfg)
	appState, err := NewAppState(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize shelfsight: %s", err)
	}

	srv := server.Create(appState)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState builds every shared client once: the authenticated GCP HTTP
// client backing both the embedding and index clients, the warehouse
// connection, the vision describer, and the search orchestrator on top of
// them. Request handlers only ever read from the returned state.
func NewAppState(ctx context.Context, cfg *config.Config) (*models.AppState, error) {
	gcp, err := gcpclient.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCP client: %w", err)
	}

	embedder := embeddings.NewVertexEmbeddingClient(cfg, gcp)

	index, err := featurestore.NewClient(ctx, cfg, gcp)
	if err != nil {
		return nil, fmt.Errorf("create feature store client: %w", err)
	}

	db := postgres.NewPostgresConn(cfg.Catalog.Postgres.DSN)
	if cfg.Log.Level == "debug" {
		postgres.EnableDebugLogging(db)
	}
	catalog := postgres.NewCatalogStore(db, cfg)

	describer, err := describe.NewVisionDescriber(cfg)
	if err != nil {
		return nil, fmt.Errorf("create describer: %w", err)
	}

	appState := &models.AppState{
		EmbeddingClient: embedder,
		VectorIndex:     index,
		CatalogStore:    catalog,
		Describer:       describer,
		Searcher:        search.NewOrchestrator(cfg, embedder, index, catalog),
		Config:          cfg,
	}

	setupSignalHandler(appState)

	return appState, nil
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		redacted := *cfg
		redacted.Describer.APIKey = "**redacted**"
		out, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			log.Fatalf("Error dumping config: %s", err)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

// setupSignalHandler sets up a signal handler to close the warehouse
// connection on termination
func setupSignalHandler(appState *models.AppState) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if err := appState.CatalogStore.Close(); err != nil {
			log.Errorf("Error closing catalog store connection: %v", err)
		}
		os.Exit(0)
	}()
}
