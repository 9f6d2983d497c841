package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careline/careline/pkg/auth"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/careline/careline/config"
	"github.com/careline/careline/pkg/classifier"
	"github.com/careline/careline/pkg/dialog"
	"github.com/careline/careline/pkg/models"
	"github.com/careline/careline/pkg/server"
	"github.com/careline/careline/pkg/store/postgres"
	"github.com/careline/careline/pkg/tasks"
)

const (
	ErrStoreTypeNotSet   = "store.type must be set"
	ErrPostgresDSNNotSet = "store.postgres.dsn must be set"
	StoreTypePostgres    = "postgres"
)

// run is the entrypoint for the careline server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring Careline: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting careline server version %s", config.VersionString)

	config.SetLogLevel(cfg)
	appState := NewAppState(cfg)

	srv := server.Create(appState)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState creates an AppState struct from the config file / ENV,
// initializes the store, the classifier, the task router, and the
// dialog engine.
func NewAppState(cfg *config.Config) *models.AppState {
	ctx := context.Background()

	appState := &models.AppState{
		Config: cfg,
	}

	db := initializeStores(ctx, appState)
	initializeClassifier(ctx, appState)

	tasks.RunTaskRouter(ctx, appState)

	engine, err := dialog.NewEngine(ctx, appState)
	if err != nil {
		log.Fatalf("Failed to create dialog engine: %v", err)
	}
	appState.Dialog = engine

	setupSignalHandler(db)

	return appState
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Fatalf("Error dumping config: %s", err)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
	if generateKey {
		fmt.Println(auth.GenerateJWT(cfg))
		os.Exit(0)
	}
}

// initializeStores connects to the database, ensures the schema and the
// default rule set exist, and registers the store DAOs.
func initializeStores(ctx context.Context, appState *models.AppState) *bun.DB {
	if appState.Config.Store.Type == "" {
		log.Fatal(ErrStoreTypeNotSet)
	}
	if appState.Config.Store.Type != StoreTypePostgres {
		log.Fatalf("store.type (%s) is not supported", appState.Config.Store.Type)
	}
	if appState.Config.Store.Postgres.DSN == "" {
		log.Fatal(ErrPostgresDSNNotSet)
	}

	db, err := postgres.NewPostgresConn(appState)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if appState.Config.Log.Level == "debug" {
		pgDebugLogging(db)
	}

	if err := postgres.CreateSchema(ctx, db); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	if err := postgres.SeedDefaultRules(ctx, db); err != nil {
		log.Fatalf("Failed to seed default rules: %v", err)
	}

	appState.RuleStore = postgres.NewRuleStoreDAO(db)
	appState.CallerStore = postgres.NewCallerStoreDAO(db)
	appState.ConversationStore = postgres.NewConversationStoreDAO(db)

	log.Info("Using store: ", appState.Config.Store.Type)
	return db
}

// initializeClassifier creates the fallback intent classifier from the
// intents known to the rule store.
func initializeClassifier(ctx context.Context, appState *models.AppState) {
	intents, err := appState.RuleStore.GetIntents(ctx)
	if err != nil {
		log.Fatalf("Failed to load intents: %v", err)
	}

	clsfr, err := classifier.NewClassifier(ctx, appState.Config, intents)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}
	appState.Classifier = clsfr
}

func pgDebugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

// setupSignalHandler sets up a signal handler to close the store connection on termination
func setupSignalHandler(db *bun.DB) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if err := db.Close(); err != nil {
			log.Errorf("Error closing store connection: %v", err)
		}
		os.Exit(0)
	}()
}
