package main

import (
	"fmt"
	"os"

	"github.com/amaumene/gocatalog/internal/cache"
	"github.com/amaumene/gocatalog/internal/config"
	"github.com/amaumene/gocatalog/internal/database"
	"github.com/amaumene/gocatalog/internal/handlers"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/internal/pipeline"
	"github.com/amaumene/gocatalog/internal/services"
	"github.com/amaumene/gocatalog/pkg/logger"
)

var (
	Logger           logger.Logger
	Config           *config.ServerConfig
	DB               database.Store
	documentCache    *cache.LRUCache
	handler          *handlers.Handler
	serviceContainer *services.Container
)

func InitializeConfig() {
	var err error
	Config, err = config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if !logger.ValidLevel(Config.LogLevel) {
		fmt.Fprintf(os.Stderr, "unknown log level %q, defaulting to info\n", Config.LogLevel)
	}
	Logger = logger.NewWithOutput(os.Stdout, logger.ParseLevel(Config.LogLevel))
}

func InitializeDatabase() {
	var err error
	DB, err = database.Open(database.Options{
		Driver:      Config.DatabaseDriver,
		Path:        Config.DatabasePath,
		PostgresDSN: Config.PostgresDSN,
	}, Logger)
	if err != nil {
		Logger.Fatalf("[App] failed to initialize database: %v", err)
	}

	Logger.Infof("[App] %s database initialized successfully", Config.DatabaseDriver)
}

func InitializeServices() {
	documentCache = cache.New(Config.CacheSize, Config.CacheTTL)

	serviceContainer = &services.Container{
		Store:  DB,
		Cache:  documentCache,
		Logger: Logger,
	}

	if Config.TMDBEnabled() {
		tmdbService := services.NewTMDB(services.TMDBOptions{
			APIKey:    Config.TMDB.APIKey,
			BaseURL:   Config.TMDB.BaseURL,
			Language:  Config.TMDB.Language,
			RateLimit: Config.TMDB.RateLimit,
			Timeout:   Config.HTTP.Timeout,
			RetryMax:  Config.HTTP.RetryMax,
			RetryWait: Config.HTTP.RetryWait,
		}, Logger)

		// Title imports write straight into the store and drop stale cached documents.
		local := database.NewLocal(DB, Logger)
		local.OnWrite = func(c models.Collection) { handlers.Invalidate(documentCache, c) }

		serviceContainer.TMDB = tmdbService
		serviceContainer.Importer = pipeline.NewDriver(tmdbService, local, pipeline.Options{
			CastLimit:    Config.CastLimit,
			ImageBaseURL: Config.TMDB.ImageBaseURL,
		}, Logger)
	} else {
		Logger.Warn("[App] TMDB_API_KEY is not set, /api/movies/from-title only searches the catalog")
	}

	handler = handlers.New(serviceContainer)

	Logger.Infof("[App] services initialized successfully")
}
