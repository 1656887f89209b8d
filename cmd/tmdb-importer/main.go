// Command tmdb-importer copies a range of TMDB movies, with their genres and cast, into the catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/gocatalog/internal/config"
	"github.com/amaumene/gocatalog/internal/pipeline"
	"github.com/amaumene/gocatalog/internal/services"
	"github.com/amaumene/gocatalog/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadImporter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	log := logger.NewWithOutput(os.Stdout, logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tmdb := services.NewTMDB(services.TMDBOptions{
		APIKey:    cfg.TMDB.APIKey,
		BaseURL:   cfg.TMDB.BaseURL,
		Language:  cfg.TMDB.Language,
		RateLimit: cfg.TMDB.RateLimit,
		Timeout:   cfg.HTTP.Timeout,
		RetryMax:  cfg.HTTP.RetryMax,
		RetryWait: cfg.HTTP.RetryWait,
	}, log)
	catalog := services.NewCatalogClient(services.CatalogOptions{
		BaseURL:   cfg.APIBase(),
		Token:     cfg.StrapiToken,
		Timeout:   cfg.HTTP.Timeout,
		RetryMax:  cfg.HTTP.RetryMax,
		RetryWait: cfg.HTTP.RetryWait,
	}, log)

	driver := pipeline.NewDriver(tmdb, catalog, pipeline.Options{
		StartID:      cfg.StartID,
		EndID:        cfg.EndID,
		Delay:        cfg.Delay,
		CastLimit:    cfg.CastLimit,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
	}, log).WithObserver(pipeline.ConsoleObserver{Logger: log, Out: os.Stdout})

	log.Infof("[Import] catalog at %s", cfg.APIBase())
	if _, err := driver.Run(ctx); err != nil {
		log.Errorf("[Import] run interrupted: %v", err)
		return 1
	}
	return 0
}
