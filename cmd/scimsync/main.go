package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"f0oster/scimsync/cache"
	"f0oster/scimsync/config"
	"f0oster/scimsync/database"
	"f0oster/scimsync/directory"
	"f0oster/scimsync/logging"
	"f0oster/scimsync/provisioning"
	"f0oster/scimsync/render"
	"f0oster/scimsync/scim"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appName = "scimsync"

const (
	exitSucceeded      = 0
	exitAborted        = 1
	exitPartialFailure = 2
	exitPersistFailed  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "settings.env", "Path to the settings file")
	dryRun := flag.Bool("dry-run", false, "Compute and log the plan without changing anything")
	resetCache := flag.Bool("reset-cache-schema", false, "Drop and recreate the Postgres cache table, then exit")
	flag.Parse()

	logging.Init(appName, zerolog.InfoLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Str("config", *configPath).Msg("failed to load configuration")
		return exitAborted
	}
	logging.Init(appName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store cache.Store
	if cfg.CacheDSN != "" {
		db := database.NewDatabase(cfg.CacheDSN)
		if err := db.Connect(ctx); err != nil {
			log.Error().Err(err).Msg("failed to connect to cache database")
			return exitAborted
		}
		defer db.Close()

		if *resetCache {
			if err := db.ResetSchema(ctx); err != nil {
				log.Error().Err(err).Msg("failed to reset cache schema")
				return exitAborted
			}
			return exitSucceeded
		}
		if err := db.EnsureSchema(ctx); err != nil {
			log.Error().Err(err).Msg("failed to prepare cache schema")
			return exitAborted
		}
		store = database.NewCacheStore(db)
	} else {
		if *resetCache {
			log.Error().Msgf("-reset-cache-schema requires %s", config.CacheDSN)
			return exitAborted
		}
		fileStore := cache.NewFileStore(cfg.CacheFile)
		log.Debug().Str("cache_file", fileStore.Path()).Msg("using file cache store")
		store = fileStore
	}

	tmpl, err := render.Load(cfg.TemplatePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load SCIM template")
		return exitAborted
	}

	client, err := scim.NewClient(cfg.SCIM)
	if err != nil {
		log.Error().Err(err).Msg("failed to create SCIM client")
		return exitAborted
	}

	service := provisioning.NewService(
		store,
		directory.NewFetcher(cfg.Directory),
		provisioning.NewExecutor(tmpl, client, cfg.OperationTimeout),
		provisioning.Options{
			Workers:    cfg.Workers,
			MaxDeletes: cfg.MaxDeletes,
			DryRun:     *dryRun,
		},
	)

	log.Info().
		Str("collection", client.CollectionURL()).
		Str("base_dn", cfg.Directory.BaseDN).
		Bool("dry_run", *dryRun).
		Msg("starting provisioning run")

	result, err := service.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("provisioning run aborted")
		return exitAborted
	}

	switch result.Status() {
	case provisioning.StatusPartialFailure:
		return exitPartialFailure
	case provisioning.StatusPersistFailed:
		return exitPersistFailed
	default:
		return exitSucceeded
	}
}
