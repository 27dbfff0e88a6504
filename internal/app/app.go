package app

import (
	"context"
	"log"
	"log/slog"

	"github.com/suprdory/filmvote/core/internal/config"
	http_catalog "github.com/suprdory/filmvote/core/internal/delivery/http/catalog"
	http_init "github.com/suprdory/filmvote/core/internal/delivery/http/init"
	http_session "github.com/suprdory/filmvote/core/internal/delivery/http/session"
	ws_session "github.com/suprdory/filmvote/core/internal/delivery/ws/session"
	infra_catalog_jsonfile "github.com/suprdory/filmvote/core/internal/infra/catalog/jsonfile"
	infra_catalog_postgres "github.com/suprdory/filmvote/core/internal/infra/catalog/postgres"
	infra_pg_init "github.com/suprdory/filmvote/core/internal/infra/postgres/init"
	infra_redis_init "github.com/suprdory/filmvote/core/internal/infra/redis/init"
	infra_redis_results "github.com/suprdory/filmvote/core/internal/infra/redis/results"
	usecase_catalog "github.com/suprdory/filmvote/core/internal/usecase/catalog"
	usecase_registry "github.com/suprdory/filmvote/core/internal/usecase/registry"
	usecase_session "github.com/suprdory/filmvote/core/internal/usecase/session"
)

func Go(cfg *config.Config) {
	logger := slog.Default()

	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	resultsArchive := infra_redis_results.New(redisConn, "filmvote")

	var catalogRepository usecase_catalog.CatalogRepository
	switch cfg.Catalog.Driver {
	case "postgres":
		pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
		catalogRepository = infra_catalog_postgres.New(pgConn)
	case "json":
		catalogRepository = infra_catalog_jsonfile.New(cfg.Catalog.JSONPath)
	default:
		log.Fatalf("unknown catalog driver: %s", cfg.Catalog.Driver)
	}

	catalogUC := usecase_catalog.New(catalogRepository)

	registry := usecase_registry.New(cfg.Sessions.IdleTTL,
		usecase_registry.WithLogger(logger),
		usecase_registry.WithSessionOptions(
			usecase_session.WithArchiver(resultsArchive),
			usecase_session.WithLogger(logger),
		),
	)
	go registry.RunSweeper(context.Background(), cfg.Sessions.SweepInterval)

	hub := ws_session.NewHub(logger)
	go hub.Run()

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_session.New(registry))
	controllerPool.Add(http_catalog.New(catalogUC))
	controllerPool.Add(ws_session.NewController(hub, registry, cfg.Sessions.HybridThreshold))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
