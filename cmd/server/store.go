package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/repository/clickhouse"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/repository/csvfile"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/repository/postgres"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/service"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/config"
)

// openStore picks the incident store: PostgreSQL when DATABASE_URL is set,
// ClickHouse when CLICKHOUSE_ADDR is set, the CSV ledger otherwise.
// A configured database that cannot be reached is an error; the ledger is
// never swapped for a store that would not survive a restart.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.IncidentRepository, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: failed to configure pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres: failed to connect: %w", err)
		}
		repo := postgres.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("Connected to PostgreSQL")
		return repo, pool.Close, nil

	case cfg.ClickHouseAddr != "":
		store, err := clickhouse.Open(ctx, clickhouse.Options{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePass,
		})
		if err != nil {
			return nil, nil, err
		}
		log.WithField("addr", cfg.ClickHouseAddr).Info("Connected to ClickHouse")
		return store, func() { _ = store.Close() }, nil

	default:
		log.WithField("path", cfg.IncidentsCSV).Info("Using CSV incident ledger")
		return csvfile.NewStore(cfg.IncidentsCSV), func() {}, nil
	}
}
