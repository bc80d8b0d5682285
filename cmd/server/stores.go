package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jpilocastillo/m8bizz-sub004/costcenters"
	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	"github.com/jpilocastillo/m8bizz-sub004/internal/database"
	"github.com/jpilocastillo/m8bizz-sub004/profiles"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type stores struct {
	Sessions    sessions.Repo
	Profiles    profiles.Repo
	CostCenters costcenters.Repo

	db    *sql.DB
	redis *redis.Client
}

// openStores uses Redis for sessions and Postgres for profiles and cost
// centers when configured, and in-memory stores otherwise.
func openStores(ctx context.Context, c config.Config) (*stores, error) {
	s := &stores{}

	if url := c.GetRedisURL(); url != "" {
		client, err := sessions.NewRedisClient(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		s.redis = client
		s.Sessions = sessions.NewRedisRepo(client, c.GetSessionTTL())
	} else {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		s.Sessions = sessions.NewInMemoryRepo()
	}

	if dsn := c.GetDatabaseURL(); dsn != "" {
		db, err := database.NewPostgres(ctx, database.PostgresConfig{
			DSN:             dsn,
			MaxOpenConns:    c.GetDBMaxOpenConns(),
			MaxIdleConns:    c.GetDBMaxIdleConns(),
			ConnMaxLifetime: c.GetDBConnMaxLifetime(),
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.db = db
		if err := database.Migrate(ctx, db); err != nil {
			s.Close()
			return nil, err
		}
		s.Profiles = profiles.NewPostgresRepo(db)
		s.CostCenters = costcenters.NewPostgresRepo(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, profiles and cost centers are kept in memory")
		s.Profiles = profiles.NewInMemoryRepo()
		s.CostCenters = costcenters.NewInMemoryRepo()
	}

	return s, nil
}

func (s *stores) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Err(err).Msg("failed to close postgres")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Err(err).Msg("failed to close redis")
		}
	}
}
