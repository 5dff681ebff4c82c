package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"spreadeye/internal/application/port"
	"spreadeye/internal/application/service"
	"spreadeye/internal/infrastructure/config"
	"spreadeye/internal/infrastructure/exchange"
	compositerepo "spreadeye/internal/infrastructure/storage/composite"
	postgresrepo "spreadeye/internal/infrastructure/storage/postgres"
	redisrepo "spreadeye/internal/infrastructure/storage/redis"
	sqliterepo "spreadeye/internal/infrastructure/storage/sqlite"
)

// Container wires the configured storage backends and exchange
// adapters.
type Container struct {
	cfg *config.Config

	adapters  map[string]exchange.Adapter
	repos     []port.Repository
	closeOnce sync.Once
	closeErr  error
}

func New(cfg *config.Config) (*Container, error) {
	c := &Container{cfg: cfg}

	if err := c.initAdapters(); err != nil {
		return nil, err
	}
	if cfg.Storage.Enabled {
		if err := c.initStorage(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Adapters returns one adapter per enabled exchange.
func (c *Container) Adapters() map[string]exchange.Adapter {
	return c.adapters
}

// Repository returns the composite over every enabled backend, or a
// noop repository when storage is disabled.
func (c *Container) Repository() port.Repository {
	if len(c.repos) == 0 {
		return service.NewNoopRepo()
	}
	return compositerepo.New(c.repos...)
}

func (c *Container) initAdapters() error {
	c.adapters = make(map[string]exchange.Adapter)
	for name, ec := range c.cfg.EnabledExchanges() {
		factory, ok := exchange.Get(name)
		if !ok {
			return fmt.Errorf("no adapter registered for exchange %q", name)
		}
		c.adapters[name] = factory(ec.WsURL)
		log.Info().Str("exchange", name).Msg("adapter initialized")
	}
	return nil
}

func (c *Container) initStorage() error {
	if c.cfg.Storage.SQLite.Enabled {
		repo, err := sqliterepo.New(c.cfg.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite init failed: %w", err)
		}
		c.repos = append(c.repos, repo)
		log.Info().Str("path", c.cfg.Storage.SQLite.Path).Msg("sqlite storage enabled")
	}

	if c.cfg.Storage.Postgres.Enabled {
		repo, err := postgresrepo.New(c.cfg.Storage.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
		c.repos = append(c.repos, repo)
		log.Info().Msg("postgres storage enabled")
	}

	if c.cfg.Storage.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.cfg.Storage.Redis.Addr,
			Password: c.cfg.Storage.Redis.Password,
			DB:       c.cfg.Storage.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return fmt.Errorf("redis init failed: %w", err)
		}
		ttl := time.Duration(c.cfg.Storage.Redis.TTLSec) * time.Second
		c.repos = append(c.repos, redisrepo.New(rdb, c.cfg.Storage.Redis.Prefix, ttl))
		log.Info().Str("addr", c.cfg.Storage.Redis.Addr).Msg("redis storage enabled")
	}

	return nil
}

func (c *Container) Close() error {
	c.closeOnce.Do(func() {
		for _, repo := range c.repos {
			if err := repo.Close(); err != nil && c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}
