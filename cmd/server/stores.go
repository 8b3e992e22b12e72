package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/config"
	"github.com/aliskhannn/examprep/internal/infra/memory"
	"github.com/aliskhannn/examprep/internal/infra/postgres"
	"github.com/aliskhannn/examprep/internal/infra/postgres/repository"
	"github.com/aliskhannn/examprep/internal/infra/redislock"
	"github.com/aliskhannn/examprep/internal/service"
)

type stores struct {
	cards    service.CardStore
	history  service.HistoryStore
	sessions service.SessionStore
	progress service.ProgressStore
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		lg.Warn("using in-memory storage, data is lost on restart")
		db := memory.NewDB()
		return &stores{
			cards:    db.Cards(),
			history:  db.History(),
			sessions: db.Sessions(),
			progress: db.Progress(),
			close:    func() {},
		}, nil
	}

	dsn, err := cfg.DB.DSN()
	if err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		lg.Info("database schema applied")
	}

	// Initialize repositories.
	return &stores{
		cards:    repository.NewCardRepository(pool, postgres.NewTransactor(pool)),
		history:  repository.NewHistoryRepository(pool),
		sessions: repository.NewSessionRepository(pool),
		progress: repository.NewTopicProgressRepository(pool),
		close:    pool.Close,
	}, nil
}

// newLocker returns the Redis lock when Redis is configured and the
// in-process lock otherwise.
func newLocker(ctx context.Context, cfg *config.Config, lg *zap.Logger) (service.CardLocker, func(), error) {
	if cfg.Redis.Addr == "" {
		return service.NewKeyedLocker(), func() {}, nil
	}

	rdb, err := redislock.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	locker := redislock.New(rdb, redislock.Config{
		TTL:  cfg.Redis.LockTTL,
		Wait: cfg.Redis.LockWait,
	}, lg)
	lg.Info("using redis card lock", zap.String("addr", cfg.Redis.Addr))

	return locker, func() { _ = rdb.Close() }, nil
}
