package main

import (
	"context"
	"fmt"

	"schoolpay/internal/config"
	"schoolpay/internal/session"
	"schoolpay/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// openStore builds the snapshot store selected by SESSION_STORE.
// The returned close func releases whatever connection the store holds.
func openStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	noop := func() {}

	switch cfg.Session.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(), noop, nil

	case config.StoreFile:
		s, err := session.NewFileStore(cfg.Session.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.StoreRedis:
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, nil, err
		}
		s, err := session.NewRedisStore(rdb, cfg.Session.Key)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return s, func() { _ = rdb.Close() }, nil

	case config.StorePostgres:
		db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return nil, nil, err
		}
		s, err := session.NewPostgresStore(db, cfg.Session.Key)
		if err == nil {
			err = s.EnsureSchema(ctx)
		}
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
