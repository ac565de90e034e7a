package main

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Sydnethy/2537-Assignment1-SJ/internal/config"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/logging"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/session"
	"github.com/Sydnethy/2537-Assignment1-SJ/internal/users"
)

// stores は設定に応じて選んだユーザーストアとセッションバックエンドです。
type stores struct {
	users    users.Repository
	sessions session.Backend
	closers  []func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *stores, err error) {
	s := &stores{}
	defer func() {
		if err != nil {
			_ = s.Close(ctx)
		}
	}()

	var mongoDB *mongo.Database
	if cfg.UserStore == config.BackendMongo || cfg.SessionBackend == config.BackendMongo {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect mongodb: %w", err)
		}
		s.closers = append(s.closers, client.Disconnect)
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return nil, fmt.Errorf("failed to ping mongodb: %w", err)
		}
		mongoDB = client.Database(cfg.MongoDatabase)
		logger.Info(ctx, "connected to mongodb", "database", cfg.MongoDatabase)
	}

	switch cfg.UserStore {
	case config.BackendMongo:
		repo := users.NewMongoRepository(mongoDB.Collection(cfg.MongoUsersCollection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		s.users = repo
	case config.BackendPostgres:
		db, err := users.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })
		repo := users.NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		s.users = repo
	default:
		logger.Warn(ctx, "using in-memory user store; accounts are lost on restart")
		s.users = users.NewMemoryRepository()
	}

	switch cfg.SessionBackend {
	case config.BackendMongo:
		backend := session.NewMongoBackend(mongoDB.Collection(cfg.MongoSessionsCollection))
		if err := backend.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		s.sessions = backend
	case config.BackendRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		s.closers = append(s.closers, func(context.Context) error { return rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		s.sessions = session.NewRedisBackend(rdb)
	default:
		logger.Warn(ctx, "using in-memory session store; sessions are lost on restart")
		s.sessions = session.NewMemoryBackend()
	}

	return s, nil
}

// Close は開いた接続を逆順に閉じます。
func (s *stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
