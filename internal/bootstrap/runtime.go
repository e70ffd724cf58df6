// Package bootstrap wires the stores, cache and tracing shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mentorbridge/internal/cache"
	"mentorbridge/internal/config"
	"mentorbridge/internal/database"
	"mentorbridge/internal/middleware"
	"mentorbridge/internal/mongostore"
	"mentorbridge/internal/observability"
	"mentorbridge/internal/repository"
	"mentorbridge/internal/server"
	"mentorbridge/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// EnsureAdmin creates the configured admin account when missing.
	EnsureAdmin bool
	// Tracing starts the OpenTelemetry provider from cfg.
	Tracing bool
}

// Runtime holds the connections a command runs against.
type Runtime struct {
	Users   repository.UserRepository
	Matches repository.MatchRepository
	Redis   *redis.Client
	// DB is the SQL primary; nil on the mongo driver.
	DB *gorm.DB

	storePing func(ctx context.Context) error
	closers   []func(ctx context.Context) error
}

// InitRuntime connects the configured store and Redis and optionally
// ensures the admin account.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	slog.SetDefault(middleware.Logger)
	observability.SetLogger(middleware.Logger)

	rt := &Runtime{}

	if opts.Tracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:  "mentorbridge",
			Environment:  cfg.Env,
			Enabled:      cfg.TracingEnabled,
			Exporter:     cfg.TracingExporter,
			OTLPEndpoint: cfg.OTLPEndpoint,
			SamplerRatio: cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.closers = append(rt.closers, shutdown)
	}

	if err := rt.connectStore(ctx, cfg); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	// Redis is optional; without it the server falls back to in-memory
	// sessions and limits.
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}
	if rt.Redis != nil {
		rt.Users = repository.NewCachedUserRepository(rt.Users, rt.Redis)
		rdb := rt.Redis
		rt.closers = append(rt.closers, func(context.Context) error { return rdb.Close() })
	}

	if opts.EnsureAdmin {
		if err := rt.ensureAdmin(ctx, cfg); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
	}

	return rt, nil
}

func (rt *Runtime) connectStore(ctx context.Context, cfg *config.Config) error {
	if cfg.DBDriver == config.DriverMongo {
		store, err := mongostore.NewStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("mongo connection failed: %w", err)
		}
		rt.Users = store.Users()
		rt.Matches = store.Matches()
		rt.storePing = store.Ping
		rt.closers = append(rt.closers, func(context.Context) error { return store.Close() })
		return nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db
	rt.Users = repository.NewUserRepository(db)
	rt.Matches = repository.NewMatchRepository(db)
	rt.storePing = func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return database.Close() })
	return nil
}

func (rt *Runtime) ensureAdmin(ctx context.Context, cfg *config.Config) error {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return nil
	}
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set when ADMIN_EMAIL is set")
	}
	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}

	_, created, err := service.NewAuthService(rt.Users, 0).EnsureAdmin(ctx, name, email, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		slog.Info("Admin account created", slog.String("email", email))
	}
	return nil
}

// ServerDeps returns the collaborators server.NewServer needs.
func (rt *Runtime) ServerDeps() server.Deps {
	return server.Deps{
		Users:     rt.Users,
		Matches:   rt.Matches,
		Redis:     rt.Redis,
		StorePing: rt.storePing,
	}
}

// Close releases everything InitRuntime opened, newest first.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
