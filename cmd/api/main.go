package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/angelmondragon/storefront-gateway/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-gateway/api/routes"
	"github.com/angelmondragon/storefront-gateway/internal/identity"
	"github.com/angelmondragon/storefront-gateway/internal/routeguard"
	"github.com/angelmondragon/storefront-gateway/internal/users"
	clerkwebhook "github.com/angelmondragon/storefront-gateway/internal/webhooks/clerk"
	"github.com/angelmondragon/storefront-gateway/pkg/auth"
	"github.com/angelmondragon/storefront-gateway/pkg/config"
	"github.com/angelmondragon/storefront-gateway/pkg/db"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
	"github.com/angelmondragon/storefront-gateway/pkg/migrate"
	"github.com/angelmondragon/storefront-gateway/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingSecretError
		if errors.As(err, &missing) {
			logg.Error(logg.WithField(context.Background(), "env", missing.Env), "webhook signing secret missing", err)
		} else {
			logg.Error(context.Background(), "failed to load config", err)
		}
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured, role cache disabled")
	}

	var sessionVerifier auth.Verifier
	if cfg.Clerk.JWKSURL != "" {
		clerkVerifier, err := auth.NewClerkVerifier(ctx, cfg.Clerk, logg)
		if err != nil {
			logg.Error(ctx, "failed to load clerk jwks", err)
			os.Exit(1)
		}
		defer clerkVerifier.Close()
		sessionVerifier = clerkVerifier
	} else {
		logg.Warn(ctx, "clerk jwks url not configured, every request is anonymous")
	}

	var directory identity.Directory
	if cfg.Clerk.SecretKey != "" {
		clerkDirectory, err := identity.NewClerkDirectory(cfg.Clerk)
		if err != nil {
			logg.Error(ctx, "failed to create clerk directory", err)
			os.Exit(1)
		}
		directory = clerkDirectory
		if redisClient != nil {
			directory = identity.NewCachedDirectory(directory, redisClient, cfg.Guard.RoleCacheTTL, logg)
		}
	} else {
		logg.Warn(ctx, "clerk secret key not configured, every user routes as customer")
	}

	webhookService, err := clerkwebhook.NewService(clerkwebhook.ServiceParams{
		Users:  users.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookVerifier, err := webhooks.NewSignatureVerifier(cfg.Webhook.Secret)
	if err != nil {
		logg.Error(ctx, "failed to create webhook verifier", err)
		os.Exit(1)
	}

	upstream, err := cfg.Upstream.Parsed()
	if err != nil {
		logg.Error(ctx, "invalid upstream url", err)
		os.Exit(1)
	}

	guard := routeguard.New(directory, routeguard.PathRoot, cfg.Webhook.Path, routeguard.PathSignIn, routeguard.PathSignUp)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			dbClient,
			redisClient,
			sessionVerifier,
			guard,
			webhookService,
			webhookVerifier,
			upstream,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
