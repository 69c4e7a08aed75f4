package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/promptcast/internal/billing"
	"github.com/dropDatabas3/promptcast/internal/catalog"
	"github.com/dropDatabas3/promptcast/internal/config"
	"github.com/dropDatabas3/promptcast/internal/entitlement"
	httpserver "github.com/dropDatabas3/promptcast/internal/http"
	"github.com/dropDatabas3/promptcast/internal/http/handlers"
	"github.com/dropDatabas3/promptcast/internal/http/router"
	"github.com/dropDatabas3/promptcast/internal/identity"
	"github.com/dropDatabas3/promptcast/internal/llm"
	"github.com/dropDatabas3/promptcast/internal/metrics"
	"github.com/dropDatabas3/promptcast/internal/observability/logger"
	"github.com/dropDatabas3/promptcast/internal/rate"
	"github.com/dropDatabas3/promptcast/internal/store"
	memstore "github.com/dropDatabas3/promptcast/internal/store/memory"
	pgstore "github.com/dropDatabas3/promptcast/internal/store/pg"
)

func main() {
	flagConfig := flag.String("config", "config.yaml", "ruta al YAML de configuración")
	flagEnvFile := flag.String("envfile", "", "ruta a un .env opcional (se carga antes que el YAML)")
	flag.Parse()

	if *flagEnvFile != "" {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("env file cargado: %s", *flagEnvFile)
		}
	} else {
		// .env del cwd si existe; silencioso si no
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "promptcast",
		Version:     os.Getenv("SERVICE_VERSION"),
	})
	defer func() { _ = logger.Sync() }()
	zl := logger.L()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Store de perfiles ----
	var profiles store.ProfileStore
	switch cfg.Storage.Driver {
	case "postgres":
		var lifetime time.Duration
		if cfg.Storage.Postgres.ConnMaxLifetime != "" {
			lifetime, _ = time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
		}
		pg, err := pgstore.New(rootCtx, pgstore.Config{
			DSN:             cfg.Storage.DSN,
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			ConnMaxLifetime: lifetime,
		})
		if err != nil {
			zl.Fatal("postgres store", logger.Err(err))
		}
		profiles = pg
	default:
		zl.Warn("storage.driver=memory: los perfiles no sobreviven reinicios")
		profiles = memstore.New()
	}
	defer func() { _ = profiles.Close() }()

	// ---- Redis (rate limiting) ----
	var limiter rate.Limiter
	var redisCheck handlers.CheckFunc
	if cfg.Rate.Enabled {
		if cfg.Redis.Addr != "" {
			rc := rdb.NewClient(&rdb.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
			if err := rc.Ping(rootCtx).Err(); err != nil {
				zl.Fatal("redis ping", logger.Err(err))
			}
			limiter = rate.NewRedisLimiter(rc, cfg.Redis.Prefix, cfg.Rate.MaxRequests, cfg.RateWindow())
			redisCheck = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
			defer func() { _ = rc.Close() }()
		} else {
			// sin Redis el límite es por proceso, no por flota
			zl.Warn("rate limiting en memoria: sin redis.addr el límite no es global")
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	}

	// ---- Dominio ----
	registry := catalog.Default()
	adminIDs := cfg.Auth.AdminIDs
	if cfg.Auth.Mode == "open" {
		// En modo open la identidad fallback es privilegiada para poder
		// probar todas las herramientas sin seedear perfiles.
		adminIDs = append(adminIDs, identity.FallbackIdentity().ID)
		zl.Warn("auth.mode=open: la identidad fallback tiene tier admin",
			logger.UserID(identity.FallbackIdentity().ID),
		)
	}
	resolver := entitlement.NewResolver(profiles, adminIDs, cfg.TrialWindow())
	verifier := identity.NewTokenVerifier(mustParseMode(cfg.Auth.Mode), cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	streamer := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLMTimeout(),
	})

	// ---- Métricas ----
	metricsHandler := metrics.Register(prometheus.DefaultRegisterer)

	// ---- Handlers ----
	deps := router.Deps{
		Verifier: verifier,
		Generate: &handlers.Generate{
			Registry:     registry,
			Resolver:     resolver,
			Streamer:     streamer,
			DefaultModel: cfg.LLM.Model,
		},
		Tools: &handlers.Tools{Registry: registry, Resolver: resolver},
		Health: &handlers.Health{
			StoreCheck: profiles.Ping,
			RedisCheck: redisCheck,
		},
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}
	if cfg.Billing.StripeWebhookSecret != "" {
		deps.Billing = &billing.WebhookHandler{
			Store:      profiles,
			Secret:     cfg.Billing.StripeWebhookSecret,
			PriceTiers: cfg.Billing.PriceTiers,
		}
	} else {
		zl.Warn("stripe webhook secret ausente: /v1/billing/webhook deshabilitado")
	}

	api := httpserver.NewServer(cfg.Server.Addr, router.New(deps))

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zl.Info("api listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("auth_mode", cfg.Auth.Mode),
			logger.String("storage", cfg.Storage.Driver),
		)
		return api.Start()
	})

	// /metrics en listener aparte: nunca expuesto en el puerto público.
	var metricsSrv *httpserver.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		metricsSrv = httpserver.NewServer(cfg.Server.MetricsAddr, mux)
		g.Go(func() error {
			zl.Info("metrics listening", logger.String("addr", cfg.Server.MetricsAddr))
			return metricsSrv.Start()
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		zl.Info("shutting down")
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return api.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Fatal("server", logger.Err(err))
	}
	zl.Info("bye")
}

func mustParseMode(s string) identity.Mode {
	m, err := identity.ParseMode(s)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	return m
}
