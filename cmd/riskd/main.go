package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/txshield/txshield/internal/application/usecase"
	"github.com/txshield/txshield/internal/domain/policy"
	"github.com/txshield/txshield/internal/domain/port"
	"github.com/txshield/txshield/internal/domain/service"
	"github.com/txshield/txshield/internal/infrastructure/cache"
	"github.com/txshield/txshield/internal/infrastructure/config"
	"github.com/txshield/txshield/internal/infrastructure/geoip"
	"github.com/txshield/txshield/internal/infrastructure/messaging"
	"github.com/txshield/txshield/internal/infrastructure/ml"
	"github.com/txshield/txshield/internal/infrastructure/postgres"
	"github.com/txshield/txshield/internal/infrastructure/postgres/migrations"
	grpcpresentation "github.com/txshield/txshield/internal/presentation/grpc"
	"github.com/txshield/txshield/internal/presentation/rest"
	"github.com/txshield/txshield/pkg/auth"
	"github.com/txshield/txshield/pkg/kafka"
	"github.com/txshield/txshield/pkg/observability"
	pgutil "github.com/txshield/txshield/pkg/postgres"
	"github.com/txshield/txshield/pkg/tlsutil"
)

const serviceName = "txshield-riskd"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting riskd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"environment", cfg.Environment,
	)

	// Tracing is optional.
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdownTracer(context.Background()) }()
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	riskPolicy := policy.Default()
	if cfg.PolicyFile != "" {
		if riskPolicy, err = policy.Load(cfg.PolicyFile); err != nil {
			logger.Error("failed to load risk policy", "path", cfg.PolicyFile, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("risk policy loaded", "version", riskPolicy.Version)

	jwtService, err := newJWTService(cfg)
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	// Database connection and schema.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pgutil.NewPool(dbCtx,
		pgutil.Config{URL: cfg.DatabaseURL, MaxConns: int32(cfg.DBMaxConns)},
		pgutil.PoolOptions{ApplicationName: serviceName, SlowQuery: 250 * time.Millisecond, Logger: logger},
	)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pgutil.RunMigrations(cfg.DatabaseURL, migrations.FS, migrations.Dir); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Optional adapters.
	var locator port.IPLocator
	if cfg.GeoIPDBPath != "" {
		mm, err := geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			logger.Error("failed to open GeoIP database", "path", cfg.GeoIPDBPath, "error", err)
			os.Exit(1)
		}
		defer mm.Close()
		locator = mm
		logger.Info("GeoIP locator enabled", "path", cfg.GeoIPDBPath)
	}

	var statsCache port.StatsCache
	var redisCache *cache.RedisStatsCache
	if cfg.RedisAddr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    strings.Split(cfg.RedisAddr, ","),
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		redisCache = cache.NewRedisStatsCache(client)
		statsCache = redisCache
		logger.Info("stats cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.StatsCacheTTL)
	}

	var publisher port.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:       cfg.KafkaBrokers,
			ClientID:      serviceName,
			TLS:           cfg.KafkaTLS,
			SASLEnabled:   cfg.KafkaSASLMechanism != "",
			SASLMechanism: cfg.KafkaSASLMechanism,
			SASLUsername:  cfg.KafkaSASLUsername,
			SASLPassword:  cfg.KafkaSASLPassword,
		})
		if err != nil {
			logger.Error("failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
		logger.Info("publishing events to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		publisher = messaging.NewLogPublisher(logger)
		logger.Info("no Kafka brokers configured; events are logged only")
	}

	// Wire domain services and use cases.
	mlScorer := ml.NewScorer(ml.Config{
		Endpoint:     cfg.MLScorerURL,
		APIKey:       cfg.MLScorerAPIKey,
		Timeout:      cfg.MLScorerTimeout,
		NeutralScore: riskPolicy.ML.FallbackScore,
	}, logger)
	scorer := service.NewHybridScorer(riskPolicy, mlScorer, locator, logger)

	repo := postgres.NewTransactionRepository(pool)
	scoreUC := usecase.NewScoreTransaction(scorer, repo, publisher, statsCache, logger)
	listUC := usecase.NewListTransactions(repo)
	statsUC := usecase.NewGetFraudStats(repo, statsCache, cfg.StatsCacheTTL, logger)

	tlsFiles := tlsutil.Files{
		CertFile:     cfg.TLSCertFile,
		KeyFile:      cfg.TLSKeyFile,
		ClientCAFile: cfg.TLSClientCAFile,
	}

	// gRPC server.
	grpcHandler := grpcpresentation.NewRiskServiceHandler(scoreUC, listUC, statsUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:    cfg.GRPCAddress(),
		TLS:        tlsFiles,
		Reflection: cfg.GRPCReflection,
	}, logger, jwtService)
	if err != nil {
		logger.Error("failed to create gRPC server", "error", err)
		os.Exit(1)
	}

	// HTTP server.
	checks := map[string]rest.CheckFunc{
		"database": func(ctx context.Context) error { return pgutil.HealthCheck(ctx, pool) },
	}
	if redisCache != nil {
		checks["redis"] = redisCache.Ping
	}
	router := rest.NewRouter(rest.RouterConfig{
		Logger:       logger,
		JWT:          jwtService,
		Limiter:      rest.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Transactions: rest.NewTransactionHandler(scoreUC, listUC, statsUC, logger),
		Health:       rest.NewHealthHandler(logger, checks),
		Metrics:      metricsHandler,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.MLScorerTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if tlsFiles.Enabled() {
		if httpServer.TLSConfig, err = tlsutil.ServerConfig(tlsFiles); err != nil {
			logger.Error("failed to load HTTP TLS config", "error", err)
			os.Exit(1)
		}
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		var err error
		if httpServer.TLSConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("riskd started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"policy_version", riskPolicy.Version,
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down riskd")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("riskd stopped")
}

// newJWTService builds a validation-side JWT service. A public key file wins
// over the shared secret.
func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.JWTIssuer}
	if cfg.JWTPublicKeyFile != "" {
		pem, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = pem
	} else {
		jwtCfg.Secret = cfg.JWTSecret
	}
	return auth.NewJWTService(jwtCfg)
}
