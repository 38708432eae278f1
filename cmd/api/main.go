package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"archie-shopify-session-layer/internal/application"
	"archie-shopify-session-layer/internal/application/webhook_handlers"
	"archie-shopify-session-layer/internal/config"
	"archie-shopify-session-layer/internal/infrastructure/api"
	"archie-shopify-session-layer/internal/infrastructure/callersession"
	"archie-shopify-session-layer/internal/infrastructure/middleware"
	"archie-shopify-session-layer/internal/infrastructure/repository"
	shopifyinfra "archie-shopify-session-layer/internal/infrastructure/shopify"
	"archie-shopify-session-layer/internal/infrastructure/tokenstore"
	"archie-shopify-session-layer/internal/ports"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	ctx := context.Background()

	// Caller session store
	var sessionStore scs.Store
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		sessionStore = goredisstore.NewWithPrefix(redisClient, "shopify_app:session:")
	default:
		sessionStore = memstore.New()
	}

	// Token store strategy
	var (
		tokenStore ports.TokenStore
		tokenRepo  ports.ShopTokenRepository
	)
	switch cfg.TokenStore {
	case config.TokenStoreMongo:
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer mongoClient.Disconnect(context.Background())

		repo := repository.NewMongoShopTokenRepository(mongoClient.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create shop token indexes")
		}
		tokenRepo = repo
		tokenStore = tokenstore.NewMongoStore(repo)
	default:
		tokenStore = tokenstore.NewSessionStore()
	}

	// Initialize infrastructure
	shopifyClient := shopifyinfra.NewClientWithOptions(cfg.APIKey, cfg.SharedSecret, cfg.CallbackMaxAge, logger)
	sessions := callersession.NewManager(sessionStore, callersession.Options{
		CookieName: cfg.SessionCookieName,
		Secure:     cfg.SessionCookieSecure,
		SameSite:   cfg.CookieSameSite(),
		TTL:        cfg.SessionTTL,
	}, logger)

	// Initialize application services
	authService := application.NewAuthService(
		shopifyClient,
		tokenStore,
		callersession.NewNonceStore(),
		callersession.NewRenewer(),
		application.AuthServiceConfig{
			APIVersion:    cfg.APIVersion,
			DefaultScopes: cfg.DefaultScopes,
			RedirectURI:   cfg.RedirectURI(),
		},
		logger,
	)

	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, tokenRepo))

	router := api.NewRouter(api.RouterConfig{
		Handlers:       api.NewHandlers(authService, shopifyClient, webhookDispatcher, cfg.LoginPath, logger),
		Sessions:       sessions,
		Activator:      middleware.NewActivator(tokenStore, authService.APIVersion(), logger),
		Guards:         middleware.NewGuards(tokenStore, authService, cfg.LoginPath, authService.APIVersion(), logger),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("api_version", cfg.APIVersion).
			Str("token_store", cfg.TokenStore).
			Str("session_backend", cfg.SessionBackend).
			Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
