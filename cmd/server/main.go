package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	authhandler "relay-chat/backend/internal/auth/handler"
	"relay-chat/backend/internal/auth/provider/kakao"
	authrepo "relay-chat/backend/internal/auth/repository"
	authservice "relay-chat/backend/internal/auth/service"
	"relay-chat/backend/internal/clock"
	"relay-chat/backend/internal/config"
	"relay-chat/backend/internal/db"
	"relay-chat/backend/internal/security"
	"relay-chat/backend/internal/server"
	"relay-chat/backend/internal/snowflake"
	"relay-chat/backend/internal/telemetry/otel"
	userhandler "relay-chat/backend/internal/user/handler"
	userrepo "relay-chat/backend/internal/user/repository"
	userservice "relay-chat/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecretKey == "" {
		log.Fatal("config: JWT_SECRET_KEY must be set")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "relay-chat-backend", false)
	if err != nil {
		logger.Fatal("telemetry", zap.Error(err))
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("parse redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	clk := clock.System{}
	ids, err := snowflake.New(cfg.SnowflakeMachineID, clk)
	if err != nil {
		logger.Fatal("snowflake", zap.Error(err))
	}
	codec := security.NewTokenCodec(cfg.JWTSecretKey, clk)
	txRunner := db.NewTxRunner(database)

	credentials := authrepo.NewPostgresCredentialRepository(database)
	refreshTokens := authrepo.NewRedisRefreshTokenRepository(redisClient, clk)
	users := userrepo.NewPostgresRepository(database)

	kakaoResolver := kakao.NewResolver(kakao.Config{
		ClientID:     cfg.KakaoClientID,
		ClientSecret: cfg.KakaoClientSecret,
		RedirectURL:  cfg.KakaoRedirectURL,
	})

	authenticate := authservice.NewAuthenticateService(
		[]authservice.ProviderResolver{kakaoResolver},
		credentials, users, refreshTokens,
		codec, ids, txRunner, clk, logger,
	)
	refresh := authservice.NewRefreshService(refreshTokens, codec, clk, logger)
	register := userservice.NewRegisterService(
		credentials, users, refreshTokens,
		codec, ids, txRunner, clk, logger,
	)

	router := server.NewRouter(server.Deps{
		Codec: codec,
		Auth:  authhandler.NewAuthHandler(authenticate, refresh, logger),
		User:  userhandler.NewUserHandler(register, users, logger),
		DB:    server.PingerFunc(database.PingContext),
		Redis: server.PingerFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("http server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
