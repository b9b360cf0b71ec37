package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CUknot/chat_backend/config"
	"github.com/CUknot/chat_backend/controllers"
	"github.com/CUknot/chat_backend/database"
	"github.com/CUknot/chat_backend/docs"
	"github.com/CUknot/chat_backend/logger"
	"github.com/CUknot/chat_backend/services"
	"github.com/CUknot/chat_backend/storage"
	"github.com/CUknot/chat_backend/stores"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

// @title           Chat API
// @version         1.0
// @description     API Server for Chat Application
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L()
	gin.SetMode(cfg.GinMode)

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokens, closeTokens, err := newTokenStore(ctx, cfg.Auth, db)
	if err != nil {
		return err
	}
	defer closeTokens()

	blobs, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	userStore := stores.NewGormUserStore(db)
	roomStore := stores.NewGormRoomStore(db)
	gate := services.NewAccessGate(roomStore)

	// Set up Swagger info
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	router := controllers.NewRouter(controllers.Deps{
		Auth:           services.NewAuthService(userStore, tokens, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Rooms:          services.NewRoomDirectory(roomStore, userStore, gate),
		Messages:       services.NewMessageLog(stores.NewGormMessageStore(db), roomStore, blobs, gate),
		Logger:         *log,
		Ping:           sqlDB.PingContext,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msgf("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if purger, ok := tokens.(*stores.GormTokenStore); ok {
		g.Go(func() error {
			purgeExpiredTokens(gCtx, purger)
			return nil
		})
	}

	return g.Wait()
}

// newTokenStore picks the session store. The returned func releases it.
func newTokenStore(ctx context.Context, cfg config.Auth, db *gorm.DB) (stores.TokenStore, func(), error) {
	if cfg.TokenStore != "redis" {
		return stores.NewGormTokenStore(db), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.L().Info().Str("addr", cfg.RedisAddr).Msg("using redis token store")
	return stores.NewRedisTokenStore(client), func() { client.Close() }, nil
}

func newStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	if cfg.Driver == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	}
	return storage.NewLocalStorage(cfg.Path)
}

func purgeExpiredTokens(ctx context.Context, tokens *stores.GormTokenStore) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.PurgeExpired(ctx)
			if err != nil {
				logger.L().Warn().Err(err).Msg("failed to purge expired tokens")
				continue
			}
			if n > 0 {
				logger.L().Info().Int64("purged", n).Msg("expired tokens purged")
			}
		}
	}
}
