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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"videotube/cmd/config"
	"videotube/pkg/auth"
	"videotube/pkg/channel"
	"videotube/pkg/database"
	"videotube/pkg/handlers"
	"videotube/pkg/logging"
	"videotube/pkg/media"
	"videotube/pkg/mongodb"
	"videotube/pkg/revocation"
	"videotube/pkg/session"
	"videotube/pkg/store"
	"videotube/pkg/videos"
)

var configPath string

var (
	rootCmd = &cobra.Command{
		Use:          "videotube",
		Short:        "Video platform API server",
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and indexes, then exit",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config yaml (default cmd/config/config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.Must(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	log.Info("schema is up to date", zap.String("driver", cfg.DatabaseDriver))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.Must(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	uploader, err := media.New(ctx, mediaOptions(cfg))
	if err != nil {
		return err
	}

	deny, closeDeny, err := openRevocation(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDeny()

	tokens, err := auth.NewTokenService(auth.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	}, st)
	if err != nil {
		return err
	}
	hasher, err := auth.NewHasher(cfg.PasswordHasher)
	if err != nil {
		return err
	}

	h := handlers.New(handlers.Options{
		Sessions:  session.NewService(st, tokens, hasher, uploader, log.Named("session")),
		Channels:  channel.NewService(st, log.Named("channel")),
		Videos:    videos.NewService(st, uploader, log.Named("videos")),
		Tokens:    tokens,
		Users:     st,
		Deny:      deny,
		Logger:    log,
		UploadDir: cfg.UploadDir,
	})
	router := h.Router(handlers.RouterConfig{
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server terminated", zap.Error(err))
		return err
	}
	return nil
}

// openStore connects the configured backend. The relational schema is
// migrated on open; mongo indexes are ensured by mongodb.New.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseDriver == config.DriverMongo {
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGODB_URI must be set for the mongodb driver")
		}
		ms, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return ms, nil
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func openRevocation(ctx context.Context, cfg *config.Config, log *zap.Logger) (revocation.List, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, access tokens stay valid until expiry after logout")
		return revocation.Noop{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return revocation.NewRedisList(client), func() { _ = client.Close() }, nil
}

// mediaOptions uses static keys only for MinIO or an S3-compatible endpoint;
// plain S3 goes through the default AWS credential chain.
func mediaOptions(cfg *config.Config) media.Options {
	opts := media.Options{
		Driver:        cfg.MediaDriver,
		Region:        cfg.AWSRegion,
		Bucket:        cfg.S3Bucket,
		Endpoint:      cfg.S3Endpoint,
		PublicBaseURL: cfg.MediaPublicBaseURL,
	}
	if cfg.MediaDriver == media.DriverMinio {
		opts.Endpoint = cfg.MinioEndpoint
	}
	if opts.Endpoint != "" {
		opts.AccessKey = cfg.MinioAccessKey
		opts.SecretKey = cfg.MinioSecretKey
	}
	return opts
}
