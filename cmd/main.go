package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "videotube/docs"
	"videotube/internal/config"
	"videotube/internal/handlers"
	"videotube/internal/logger"
	"videotube/internal/repository"
	"videotube/internal/repository/db"
	"videotube/internal/server"
	"videotube/internal/service"
	"videotube/internal/uploader"
)

// @title                       VideoTube users API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml, .env and environment
	cfg, err := config.Load("configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	log := logger.Get(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// open store
	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open store", "driver", cfg.DB.Driver, "err", err)
	}
	defer closeStore()

	up, mediaDir, err := newUploader(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to init uploader", "driver", cfg.Upload.Driver, "err", err)
	}

	// wire dependencies
	services := service.NewService(repos, up, service.TokenConfig{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	}, log)
	apiHandler := handlers.NewHandler(services, log, handlers.Options{
		SecureCookies:  cfg.Auth.SecureCookies,
		AccessTTL:      cfg.Auth.AccessTokenTTL,
		RefreshTTL:     cfg.Auth.RefreshTokenTTL,
		TmpDir:         cfg.Upload.TmpDir,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		MediaDir:       mediaDir,
	})

	// start HTTP server
	srv := server.New(server.Timeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Write:      cfg.HTTP.WriteTimeout,
		Idle:       cfg.HTTP.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("server started", "port", cfg.Port, "env", cfg.Env, "db", cfg.DB.Driver, "upload", cfg.Upload.Driver)

	// graceful shutdown
	waitForShutdown(srv, cfg, log)
}

// openStore connects the configured backend and returns a cleanup func that
// releases it.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repository.Repository, func(), error) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Errorw("failed to disconnect mongo", "err", err)
			}
		}
		return repository.NewMongoRepository(database), closeFn, nil
	default:
		conn, err := db.InitDB(cfg.DB.Path)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := conn.Close(); err != nil {
				log.Errorw("failed to close sqlite", "err", err)
			}
		}
		return repository.NewSQLiteRepository(conn), closeFn, nil
	}
}

// newUploader returns the media uploader and, for local storage, the
// directory to serve under /media.
func newUploader(ctx context.Context, cfg *config.Config) (uploader.Uploader, string, error) {
	if cfg.Upload.Driver == config.UploadS3 {
		up, err := uploader.NewS3(ctx, uploader.S3Config{
			Region:        cfg.S3.Region,
			Bucket:        cfg.S3.Bucket,
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			Prefix:        cfg.S3.Prefix,
		})
		return up, "", err
	}
	up, err := uploader.NewLocal(cfg.Upload.LocalDir, cfg.Upload.PublicBaseURL)
	return up, cfg.Upload.LocalDir, err
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, cfg *config.Config, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
