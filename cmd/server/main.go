package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/logger"
	"yatube/internal/repository"
	"yatube/internal/router"
	"yatube/internal/services"
	"yatube/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML/JSON/TOML config file")
	staffName := flag.String("create-staff", "", "create a staff user with this name and exit (password from STAFF_PASSWORD)")
	flag.Parse()

	if err := run(*configPath, *staffName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, staffName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	repos := repository.New(gdb)
	media := services.NewMediaStore(cfg.Media.Root, cfg.Media.MaxUploadMB)
	authService := services.NewAuthService(repos)
	groupService := services.NewGroupService(repos)

	if staffName != "" {
		user, err := authService.CreateStaff(ctx, services.SignupInput{
			Username: staffName,
			Password: os.Getenv("STAFF_PASSWORD"),
		})
		if err != nil {
			return fmt.Errorf("create staff user: %w", err)
		}
		logger.Info("staff user created", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
		return nil
	}

	if cfg.Groups.Seed {
		if err := groupService.SeedDefaults(ctx, services.DefaultGroups); err != nil {
			return err
		}
	}

	store, err := cache.NewStore(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer store.Close()

	tmpl, err := web.Load()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	engine := router.New(router.Deps{
		Config:    cfg,
		Posts:     services.NewPostService(repos, media),
		Comments:  services.NewCommentService(repos),
		Follows:   services.NewFollowService(repos),
		Groups:    groupService,
		Auth:      authService,
		Listing:   cache.NewListingCache(store, cfg.Cache.TTL),
		Templates: tmpl,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("yatube server starting",
			zap.String("addr", srv.Addr),
			zap.String("db", cfg.Database.Driver),
			zap.String("cache", cfg.Cache.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
