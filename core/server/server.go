package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tango-agenda/core/cache"
	"tango-agenda/core/config"
	"tango-agenda/core/constants"
	"tango-agenda/core/contentdb"
	"tango-agenda/core/database"
	"tango-agenda/core/logger"
	"tango-agenda/core/mailer"
	"tango-agenda/core/middleware"
	"tango-agenda/core/storage"
	"tango-agenda/modules/auth"
	"tango-agenda/modules/digest"
	"tango-agenda/modules/event"
	"tango-agenda/modules/subscription"
	subrepo "tango-agenda/modules/subscription/repository"
	"tango-agenda/modules/user"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Run boots the full application: config, storage backends, HTTP routes and
// the digest dispatcher. It blocks until SIGINT or SIGTERM, then shuts down
// gracefully.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	c, err := cache.NewCache(cfg.Redis)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer c.Close()

	mail := mailer.NewMailer(cfg.Mail)
	store := storage.NewStorage(cfg.Storage)
	cdb := contentdb.NewClient(cfg.ContentDB)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.TimeoutWithConfig(echomw.TimeoutConfig{
		Timeout: constants.DefaultRequestTimeout,
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(ctx echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	mw := middleware.NewMiddleware(c)

	users := user.Init(e, db, mw)
	events := event.Init(e, db, mw, cdb, store, mail, users, cfg.Server.BaseURL)
	subscription.Init(e, db, mw, users)
	auth.Init(e, users, c)

	dispatcher := digest.Init(cfg, subrepo.NewSubscriptionRepository(db), events, mail)
	if dispatcher != nil {
		if err := dispatcher.Start(cfg.Digest.Schedule); err != nil {
			return fmt.Errorf("start digest dispatcher: %w", err)
		}
		defer dispatcher.Shutdown()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", err)
		}
	}()
	logger.Info("Server started", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
