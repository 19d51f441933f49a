package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guestbook/pkg/broker"
	"guestbook/pkg/cache"
	"guestbook/pkg/config"
	"guestbook/pkg/database"
	"guestbook/pkg/handlers"
	"guestbook/pkg/hub"
	"guestbook/pkg/logger"
	"guestbook/pkg/metrics"
	"guestbook/pkg/middleware"
	"guestbook/pkg/policy"
	"guestbook/pkg/repository"
	"guestbook/pkg/server"
	"guestbook/pkg/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.For("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo repository.GuestbookRepository
	if cfg.Server.DatabaseURL != "" {
		db, err := database.Connect(cfg.Server.DatabaseURL)
		if err != nil {
			log.Error("database unavailable", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		repo = repository.NewGuestbookRepository(db)
		log.Info("using postgres row store")
	} else {
		repo = repository.NewMemoryRepository()
		log.Warn("DATABASE_URL not set, entries are kept in memory only")
	}

	wsHub := hub.New()
	opts := services.Options{CacheTTL: cfg.Server.ListCacheTTL, Events: wsHub}

	if cfg.Server.RedisURL != "" {
		rc, err := cache.New(ctx, cfg.Server.RedisURL)
		if err != nil {
			log.Error("redis unavailable", "err", err)
			os.Exit(1)
		}
		defer rc.Close()

		events := broker.New(rc.Client())
		events.Subscribe(wsHub.Deliver)
		defer events.Close()

		opts.Cache = rc
		opts.Events = events
		log.Info("redis connected", "channel", broker.Channel)
	}

	canDelete := policy.FromConfig(cfg.Server.AdminName, cfg.Server.AdminNameBcrypt)
	svc := services.NewGuestbookService(repo, canDelete, opts)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	app := server.NewApp("guestbook", cfg.Server.CORSOrigins, reg)

	api := app.Group("/api")
	handlers.NewGuestbook(svc, m).Register(api, "/guestbook", middleware.PostLimiter(cfg.Server.PostRateLimit))

	app.Get("/hub/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"clients": wsHub.ClientCount()})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws", websocket.New(wsHub.HandleClientConn))

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", "err", err)
		}
	}()

	addr := "0.0.0.0:" + cfg.Server.Port
	log.Info("server starting", "addr", addr, "ws", "/ws")
	if err := app.Listen(addr); err != nil {
		log.Error("failed to start", "err", err)
		os.Exit(1)
	}
}
