package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"

	"events_backend/internals/bootstrap"
	"events_backend/internals/configs"
	database "events_backend/internals/databases"
	helper "events_backend/internals/helpers"
	"events_backend/internals/helpers/cleanup"
	middlewares "events_backend/internals/middlewares"
	routes "events_backend/internals/route"
)

func main() {
	configs.LoadEnv()
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("[ERROR] Konfigurasi tidak valid: %v", err)
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		BodyLimit:               cfg.BodyLimit,
		ErrorHandler:            helper.ErrorHandler,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	middlewares.SetupMiddlewares(app, cfg)

	// 🔌 DB connect + pool + migrate + warm-up
	db, err := bootstrap.OpenDB(cfg)
	if err != nil {
		log.Fatalf("[ERROR] Database: %v", err)
	}
	database.WarmUp(db)

	// 📦 storage + antrian hapus file
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 15*time.Second)
	uploader, err := bootstrap.NewUploader(bootCtx, cfg.Storage)
	cancelBoot()
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	queue := cleanup.NewQueue(uploader.Store, bootstrap.QueueOptions(cfg.Cleanup))

	// ⏱ reaper setelah DB & storage siap
	var reaperCron *cron.Cron
	if cfg.Reaper.Enabled {
		if r := bootstrap.NewReaper(cfg, uploader.Store, db, false); r != nil {
			if reaperCron, err = cleanup.StartReaperCron(r); err != nil {
				log.Fatalf("[ERROR] Reaper: %v", err)
			}
		}
	}

	routes.SetupRoutes(app, routes.Deps{
		DB:       db,
		Uploader: uploader,
		Queue:    queue,
		Config:   cfg,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	// Start server non-blocking
	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: HTTP -> reaper -> antrian -> pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("[WARN] HTTP shutdown: %v", err)
	}
	if reaperCron != nil {
		<-reaperCron.Stop().Done()
	}
	if err := queue.Close(ctx); err != nil {
		log.Printf("[WARN] Cleanup queue belum kosong: %v", err)
	}
	database.Close(db)
}
