package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"events_backend/internals/configs"
	"events_backend/internals/middlewares/logger"
)

// SetupMiddlewares memasang middleware global sesuai urutan: recover paling luar.
func SetupMiddlewares(app *fiber.App, cfg *configs.AppConfig) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestContext(cfg.RequestTimeout))
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware(cfg.CORSOrigins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	if cfg.RateLimitMax > 0 {
		app.Use(GlobalRateLimiter(cfg.RateLimitMax))
	}
}
