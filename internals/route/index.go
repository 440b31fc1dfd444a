// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"events_backend/internals/configs"
	eventController "events_backend/internals/features/app/events/controller"
	"events_backend/internals/features/app/events/repository"
	eventRoutes "events_backend/internals/features/app/events/route"
	"events_backend/internals/helpers/cleanup"
	"events_backend/internals/helpers/upload"
)

const APIPrefix = "/api/v3/app"

var startTime time.Time

// Deps is everything the HTTP layer is wired from.
type Deps struct {
	DB       *gorm.DB
	Uploader *upload.Uploader
	Queue    *cleanup.Queue
	Config   *configs.AppConfig
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, deps)

	if deps.Config.Storage.Driver == "disk" {
		log.Printf("[INFO] Serving uploads from %s at %s", deps.Config.Storage.Dir, deps.Config.Storage.PublicPrefix)
		app.Static(deps.Config.Storage.PublicPrefix, deps.Config.Storage.Dir, fiber.Static{
			ByteRange: true,
			MaxAge:    3600,
		})
	}

	log.Println("[INFO] Mounting Event routes...")
	api := app.Group(APIPrefix)
	ctrl := eventController.NewEventController(
		repository.NewEventRepository(deps.DB),
		deps.Uploader,
		deps.Queue,
		eventController.Options{DefaultListCap: deps.Config.DefaultListCap},
	)
	eventRoutes.EventRoutes(api, ctrl)
}
