package route

import (
	"events_backend/internals/features/app/events/controller"

	"github.com/gofiber/fiber/v2"
)

func EventRoutes(api fiber.Router, ctrl *controller.EventController) {
	// 🔹 Events (id divalidasi di controller)
	event := api.Group("/events")
	event.Get("/", ctrl.GetEvents)
	event.Post("/", ctrl.CreateEvent)
	event.Put("/:id", ctrl.UpdateEvent)
	event.Delete("/:id", ctrl.DeleteEvent)
}
