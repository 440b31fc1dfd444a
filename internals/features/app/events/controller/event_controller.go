package controller

import (
	"context"
	"errors"
	"log"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"events_backend/internals/features/app/events/dto"
	"events_backend/internals/features/app/events/model"
	"events_backend/internals/features/app/events/repository"
	helper "events_backend/internals/helpers"
	"events_backend/internals/helpers/upload"
)

// EventStore is the persistence the controller needs.
type EventStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.EventModel, error)
	ListLatest(ctx context.Context, offset, limit int) ([]model.EventModel, error)
	List(ctx context.Context, limit int) ([]model.EventModel, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, ev *model.EventModel) error
	Update(ctx context.Context, id uuid.UUID, values map[string]any) (matched, modified int64, err error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// ImageIntake picks the uploaded image out of a request and stores it.
type ImageIntake interface {
	Pick(c *fiber.Ctx) (*multipart.FileHeader, error)
	Save(ctx context.Context, fh *multipart.FileHeader) (*upload.StoredFile, error)
	PublicPath(filename string) string
}

// FileJanitor removes stored files in the background.
type FileJanitor interface {
	Enqueue(filename, reason string) bool
}

type Options struct {
	DefaultListCap     int
	LatestDefaultLimit int
	LatestMaxLimit     int
}

func DefaultOptions() Options {
	return Options{DefaultListCap: 50, LatestDefaultLimit: 5, LatestMaxLimit: 100}
}

type EventController struct {
	Store   EventStore
	Images  ImageIntake
	Janitor FileJanitor
	Opt     Options
}

func NewEventController(store EventStore, images ImageIntake, janitor FileJanitor, opt Options) *EventController {
	def := DefaultOptions()
	if opt.DefaultListCap <= 0 {
		opt.DefaultListCap = def.DefaultListCap
	}
	if opt.LatestDefaultLimit <= 0 {
		opt.LatestDefaultLimit = def.LatestDefaultLimit
	}
	if opt.LatestMaxLimit <= 0 {
		opt.LatestMaxLimit = def.LatestMaxLimit
	}
	return &EventController{Store: store, Images: images, Janitor: janitor, Opt: opt}
}

// 🟢 GET /api/v3/app/events[?id=|?type=latest&limit=&page=]
func (ctrl *EventController) GetEvents(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if idStr := c.Query("id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid id")
		}
		ev, err := ctrl.Store.FindByID(ctx, id)
		if errors.Is(err, repository.ErrEventNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Event not found")
		}
		if err != nil {
			log.Printf("[ERROR] Gagal mengambil event %s: %v", id, err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
		}
		return helper.JsonOK(c, dto.ToEventResponse(ev))
	}

	if c.Query("type") == "latest" {
		p := helper.ResolvePaging(c, ctrl.Opt.LatestDefaultLimit, ctrl.Opt.LatestMaxLimit)
		items, err := ctrl.Store.ListLatest(ctx, p.Offset, p.Limit)
		if err != nil {
			log.Printf("[ERROR] Gagal mengambil event terbaru: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
		}
		total, err := ctrl.Store.Count(ctx)
		if err != nil {
			log.Printf("[ERROR] Count events: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
		}
		return helper.JsonOK(c, dto.LatestResponse{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Items: dto.ToEventResponseList(items),
		})
	}

	items, err := ctrl.Store.List(ctx, ctrl.Opt.DefaultListCap)
	if err != nil {
		log.Printf("[ERROR] Gagal mengambil event: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}
	return helper.JsonOK(c, dto.ListResponse{Items: dto.ToEventResponseList(items)})
}

// 🟢 POST /api/v3/app/events
func (ctrl *EventController) CreateEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()

	body, err := dto.ParseBody(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	fh, err := ctrl.Images.Pick(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var img *model.ImageFile
	if fh != nil {
		if img, err = ctrl.storeImage(ctx, fh); err != nil {
			log.Printf("[ERROR] Gagal menyimpan file upload: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
		}
	}

	ev := body.ToModel(img)
	if err := ctrl.Store.Create(ctx, ev); err != nil {
		log.Printf("[ERROR] Gagal menyimpan event: %v", err)
		ctrl.discard(img, "create-failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	return helper.JsonCreated(c, dto.CreatedResponse{InsertedID: ev.EventID})
}

// 🟡 PUT /api/v3/app/events/:id
func (ctrl *EventController) UpdateEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid id")
	}

	body, err := dto.ParseBody(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	fh, err := ctrl.Images.Pick(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	patch := body.ToPatch()
	if patch.Empty() && fh == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "No fields provided to update")
	}

	// Gambar diganti utuh: catat file lama dulu, hapus setelah update sukses.
	var oldFile string
	if fh != nil {
		existing, err := ctrl.Store.FindByID(ctx, id)
		if errors.Is(err, repository.ErrEventNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Event not found")
		}
		if err != nil {
			log.Printf("[ERROR] updateEvent lookup %s: %v", id, err)
			return helper.JsonErrorWithDetails(c, fiber.StatusInternalServerError, "Update failed", err.Error())
		}
		if old := existing.Image(); old != nil {
			oldFile = old.Filename
		}
		if patch.Image, err = ctrl.storeImage(ctx, fh); err != nil {
			log.Printf("[ERROR] updateEvent simpan file: %v", err)
			return helper.JsonErrorWithDetails(c, fiber.StatusInternalServerError, "Update failed", err.Error())
		}
	}

	matched, modified, err := ctrl.Store.Update(ctx, id, patch.Values())
	if err != nil {
		log.Printf("[ERROR] updateEvent %s: %v", id, err)
		ctrl.discard(patch.Image, "update-failed")
		return helper.JsonErrorWithDetails(c, fiber.StatusInternalServerError, "Update failed", err.Error())
	}
	if matched == 0 {
		ctrl.discard(patch.Image, "update-unmatched")
		return helper.JsonError(c, fiber.StatusNotFound, "Event not found")
	}

	if oldFile != "" && (patch.Image == nil || patch.Image.Filename != oldFile) {
		ctrl.Janitor.Enqueue(oldFile, "replaced")
	}

	return helper.JsonOK(c, dto.UpdatedResponse{Matched: matched, Modified: modified})
}

// 🔴 DELETE /api/v3/app/events/:id
func (ctrl *EventController) DeleteEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid id")
	}

	ev, err := ctrl.Store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Event not found")
	}
	if err != nil {
		log.Printf("[ERROR] deleteEvent lookup %s: %v", id, err)
		return helper.JsonErrorWithDetails(c, fiber.StatusInternalServerError, "Delete failed", err.Error())
	}

	deleted, err := ctrl.Store.Delete(ctx, id)
	if err != nil {
		log.Printf("[ERROR] deleteEvent %s: %v", id, err)
		return helper.JsonErrorWithDetails(c, fiber.StatusInternalServerError, "Delete failed", err.Error())
	}
	if deleted == 0 {
		log.Printf("[WARN] deleteEvent %s: ditemukan tapi tidak terhapus", id)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Delete failed")
	}

	if img := ev.Image(); img != nil && img.Filename != "" {
		ctrl.Janitor.Enqueue(img.Filename, "deleted")
	}

	return helper.JsonOK(c, dto.DeletedResponse{DeletedCount: deleted})
}

func (ctrl *EventController) storeImage(ctx context.Context, fh *multipart.FileHeader) (*model.ImageFile, error) {
	sf, err := ctrl.Images.Save(ctx, fh)
	if err != nil {
		return nil, err
	}
	return &model.ImageFile{
		Filename:     sf.Filename,
		OriginalName: sf.OriginalName,
		MimeType:     sf.MimeType,
		Size:         sf.Size,
		Path:         ctrl.Images.PublicPath(sf.Filename),
	}, nil
}

// discard queues a file stored by this request whose row write did not land.
func (ctrl *EventController) discard(img *model.ImageFile, reason string) {
	if img != nil {
		ctrl.Janitor.Enqueue(img.Filename, reason)
	}
}
