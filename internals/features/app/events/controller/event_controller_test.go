package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "events_backend/internals/databases"
	"events_backend/internals/features/app/events/controller"
	"events_backend/internals/features/app/events/model"
	"events_backend/internals/features/app/events/repository"
	eventRoutes "events_backend/internals/features/app/events/route"
	helper "events_backend/internals/helpers"
	"events_backend/internals/helpers/cleanup"
	"events_backend/internals/helpers/coerce"
	"events_backend/internals/helpers/upload"
)

const base = "/api/v3/app/events"

type job struct{ filename, reason string }

type recordingJanitor struct {
	mu   sync.Mutex
	jobs []job
}

func (r *recordingJanitor) Enqueue(filename, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job{filename, reason})
	return true
}

func (r *recordingJanitor) reasons(filename string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, j := range r.jobs {
		if j.filename == filename {
			out = append(out, j.reason)
		}
	}
	return out
}

// stubStore overrides selected EventStore methods on top of the real one.
type stubStore struct {
	controller.EventStore
	update func(ctx context.Context, id uuid.UUID, values map[string]any) (int64, int64, error)
	list   func(ctx context.Context, limit int) ([]model.EventModel, error)
}

func (s stubStore) Update(ctx context.Context, id uuid.UUID, values map[string]any) (int64, int64, error) {
	if s.update != nil {
		return s.update(ctx, id, values)
	}
	return s.EventStore.Update(ctx, id, values)
}

func (s stubStore) List(ctx context.Context, limit int) ([]model.EventModel, error) {
	if s.list != nil {
		return s.list(ctx, limit)
	}
	return s.EventStore.List(ctx, limit)
}

type harness struct {
	t       *testing.T
	app     *fiber.App
	repo    *repository.EventRepository
	disk    *upload.DiskStore
	janitor *recordingJanitor
}

type harnessOpt struct {
	wrap    func(controller.EventStore) controller.EventStore
	janitor controller.FileJanitor
	opt     controller.Options
}

func newHarness(t *testing.T, ho harnessOpt) *harness {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "events.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	disk, err := upload.NewDiskStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	up := upload.NewUploader(disk, "/api/v3/app/uploads")
	up.VerifyImage = true

	repo := repository.NewEventRepository(db)
	var store controller.EventStore = repo
	if ho.wrap != nil {
		store = ho.wrap(repo)
	}
	rec := &recordingJanitor{}
	var janitor controller.FileJanitor = rec
	if ho.janitor != nil {
		janitor = ho.janitor
	}

	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	eventRoutes.EventRoutes(app.Group("/api/v3/app"), controller.NewEventController(store, up, janitor, ho.opt))

	return &harness{t: t, app: app, repo: repo, disk: disk, janitor: rec}
}

func (h *harness) do(method, path string, body io.Reader, contentType string) (int, map[string]any) {
	h.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (h *harness) doJSON(method, path, body string) (int, map[string]any) {
	return h.do(method, path, strings.NewReader(body), fiber.MIMEApplicationJSON)
}

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func (h *harness) doMultipart(method, path string, fields map[string]string, file *filePart) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, w.WriteField(k, v))
	}
	if file != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, file.name))
		hdr.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(h.t, err)
		_, err = part.Write(file.data)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, w.Close())
	return h.do(method, path, &buf, w.FormDataContentType())
}

func (h *harness) fileExists(name string) bool {
	_, err := os.Stat(filepath.Join(h.disk.Dir, name))
	return err == nil
}

func (h *harness) get(id string) map[string]any {
	h.t.Helper()
	code, body := h.do("GET", base+"?id="+id, nil, "")
	require.Equal(h.t, 200, code, body)
	return body
}

func imageFilename(t *testing.T, ev map[string]any) string {
	t.Helper()
	files, ok := ev["files"].(map[string]any)
	require.True(t, ok)
	img, ok := files["image"].(map[string]any)
	require.True(t, ok, "event has no image")
	return img["filename"].(string)
}

func pngImage(t *testing.T) *filePart {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &filePart{name: "poster.png", contentType: "image/png", data: buf.Bytes()}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	h := newHarness(t, harnessOpt{})

	code, body := h.doJSON("POST", base, `{"name":"Talk","schedule":"2024-01-01"}`)
	require.Equal(t, fiber.StatusCreated, code, body)
	id, ok := body["insertedId"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	ev := h.get(id)
	assert.Equal(t, id, ev["id"])
	assert.Equal(t, "event", ev["type"])
	assert.Equal(t, "Talk", ev["name"])
	assert.Equal(t, "", ev["tagline"])
	assert.Equal(t, "", ev["description"])
	assert.Equal(t, "2024-01-01T00:00:00Z", ev["schedule"])
	assert.Equal(t, "date", ev["schedule_type"])
	assert.Nil(t, ev["uid"])
	assert.Nil(t, ev["moderator"])
	assert.Nil(t, ev["rigor_rank"])
	assert.Equal(t, []any{}, ev["attendees"])
	assert.Equal(t, map[string]any{}, ev["files"])
	assert.NotEmpty(t, ev["createdAt"])
}

func TestCreateCoercesFormFields(t *testing.T) {
	h := newHarness(t, harnessOpt{})

	form := "uid=42&attendees=1,%20a,%202&rigor_rank=x&schedule=next%20week&moderator=Ann&sub_category=ai"
	code, body := h.do("POST", base, strings.NewReader(form), fiber.MIMEApplicationForm)
	require.Equal(t, fiber.StatusCreated, code, body)

	ev := h.get(body["insertedId"].(string))
	assert.Equal(t, float64(42), ev["uid"])
	assert.Equal(t, []any{float64(1), "a", float64(2)}, ev["attendees"])
	assert.Nil(t, ev["rigor_rank"])
	assert.Equal(t, "next week", ev["schedule"])
	assert.Equal(t, "text", ev["schedule_type"])
	assert.Equal(t, "Ann", ev["moderator"])
	assert.Equal(t, "ai", ev["sub_category"])

	code, body = h.doJSON("POST", base, `{"uid":"ext-7","attendees":["5","x",3]}`)
	require.Equal(t, fiber.StatusCreated, code, body)
	ev = h.get(body["insertedId"].(string))
	assert.Equal(t, "ext-7", ev["uid"])
	assert.Equal(t, []any{float64(5), "x", float64(3)}, ev["attendees"])
	assert.Nil(t, ev["schedule"])
	assert.NotContains(t, ev, "schedule_type")
}

func TestCreateKeepsLeadingDigitsAndFractions(t *testing.T) {
	h := newHarness(t, harnessOpt{})

	code, body := h.doJSON("POST", base, `{"uid":"42px","rigor_rank":"3.7","attendees":[1.5,"2.5","7"]}`)
	require.Equal(t, fiber.StatusCreated, code, body)

	ev := h.get(body["insertedId"].(string))
	assert.Equal(t, float64(42), ev["uid"])
	assert.Equal(t, float64(3), ev["rigor_rank"])
	assert.Equal(t, []any{1.5, 2.5, float64(7)}, ev["attendees"])

	code, body = h.doJSON("PUT", base+"/"+body["insertedId"].(string), `{"rigor_rank":9.9}`)
	require.Equal(t, 200, code, body)
	assert.Equal(t, float64(9), h.get(ev["id"].(string))["rigor_rank"])
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	code, body := h.doJSON("POST", base, `{"name":`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestCreateWithImage(t *testing.T) {
	h := newHarness(t, harnessOpt{})

	code, body := h.doMultipart("POST", base, map[string]string{"name": "Poster"}, pngImage(t))
	require.Equal(t, fiber.StatusCreated, code, body)

	ev := h.get(body["insertedId"].(string))
	name := imageFilename(t, ev)
	assert.True(t, strings.HasSuffix(name, "_poster.png"))
	assert.True(t, h.fileExists(name))

	img := ev["files"].(map[string]any)["image"].(map[string]any)
	assert.Equal(t, "poster.png", img["originalname"])
	assert.Equal(t, "image/png", img["mimetype"])
	assert.Equal(t, "/api/v3/app/uploads/"+name, img["path"])
}

func TestCreateRejectsNonImageUpload(t *testing.T) {
	h := newHarness(t, harnessOpt{})

	code, _ := h.doMultipart("POST", base, map[string]string{"name": "x"},
		&filePart{name: "notes.txt", contentType: "text/plain", data: []byte("hello")})
	assert.Equal(t, fiber.StatusBadRequest, code)

	total, err := h.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func seedSchedules(t *testing.T, repo *repository.EventRepository, n int) {
	t.Helper()
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		at := start.AddDate(0, 0, i)
		ev := &model.EventModel{EventName: fmt.Sprintf("day-%02d", i)}
		ev.SetSchedule(coerce.Schedule{At: &at})
		require.NoError(t, repo.Create(context.Background(), ev))
	}
}

func names(t *testing.T, body map[string]any) []string {
	t.Helper()
	items, ok := body["items"].([]any)
	require.True(t, ok)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(map[string]any)["name"].(string))
	}
	return out
}

func TestLatestPagination(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	seedSchedules(t, h.repo, 12)

	code, body := h.do("GET", base+"?type=latest&limit=5&page=2", nil, "")
	require.Equal(t, 200, code, body)
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(5), body["limit"])
	assert.Equal(t, float64(12), body["total"])
	assert.Equal(t, []string{"day-07", "day-06", "day-05", "day-04", "day-03"}, names(t, body))
}

func TestLatestDefaultsAndCaps(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	seedSchedules(t, h.repo, 7)

	_, body := h.do("GET", base+"?type=latest", nil, "")
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(5), body["limit"])
	assert.Len(t, body["items"], 5)

	_, body = h.do("GET", base+"?type=latest&limit=abc&page=-3", nil, "")
	assert.Equal(t, float64(5), body["limit"])
	assert.Equal(t, float64(1), body["page"])

	_, body = h.do("GET", base+"?type=latest&limit=3abc&page=2.5", nil, "")
	assert.Equal(t, float64(3), body["limit"])
	assert.Equal(t, float64(2), body["page"])
	assert.Len(t, body["items"], 3)

	_, body = h.do("GET", base+"?type=latest&limit=1000", nil, "")
	assert.Equal(t, float64(100), body["limit"])
	assert.Len(t, body["items"], 7)

	_, body = h.do("GET", base+"?type=latest&limit=5&page=9", nil, "")
	assert.Equal(t, []any{}, body["items"])
	assert.Equal(t, float64(7), body["total"])
}

func TestDefaultListIsCapped(t *testing.T) {
	h := newHarness(t, harnessOpt{opt: controller.Options{DefaultListCap: 3}})
	seedSchedules(t, h.repo, 5)

	code, body := h.do("GET", base, nil, "")
	require.Equal(t, 200, code)
	assert.Len(t, body["items"], 3)
	assert.NotContains(t, body, "total")
}

func TestListFailureHidesCause(t *testing.T) {
	h := newHarness(t, harnessOpt{wrap: func(s controller.EventStore) controller.EventStore {
		return stubStore{EventStore: s, list: func(context.Context, int) ([]model.EventModel, error) {
			return nil, errors.New("connection refused")
		}}
	}})

	code, body := h.do("GET", base, nil, "")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.NotContains(t, body, "details")
}

func TestMalformedIDIsRejectedEverywhere(t *testing.T) {
	h := newHarness(t, harnessOpt{})

	code, _ := h.do("GET", base+"?id=not-an-id", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = h.doJSON("PUT", base+"/not-an-id", `{"name":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = h.do("DELETE", base+"/not-an-id", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestUnknownIDIsNotFound(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	missing := uuid.NewString()

	code, _ := h.do("GET", base+"?id="+missing, nil, "")
	assert.Equal(t, fiber.StatusNotFound, code)
	code, _ = h.doJSON("PUT", base+"/"+missing, `{"name":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, code)
	code, _ = h.do("DELETE", base+"/"+missing, nil, "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestUpdateWithoutFieldsIsRejected(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	_, created := h.doJSON("POST", base, `{"name":"Talk"}`)
	id := created["insertedId"].(string)

	code, body := h.doJSON("PUT", base+"/"+id, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "No fields provided to update", body["message"])

	code, _ = h.do("PUT", base+"/"+id, nil, "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = h.doMultipart("PUT", base+"/"+id, nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	assert.Equal(t, "Talk", h.get(id)["name"])
}

func TestUpdatePartialKeepsOtherFields(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	_, created := h.doJSON("POST", base, `{"name":"Talk","moderator":"Ann","rigor_rank":"3","attendees":"1,2"}`)
	id := created["insertedId"].(string)

	code, body := h.doJSON("PUT", base+"/"+id, `{"tagline":"new","rigor_rank":"x"}`)
	require.Equal(t, 200, code, body)
	assert.Equal(t, float64(1), body["matched"])
	assert.Equal(t, float64(1), body["modified"])

	ev := h.get(id)
	assert.Equal(t, "Talk", ev["name"])
	assert.Equal(t, "new", ev["tagline"])
	assert.Equal(t, "Ann", ev["moderator"])
	assert.Nil(t, ev["rigor_rank"])
	assert.Equal(t, []any{float64(1), float64(2)}, ev["attendees"])

	_, body = h.doJSON("PUT", base+"/"+id, `{"tagline":"new"}`)
	assert.Equal(t, float64(1), body["matched"])
	assert.Equal(t, float64(0), body["modified"])

	_, body = h.doJSON("PUT", base+"/"+id, `{"moderator":null,"schedule":""}`)
	assert.Equal(t, float64(1), body["modified"])
	ev = h.get(id)
	assert.Nil(t, ev["moderator"])
	assert.Nil(t, ev["schedule"])
}

func TestUpdateNullTextFieldsBecomeEmpty(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	_, created := h.doJSON("POST", base, `{"name":"Talk","tagline":"t","description":"d","category":"c"}`)
	id := created["insertedId"].(string)

	code, body := h.doJSON("PUT", base+"/"+id, `{"name":null,"tagline":null,"description":null,"category":null}`)
	require.Equal(t, 200, code, body)
	assert.Equal(t, float64(1), body["modified"])

	ev := h.get(id)
	assert.Equal(t, "", ev["name"])
	assert.Equal(t, "", ev["tagline"])
	assert.Equal(t, "", ev["description"])
	assert.Nil(t, ev["category"])
}

func TestUpdateReplacesImageAndQueuesOldFile(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	_, created := h.doMultipart("POST", base, map[string]string{"name": "Poster"}, pngImage(t))
	id := created["insertedId"].(string)
	oldName := imageFilename(t, h.get(id))

	next := pngImage(t)
	next.name = "second.png"
	code, body := h.doMultipart("PUT", base+"/"+id, nil, next)
	require.Equal(t, 200, code, body)
	assert.Equal(t, float64(1), body["matched"])

	newName := imageFilename(t, h.get(id))
	assert.NotEqual(t, oldName, newName)
	assert.True(t, h.fileExists(newName))
	assert.Equal(t, []string{"replaced"}, h.janitor.reasons(oldName))
	assert.Empty(t, h.janitor.reasons(newName))
	assert.Equal(t, "Poster", h.get(id)["name"])
}

func TestUpdateUnmatchedNeverRemovesOldFile(t *testing.T) {
	h := newHarness(t, harnessOpt{wrap: func(s controller.EventStore) controller.EventStore {
		return stubStore{EventStore: s, update: func(context.Context, uuid.UUID, map[string]any) (int64, int64, error) {
			return 0, 0, nil
		}}
	}})
	_, created := h.doMultipart("POST", base, map[string]string{"name": "Poster"}, pngImage(t))
	id := created["insertedId"].(string)
	oldName := imageFilename(t, h.get(id))

	next := pngImage(t)
	next.name = "second.png"
	code, _ := h.doMultipart("PUT", base+"/"+id, nil, next)
	assert.Equal(t, fiber.StatusNotFound, code)

	assert.Empty(t, h.janitor.reasons(oldName))
	require.Len(t, h.janitor.jobs, 1)
	assert.Equal(t, "update-unmatched", h.janitor.jobs[0].reason)
	assert.True(t, strings.HasSuffix(h.janitor.jobs[0].filename, "_second.png"))
	assert.Equal(t, oldName, imageFilename(t, h.get(id)))
}

func TestUpdateFailureExposesDetails(t *testing.T) {
	h := newHarness(t, harnessOpt{wrap: func(s controller.EventStore) controller.EventStore {
		return stubStore{EventStore: s, update: func(context.Context, uuid.UUID, map[string]any) (int64, int64, error) {
			return 0, 0, errors.New("disk quota exceeded")
		}}
	}})
	_, created := h.doJSON("POST", base, `{"name":"Talk"}`)

	code, body := h.doJSON("PUT", base+"/"+created["insertedId"].(string), `{"name":"x"}`)
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Update failed", body["message"])
	assert.Equal(t, "disk quota exceeded", body["details"])
}

func TestDeleteRemovesRecordAndQueuesImage(t *testing.T) {
	h := newHarness(t, harnessOpt{})
	_, created := h.doMultipart("POST", base, map[string]string{"name": "Poster"}, pngImage(t))
	id := created["insertedId"].(string)
	name := imageFilename(t, h.get(id))

	code, body := h.do("DELETE", base+"/"+id, nil, "")
	require.Equal(t, 200, code, body)
	assert.Equal(t, float64(1), body["deletedCount"])
	assert.Equal(t, []string{"deleted"}, h.janitor.reasons(name))

	code, _ = h.do("GET", base+"?id="+id, nil, "")
	assert.Equal(t, fiber.StatusNotFound, code)
	code, _ = h.do("DELETE", base+"/"+id, nil, "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestDeleteWithCleanupQueueRemovesFile(t *testing.T) {
	var queue *cleanup.Queue
	h := newHarness(t, harnessOpt{janitor: janitorFunc(func(name, reason string) bool {
		return queue.Enqueue(name, reason)
	})})
	queue = cleanup.NewQueue(h.disk, cleanup.Options{Workers: 1})

	_, created := h.doMultipart("POST", base, map[string]string{"name": "Poster"}, pngImage(t))
	id := created["insertedId"].(string)
	name := imageFilename(t, h.get(id))
	require.True(t, h.fileExists(name))

	code, _ := h.do("DELETE", base+"/"+id, nil, "")
	require.Equal(t, 200, code)

	require.NoError(t, queue.Close(context.Background()))
	assert.False(t, h.fileExists(name))
	assert.Equal(t, int64(1), queue.Stats().Removed)
}

type janitorFunc func(filename, reason string) bool

func (f janitorFunc) Enqueue(filename, reason string) bool { return f(filename, reason) }
