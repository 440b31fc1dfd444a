package dto

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"events_backend/internals/features/app/events/model"
	"events_backend/internals/helpers/coerce"
)

// Body is a decoded request body. A key is present when the client sent it,
// even with an empty or null value.
type Body map[string]any

func (b Body) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// ParseBody decodes JSON, urlencoded and multipart bodies into a Body. Repeated
// form keys and keys ending in "[]" arrive as []string.
func ParseBody(c *fiber.Ctx) (Body, error) {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	switch {
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Form multipart tidak valid")
		}
		b := Body{}
		for k, vs := range form.Value {
			b.add(k, vs...)
		}
		return b, nil

	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
		b := Body{}
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			b.add(string(k), string(v))
		})
		return b, nil

	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON) || strings.HasSuffix(strings.SplitN(ct, ";", 2)[0], "+json"):
		raw := c.Body()
		if len(strings.TrimSpace(string(raw))) == 0 {
			return Body{}, nil
		}
		var v any
		if err := sonic.Unmarshal(raw, &v); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Body JSON tidak valid")
		}
		switch t := v.(type) {
		case nil:
			return Body{}, nil
		case map[string]any:
			return Body(t), nil
		default:
			return nil, fiber.NewError(fiber.StatusBadRequest, "Body JSON harus berupa object")
		}
	}
	return Body{}, nil
}

func (b Body) add(key string, values ...string) {
	list := strings.HasSuffix(key, "[]")
	key = strings.TrimSuffix(key, "[]")
	if prev, ok := b[key]; ok {
		switch p := prev.(type) {
		case []string:
			b[key] = append(p, values...)
		case string:
			b[key] = append([]string{p}, values...)
		}
		return
	}
	if !list && len(values) == 1 {
		b[key] = values[0]
		return
	}
	b[key] = append([]string{}, values...)
}

// ToModel builds a new event with defaults for every omitted field.
func (b Body) ToModel(img *model.ImageFile) *model.EventModel {
	ev := &model.EventModel{
		EventType:        model.EventType,
		EventName:        text(b["name"]),
		EventTagline:     text(b["tagline"]),
		EventDescription: text(b["description"]),
		EventModerator:   coerce.StringPtr(b["moderator"]),
		EventCategory:    coerce.StringPtr(b["category"]),
		EventSubCategory: coerce.StringPtr(b["sub_category"]),
		EventRigorRank:   coerce.ParseIntIfPossible(b["rigor_rank"]).IntPtr(),
		EventAttendees:   datatypes.NewJSONSlice(coerce.ParseAttendees(b["attendees"])),
	}
	ev.SetUID(coerce.IntOrLiteral(b["uid"]))
	ev.SetSchedule(coerce.ParseSchedule(b["schedule"]))
	ev.SetImage(img)
	return ev
}

// Patch is a partial update keyed by column name.
type Patch struct {
	Set   map[string]any
	Image *model.ImageFile
}

// ToPatch keeps only the fields present in the body, coerced like ToModel.
func (b Body) ToPatch() Patch {
	set := map[string]any{}
	if b.Has("uid") {
		uid := coerce.IntOrLiteral(b["uid"])
		set["event_uid_int"] = nullable(uid.IntPtr())
		set["event_uid_text"] = nullable(uid.StrPtr())
	}
	for key, col := range map[string]string{
		"name":        "event_name",
		"tagline":     "event_tagline",
		"description": "event_description",
	} {
		if b.Has(key) {
			set[col] = text(b[key])
		}
	}
	if b.Has("schedule") {
		s := coerce.ParseSchedule(b["schedule"])
		set["event_schedule_at"] = nullable(s.At)
		set["event_schedule_raw"] = nullable(s.Raw)
	}
	for key, col := range map[string]string{
		"moderator":    "event_moderator",
		"category":     "event_category",
		"sub_category": "event_sub_category",
	} {
		if b.Has(key) {
			set[col] = nullable(coerce.StringPtr(b[key]))
		}
	}
	if b.Has("rigor_rank") {
		set["event_rigor_rank"] = nullable(coerce.ParseIntIfPossible(b["rigor_rank"]).IntPtr())
	}
	if b.Has("attendees") {
		set["event_attendees"] = datatypes.NewJSONSlice(coerce.ParseAttendees(b["attendees"]))
	}
	return Patch{Set: set}
}

func (p Patch) Empty() bool {
	return len(p.Set) == 0 && p.Image == nil
}

// Values is the column map to write; a staged image replaces files wholesale.
func (p Patch) Values() map[string]any {
	out := make(map[string]any, len(p.Set)+1)
	for k, v := range p.Set {
		out[k] = v
	}
	if p.Image != nil {
		out["event_files"] = datatypes.NewJSONType(model.EventFiles{Image: p.Image})
	}
	return out
}

// text renders string columns; absent and null both become "".
func text(v any) string {
	s, _ := coerce.String(v)
	return s
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
