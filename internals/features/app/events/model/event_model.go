package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"events_backend/internals/helpers/coerce"
)

const EventType = "event"

type EventModel struct {
	EventID   uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	EventType string    `gorm:"column:event_type;type:varchar(20);not null;default:'event'" json:"event_type"`

	// uid: Integer(n) | Literal(s) | null, satu kolom per varian
	EventUIDInt  *int64  `gorm:"column:event_uid_int" json:"-"`
	EventUIDText *string `gorm:"column:event_uid_text;type:text" json:"-"`

	EventName        string `gorm:"column:event_name;type:text;not null" json:"event_name"`
	EventTagline     string `gorm:"column:event_tagline;type:text;not null" json:"event_tagline"`
	EventDescription string `gorm:"column:event_description;type:text;not null" json:"event_description"`

	// schedule: tanggal asli atau teks mentah, tidak pernah keduanya
	EventScheduleAt  *time.Time `gorm:"column:event_schedule_at" json:"-"`
	EventScheduleRaw *string    `gorm:"column:event_schedule_raw;type:text" json:"-"`

	EventModerator   *string `gorm:"column:event_moderator;type:text" json:"event_moderator"`
	EventCategory    *string `gorm:"column:event_category;type:text" json:"event_category"`
	EventSubCategory *string `gorm:"column:event_sub_category;type:text" json:"event_sub_category"`
	EventRigorRank   *int64  `gorm:"column:event_rigor_rank" json:"event_rigor_rank"`

	EventAttendees datatypes.JSONSlice[coerce.Value] `gorm:"column:event_attendees;not null" json:"event_attendees"`
	EventFiles     datatypes.JSONType[EventFiles]    `gorm:"column:event_files;not null" json:"event_files"`

	EventCreatedAt time.Time `gorm:"column:event_created_at;autoCreateTime" json:"event_created_at"`
}

// ImageFile is the metadata of the single image attached to an event.
type ImageFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

type EventFiles struct {
	Image *ImageFile `json:"image,omitempty"`
}

func (EventModel) TableName() string {
	return "events"
}

// BeforeCreate mengisi id (UUID v7, urut waktu) dan nilai default kolom JSON.
func (e *EventModel) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.EventID = id
	}
	if e.EventType == "" {
		e.EventType = EventType
	}
	if e.EventAttendees == nil {
		e.EventAttendees = datatypes.JSONSlice[coerce.Value]{}
	}
	return nil
}

func (e *EventModel) UID() coerce.Value {
	return coerce.FromColumns(e.EventUIDInt, e.EventUIDText)
}

func (e *EventModel) SetUID(v coerce.Value) {
	e.EventUIDInt, e.EventUIDText = v.IntPtr(), v.StrPtr()
}

func (e *EventModel) Schedule() coerce.Schedule {
	return coerce.Schedule{At: e.EventScheduleAt, Raw: e.EventScheduleRaw}
}

func (e *EventModel) SetSchedule(s coerce.Schedule) {
	e.EventScheduleAt, e.EventScheduleRaw = s.At, s.Raw
}

// Image returns the attached image, nil when none was ever uploaded.
func (e *EventModel) Image() *ImageFile {
	return e.EventFiles.Data().Image
}

func (e *EventModel) SetImage(img *ImageFile) {
	e.EventFiles = datatypes.NewJSONType(EventFiles{Image: img})
}
