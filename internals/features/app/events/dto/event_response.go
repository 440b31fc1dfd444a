package dto

import (
	"time"

	"github.com/google/uuid"

	"events_backend/internals/features/app/events/model"
	"events_backend/internals/helpers/coerce"
)

const (
	ScheduleDate = "date"
	ScheduleText = "text"
)

type EventResponse struct {
	ID           uuid.UUID        `json:"id"`
	Type         string           `json:"type"`
	UID          coerce.Value     `json:"uid"`
	Name         string           `json:"name"`
	Tagline      string           `json:"tagline"`
	Schedule     any              `json:"schedule"`
	ScheduleType string           `json:"schedule_type,omitempty"`
	Description  string           `json:"description"`
	Moderator    *string          `json:"moderator"`
	Category     *string          `json:"category"`
	SubCategory  *string          `json:"sub_category"`
	RigorRank    *int64           `json:"rigor_rank"`
	Attendees    []coerce.Value   `json:"attendees"`
	Files        model.EventFiles `json:"files"`
	CreatedAt    time.Time        `json:"createdAt"`
}

type LatestResponse struct {
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int64           `json:"total"`
	Items []EventResponse `json:"items"`
}

type ListResponse struct {
	Items []EventResponse `json:"items"`
}

type CreatedResponse struct {
	InsertedID uuid.UUID `json:"insertedId"`
}

type UpdatedResponse struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

type DeletedResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

func ToEventResponse(m *model.EventModel) EventResponse {
	r := EventResponse{
		ID:          m.EventID,
		Type:        m.EventType,
		UID:         m.UID(),
		Name:        m.EventName,
		Tagline:     m.EventTagline,
		Description: m.EventDescription,
		Moderator:   m.EventModerator,
		Category:    m.EventCategory,
		SubCategory: m.EventSubCategory,
		RigorRank:   m.EventRigorRank,
		Attendees:   []coerce.Value(m.EventAttendees),
		Files:       m.EventFiles.Data(),
		CreatedAt:   m.EventCreatedAt,
	}
	if r.Attendees == nil {
		r.Attendees = []coerce.Value{}
	}
	switch s := m.Schedule(); {
	case s.At != nil:
		r.Schedule, r.ScheduleType = s.At.UTC(), ScheduleDate
	case s.Raw != nil:
		r.Schedule, r.ScheduleType = *s.Raw, ScheduleText
	}
	return r
}

func ToEventResponseList(list []model.EventModel) []EventResponse {
	out := make([]EventResponse, 0, len(list))
	for i := range list {
		out = append(out, ToEventResponse(&list[i]))
	}
	return out
}
