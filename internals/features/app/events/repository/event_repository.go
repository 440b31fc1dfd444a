package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"events_backend/internals/features/app/events/model"
)

var ErrEventNotFound = errors.New("event not found")

// Mongo-like ordering: real dates first (newest first), then raw text
// schedules, then events without a schedule; id breaks ties.
const latestOrder = "event_schedule_at IS NULL, event_schedule_at DESC, " +
	"event_schedule_raw IS NULL, event_schedule_raw DESC, event_id DESC"

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EventModel, error) {
	var ev model.EventModel
	err := r.DB.WithContext(ctx).Where("event_id = ?", id).Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, annotate("find event", err)
	}
	return &ev, nil
}

func (r *EventRepository) ListLatest(ctx context.Context, offset, limit int) ([]model.EventModel, error) {
	var list []model.EventModel
	if err := r.DB.WithContext(ctx).
		Order(latestOrder).
		Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		return nil, annotate("list latest events", err)
	}
	return list, nil
}

// List returns up to limit events in storage order.
func (r *EventRepository) List(ctx context.Context, limit int) ([]model.EventModel, error) {
	var list []model.EventModel
	if err := r.DB.WithContext(ctx).Limit(limit).Find(&list).Error; err != nil {
		return nil, annotate("list events", err)
	}
	return list, nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&model.EventModel{}).Count(&total).Error; err != nil {
		return 0, annotate("count events", err)
	}
	return total, nil
}

func (r *EventRepository) Create(ctx context.Context, ev *model.EventModel) error {
	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return annotate("create event", err)
	}
	return nil
}

// Update writes values to the event and reports matched/modified counts.
// A row whose columns already hold every value is matched but not modified.
// jsonb/timestamptz comparison is covered by the postgres-tagged test.
func (r *EventRepository) Update(ctx context.Context, id uuid.UUID, values map[string]any) (matched, modified int64, err error) {
	db := r.DB.WithContext(ctx)
	if len(values) > 0 {
		cols := make([]string, 0, len(values))
		for col := range values {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		conds := make([]string, 0, len(cols))
		args := make([]any, 0, len(cols))
		for _, col := range cols {
			conds = append(conds, col+" IS DISTINCT FROM ?")
			args = append(args, values[col])
		}

		res := db.Model(&model.EventModel{}).
			Where("event_id = ?", id).
			Where("("+strings.Join(conds, " OR ")+")", args...).
			Updates(values)
		if res.Error != nil {
			return 0, 0, annotate("update event", res.Error)
		}
		if res.RowsAffected > 0 {
			return res.RowsAffected, res.RowsAffected, nil
		}
	}

	if err := db.Model(&model.EventModel{}).Where("event_id = ?", id).Count(&matched).Error; err != nil {
		return 0, 0, annotate("update event", err)
	}
	return matched, 0, nil
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("event_id = ?", id).Delete(&model.EventModel{})
	if res.Error != nil {
		return 0, annotate("delete event", res.Error)
	}
	return res.RowsAffected, nil
}

// ReferencedFilenames collects the stored filename of every attached image.
func (r *EventRepository) ReferencedFilenames(ctx context.Context) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	var batch []model.EventModel
	err := r.DB.WithContext(ctx).
		Select("event_id", "event_files").
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if img := batch[i].Image(); img != nil && img.Filename != "" {
					out[img.Filename] = struct{}{}
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, annotate("load image references", err)
	}
	return out, nil
}

// annotate adds the SQLSTATE to Postgres errors so logs carry it.
func annotate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w (sqlstate=%s)", op, err, pgErr.Code)
	}
	return fmt.Errorf("%s: %w", op, err)
}
