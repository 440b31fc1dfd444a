package events

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"events_backend/internals/features/app/events/dto"
	"events_backend/internals/features/app/events/model"
	"events_backend/internals/features/app/events/repository"
)

// SeedEventsFromJSON inserts every object of a JSON array through the same
// coercion as POST /events. Events whose name already exists are skipped.
func SeedEventsFromJSON(ctx context.Context, db *gorm.DB, filePath string) (inserted, skipped int, err error) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("gagal membaca file JSON: %w", err)
	}

	var rows []map[string]any
	if err := sonic.Unmarshal(file, &rows); err != nil {
		return 0, 0, fmt.Errorf("gagal decode JSON: %w", err)
	}

	repo := repository.NewEventRepository(db)
	for i, row := range rows {
		ev := dto.Body(row).ToModel(nil)

		var n int64
		if err := db.WithContext(ctx).Model(&model.EventModel{}).
			Where("event_name = ?", ev.EventName).Count(&n).Error; err != nil {
			return inserted, skipped, err
		}
		if n > 0 {
			log.Printf("ℹ️ Event %q sudah ada, lewati...", ev.EventName)
			skipped++
			continue
		}

		if err := repo.Create(ctx, ev); err != nil {
			return inserted, skipped, fmt.Errorf("row %d: %w", i, err)
		}
		inserted++
	}

	log.Printf("✅ Seed events selesai: %d baru, %d dilewati", inserted, skipped)
	return inserted, skipped, nil
}
