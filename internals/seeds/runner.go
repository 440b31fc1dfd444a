package seeds

import (
	"context"

	"gorm.io/gorm"

	events "events_backend/internals/seeds/events"
)

const DefaultEventsFile = "internals/seeds/events/data_events.json"

// RunAllSeeds seeds events from filePath, or from DefaultEventsFile when empty.
func RunAllSeeds(ctx context.Context, db *gorm.DB, filePath string) error {
	if filePath == "" {
		filePath = DefaultEventsFile
	}

	//* Events
	_, _, err := events.SeedEventsFromJSON(ctx, db, filePath)
	return err
}
