package store

import (
	"context"

	"github.com/communitykit/activitysync/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

const pendingInsertBatchSize = 100

// pendingConflict skips rows already staged for the same activity.
var pendingConflict = clause.OnConflict{
	Columns: []clause.Column{
		{Name: "user_id"},
		{Name: "provider"},
		{Name: "provider_activity_id"},
	},
	DoNothing: true,
}

// InsertPendingActivities stages activities as pending for userID. Rows
// already staged for the same (user, provider, activity) are skipped, as are
// duplicates within the input.
func (s *Store) InsertPendingActivities(
	ctx context.Context,
	userID string,
	activities []models.ProcessedActivity,
) (int, int, error) {
	if len(activities) == 0 {
		return 0, 0, nil
	}

	type key struct {
		provider models.Provider
		id       string
	}
	seen := make(map[key]struct{}, len(activities))
	rows := make([]*models.PendingActivity, 0, len(activities))
	for _, a := range activities {
		k := key{a.Provider, a.ProviderActivityID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, models.NewPendingActivity(uuid.New().String(), userID, a))
	}

	result := s.db.WithContext(ctx).
		Clauses(pendingConflict).
		CreateInBatches(rows, pendingInsertBatchSize)
	if result.Error != nil {
		return 0, 0, result.Error
	}

	inserted := int(result.RowsAffected)
	return inserted, len(activities) - inserted, nil
}
