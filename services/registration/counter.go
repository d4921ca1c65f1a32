package registration

import (
	"context"

	"gorm.io/gorm"
)

// Counter answers registration counts for the content dashboard. It only
// needs the database, so content can depend on it without a cycle.
type Counter struct {
	db *gorm.DB
}

func NewCounter(db *gorm.DB) *Counter {
	return &Counter{db: db}
}

type countRow struct {
	RecordID string
	Total    int64
}

func (c *Counter) CountByRecord(ctx context.Context, recordIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(recordIDs))
	if len(recordIDs) == 0 {
		return out, nil
	}

	var rows []countRow
	err := c.db.WithContext(ctx).
		Model(&Registration{}).
		Select("record_id, COUNT(*) AS total").
		Where("record_id IN ?", recordIDs).
		Group("record_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.RecordID] = r.Total
	}
	return out, nil
}
