package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"example.com/wellness/internal/domain"
)

// DailyStats returns rows ordered by date within the inclusive bounds; zero bounds are open.
func (s *Store) DailyStats(ctx context.Context, from, to time.Time) ([]domain.DailyStat, error) {
	var rows []dailyStatRow
	err := dateRange(s.db.WithContext(ctx), "date", from, to).Order("date").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return convert(rows, dailyStatRow.record)
}

// WeighIns returns weigh-ins ordered by measurement time within the inclusive calendar bounds.
func (s *Store) WeighIns(ctx context.Context, from, to time.Time) ([]domain.WeighIn, error) {
	var rows []weighInRow
	err := dateRange(s.db.WithContext(ctx), "calendar_date", from, to).
		Order("measured_at_ms").Order("weigh_in_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return convert(rows, weighInRow.record)
}

// Activities returns one page ordered by start time descending.
func (s *Store) Activities(ctx context.Context, filter domain.ActivityFilter) ([]domain.Activity, *domain.Cursor, error) {
	query := s.db.WithContext(ctx).Model(&activityRow{})
	if len(filter.TypeIDs) > 0 {
		query = query.Where("type_id IN ?", filter.TypeIDs)
	}
	// Day bounds compare against the text column: a whole day sorts between "YYYY-MM-DD" and the next day.
	if !filter.From.IsZero() {
		query = query.Where("start_time_local >= ?", domain.FormatDate(filter.From))
	}
	if !filter.To.IsZero() {
		query = query.Where("start_time_local < ?", domain.FormatDate(domain.DateOf(filter.To).AddDate(0, 0, 1)))
	}
	if c := filter.After; c != nil {
		at := c.StartTimeLocal.Format(activityTimeLayout)
		query = query.Where("(start_time_local < ? OR (start_time_local = ? AND activity_id < ?))", at, at, c.ActivityID)
	}
	query = query.Order("start_time_local DESC").Order("activity_id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit + 1)
	}

	var rows []activityRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	results, err := convert(rows, activityRow.record)
	if err != nil {
		return nil, nil, err
	}

	if filter.Limit <= 0 || len(results) <= filter.Limit {
		return results, nil, nil
	}
	results = results[:filter.Limit]
	last := results[len(results)-1]
	return results, &domain.Cursor{StartTimeLocal: last.StartTimeLocal, ActivityID: last.ActivityID}, nil
}

func dateRange(db *gorm.DB, column string, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		db = db.Where(column+" >= ?", domain.FormatDate(from))
	}
	if !to.IsZero() {
		db = db.Where(column+" <= ?", domain.FormatDate(to))
	}
	return db
}

func convert[M, R any](rows []M, fn func(M) (R, error)) ([]R, error) {
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		rec, err := fn(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
