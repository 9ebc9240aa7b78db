package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/wellness/internal/domain"
)

// DailyStats returns rows ordered by date within the inclusive bounds; zero bounds are open.
func (s *Store) DailyStats(ctx context.Context, from, to time.Time) ([]domain.DailyStat, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_stats
        WHERE ($1::date IS NULL OR date >= $1) AND ($2::date IS NULL OR date <= $2)
        ORDER BY date`, strings.Join(dailyStatColumns, ", "))

	rows, err := s.pool.Query(ctx, query, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDailyStat)
}

// WeighIns returns weigh-ins ordered by measurement time within the inclusive calendar bounds.
func (s *Store) WeighIns(ctx context.Context, from, to time.Time) ([]domain.WeighIn, error) {
	query := fmt.Sprintf(`SELECT %s FROM weigh_ins
        WHERE ($1::date IS NULL OR calendar_date >= $1) AND ($2::date IS NULL OR calendar_date <= $2)
        ORDER BY measured_at, weigh_in_id`, strings.Join(weighInColumns, ", "))

	rows, err := s.pool.Query(ctx, query, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanWeighIn)
}

// Activities returns one page ordered by start time descending.
func (s *Store) Activities(ctx context.Context, filter domain.ActivityFilter) ([]domain.Activity, *domain.Cursor, error) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.TypeIDs) > 0 {
		clauses = append(clauses, "type_id = ANY("+arg(filter.TypeIDs)+")")
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "start_time_local::date >= "+arg(domain.DateOf(filter.From))+"::date")
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "start_time_local::date <= "+arg(domain.DateOf(filter.To))+"::date")
	}
	if filter.After != nil {
		clauses = append(clauses, fmt.Sprintf("(start_time_local, activity_id) < (%s, %s)",
			arg(filter.After.StartTimeLocal), arg(filter.After.ActivityID)))
	}

	query := "SELECT " + strings.Join(activityColumns, ", ") + " FROM activities"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time_local DESC, activity_id DESC"
	if filter.Limit > 0 {
		// One extra row tells us whether another page exists.
		query += " LIMIT " + arg(filter.Limit+1)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	results, err := collect(rows, scanActivity)
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

func collect[R any](rows pgx.Rows, scan func(pgx.Row) (R, error)) ([]R, error) {
	defer rows.Close()

	var out []R
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return domain.DateOf(t)
}
