package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"commerce_sync/internal/domain"
)

// StatsStore aggregates synced orders per business date.
type StatsStore struct {
	db *sqlx.DB
}

func NewStatsStore(db *sqlx.DB) *StatsStore {
	return &StatsStore{db: db}
}

// DailyOrderStats returns, for every date in r that has orders, the order
// count and the latest row write time. Dates are bucketed in loc.
func (s *StatsStore) DailyOrderStats(ctx context.Context, brandID, platform string, r domain.DateRange, loc *time.Location) ([]domain.DayStat, error) {
	from, to := r.Bounds(loc)

	query := `
		SELECT
			(created_at AT TIME ZONE $3)::date AS day,
			COUNT(*) AS row_count,
			MAX(updated_at) AS last_write
		FROM orders
		WHERE brand_id = $1
			AND platform = $2
			AND created_at >= $4
			AND created_at < $5
		GROUP BY day
		ORDER BY day`

	var stats []domain.DayStat
	if err := s.db.SelectContext(ctx, &stats, query, brandID, platform, loc.String(), from, to); err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].Date = asDate(stats[i].Date)
	}
	return stats, nil
}

// OrderDateBounds returns the first and last business dates that have orders,
// or nil when there are none.
func (s *StatsStore) OrderDateBounds(ctx context.Context, brandID, platform string, loc *time.Location) (*time.Time, *time.Time, error) {
	query := `
		SELECT
			MIN((created_at AT TIME ZONE $3)::date),
			MAX((created_at AT TIME ZONE $3)::date)
		FROM orders
		WHERE brand_id = $1 AND platform = $2`

	var first, last sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, brandID, platform, loc.String()).Scan(&first, &last); err != nil {
		return nil, nil, err
	}
	if !first.Valid || !last.Valid {
		return nil, nil, nil
	}
	f := asDate(first.Time)
	l := asDate(last.Time)
	return &f, &l, nil
}

func asDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
