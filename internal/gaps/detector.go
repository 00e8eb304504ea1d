// Package gaps finds order dates that are missing or were last written before
// the business day ended, and schedules repairs for them.
package gaps

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"commerce_sync/internal/domain"
)

type StatsStore interface {
	DailyOrderStats(ctx context.Context, brandID, platform string, r domain.DateRange, loc *time.Location) ([]domain.DayStat, error)
	OrderDateBounds(ctx context.Context, brandID, platform string, loc *time.Location) (*time.Time, *time.Time, error)
}

// Detector works on complete business days only: the window always ends
// yesterday in the connection's timezone.
type Detector struct {
	stats  StatsStore
	now    func() time.Time
	logger *slog.Logger
}

func NewDetector(stats StatsStore, logger *slog.Logger) *Detector {
	return &Detector{
		stats:  stats,
		now:    time.Now,
		logger: logger.With("component", "gap_detector"),
	}
}

// Window returns the lookbackDays complete dates before now's date in loc.
func Window(now time.Time, loc *time.Location, lookbackDays int) domain.DateRange {
	today := domain.DateOf(now, loc)
	return domain.DateRange{
		Start: today.AddDate(0, 0, -lookbackDays),
		End:   today.AddDate(0, 0, -1),
	}
}

// Scan is one read of a connection's daily stats, shared by both detectors.
type Scan struct {
	Window domain.DateRange
	Today  time.Time
	Stats  []domain.DayStat
	Loc    *time.Location
}

func (d *Detector) scan(ctx context.Context, conn *domain.Connection, lookbackDays int) (*Scan, error) {
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("lookback days must be positive, got %d", lookbackDays)
	}
	loc := conn.Location()
	now := d.now()
	window := Window(now, loc, lookbackDays)

	stats, err := d.stats.DailyOrderStats(ctx, conn.BrandID, conn.Platform, window, loc)
	if err != nil {
		return nil, fmt.Errorf("daily order stats: %w", err)
	}
	return &Scan{Window: window, Today: domain.DateOf(now, loc), Stats: stats, Loc: loc}, nil
}

// DetectGaps reports the maximal runs of dates without orders in the window.
func (d *Detector) DetectGaps(ctx context.Context, conn *domain.Connection, lookbackDays int) (*domain.GapReport, error) {
	s, err := d.scan(ctx, conn, lookbackDays)
	if err != nil {
		return nil, err
	}
	return d.gapReport(ctx, conn, s)
}

func (d *Detector) gapReport(ctx context.Context, conn *domain.Connection, s *Scan) (*domain.GapReport, error) {
	report := FindGaps(s.Stats, s.Window, conn.Platform)

	first, last, err := d.stats.OrderDateBounds(ctx, conn.BrandID, conn.Platform, s.Loc)
	if err != nil {
		return nil, fmt.Errorf("order date bounds: %w", err)
	}
	report.EarliestDataDate = first
	report.LastDataDate = last

	d.logger.Debug("gaps detected",
		"connection_id", conn.ID,
		"window_start", domain.FormatDate(s.Window.Start),
		"window_end", domain.FormatDate(s.Window.End),
		"gaps", len(report.Gaps),
		"missing_days", report.TotalMissingDays,
	)
	return &report, nil
}

// DetectStaleDays reports past dates whose latest write happened before the
// date's business close.
func (d *Detector) DetectStaleDays(ctx context.Context, conn *domain.Connection, lookbackDays int) (*domain.StaleReport, error) {
	s, err := d.scan(ctx, conn, lookbackDays)
	if err != nil {
		return nil, err
	}
	return &domain.StaleReport{StaleDays: FindStaleDays(s.Stats, s.Today, s.Loc)}, nil
}

// Detect runs both detectors over a single stats read.
func (d *Detector) Detect(ctx context.Context, conn *domain.Connection, lookbackDays int) (*domain.GapReport, *domain.StaleReport, *Scan, error) {
	s, err := d.scan(ctx, conn, lookbackDays)
	if err != nil {
		return nil, nil, nil, err
	}
	gaps, err := d.gapReport(ctx, conn, s)
	if err != nil {
		return nil, nil, nil, err
	}
	stale := &domain.StaleReport{StaleDays: FindStaleDays(s.Stats, s.Today, s.Loc)}
	return gaps, stale, s, nil
}

// FindGaps walks window day by day and collects maximal runs of dates that
// have no rows in stats.
func FindGaps(stats []domain.DayStat, window domain.DateRange, platform string) domain.GapReport {
	present := make(map[time.Time]bool, len(stats))
	for _, s := range stats {
		if s.Rows > 0 {
			present[s.Date] = true
		}
	}

	report := domain.GapReport{Gaps: []domain.Gap{}}
	var open *domain.Gap
	for day := window.Start; !day.After(window.End); day = day.AddDate(0, 0, 1) {
		if present[day] {
			if open != nil {
				report.Gaps = append(report.Gaps, *open)
				open = nil
			}
			continue
		}
		report.TotalMissingDays++
		if open == nil {
			open = &domain.Gap{StartDate: day, Platform: platform}
		}
		open.EndDate = day
		open.DayCount++
	}
	if open != nil {
		report.Gaps = append(report.Gaps, *open)
	}
	return report
}

// Local time of day after which a date's totals are final.
const (
	closeHour   = 23
	closeMinute = 59
)

func cutoff(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), closeHour, closeMinute, 0, 0, loc)
}

// FindStaleDays flags dates before today whose last write precedes 23:59 on
// that date in loc. Today is never flagged.
func FindStaleDays(stats []domain.DayStat, today time.Time, loc *time.Location) []domain.StaleDay {
	out := []domain.StaleDay{}
	for _, s := range stats {
		if s.Rows == 0 || !s.Date.Before(today) {
			continue
		}
		if !s.LastWrite.Before(cutoff(s.Date, loc)) {
			continue
		}
		out = append(out, domain.StaleDay{
			Date:           s.Date,
			LastSyncTime:   s.LastWrite,
			DayOfWeek:      s.Date.Weekday(),
			SuspectedStale: true,
		})
	}
	return out
}
