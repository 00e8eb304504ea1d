package domain

import "time"

const dateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in loc. The result is midnight UTC
// so dates compare and hash consistently regardless of the source zone.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Bounds returns the half-open instant interval [start of Start, start of the
// day after End) in loc.
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	from := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return from, to
}

type Gap struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Platform  string    `json:"platform"`
	DayCount  int       `json:"day_count"`
}

func (g Gap) Range() DateRange {
	return DateRange{Start: g.StartDate, End: g.EndDate}
}

type GapReport struct {
	Gaps             []Gap      `json:"gaps"`
	TotalMissingDays int        `json:"total_missing_days"`
	EarliestDataDate *time.Time `json:"earliest_data_date,omitempty"`
	LastDataDate     *time.Time `json:"last_data_date,omitempty"`
}

type StaleDay struct {
	Date           time.Time    `json:"date"`
	LastSyncTime   time.Time    `json:"last_sync_time"`
	DayOfWeek      time.Weekday `json:"day_of_week"`
	SuspectedStale bool         `json:"suspected_stale"`
}

type StaleReport struct {
	StaleDays []StaleDay `json:"stale_days"`
}

// DayStat is the per-date aggregate the detectors work from.
type DayStat struct {
	Date      time.Time `db:"day"`
	Rows      int64     `db:"row_count"`
	LastWrite time.Time `db:"last_write"`
}
