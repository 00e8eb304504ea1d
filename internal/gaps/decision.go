package gaps

import (
	"sort"
	"time"

	"commerce_sync/internal/domain"
)

// Decision is the backfill policy outcome for one scan.
type Decision struct {
	ShouldBackfill      bool         `json:"should_backfill"`
	CriticalGaps        []domain.Gap `json:"critical_gaps"`
	StaleDatesToRefresh []time.Time  `json:"stale_dates_to_refresh"`
}

// ShouldTriggerBackfill acts on any gap of at least one day and on any stale
// day.
func ShouldTriggerBackfill(gaps []domain.Gap, staleDays []domain.StaleDay) Decision {
	d := Decision{
		CriticalGaps:        []domain.Gap{},
		StaleDatesToRefresh: []time.Time{},
	}
	for _, g := range gaps {
		if g.DayCount >= 1 {
			d.CriticalGaps = append(d.CriticalGaps, g)
		}
	}
	for _, s := range staleDays {
		if s.SuspectedStale {
			d.StaleDatesToRefresh = append(d.StaleDatesToRefresh, s.Date)
		}
	}
	d.ShouldBackfill = len(d.CriticalGaps) > 0 || len(d.StaleDatesToRefresh) > 0
	return d
}

type RepairKind string

const (
	// RepairBulk re-exports orders created in the range through the bulk path.
	RepairBulk RepairKind = "bulk"
	// RepairRefresh re-reads the range through the paginated recent API.
	RepairRefresh RepairKind = "refresh"
)

const (
	gapBasePriority   = 10
	stalePriority     = 5
	maxRepairPriority = 50
)

type Repair struct {
	Kind     RepairKind       `json:"kind"`
	Range    domain.DateRange `json:"range"`
	Priority int              `json:"priority"`
}

// PlanRepairs turns a decision into queue work. Gaps come first, newest
// first, with newer gaps at higher priority. Stale dates are merged into
// contiguous ranges.
func PlanRepairs(d Decision) []Repair {
	if !d.ShouldBackfill {
		return nil
	}

	gaps := append([]domain.Gap(nil), d.CriticalGaps...)
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].EndDate.After(gaps[j].EndDate) })

	repairs := make([]Repair, 0, len(gaps)+len(d.StaleDatesToRefresh))
	for i, g := range gaps {
		priority := gapBasePriority + len(gaps) - i
		if priority > maxRepairPriority {
			priority = maxRepairPriority
		}
		repairs = append(repairs, Repair{Kind: RepairBulk, Range: g.Range(), Priority: priority})
	}

	for _, r := range mergeDates(d.StaleDatesToRefresh) {
		repairs = append(repairs, Repair{Kind: RepairRefresh, Range: r, Priority: stalePriority})
	}
	return repairs
}

// mergeDates collapses dates into sorted ranges of consecutive days.
func mergeDates(dates []time.Time) []domain.DateRange {
	if len(dates) == 0 {
		return nil
	}
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var out []domain.DateRange
	cur := domain.DateRange{Start: sorted[0], End: sorted[0]}
	for _, d := range sorted[1:] {
		switch {
		case d.Equal(cur.End):
		case d.Equal(cur.End.AddDate(0, 0, 1)):
			cur.End = d
		default:
			out = append(out, cur)
			cur = domain.DateRange{Start: d, End: d}
		}
	}
	return append(out, cur)
}
