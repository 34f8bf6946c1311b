// Package period resolves named date presets into concrete UTC windows
// aligned to clinic-local calendar days. The clinic timezone is a real IANA
// zone loaded from tzdata, so day boundaries stay correct even if the
// deployment timezone ever changes.
package period

import (
	"fmt"
	"time"
)

type Preset string

const (
	PresetToday             Preset = "today"
	PresetYesterday         Preset = "yesterday"
	PresetLastWeek          Preset = "lastWeek"
	PresetThisMonth         Preset = "thisMonth"
	PresetLastMonth         Preset = "lastMonth"
	PresetLastCalendarMonth Preset = "lastCalendarMonth"
	PresetLast30Days        Preset = "last30Days"
	PresetCustom            Preset = "custom"
)

const dateLayout = "2006-01-02"

// Window is a half-open UTC interval [Start, End) covering whole
// clinic-local calendar days, plus a human-readable label.
type Window struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
	Label string    `json:"periodLabel"`
}

// Days returns the number of clinic-local days the window covers.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start) / (24 * time.Hour))
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

type Calculator struct {
	loc *time.Location
}

// NewCalculator loads the clinic timezone, e.g. "Asia/Dhaka".
func NewCalculator(tz string) (*Calculator, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load clinic timezone %q: %w", tz, err)
	}
	return &Calculator{loc: loc}, nil
}

// Location exposes the clinic timezone for callers that need clinic-local
// calendar components.
func (c *Calculator) Location() *time.Location { return c.loc }

// midnight returns the UTC instant of clinic-local midnight for the local
// calendar day that is dayOffset days away from the local day containing now.
func (c *Calculator) midnight(now time.Time, dayOffset int) time.Time {
	local := now.In(c.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+dayOffset, 0, 0, 0, 0, c.loc).UTC()
}

// monthStart returns the UTC instant of clinic-local midnight on the first
// day of the local month that is monthOffset months away from now's month.
func (c *Calculator) monthStart(now time.Time, monthOffset int) time.Time {
	local := now.In(c.loc)
	y, m, _ := local.Date()
	return time.Date(y, m+time.Month(monthOffset), 1, 0, 0, 0, 0, c.loc).UTC()
}

// Resolve expands a preset into a concrete window relative to now. For the
// custom preset, customStart and customEnd are YYYY-MM-DD strings and the
// window includes the full end day (End is the midnight after it). Missing
// or malformed custom dates fall back to today.
func (c *Calculator) Resolve(preset Preset, customStart, customEnd string, now time.Time) Window {
	switch preset {
	case PresetYesterday:
		w := Window{Start: c.midnight(now, -1), End: c.midnight(now, 0)}
		w.Label = "Yesterday (" + c.dayLabel(w.Start) + ")"
		return w
	case PresetLastWeek:
		w := Window{Start: c.midnight(now, -6), End: c.midnight(now, 1)}
		w.Label = "Last 7 Days (" + c.rangeLabel(w) + ")"
		return w
	case PresetThisMonth:
		w := Window{Start: c.monthStart(now, 0), End: c.midnight(now, 1)}
		w.Label = "This Month (" + now.In(c.loc).Format("January 2006") + ")"
		return w
	case PresetLastMonth, PresetLastCalendarMonth:
		w := Window{Start: c.monthStart(now, -1), End: c.monthStart(now, 0)}
		w.Label = "Last Month (" + w.Start.In(c.loc).Format("January 2006") + ")"
		return w
	case PresetLast30Days:
		w := Window{Start: c.midnight(now, -29), End: c.midnight(now, 1)}
		w.Label = "Last 30 Days (" + c.rangeLabel(w) + ")"
		return w
	case PresetCustom:
		start, errS := time.ParseInLocation(dateLayout, customStart, c.loc)
		end, errE := time.ParseInLocation(dateLayout, customEnd, c.loc)
		if errS != nil || errE != nil || end.Before(start) {
			return c.Resolve(PresetToday, "", "", now)
		}
		w := Window{
			Start: start.UTC(),
			End:   end.AddDate(0, 0, 1).UTC(),
		}
		w.Label = c.rangeLabel(w)
		return w
	default: // PresetToday and anything unrecognized
		w := Window{Start: c.midnight(now, 0), End: c.midnight(now, 1)}
		w.Label = "Today (" + c.dayLabel(w.Start) + ")"
		return w
	}
}

func (c *Calculator) dayLabel(startUTC time.Time) string {
	return startUTC.In(c.loc).Format("02 Jan 2006")
}

func (c *Calculator) rangeLabel(w Window) string {
	// End is exclusive, so the last covered day is one before it.
	last := w.End.In(c.loc).AddDate(0, 0, -1)
	return w.Start.In(c.loc).Format("02 Jan 2006") + " - " + last.Format("02 Jan 2006")
}
