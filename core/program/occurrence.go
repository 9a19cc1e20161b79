package program

import (
	"strings"
	"time"
)

// Eastern is the single organizational timezone. All session wall-clock times
// are interpreted in it regardless of server or client locale.
var Eastern = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("program: loading timezone " + name + ": " + err.Error())
	}
	return loc
}

// Occurrence is one concrete calendar instance of a recurring Session,
// computed on demand and never persisted.
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	YMD   string    `json:"ymd"` // "YYYYMMDD"
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Expand materializes the ordered occurrence sequence of a session: every
// date in [StartDate, EndDate] whose weekday appears in DaysOfWeek
// (case-insensitive) and is not listed in Cancel. Pure; safe to call
// repeatedly for preview, calendar and reminder use.
//
// StartTime > EndTime yields a same-day inverted span as given; overnight
// sessions are not rolled over (unvalidated caller data, kept as-is).
func Expand(s Session) []Occurrence {
	days := parseDaysOfWeek(s.DaysOfWeek)
	if len(days) == 0 {
		return nil
	}
	cancelled := parseCancelDates(s.Cancel)

	startH, startM := parseClock(s.StartTime)
	endH, endM := parseClock(s.EndTime)

	first := dateOnly(s.StartDate)
	last := dateOnly(s.EndDate)

	var occs []Occurrence
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if _, ok := days[d.Weekday()]; !ok {
			continue
		}
		ymd := d.Format("20060102")
		if _, ok := cancelled[ymd]; ok {
			continue
		}
		occs = append(occs, Occurrence{
			Start: time.Date(d.Year(), d.Month(), d.Day(), startH, startM, 0, 0, Eastern),
			End:   time.Date(d.Year(), d.Month(), d.Day(), endH, endM, 0, 0, Eastern),
			YMD:   ymd,
		})
	}
	return occs
}

// OccursOn reports whether the session has an occurrence on the given date
// ("2006-01-02" in Eastern wall-clock).
func OccursOn(s Session, date string) bool {
	ymd := strings.ReplaceAll(date, "-", "")
	for _, occ := range Expand(s) {
		if occ.YMD == ymd {
			return true
		}
	}
	return false
}

func parseDaysOfWeek(raw string) map[time.Weekday]struct{} {
	days := make(map[time.Weekday]struct{})
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(part))]; ok {
			days[wd] = struct{}{}
		}
	}
	return days
}

// parseCancelDates normalizes cancellation entries to "YYYYMMDD"; both
// "2025-01-13" and "20250113" encodings occur in stored data. Out-of-range or
// malformed entries are inert.
func parseCancelDates(raw string) map[string]struct{} {
	cancelled := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		ymd := strings.ReplaceAll(strings.TrimSpace(part), "-", "")
		if len(ymd) == 8 {
			cancelled[ymd] = struct{}{}
		}
	}
	return cancelled
}

// parseClock reads "15:04" (seconds tolerated, ignored); malformed values
// fall back to midnight rather than erroring, matching lenient stored data.
func parseClock(raw string) (hour, minute int) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		if t, err = time.Parse("15:04:05", strings.TrimSpace(raw)); err != nil {
			return 0, 0
		}
	}
	return t.Hour(), t.Minute()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Eastern)
}
