package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		panic(err)
	}
}

// force the clock into the carrier's local timezone because the
// booking site renders departure times and fare calendars relative
// to Taiwan, regardless of where this process happens to run.
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns the current civil date with the clock truncated off.
func Today() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
}

const DateLayout = "2006-01-02"

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, Location)
}

// DaysBetween returns b - a in whole calendar days.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, Location)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, Location)
	return int(b.Sub(a).Hours() / 24)
}
