// Package marketclock gates the polling loop on the US equity session.
package marketclock

import "time"

// SPX combo orders stop matching at 15:15 ET, fifteen minutes after the
// equity close would suggest; the session window mirrors that cutoff.
const (
	openHour    = 9
	openMinute  = 30
	closeHour   = 15
	closeMinute = 15
)

// Clock reports whether the exchange session is open.
type Clock struct {
	location *time.Location
}

// New creates a Clock for the US listed-options session. Falls back to
// fixed UTC-5 if the zone database is unavailable.
func New() *Clock {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return &Clock{location: loc}
}

// IsOpen reports whether t falls inside the trading session: a weekday
// between 09:30 and 15:15 exchange time, inclusive at both edges.
// Exchange holidays are not modeled; a holiday cycle simply finds an
// empty snapshot.
func (c *Clock) IsOpen(t time.Time) bool {
	local := t.In(c.location)

	if !IsWeekday(local) {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	sessionOpen := openHour*60 + openMinute
	sessionClose := closeHour*60 + closeMinute

	return minutes >= sessionOpen && minutes <= sessionClose
}

// IsWeekday reports whether t falls Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
