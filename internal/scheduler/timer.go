package scheduler

import (
	"time"

	"github.com/ohrachov/plantmon/internal/errdefs"
	"github.com/ohrachov/plantmon/internal/store"
)

// armedTimer is one in-memory record causing a device action once per day.
// Every armed timer has a corresponding row in the store. The parsed
// hour/minute stay on the timer so re-arming recomputes the wall-clock
// occurrence instead of adding a fixed day.
type armedTimer struct {
	entry    store.ScheduleEntry
	hour     int
	minute   int
	nextFire time.Time
}

// parseTimeOfDay validates and splits a wall-clock "HH:MM" string.
func parseTimeOfDay(s string) (hour, minute int, err error) {
	t, perr := time.Parse("15:04", s)
	if perr != nil {
		return 0, 0, errdefs.Validationf("invalid time of day %q (use HH:MM)", s)
	}
	return t.Hour(), t.Minute(), nil
}

// nextOccurrence returns the first wall-clock occurrence of hour:minute
// strictly after now. Rolling to the next day goes through time.Date so the
// hour:minute is preserved across DST transitions.
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}
