package version

import "time"

// releaseMonths maps the minor release number to its calendar month.
// Galaxy ships three releases a year: February, June and October.
var releaseMonths = map[int]time.Month{
	0: time.February,
	1: time.June,
	2: time.October,
}

// ReleaseMonth returns the calendar month a release ships in.
func (v Version) ReleaseMonth() time.Month {
	return releaseMonths[v.Minor()]
}

// ReleaseDates returns the planned freeze and release dates for a version.
// The freeze lands on the first Monday of the release month and the release
// three weeks later. Years are two-digit majors offset from 2000.
func (v Version) ReleaseDates() (freeze, release time.Time) {
	firstOfMonth := time.Date(2000+v.Major(), v.ReleaseMonth(), 1, 0, 0, 0, 0, time.UTC)
	freeze = NextWeekday(firstOfMonth, time.Monday)
	release = freeze.AddDate(0, 0, 21)
	return freeze, release
}

// NextWeekday returns the next occurrence of the given weekday strictly
// after d.
func NextWeekday(d time.Time, weekday time.Weekday) time.Time {
	daysAhead := int(weekday) - int(d.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return d.AddDate(0, 0, daysAhead)
}
