package domain

import "time"

// ReservationCutoffHour is the local hour after which payments are
// picked up for reservation on the next run.
const ReservationCutoffHour = 16

// tallinn is resolved once; the zone is part of the Go tzdata.
var tallinn = mustLoadLocation("Europe/Tallinn")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Tallinn returns the fund's operating time zone.
func Tallinn() *time.Location {
	return tallinn
}

// easterSunday computes Western Easter (Gregorian) for a year using
// the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, tallinn)
}

// IsPublicHoliday reports whether the date is an Estonian public
// holiday.
func IsPublicHoliday(t time.Time) bool {
	t = t.In(tallinn)
	y, month, day := t.Date()

	switch {
	case month == time.January && day == 1: // uusaasta
		return true
	case month == time.February && day == 24: // iseseisvuspäev
		return true
	case month == time.May && day == 1: // kevadpüha
		return true
	case month == time.June && (day == 23 || day == 24): // võidupüha, jaanipäev
		return true
	case month == time.August && day == 20: // taasiseseisvumispäev
		return true
	case month == time.December && (day == 24 || day == 25 || day == 26):
		return true
	}

	easter := easterSunday(y)
	for _, offset := range []int{-2, 0, 49} { // suur reede, ülestõusmispühade 1. püha, nelipühade 1. püha
		h := easter.AddDate(0, 0, offset)
		if h.Month() == month && h.Day() == day {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether the date is neither a weekend nor a
// public holiday.
func IsWorkingDay(t time.Time) bool {
	t = t.In(tallinn)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsPublicHoliday(t)
}

// LatestWorkingDay returns the latest working day not after t.
func LatestWorkingDay(t time.Time) time.Time {
	t = t.In(tallinn)
	for !IsWorkingDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// ReservationCutoff returns the most recent reservation cutoff instant
// at or before now: 16:00 Europe/Tallinn on the latest working day.
// Before 16:00 on a working day the cutoff is the previous working
// day's 16:00.
func ReservationCutoff(now time.Time) time.Time {
	now = now.In(tallinn)
	day := LatestWorkingDay(now)
	cutoff := time.Date(day.Year(), day.Month(), day.Day(), ReservationCutoffHour, 0, 0, 0, tallinn)
	if cutoff.After(now) {
		day = LatestWorkingDay(day.AddDate(0, 0, -1))
		cutoff = time.Date(day.Year(), day.Month(), day.Day(), ReservationCutoffHour, 0, 0, 0, tallinn)
	}
	return cutoff
}
