package normalize

import (
	"fmt"
	"time"
)

// jalaliEpoch is Jalali year 1, month 1 (Farvardin), day 1, expressed in
// the proleptic Gregorian calendar. Every conversion below is a day count
// relative to this instant.
var jalaliEpoch = time.Date(622, time.March, 22, 0, 0, 0, 0, time.UTC)

// isJalaliLeap reports whether jy is a leap year under the 33-year Khayyam
// cycle: eight leap years per cycle, landing on these fixed positions.
func isJalaliLeap(jy int) bool {
	pos := ((jy % 33) + 33) % 33
	switch pos {
	case 1, 5, 9, 13, 17, 22, 26, 30:
		return true
	}
	return false
}

func jalaliYearLength(jy int) int {
	if isJalaliLeap(jy) {
		return 366
	}
	return 365
}

// daysBeforeJalaliYear sums whole-year lengths from Jalali year 1 up to
// (but excluding) jy, walking backwards for years before 1.
func daysBeforeJalaliYear(jy int) int {
	days := 0
	if jy >= 1 {
		for y := 1; y < jy; y++ {
			days += jalaliYearLength(y)
		}
	} else {
		for y := jy; y < 1; y++ {
			days -= jalaliYearLength(y)
		}
	}
	return days
}

// daysBeforeJalaliMonth returns the day offset within the year of the first
// day of jm: months 1-6 run 31 days, months 7-12 run 30 (29 in month 12 of
// a common year, handled naturally by daysInJalaliMonth elsewhere).
func daysBeforeJalaliMonth(jm int) int {
	if jm <= 6 {
		return (jm - 1) * 31
	}
	return 6*31 + (jm-7)*30
}

func daysInJalaliMonth(jy, jm int) int {
	switch {
	case jm <= 6:
		return 31
	case jm <= 11:
		return 30
	default:
		if isJalaliLeap(jy) {
			return 30
		}
		return 29
	}
}

// JalaliToGregorian converts a Jalali calendar date to its Gregorian
// equivalent (at midnight UTC).
func JalaliToGregorian(jy, jm, jd int) (time.Time, error) {
	if jm < 1 || jm > 12 {
		return time.Time{}, fmt.Errorf("normalize: invalid jalali month %d", jm)
	}
	if jd < 1 || jd > daysInJalaliMonth(jy, jm) {
		return time.Time{}, fmt.Errorf("normalize: invalid jalali day %d for year %d month %d", jd, jy, jm)
	}

	totalDays := daysBeforeJalaliYear(jy) + daysBeforeJalaliMonth(jm) + (jd - 1)
	return jalaliEpoch.AddDate(0, 0, totalDays), nil
}

// GregorianToJalali converts a Gregorian time to its Jalali calendar date,
// the inverse of JalaliToGregorian, satisfying the round-trip law for the
// full supported range.
func GregorianToJalali(t time.Time) (jy, jm, jd int) {
	truncated := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	totalDays := int(truncated.Sub(jalaliEpoch).Hours() / 24)

	jy = 1
	remaining := totalDays
	if remaining >= 0 {
		for {
			yl := jalaliYearLength(jy)
			if remaining < yl {
				break
			}
			remaining -= yl
			jy++
		}
	} else {
		for remaining < 0 {
			jy--
			remaining += jalaliYearLength(jy)
		}
	}

	if remaining < 186 {
		jm = remaining/31 + 1
		jd = remaining%31 + 1
	} else {
		remaining -= 186
		jm = remaining/30 + 7
		jd = remaining%30 + 1
	}
	return jy, jm, jd
}
