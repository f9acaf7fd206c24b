package core

// convert.go holds the parsing and normalization helpers shared by the rule
// table and the validator. All helpers operate on already-trimmed values.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nonDigitRegex     = regexp.MustCompile(`[^0-9]`)
	nonNameRegex      = regexp.MustCompile(`[^a-zA-Z\s]`)
	digitsRegex       = regexp.MustCompile(`^[0-9]+$`)
	nameRegex         = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex        = regexp.MustCompile(`^[0-9]{10}$`)
	calendarDateRegex = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
)

// PhoneDigits is the exact length of a phone number.
const PhoneDigits = 10

// CleanValue trims surrounding whitespace from a submitted value.
func CleanValue(s string) string {
	return strings.TrimSpace(s)
}

// StripNonDigits removes every character that is not 0-9.
func StripNonDigits(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

// StripNonNameChars removes every character that is not an ASCII letter or whitespace.
func StripNonNameChars(s string) string {
	return nonNameRegex.ReplaceAllString(s, "")
}

// ParseEmployeeID parses a positive employee id written as decimal digits.
// Leading zeros are accepted and dropped.
func ParseEmployeeID(s string) (int64, bool) {
	if !digitsRegex.MatchString(s) {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func formatEmployeeID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
// Impossible dates such as 2024-02-30 are rejected.
func ParseDate(s string) (time.Time, bool) {
	if !calendarDateRegex.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CalendarDay returns UTC midnight of the calendar day t falls on in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CanonicalDepartment returns the department whose name is exactly s.
func CanonicalDepartment(s string) (Department, bool) {
	for _, d := range Departments {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// NormalizeEmail is the comparison key for email uniqueness. Stored
// addresses keep the case they were submitted with.
func NormalizeEmail(s string) string {
	return strings.ToLower(s)
}

func departmentNames() []string {
	names := make([]string, len(Departments))
	for i, d := range Departments {
		names[i] = string(d)
	}
	return names
}
