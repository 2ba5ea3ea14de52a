package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// 15-12-2024, 15/12/2024
	numericDatePattern = regexp.MustCompile(`\b([0-9]{1,2})[-/]([0-9]{1,2})[-/]([0-9]{4})\b`)
	// 15-Dec-2024, 15 Dec 2024, 15/December/2024
	monthNameDatePattern = regexp.MustCompile(`\b([0-9]{1,2})[-/ ]([a-z]{3,9})[-/ ]([0-9]{4})\b`)
	// 10:30, 10:30:45, optionally with am/pm
	timePattern = regexp.MustCompile(`\b([0-9]{1,2}):([0-9]{2})(?::([0-9]{2}))?\s*(am|pm)?\b`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// DateTimeParser extracts a transaction date and time from message text,
// falling back to the message receipt timestamp for whichever component is
// absent. Pure and safe for concurrent use.
type DateTimeParser struct{}

// NewDateTimeParser creates a date/time parser.
func NewDateTimeParser() *DateTimeParser {
	return &DateTimeParser{}
}

// Extract returns the transaction date as YYYY-MM-DD and time as HH:MM:SS.
// It never fails: missing components come from fallback.
func (p *DateTimeParser) Extract(text string, fallback time.Time) (string, string) {
	normalized := NormalizeText(text)

	date, ok := extractDate(normalized, fallback)
	if !ok {
		date = fallback.Format("2006-01-02")
	}

	clock, ok := extractTime(normalized)
	if !ok {
		clock = fallback.Format("15:04:05")
	}

	return date, clock
}

func extractDate(normalized string, fallback time.Time) (string, bool) {
	if m := numericDatePattern.FindStringSubmatch(normalized); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if date, ok := calendarDate(year, time.Month(month), day); ok {
			return date, true
		}
	}

	if m := monthNameDatePattern.FindStringSubmatch(normalized); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if month, ok := monthsByName[m[2][:3]]; ok {
			if date, ok := calendarDate(year, month, day); ok {
				return date, true
			}
		}
	}

	if strings.Contains(normalized, "yesterday") {
		return fallback.AddDate(0, 0, -1).Format("2006-01-02"), true
	}
	if strings.Contains(normalized, "today") {
		return fallback.Format("2006-01-02"), true
	}

	return "", false
}

// calendarDate validates that the components form a real calendar date and
// formats it. time.Date normalizes overflow (Feb 30 → Mar 2), so round-trip
// the components to reject that.
func calendarDate(year int, month time.Month, day int) (string, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return "", false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return "", false
	}
	return d.Format("2006-01-02"), true
}

func extractTime(normalized string) (string, bool) {
	m := timePattern.FindStringSubmatch(normalized)
	if m == nil {
		return "", false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	meridiem := m[4]

	if minute > 59 || second > 59 {
		return "", false
	}

	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return "", false
		}
	}

	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second), true
}
