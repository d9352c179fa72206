package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
)

// DefaultTimezone is used whenever the schedule text carries no recognizable
// IANA zone name.
const DefaultTimezone = "UTC"

var monthsByAbbrev = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

var (
	// "30 nov 2025, 17:00 - 18:30" with optional surrounding noise after.
	schedulePattern = regexp.MustCompile(`^\s*(\d{1,2})\s+([A-Za-z]{3})\s+(\d{4})\s*,\s*(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})`)
	// Trailing "(Europe/Rome)".
	timezonePattern = regexp.MustCompile(`\(([^()]+)\)\s*$`)
)

// ParseSchedule parses the widget's free-text schedule string, grammar
// "<day> <month-abbrev> <year>, <HH:MM> - <HH:MM> (<IANA timezone>)".
// It is a total function: any input that fails the grammar collapses to the
// all-empty shape with only Timezone set, never an error.
func ParseSchedule(text string) entities.ParsedSchedule {
	out := entities.ParsedSchedule{Timezone: DefaultTimezone}
	if strings.TrimSpace(text) == "" {
		return out
	}

	location := time.UTC
	if match := timezonePattern.FindStringSubmatch(text); match != nil {
		name := strings.TrimSpace(match[1])
		if parsed, err := time.LoadLocation(name); err == nil {
			location = parsed
			out.Timezone = name
		}
	}

	match := schedulePattern.FindStringSubmatch(text)
	if match == nil {
		return out
	}

	day, _ := strconv.Atoi(match[1])
	month, ok := monthsByAbbrev[strings.ToLower(match[2])]
	if !ok {
		return out
	}
	year, _ := strconv.Atoi(match[3])
	startHour, _ := strconv.Atoi(match[4])
	startMinute, _ := strconv.Atoi(match[5])
	endHour, _ := strconv.Atoi(match[6])
	endMinute, _ := strconv.Atoi(match[7])
	if day < 1 || day > 31 || startHour > 23 || endHour > 23 || startMinute > 59 || endMinute > 59 {
		return out
	}

	out.Date = fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
	out.StartTime = fmt.Sprintf("%02d:%02d", startHour, startMinute)
	out.EndTime = fmt.Sprintf("%02d:%02d", endHour, endMinute)

	start := time.Date(year, month, day, startHour, startMinute, 0, 0, location)
	end := time.Date(year, month, day, endHour, endMinute, 0, 0, location)
	out.StartsAt = &start
	out.EndsAt = &end
	return out
}
