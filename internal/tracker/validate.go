package tracker

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	maxNoteLength  = 1000
	maxQueryLength = 200
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// validateTaskID checks that id refers to a real task.
func validateTaskID(id int64) error {
	if id <= 0 {
		return invalid("task_id", "task_id must be greater than 0")
	}
	return nil
}

// validateNote checks the note length.
func validateNote(note string) error {
	if utf8.RuneCountInString(note) > maxNoteLength {
		return invalid("note", "note must be at most %d characters", maxNoteLength)
	}
	return nil
}

// parseDate validates a YYYY-MM-DD date in loc.
func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	if !datePattern.MatchString(value) {
		return time.Time{}, invalid(field, "Invalid date format. Use YYYY-MM-DD")
	}
	parsed, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, invalid(field, "Invalid date: %s", value)
	}
	return parsed, nil
}

// parseClock validates an HH:MM time of day on date.
func parseClock(field, value string, date time.Time) (time.Time, error) {
	if !timePattern.MatchString(value) {
		return time.Time{}, invalid(field, "Invalid time format for %s. Use HH:MM", field)
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, invalid(field, "Invalid time for %s: %s", field, value)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// validateQuery checks a search query.
func validateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", invalid("query", "Search query cannot be empty")
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		return "", invalid("query", "Search query must be at most %d characters", maxQueryLength)
	}
	return query, nil
}
