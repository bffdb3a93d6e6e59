package sparql

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	limitRes  = []*regexp.Regexp{
		regexp.MustCompile(`top (\d+)`),
		regexp.MustCompile(`first (\d+)`),
		regexp.MustCompile(`last (\d+)`),
		regexp.MustCompile(`(\d+) results?`),
	}
)

const isoDate = "2006-01-02"

// ParseTemporal extracts a temporal constraint from query text: a relative
// keyword (today, last week, this month, ...) resolved against now, or an
// explicit ISO date. Returns nil when none is found.
func ParseTemporal(query string, now time.Time) map[string]string {
	query = strings.ToLower(query)

	switch {
	case strings.Contains(query, "today"):
		return map[string]string{"date": now.Format(isoDate)}
	case strings.Contains(query, "yesterday"):
		return map[string]string{"date": now.AddDate(0, 0, -1).Format(isoDate)}
	case strings.Contains(query, "tomorrow"):
		return map[string]string{"date": now.AddDate(0, 0, 1).Format(isoDate)}
	case strings.Contains(query, "this week"):
		return weekRange(now, 0)
	case strings.Contains(query, "last week"):
		return weekRange(now, -1)
	case strings.Contains(query, "this month"):
		return monthRange(now, 0)
	case strings.Contains(query, "last month"):
		return monthRange(now, -1)
	}

	if date := isoDateRe.FindString(query); date != "" {
		return map[string]string{"date": date}
	}
	return nil
}

// weekRange returns the Monday-to-Sunday range of the week at the given
// offset from now.
func weekRange(now time.Time, weekOffset int) map[string]string {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	start := now.AddDate(0, 0, -daysSinceMonday+7*weekOffset)
	end := start.AddDate(0, 0, 6)
	return map[string]string{
		"start": start.Format(isoDate),
		"end":   end.Format(isoDate),
	}
}

// monthRange returns the first-to-last-day range of the month at the given
// offset from now.
func monthRange(now time.Time, monthOffset int) map[string]string {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, monthOffset, 0)
	end := start.AddDate(0, 1, -1)
	return map[string]string{
		"start": start.Format(isoDate),
		"end":   end.Format(isoDate),
	}
}

// ParseLimit extracts an explicit result limit ("top 5", "first 10",
// "3 results"). Returns 0 when none is present.
func ParseLimit(query string) int {
	query = strings.ToLower(query)
	for _, re := range limitRes {
		if m := re.FindStringSubmatch(query); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// ParseOrdering extracts an ordering request from query text. Returns empty
// strings when none is recognized.
func ParseOrdering(query string) (orderBy, direction string) {
	query = strings.ToLower(query)
	switch {
	case strings.Contains(query, "latest"), strings.Contains(query, "most recent"):
		return "created", "DESC"
	case strings.Contains(query, "oldest"):
		return "created", "ASC"
	case strings.Contains(query, "alphabetical"):
		return "title", "ASC"
	}
	return "", ""
}
