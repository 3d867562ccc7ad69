package analytics

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/outreach/internal/platform/errors"
)

// Granularity is the width of a time-series bucket.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// ErrInvalidGranularity indicates an unsupported bucket width.
var ErrInvalidGranularity = apperrors.New(apperrors.CodeAnalyticsInvalidGranularity, "invalid bucket granularity")

// ParseGranularity normalizes a granularity name. Empty input selects day.
func ParseGranularity(value string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(value))); g {
	case "":
		return GranularityDay, nil
	case GranularityHour, GranularityDay, GranularityWeek:
		return g, nil
	default:
		return "", invalidGranularity(value)
	}
}

func invalidGranularity(value string) error {
	return apperrors.WithMetadata(
		apperrors.CodeAnalyticsInvalidGranularity,
		fmt.Sprintf("granularity %q is not one of hour, day or week", value),
		map[string]string{"Granularity": value},
	)
}

// Truncate returns the UTC start of the bucket containing t. Weeks start on
// Monday.
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the bucket after start.
func (g Granularity) Next(start time.Time) time.Time {
	switch g {
	case GranularityHour:
		return start.Add(time.Hour)
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func (g Granularity) valid() bool {
	return g == GranularityHour || g == GranularityDay || g == GranularityWeek
}
