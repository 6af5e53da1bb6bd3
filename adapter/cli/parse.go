package cli

import (
	"fmt"
	"strings"
	"time"

	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/google/uuid"
)

var startLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseID parses a UUID argument named what.
func ParseID(what, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}

// ParseOptionalID parses a UUID flag; an empty value yields nil.
func ParseOptionalID(what, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ParseID(what, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseDate parses YYYY-MM-DD. An empty value is today in loc.
func ParseDate(s string, loc *time.Location) (schedulingDomain.Date, error) {
	if strings.TrimSpace(s) == "" {
		return schedulingDomain.DateOf(time.Now(), loc), nil
	}
	d, err := schedulingDomain.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return schedulingDomain.Date{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return d, nil
}

// ParseStart parses a start instant. RFC 3339 values carry their own offset;
// "YYYY-MM-DD HH:MM" is read as wall time in loc.
func ParseStart(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start %q, use \"YYYY-MM-DD HH:MM\" or RFC 3339", s)
}

// FormatMoney prints cents as a decimal amount.
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
