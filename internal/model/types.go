package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	dateLayout,
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

// NullTime is a nullable timestamp that scans from whatever the driver
// hands back (time.Time on postgres, text on sqlite expressions).
type NullTime struct {
	Time  time.Time
	Valid bool
}

func (t *NullTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = NullTime{}
	case time.Time:
		*t = NullTime{Time: v, Valid: true}
	case string:
		return t.scanText(v)
	case []byte:
		return t.scanText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into NullTime", src)
	}
	return nil
}

func (t *NullTime) scanText(s string) error {
	if strings.TrimSpace(s) == "" {
		*t = NullTime{}
		return nil
	}
	parsed, err := parseTime(s)
	if err != nil {
		return err
	}
	*t = NullTime{Time: parsed, Valid: true}
	return nil
}

func (t NullTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}

func (t NullTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// NullDate is a calendar date rendered as YYYY-MM-DD.
type NullDate struct {
	NullTime
}

// ParseDate accepts YYYY-MM-DD; blank yields an unset date.
func ParseDate(s string) (NullDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullDate{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return NullDate{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return NullDate{NullTime{Time: t, Valid: true}}, nil
}

func (d NullDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d NullDate) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.String(), nil
}

func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *NullDate) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid date %s", b)
	}
	if s == nil {
		*d = NullDate{}
		return nil
	}
	// Full RFC 3339 timestamps are accepted; the date is read in the
	// timestamp's own offset.
	if v := strings.TrimSpace(*s); len(v) > len(dateLayout) {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD or an RFC 3339 timestamp", v)
		}
		y, m, day := t.Date()
		*d = NullDate{NullTime{Time: time.Date(y, m, day, 0, 0, 0, 0, time.UTC), Valid: true}}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// JSONText is a JSON document stored in a text column.
type JSONText string

func (j JSONText) MarshalJSON() ([]byte, error) {
	if j == "" || !json.Valid([]byte(j)) {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSONText) UnmarshalJSON(b []byte) error {
	*j = JSONText(b)
	return nil
}
