package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const dateLayout = "2006-01-02"

// EventDate is the wire format for event dates. Requests may send a plain
// "YYYY-MM-DD" string, an RFC 3339 timestamp, or a legacy
// {"seconds":..,"nanos":..} object; older exports of the business's data
// carry the last form. Responses always emit "YYYY-MM-DD".
type EventDate struct {
	time.Time
}

type secondsNanos struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanos"`
}

func (d *EventDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			d.Time = time.Time{}
			return nil
		}
		if t, err := time.Parse(dateLayout, s); err == nil {
			d.Time = t
			return nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}

	var sn secondsNanos
	if err := json.Unmarshal(b, &sn); err == nil && (sn.Seconds != 0 || sn.Nanos != 0) {
		d.Time = time.Unix(sn.Seconds, sn.Nanos).UTC()
		return nil
	}

	return fmt.Errorf("invalid date value")
}

func (d EventDate) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(dateLayout))
}

// PgDate truncates to the calendar day for storage.
func (d EventDate) PgDate() pgtype.Date {
	if d.Time.IsZero() {
		return pgtype.Date{}
	}
	y, m, day := d.Time.Date()
	return pgtype.Date{Time: time.Date(y, m, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

func formatDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}
