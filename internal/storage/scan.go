package storage

import (
	"fmt"
	"time"
)

// timestampFormats covers the text encodings written by both drivers:
// modernc stores time.Time.String(), mattn stores its own layout.
var timestampFormats = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestamp scans a TIMESTAMP column. Declared column types are lost once a
// value passes through a CTE, so the driver may hand back text instead of time.Time.
type timestamp struct {
	time.Time
}

func (ts *timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		ts.Time = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		ts.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
