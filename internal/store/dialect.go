package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect adapts the shared SQL stores to one database engine.
type Dialect interface {
	// Name identifies the engine in logs.
	Name() string

	// Rebind rewrites '?' placeholders into the engine's syntax.
	Rebind(query string) string

	// TimeValue converts a timestamp into a query argument.
	TimeValue(t time.Time) any

	// MapError translates engine errors into store errors.
	MapError(err error) error
}

// RebindDollar rewrites '?' placeholders as $1, $2, ... Placeholders inside
// single-quoted literals are left alone.
func RebindDollar(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			sb.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// MapCommonError handles the errors every engine shares.
func MapCommonError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// timestampLayouts are tried in order when a driver returns a timestamp as text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// timestamp scans a column stored either as a native timestamp or as text.
type timestamp struct {
	t *time.Time
}

func (s timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.t = time.Time{}
		return nil
	case time.Time:
		*s.t = v.UTC()
		return nil
	case int64:
		*s.t = time.Unix(0, v).UTC()
		return nil
	case []byte:
		return s.parse(string(v))
	case string:
		return s.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (s timestamp) parse(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*s.t = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", v)
}
