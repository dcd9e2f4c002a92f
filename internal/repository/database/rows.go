package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"techdebt_export/internal/ports"
)

func parseTimeLoose(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// decodeDate accepts whatever the driver hands back for Date_stamp.
func decodeDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case []byte:
		if t, ok := parseTimeLoose(string(d)); ok {
			return t, nil
		}
	case string:
		if t, ok := parseTimeLoose(d); ok {
			return t, nil
		}
	case nil:
		return time.Time{}, &ports.DataFormatError{Field: "Date_stamp", Value: nil, Err: errors.New("null")}
	}
	return time.Time{}, &ports.DataFormatError{Field: "Date_stamp", Value: v}
}

// classify maps a database/sql error onto the export error taxonomy.
func classify(op, target string, err error) error {
	if err == nil {
		return nil
	}
	var dfe *ports.DataFormatError
	if errors.As(err, &dfe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return &ports.ConnectionError{Target: target, Err: err}
	}
	return &ports.QueryError{Op: op, Err: err}
}
