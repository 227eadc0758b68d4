package tablerow

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// FormatInt renders an integer in base 10.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FormatUint renders an unsigned integer in base 10.
func FormatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// FormatFloat renders the shortest decimal that round-trips to v, without an
// exponent.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatBool renders true as "1" and false as "0", as SQL engines store them.
func FormatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// FormatBlob renders bytes as padded standard base64.
func FormatBlob(v []byte) string {
	return base64.StdEncoding.EncodeToString(v)
}

// FormatTime renders t in UTC as RFC 3339 with nanoseconds.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FormatValue renders a driver value in canonical text; nil becomes "".
func FormatValue(v driver.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return FormatInt(x)
	case float64:
		return FormatFloat(x)
	case bool:
		return FormatBool(x)
	case string:
		return x
	case []byte:
		return FormatBlob(x)
	case time.Time:
		return FormatTime(x)
	default:
		return fmt.Sprint(x)
	}
}

// parseInteger parses base-10 text as int64. Surrounding space is not allowed.
func parseInteger(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

// parseDouble parses decimal text as float64.
func parseDouble(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
