package tablerow

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.25, "0.25"},
		{-1.5, "-1.5"},
		{1e21, "1000000000000000000000"},
		{tenth + fifth, "0.30000000000000004"},
		{math.SmallestNonzeroFloat64, "0." + strings.Repeat("0", 323) + "5"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
		v, ok := parseDouble(FormatFloat(tt.in))
		assert.True(t, ok)
		assert.Equal(t, tt.in, v)
	}
}

func TestFormatScalars(t *testing.T) {
	assert.Equal(t, "-9223372036854775808", FormatInt(math.MinInt64))
	assert.Equal(t, "18446744073709551615", FormatUint(math.MaxUint64))
	assert.Equal(t, "1", FormatBool(true))
	assert.Equal(t, "0", FormatBool(false))
	assert.Equal(t, "AP8=", FormatBlob([]byte{0x00, 0xff}))
	assert.Equal(t, "", FormatBlob(nil))

	ts := time.Date(2024, 5, 6, 7, 8, 9, 500, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-05-06T06:08:09.0000005Z", FormatTime(ts))
}

func TestParseInteger(t *testing.T) {
	v, ok := parseInteger("123")
	assert.True(t, ok)
	assert.Equal(t, int64(123), v)

	for _, bad := range []string{"", " 1", "1 ", "0x10", "1.0", "9223372036854775808"} {
		_, ok := parseInteger(bad)
		assert.False(t, ok, bad)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{int64(-3), "-3"},
		{2.5, "2.5"},
		{true, "1"},
		{"sshd", "sshd"},
		{[]byte("hi"), "aGk="},
		{time.Unix(0, 0), "1970-01-01T00:00:00Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}
