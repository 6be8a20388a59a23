package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	date, err := ParseDate("2024-03-20")
	require.NoError(t, err)
	require.Equal(t, 2024, date.Year())
	require.Equal(t, time.March, date.Month())
	require.Equal(t, 20, date.Day())
	require.Equal(t, Location, date.Location())
	require.Equal(t, "2024-03-20", FormatDate(date))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("03/20/2024")
	require.Error(t, err)
	_, err = ParseDate("2024-13-99")
	require.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b   string
		expect int
	}{
		{"2024-03-20", "2024-03-24", 4},
		{"2024-03-24", "2024-03-20", -4},
		{"2024-02-27", "2024-03-02", 4}, // leap year
		{"2024-03-20", "2024-03-20", 0},
	}
	for _, test := range cases {
		a, err := ParseDate(test.a)
		require.NoError(t, err)
		b, err := ParseDate(test.b)
		require.NoError(t, err)
		require.Equal(t, test.expect, DaysBetween(a, b), "%s -> %s", test.a, test.b)
	}
}
