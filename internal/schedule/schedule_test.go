package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	out, err := ParseInterval(start, end)
	require.NoError(t, err)
	return out
}

func TestParseClock(t *testing.T) {
	cases := map[string]Clock{
		"00:00":    0,
		"9:00":     540,
		"09:30":    570,
		"23:59":    1439,
		"24:00":    EndOfDay,
		"10:15:00": 615,
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "9", "25:00", "24:01", "10:60", "10:5", "10:15:30", "aa:bb"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}

func TestClockFormatting(t *testing.T) {
	c := MustClock("7:05")
	assert.Equal(t, "07:05", c.String())
	assert.Equal(t, "07:05:00", c.SQL())
	assert.Equal(t, Clock(14*60+3), ClockOf(time.Date(2025, 1, 1, 14, 3, 59, 0, time.UTC)))
}

func TestIntervalValidate(t *testing.T) {
	_, err := ParseInterval("10:00", "10:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)
	_, err = ParseInterval("11:00", "10:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)
	_, err = ParseInterval("24:00", "24:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)

	whole := iv(t, "00:00", "24:00")
	assert.True(t, whole.Contains(0))
	assert.False(t, whole.Contains(EndOfDay))
}

func TestOverlapsTouchingBoundary(t *testing.T) {
	assert.False(t, Overlaps(iv(t, "09:00", "10:00"), iv(t, "10:00", "11:00")))
}

func TestOverlapsPartial(t *testing.T) {
	assert.True(t, Overlaps(iv(t, "09:00", "10:00"), iv(t, "09:30", "10:30")))
}

func TestOverlapsContainmentAndIdentity(t *testing.T) {
	outer := iv(t, "08:00", "12:00")
	inner := iv(t, "09:00", "10:00")
	assert.True(t, Overlaps(outer, inner))
	assert.True(t, Overlaps(inner, inner))
}

func TestOverlapsSymmetric(t *testing.T) {
	// Exhaustive over a coarse grid of quarter hours in the morning.
	var all []Interval
	for s := Clock(8 * 60); s < 12*60; s += 15 {
		for e := s + 15; e <= 12*60; e += 15 {
			all = append(all, Interval{Start: s, End: e})
		}
	}
	for _, a := range all {
		for _, b := range all {
			assert.Equal(t, Overlaps(a, b), Overlaps(b, a), "%s vs %s", a, b)
		}
	}
}

func TestFindConflicts(t *testing.T) {
	existing := []Interval{
		iv(t, "08:00", "09:00"),
		iv(t, "09:00", "10:00"),
		iv(t, "09:45", "11:00"),
		iv(t, "11:00", "12:00"),
	}
	got := FindConflicts(iv(t, "09:30", "11:00"), existing)
	assert.Equal(t, []int{1, 2}, got)

	assert.Empty(t, FindConflicts(iv(t, "12:00", "13:00"), existing))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", d.String())
	assert.Equal(t, "2025-03", d.MonthKey())

	d, err = ParseDate("2025-03-07T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", d.String())

	_, err = ParseDate("07/03/2025")
	assert.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d := Date{Year: 2025, Month: time.January, Day: 31}
	assert.Equal(t, "2025-02-01", d.AddDays(1).String())
	assert.Equal(t, "2024-07-31", d.AddMonths(-6).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
	assert.True(t, Date{}.IsZero())
}

func TestTextRoundTrip(t *testing.T) {
	var c Clock
	require.NoError(t, c.UnmarshalText([]byte("18:45")))
	b, _ := c.MarshalText()
	assert.Equal(t, "18:45", string(b))
	assert.Error(t, c.UnmarshalText([]byte("18h45")))

	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2024-02-29")))
	b, _ = d.MarshalText()
	assert.Equal(t, "2024-02-29", string(b))
	assert.Error(t, d.UnmarshalText([]byte("2023-02-29")))
}
