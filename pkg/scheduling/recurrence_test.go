package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func starts(ws []Window) []time.Time {
	out := make([]time.Time, len(ws))
	for i, w := range ws {
		out[i] = w.Start
	}
	return out
}

func TestExpand_Daily(t *testing.T) {
	base := NewWindow(day(2024, 6, 3, 10), day(2024, 6, 3, 11))

	t.Run("open-ended stops at absolute cap", func(t *testing.T) {
		got, err := Expand(base, Rule{Pattern: Daily, Interval: 1})
		require.NoError(t, err)
		require.Len(t, got, MaxOccurrences)

		for i := 1; i < len(got); i++ {
			assert.Equal(t, 24*time.Hour, got[i].Start.Sub(got[i-1].Start))
			assert.Equal(t, time.Hour, got[i].Duration())
		}
	})

	t.Run("end date is inclusive", func(t *testing.T) {
		got, err := Expand(base, Rule{Pattern: Daily, Interval: 1, EndDate: ptr(day(2024, 6, 7, 10))})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{
			day(2024, 6, 3, 10), day(2024, 6, 4, 10), day(2024, 6, 5, 10), day(2024, 6, 6, 10), day(2024, 6, 7, 10),
		}, starts(got))
	})

	t.Run("every third day", func(t *testing.T) {
		got, err := Expand(base, Rule{Pattern: Daily, Interval: 3, EndDate: ptr(day(2024, 6, 12, 23))})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(2024, 6, 3, 10), day(2024, 6, 6, 10), day(2024, 6, 9, 10), day(2024, 6, 12, 10)}, starts(got))
	})

	t.Run("end date far ahead still capped", func(t *testing.T) {
		got, err := Expand(base, Rule{Pattern: Daily, Interval: 1, EndDate: ptr(day(2027, 1, 1, 0))})
		require.NoError(t, err)
		assert.Len(t, got, MaxOccurrences)
	})
}

func TestExpand_Weekly(t *testing.T) {
	// 2024-06-03 is a Monday
	base := NewWindow(day(2024, 6, 3, 10), day(2024, 6, 3, 11))

	t.Run("open-ended without days stops at weekly cap", func(t *testing.T) {
		got, err := Expand(base, Rule{Pattern: Weekly, Interval: 1})
		require.NoError(t, err)
		require.Len(t, got, MaxWeeklyOccurrences)
		for i := 1; i < len(got); i++ {
			assert.Equal(t, 7*24*time.Hour, got[i].Start.Sub(got[i-1].Start))
		}
	})

	t.Run("end date bounds the series", func(t *testing.T) {
		got, err := Expand(base, Rule{Pattern: Weekly, Interval: 1, EndDate: ptr(day(2024, 6, 24, 10))})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(2024, 6, 3, 10), day(2024, 6, 10, 10), day(2024, 6, 17, 10), day(2024, 6, 24, 10)}, starts(got))
	})

	t.Run("days of week alternate", func(t *testing.T) {
		got, err := Expand(base, Rule{
			Pattern:    Weekly,
			Interval:   1,
			DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
		})
		require.NoError(t, err)
		require.Len(t, got, MaxWeeklyOccurrences)

		for i, w := range got {
			want := time.Monday
			if i%2 == 1 {
				want = time.Wednesday
			}
			assert.Equal(t, want, w.Start.Weekday(), "occurrence %d", i)
			assert.Equal(t, time.Hour, w.Duration())
		}
		assert.Equal(t, []time.Time{day(2024, 6, 3, 10), day(2024, 6, 5, 10), day(2024, 6, 10, 10), day(2024, 6, 12, 10)}, starts(got[:4]))
	})

	t.Run("interval skips whole weeks", func(t *testing.T) {
		got, err := Expand(base, Rule{
			Pattern:    Weekly,
			Interval:   2,
			EndDate:    ptr(day(2024, 7, 1, 23)),
			DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
		})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{
			day(2024, 6, 3, 10), day(2024, 6, 5, 10), day(2024, 6, 17, 10), day(2024, 6, 19, 10), day(2024, 7, 1, 10),
		}, starts(got))
	})

	t.Run("base is kept even off the filter", func(t *testing.T) {
		tuesday := NewWindow(day(2024, 6, 4, 10), day(2024, 6, 4, 11))
		got, err := Expand(tuesday, Rule{
			Pattern:    Weekly,
			Interval:   1,
			EndDate:    ptr(day(2024, 6, 15, 0)),
			DaysOfWeek: []time.Weekday{time.Friday},
		})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(2024, 6, 4, 10), day(2024, 6, 7, 10), day(2024, 6, 14, 10)}, starts(got))
	})
}

func TestExpand_Monthly(t *testing.T) {
	t.Run("clamps to month end without drifting", func(t *testing.T) {
		base := NewWindow(day(2024, 1, 31, 9), day(2024, 1, 31, 10))
		got, err := Expand(base, Rule{Pattern: Monthly, Interval: 1})
		require.NoError(t, err)
		require.Len(t, got, MaxMonthlyOccurrences)

		assert.Equal(t, []time.Time{day(2024, 1, 31, 9), day(2024, 2, 29, 9), day(2024, 3, 31, 9), day(2024, 4, 30, 9)}, starts(got[:4]))
		assert.Equal(t, day(2024, 12, 31, 9), got[11].Start)
	})

	t.Run("non-leap february", func(t *testing.T) {
		base := NewWindow(day(2023, 1, 31, 9), day(2023, 1, 31, 10))
		got, err := Expand(base, Rule{Pattern: Monthly, Interval: 1, EndDate: ptr(day(2023, 3, 1, 0))})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(2023, 1, 31, 9), day(2023, 2, 28, 9)}, starts(got))
	})

	t.Run("end date lifts the monthly cap", func(t *testing.T) {
		base := NewWindow(day(2024, 1, 15, 9), day(2024, 1, 15, 10))
		got, err := Expand(base, Rule{Pattern: Monthly, Interval: 1, EndDate: ptr(day(2026, 1, 15, 9))})
		require.NoError(t, err)
		assert.Len(t, got, 25)
	})

	t.Run("quarterly", func(t *testing.T) {
		base := NewWindow(day(2024, 1, 15, 9), day(2024, 1, 15, 10))
		got, err := Expand(base, Rule{Pattern: Monthly, Interval: 3, EndDate: ptr(day(2024, 12, 31, 0))})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(2024, 1, 15, 9), day(2024, 4, 15, 9), day(2024, 7, 15, 9), day(2024, 10, 15, 9)}, starts(got))
	})
}

func TestExpand_KeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	start := time.Date(2024, 11, 1, 9, 0, 0, 0, loc)
	base := NewWindow(start, start.Add(time.Hour))

	got, err := Expand(base, Rule{Pattern: Daily, Interval: 1, EndDate: ptr(time.Date(2024, 11, 5, 9, 0, 0, 0, loc))})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, w := range got {
		assert.Equal(t, 9, w.Start.Hour())
		assert.Equal(t, time.Hour, w.Duration())
	}
}

func TestExpand_Errors(t *testing.T) {
	base := NewWindow(day(2024, 6, 3, 10), day(2024, 6, 3, 11))

	tests := []struct {
		name    string
		base    Window
		rule    Rule
		wantErr error
	}{
		{"end date before base", base, Rule{Pattern: Daily, Interval: 1, EndDate: ptr(day(2024, 6, 1, 0))}, ErrNoOccurrences},
		{"unknown pattern", base, Rule{Pattern: "YEARLY", Interval: 1}, ErrInvalidRule},
		{"negative interval", base, Rule{Pattern: Daily, Interval: -1}, ErrInvalidRule},
		{"zero interval", base, Rule{Pattern: Daily, EndDate: ptr(day(2024, 6, 6, 12))}, ErrInvalidRule},
		{"day of week out of range", base, Rule{Pattern: Weekly, Interval: 1, DaysOfWeek: []time.Weekday{7}}, ErrInvalidRule},
		{"empty base window", NewWindow(day(2024, 6, 3, 10), day(2024, 6, 3, 10)), Rule{Pattern: Daily, Interval: 1}, ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.base, tt.rule)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestExpander_IsLazy(t *testing.T) {
	base := NewWindow(day(2024, 6, 3, 10), day(2024, 6, 3, 11))
	x, err := NewExpander(base, Rule{Pattern: Daily, Interval: 1})
	require.NoError(t, err)

	for i := range 3 {
		w, ok := x.Next()
		require.True(t, ok)
		assert.Equal(t, i, x.Index())
		assert.Equal(t, day(2024, 6, 3+i, 10), w.Start)
	}

	for idx, w := range x.Occurrences() {
		if idx == 4 {
			assert.Equal(t, day(2024, 6, 7, 10), w.Start)
			break
		}
	}

	w, ok := x.Next()
	require.True(t, ok)
	assert.Equal(t, 5, x.Index())
	assert.Equal(t, day(2024, 6, 8, 10), w.Start)
}

func TestExpander_ExhaustedStaysExhausted(t *testing.T) {
	base := NewWindow(day(2024, 6, 3, 10), day(2024, 6, 3, 11))
	x, err := NewExpander(base, Rule{Pattern: Daily, Interval: 1, EndDate: ptr(day(2024, 6, 3, 10))})
	require.NoError(t, err)

	_, ok := x.Next()
	require.True(t, ok)
	_, ok = x.Next()
	assert.False(t, ok)
	_, ok = x.Next()
	assert.False(t, ok)
}
