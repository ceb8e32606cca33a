package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func TestRule_RRule(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		start time.Time
		count int
		want  []string
	}{
		{
			name:  "daily until end date",
			rule:  Rule{Pattern: Daily, Interval: 2, EndDate: ptr(day(2024, 6, 13, 9))},
			start: day(2024, 6, 3, 9),
			want:  []string{"FREQ=DAILY", "INTERVAL=2", "UNTIL=20240613T090000Z"},
		},
		{
			name:  "weekly days with count",
			rule:  Rule{Pattern: Weekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}},
			start: day(2024, 6, 3, 9),
			count: 52,
			want:  []string{"FREQ=WEEKLY", "COUNT=52", "WKST=SU", "BYDAY=MO,WE"},
		},
		{
			name:  "monthly late in the month",
			rule:  Rule{Pattern: Monthly, Interval: 1},
			start: day(2024, 1, 31, 9),
			count: 12,
			want:  []string{"FREQ=MONTHLY", "COUNT=12", "BYMONTHDAY=31,-1", "BYSETPOS=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.RRule(tt.start, tt.count)
			require.NoError(t, err)
			for _, part := range tt.want {
				assert.Contains(t, got, part)
			}
			assert.NotContains(t, got, "RRULE:")
		})
	}
}

func TestRule_RDates(t *testing.T) {
	filtered := Rule{Pattern: Weekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}}

	assert.Empty(t, filtered.RDates(day(2024, 6, 3, 9)), "monday is on the pattern")
	assert.Equal(t, []time.Time{day(2024, 6, 4, 9)}, filtered.RDates(day(2024, 6, 4, 9)))
	assert.Empty(t, Rule{Pattern: Weekly, Interval: 1}.RDates(day(2024, 6, 4, 9)), "no filter means every base is on the pattern")

	got, err := filtered.RRule(day(2024, 6, 4, 9), 3)
	require.NoError(t, err)
	assert.Contains(t, got, "UNTIL=20240610T090000Z")
	assert.NotContains(t, got, "COUNT=")
}

func TestRule_RRuleInvalid(t *testing.T) {
	_, err := Rule{Pattern: "HOURLY"}.RRule(day(2024, 6, 3, 9), 1)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

// The rendered rule must describe the same dates the expander generates.
func TestRule_RRuleAgreesWithExpansion(t *testing.T) {
	tests := []struct {
		name string
		base Window
		rule Rule
	}{
		{
			name: "daily every other day",
			base: NewWindow(day(2024, 6, 3, 9), day(2024, 6, 3, 10)),
			rule: Rule{Pattern: Daily, Interval: 2, EndDate: ptr(day(2024, 6, 13, 9))},
		},
		{
			name: "biweekly monday and wednesday",
			base: NewWindow(day(2024, 6, 3, 9), day(2024, 6, 3, 10)),
			rule: Rule{Pattern: Weekly, Interval: 2, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}},
		},
		{
			name: "monthly on the 31st",
			base: NewWindow(day(2024, 1, 31, 9), day(2024, 1, 31, 10)),
			rule: Rule{Pattern: Monthly, Interval: 1},
		},
		{
			name: "weekly base on a tuesday outside monday and wednesday",
			base: NewWindow(day(2024, 6, 4, 9), day(2024, 6, 4, 10)),
			rule: Rule{Pattern: Weekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}},
		},
		{
			name: "biweekly base outside the filter until end date",
			base: NewWindow(day(2024, 6, 4, 9), day(2024, 6, 4, 10)),
			rule: Rule{Pattern: Weekly, Interval: 2, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}, EndDate: ptr(day(2024, 7, 31, 9))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occurrences, err := Expand(tt.base, tt.rule)
			require.NoError(t, err)

			s, err := tt.rule.RRule(tt.base.Start, len(occurrences))
			require.NoError(t, err)

			opt, err := rrule.StrToROption(s)
			require.NoError(t, err)
			opt.Dtstart = tt.base.Start

			r, err := rrule.NewRRule(*opt)
			require.NoError(t, err)

			set := &rrule.Set{}
			set.RRule(r)
			for _, d := range tt.rule.RDates(tt.base.Start) {
				set.RDate(d)
			}

			dates := set.All()
			require.Len(t, dates, len(occurrences))
			for i, d := range dates {
				assert.True(t, d.Equal(occurrences[i].Start), "occurrence %d: rrule %s, expander %s", i, d, occurrences[i].Start)
			}
		})
	}
}
