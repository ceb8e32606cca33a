package scheduling

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

var weekdays = [7]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRule renders the rule as an RFC 5545 RRULE value (without the "RRULE:" prefix).
// Open-ended series are bounded by count, the number of occurrences actually generated.
// When the base falls outside DaysOfWeek the RRULE covers only the filtered days and is
// bounded by UNTIL, and RDates lists the base separately.
func (r Rule) RRule(dtstart time.Time, count int) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	opt := rrule.ROption{
		Dtstart:  dtstart,
		Interval: r.Interval,
		Wkst:     rrule.SU,
	}

	switch r.Pattern {
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.DaysOfWeek {
			opt.Byweekday = append(opt.Byweekday, weekdays[d])
		}
	case Monthly:
		opt.Freq = rrule.MONTHLY
		if day := dtstart.Day(); day > 28 {
			// the day itself when the month has it, the month's last day otherwise
			opt.Bymonthday = []int{day, -1}
			opt.Bysetpos = []int{1}
		} else {
			opt.Bymonthday = []int{day}
		}
	}

	offPattern := r.offPattern(dtstart)
	switch {
	case r.EndDate != nil:
		opt.Until = r.EndDate.UTC()
	case offPattern && count > 1:
		until, err := lastOccurrence(opt, count-1)
		if err != nil {
			return "", err
		}
		opt.Until = until.UTC()
	case offPattern:
		opt.Until = dtstart.UTC()
	case count > 0:
		opt.Count = count
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return rule.OrigOptions.RRuleString(), nil
}

// RDates returns the occurrences the RRULE from RRule does not produce: the base start when
// a weekly base falls on a day outside DaysOfWeek.
func (r Rule) RDates(dtstart time.Time) []time.Time {
	if !r.offPattern(dtstart) {
		return nil
	}
	return []time.Time{dtstart}
}

func (r Rule) offPattern(start time.Time) bool {
	return r.filtersDays() && !slices.Contains(r.DaysOfWeek, start.Weekday())
}

func lastOccurrence(opt rrule.ROption, count int) (time.Time, error) {
	opt.Count = count
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	all := rule.All()
	if len(all) == 0 {
		return opt.Dtstart, nil
	}
	return all[len(all)-1], nil
}
