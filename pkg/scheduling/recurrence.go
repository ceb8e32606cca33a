package scheduling

import (
	"fmt"
	"iter"
	"time"
)

type Pattern string

const (
	Daily   Pattern = "DAILY"
	Weekly  Pattern = "WEEKLY"
	Monthly Pattern = "MONTHLY"
)

const (
	// MaxOccurrences bounds every expansion, with or without an end date.
	MaxOccurrences = 365

	MaxWeeklyOccurrences  = 52
	MaxMonthlyOccurrences = 12

	weekdayLookahead = 14

	// Minimum number of occurrences an open-ended weekly series keeps generating
	// when no weekday from the filter can be found ahead.
	weeklyFallbackFloor = 10
)

func (p Pattern) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Rule describes how a base window repeats. Interval must be at least 1.
// DaysOfWeek is only used by the weekly pattern.
type Rule struct {
	Pattern    Pattern
	Interval   int
	EndDate    *time.Time
	DaysOfWeek []time.Weekday
}

func (r Rule) Validate() error {
	if !r.Pattern.Valid() {
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidRule, r.Pattern)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRule, r.Interval)
	}
	for _, d := range r.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: day of week out of range: %d", ErrInvalidRule, d)
		}
	}
	return nil
}

func (r Rule) filtersDays() bool {
	return r.Pattern == Weekly && len(r.DaysOfWeek) > 0
}

// Expander lazily yields the occurrences of a rule applied to a base window.
// The base window is always the first occurrence. Expansion stops at the end date,
// at the per-pattern cap for open-ended series, or at MaxOccurrences.
type Expander struct {
	rule      Rule
	duration  time.Duration
	anchorDay int
	days      [7]bool

	current time.Time
	emitted int
	steps   int
	done    bool
}

func NewExpander(base Window, rule Rule) (*Expander, error) {
	if !base.End.After(base.Start) {
		return nil, ErrInvalidWindow
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	x := &Expander{
		rule:      rule,
		duration:  base.Duration(),
		anchorDay: base.Start.Day(),
		current:   base.Start,
	}
	for _, d := range rule.DaysOfWeek {
		x.days[d] = true
	}
	return x, nil
}

// Next returns the next occurrence, or false once the expansion is exhausted.
func (x *Expander) Next() (Window, bool) {
	for !x.done {
		if x.steps >= MaxOccurrences || x.pastEnd(x.current) {
			x.done = true
			break
		}

		start := x.current
		emit := x.emitted == 0 || !x.rule.filtersDays() || x.days[start.Weekday()]
		if emit {
			x.emitted++
		}

		next, ok := x.advance(start)
		x.steps++
		if !ok || x.capReached() {
			x.done = true
		} else {
			x.current = next
		}

		if emit {
			return Window{Start: start, End: start.Add(x.duration)}, true
		}
	}
	return Window{}, false
}

// Index is the zero-based position of the occurrence last returned by Next.
func (x *Expander) Index() int {
	return x.emitted - 1
}

// Occurrences adapts the expander to a range-over-func iterator keyed by index.
func (x *Expander) Occurrences() iter.Seq2[int, Window] {
	return func(yield func(int, Window) bool) {
		for w, ok := x.Next(); ok; w, ok = x.Next() {
			if !yield(x.Index(), w) {
				return
			}
		}
	}
}

func (x *Expander) pastEnd(t time.Time) bool {
	return x.rule.EndDate != nil && t.After(*x.rule.EndDate)
}

func (x *Expander) capReached() bool {
	if x.rule.EndDate != nil {
		return false
	}
	switch x.rule.Pattern {
	case Weekly:
		return x.emitted >= MaxWeeklyOccurrences
	case Monthly:
		return x.emitted >= MaxMonthlyOccurrences
	}
	return false
}

func (x *Expander) advance(from time.Time) (time.Time, bool) {
	interval := x.rule.Interval

	switch x.rule.Pattern {
	case Daily:
		return from.AddDate(0, 0, interval), true

	case Weekly:
		if !x.rule.filtersDays() {
			return from.AddDate(0, 0, 7*interval), true
		}
		for i := 1; i <= weekdayLookahead; i++ {
			candidate := from.AddDate(0, 0, i)
			if !x.days[candidate.Weekday()] {
				continue
			}
			// weeks start on Sunday; crossing into a new week skips interval-1 weeks
			if interval > 1 && candidate.Weekday() <= from.Weekday() {
				candidate = candidate.AddDate(0, 0, 7*(interval-1))
			}
			return candidate, true
		}
		if x.rule.EndDate == nil && x.emitted < weeklyFallbackFloor {
			return from.AddDate(0, 0, 7*interval), true
		}
		return time.Time{}, false

	case Monthly:
		return addMonthsClamped(from, interval, x.anchorDay), true
	}

	return time.Time{}, false
}

// addMonthsClamped moves t forward by months, keeping day when the target month has it
// and falling back to the target month's last day otherwise.
func addMonthsClamped(t time.Time, months int, day int) time.Time {
	year, month, _ := t.Date()
	hour, minute, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()

	return time.Date(first.Year(), first.Month(), min(day, lastDay), hour, minute, sec, t.Nanosecond(), t.Location())
}

// Expand collects every occurrence of rule applied to base.
func Expand(base Window, rule Rule) ([]Window, error) {
	x, err := NewExpander(base, rule)
	if err != nil {
		return nil, err
	}

	var occurrences []Window
	for _, w := range x.Occurrences() {
		occurrences = append(occurrences, w)
	}
	if len(occurrences) == 0 {
		return nil, ErrNoOccurrences
	}
	return occurrences, nil
}
