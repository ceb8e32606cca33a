package scheduling

import "time"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start_time" bson:"start_time"`
	End   time.Time `json:"end_time" bson:"end_time"`
}

func NewWindow(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w Window) Shift(d time.Duration) Window {
	return Window{Start: w.Start.Add(d), End: w.End.Add(d)}
}

func (w Window) Overlaps(other Window) bool {
	return Overlaps(w.Start, w.End, other.Start, other.End)
}

// Overlaps reports whether the candidate window [s, e) overlaps the existing window [s0, e0).
// A window ending exactly when the other starts does not overlap it.
func Overlaps(s, e, s0, e0 time.Time) bool {
	startsInside := !s0.After(s) && s.Before(e0)
	endsInside := s0.Before(e) && !e.After(e0)
	contains := !s.After(s0) && !e.Before(e0)
	return startsInside || endsInside || contains
}
