package scheduling

import (
	"fmt"
	"time"
)

const (
	DefaultMinDuration = 30 * time.Minute
	DefaultMaxDuration = 24 * time.Hour
)

// Policy holds the rules a reservation window must satisfy.
// A zero MinDuration or MaxDuration disables that rule.
type Policy struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	RejectPast  bool
	Now         func() time.Time
}

// MemberPolicy applies to authenticated users: minimum duration, past starts allowed.
func MemberPolicy(minDuration time.Duration) Policy {
	return Policy{MinDuration: minDuration}
}

// GuestPolicy applies to public bookings: no minimum duration, no past starts.
func GuestPolicy() Policy {
	return Policy{RejectPast: true}
}

// WithMaxDuration returns a copy of p that rejects windows longer than d.
func (p Policy) WithMaxDuration(d time.Duration) Policy {
	p.MaxDuration = d
	return p
}

func (p Policy) Validate(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidWindow
	}
	if p.MinDuration > 0 && end.Sub(start) < p.MinDuration {
		return fmt.Errorf("%w: minimum is %s", ErrTooShort, p.MinDuration)
	}
	if p.MaxDuration > 0 && end.Sub(start) > p.MaxDuration {
		return fmt.Errorf("%w: maximum is %s", ErrTooLong, p.MaxDuration)
	}
	if p.RejectPast && start.Before(p.now()) {
		return ErrPastStart
	}
	return nil
}

func (p Policy) ValidateWindow(w Window) error {
	return p.Validate(w.Start, w.End)
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
