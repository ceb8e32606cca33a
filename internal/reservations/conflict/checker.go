// Package conflict decides whether proposed windows collide with stored reservations.
package conflict

import (
	"context"
	"fmt"
	"time"

	"roomreserve/pkg/model"
	"roomreserve/pkg/scheduling"
)

// OverlapFinder is the slice of the reservation repository the checker needs.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Reservation, error)
}

type Checker struct {
	finder OverlapFinder
}

func NewChecker(finder OverlapFinder) *Checker {
	return &Checker{finder: finder}
}

// Check returns the first non-cancelled reservation of roomID that overlaps w, or nil when the
// window is free. excludeID skips the reservation being updated.
func (c *Checker) Check(ctx context.Context, roomID string, w scheduling.Window, excludeID string) (*model.Reservation, error) {
	candidates, err := c.finder.FindOverlapping(ctx, roomID, w.Start, w.End, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return firstOverlap(candidates, w, excludeID), nil
}

// CheckAll checks every window in order and returns a *scheduling.ConflictError for the first
// blocked one. The repository is queried once for the span of all windows.
func (c *Checker) CheckAll(ctx context.Context, roomID string, windows []scheduling.Window, excludeID string) error {
	if len(windows) == 0 {
		return nil
	}

	span := windows[0]
	for _, w := range windows[1:] {
		if w.Start.Before(span.Start) {
			span.Start = w.Start
		}
		if w.End.After(span.End) {
			span.End = w.End
		}
	}

	candidates, err := c.finder.FindOverlapping(ctx, roomID, span.Start, span.End, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check conflicts: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	for i, w := range windows {
		if blocking := firstOverlap(candidates, w, excludeID); blocking != nil {
			return &scheduling.ConflictError{
				ReservationID:   blocking.ID,
				OccurrenceIndex: i,
				Window:          w,
			}
		}
	}
	return nil
}

func firstOverlap(candidates []*model.Reservation, w scheduling.Window, excludeID string) *model.Reservation {
	for _, r := range candidates {
		if r.Status == model.StatusCancelled || (excludeID != "" && r.ID == excludeID) {
			continue
		}
		if w.Overlaps(r.Window()) {
			return r
		}
	}
	return nil
}
