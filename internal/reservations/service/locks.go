package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	reservationserrors "roomreserve/internal/reservations/errors"
	apperrors "roomreserve/pkg/errors"
	"roomreserve/pkg/model"
	"roomreserve/pkg/scheduling"

	"github.com/google/uuid"
)

const lockDayLayout = "2006-01-02"

// slotLockIDs returns one lock id per UTC day touched by any window, sorted.
// Two overlapping windows always share a day, so they always contend for a common lock.
func slotLockIDs(roomID string, windows []scheduling.Window) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, w := range windows {
		day := w.Start.UTC().Truncate(24 * time.Hour)
		last := w.End.UTC().Add(-time.Nanosecond)
		for ; !day.After(last); day = day.Add(24 * time.Hour) {
			id := fmt.Sprintf("reservation_lock_%s_%s", roomID, day.Format(lockDayLayout))
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// acquireSlotLocks takes advisory locks for every day the windows touch. On failure the
// locks already taken are released. The returned func releases all of them.
func (s *reservationService) acquireSlotLocks(ctx context.Context, roomID string, windows []scheduling.Window) (func(), error) {
	owner := uuid.NewString()
	expiresAt := time.Now().UTC().Add(s.cfg.LockTTL)

	var held []string
	release := func() {
		// locks must be released even when the request context is already done
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer cancel()
		for _, id := range held {
			if err := s.lockRepo.Delete(releaseCtx, id, owner); err != nil {
				s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", id, "error", err)
			}
		}
	}

	for _, id := range slotLockIDs(roomID, windows) {
		lock := &model.ReservationLock{ID: id, Owner: owner, ExpiresAt: expiresAt}
		if _, err := s.lockRepo.Create(ctx, lock); err != nil {
			release()
			if errors.Is(err, reservationserrors.ErrLockHeld) {
				return nil, apperrors.Conflict("This room is currently being booked by another request. Please try again.")
			}
			return nil, apperrors.Internal("Failed to acquire reservation lock", err)
		}
		held = append(held, id)
	}

	return release, nil
}
