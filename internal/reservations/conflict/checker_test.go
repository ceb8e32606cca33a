package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomreserve/pkg/model"
	"roomreserve/pkg/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFinder struct {
	reservations []*model.Reservation
	calls        int
	err          error
}

func (m *memFinder) FindOverlapping(_ context.Context, roomID string, start, end time.Time, excludeID string) ([]*model.Reservation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.RoomID != roomID || r.Status == model.StatusCancelled || r.ID == excludeID {
			continue
		}
		if scheduling.Overlaps(start, end, r.StartTime, r.EndTime) {
			out = append(out, r)
		}
	}
	return out, nil
}

var monday = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func reservation(id, room string, start time.Time, d time.Duration) *model.Reservation {
	return &model.Reservation{ID: id, RoomID: room, StartTime: start, EndTime: start.Add(d), Status: model.StatusConfirmed}
}

func TestChecker_Check(t *testing.T) {
	finder := &memFinder{reservations: []*model.Reservation{
		reservation("r1", "room-a", monday, time.Hour),
		{ID: "r2", RoomID: "room-a", StartTime: monday.Add(2 * time.Hour), EndTime: monday.Add(3 * time.Hour), Status: model.StatusCancelled},
	}}
	checker := NewChecker(finder)
	ctx := context.Background()

	tests := []struct {
		name      string
		room      string
		window    scheduling.Window
		excludeID string
		wantID    string
	}{
		{"overlapping window", "room-a", scheduling.NewWindow(monday.Add(30*time.Minute), monday.Add(90*time.Minute)), "", "r1"},
		{"adjacent window is free", "room-a", scheduling.NewWindow(monday.Add(time.Hour), monday.Add(2*time.Hour)), "", ""},
		{"cancelled reservation does not block", "room-a", scheduling.NewWindow(monday.Add(2*time.Hour), monday.Add(3*time.Hour)), "", ""},
		{"other room is free", "room-b", scheduling.NewWindow(monday, monday.Add(time.Hour)), "", ""},
		{"own reservation is excluded", "room-a", scheduling.NewWindow(monday, monday.Add(time.Hour)), "r1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocking, err := checker.Check(ctx, tt.room, tt.window, tt.excludeID)
			require.NoError(t, err)
			if tt.wantID == "" {
				assert.Nil(t, blocking)
				return
			}
			require.NotNil(t, blocking)
			assert.Equal(t, tt.wantID, blocking.ID)
		})
	}
}

func TestChecker_CheckAll(t *testing.T) {
	weeks := make([]scheduling.Window, 4)
	for i := range weeks {
		start := monday.AddDate(0, 0, 7*i)
		weeks[i] = scheduling.NewWindow(start, start.Add(time.Hour))
	}

	t.Run("reports the first blocked occurrence", func(t *testing.T) {
		finder := &memFinder{reservations: []*model.Reservation{
			reservation("taken", "room-a", weeks[2].Start.Add(30*time.Minute), time.Hour),
			reservation("later", "room-a", weeks[3].Start, time.Hour),
		}}

		err := NewChecker(finder).CheckAll(context.Background(), "room-a", weeks, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, scheduling.ErrConflict)

		var conflictErr *scheduling.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, 2, conflictErr.OccurrenceIndex)
		assert.Equal(t, "taken", conflictErr.ReservationID)
		assert.Equal(t, weeks[2], conflictErr.Window)
		assert.Equal(t, 1, finder.calls)
	})

	t.Run("free series", func(t *testing.T) {
		finder := &memFinder{reservations: []*model.Reservation{
			reservation("between", "room-a", weeks[0].End, 24*time.Hour),
		}}
		assert.NoError(t, NewChecker(finder).CheckAll(context.Background(), "room-a", weeks, ""))
	})

	t.Run("empty input", func(t *testing.T) {
		finder := &memFinder{}
		assert.NoError(t, NewChecker(finder).CheckAll(context.Background(), "room-a", nil, ""))
		assert.Zero(t, finder.calls)
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		boom := errors.New("connection reset")
		err := NewChecker(&memFinder{err: boom}).CheckAll(context.Background(), "room-a", weeks, "")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, scheduling.ErrConflict)
	})
}
