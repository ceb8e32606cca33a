package reminders

import (
	"context"
	"time"

	"roomreserve/pkg/config"
	"roomreserve/pkg/logger"
	"roomreserve/pkg/metrics"
	"roomreserve/pkg/model"
)

const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

type reservationSource interface {
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Reservation, error)
	MarkReminderSent(ctx context.Context, id string) error
}

type roomFinder interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
}

type reminderPublisher interface {
	PublishReminder(ctx context.Context, event *model.ReservationEvent) error
}

// Summary reports one pass over the reminder window.
type Summary struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

type Scheduler struct {
	reservations reservationSource
	rooms        roomFinder
	publisher    reminderPublisher
	metrics      *metrics.Metrics
	log          *logger.Logger

	interval time.Duration
	leadMin  time.Duration
	leadMax  time.Duration
	now      func() time.Time
}

func New(reservations reservationSource, rooms roomFinder, publisher reminderPublisher, m *metrics.Metrics, cfg *config.Config) *Scheduler {
	return &Scheduler{
		reservations: reservations,
		rooms:        rooms,
		publisher:    publisher,
		metrics:      m,
		log:          cfg.Log.Component("reminders"),
		interval:     cfg.ReminderInterval,
		leadMin:      cfg.ReminderLeadMin,
		leadMax:      cfg.ReminderLeadMax,
		now:          time.Now,
	}
}

// Start runs a pass immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Reminder scheduler started",
		"interval", s.interval,
		"lead_min", s.leadMin,
		"lead_max", s.leadMax,
	)

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	summary, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("Reminder pass failed", "error", err)
		return
	}
	if summary.Processed > 0 {
		s.log.Info("Reminder pass completed",
			"processed", summary.Processed,
			"sent", summary.Sent,
			"failed", summary.Failed,
			"skipped", summary.Skipped,
		)
	}
}

// RunOnce emits a reminder for every confirmed reservation starting between now+leadMin and
// now+leadMax that has not had one. A failure on one reservation does not stop the batch.
// A reservation is marked only after its reminder was published, so a failed publish is
// retried on the next pass while it is still inside the window.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	upcoming, err := s.reservations.FindStartingBetween(ctx, now.Add(s.leadMin), now.Add(s.leadMax))
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Processed: len(upcoming)}
	rooms := make(map[string]*model.Room)

	for _, r := range upcoming {
		if r.OrganizerEmail == "" {
			s.log.Warn("No email found for reservation, skipping reminder", "id", r.ID)
			summary.Skipped++
			s.count(ResultSkipped)
			continue
		}

		event := model.NewReservationEvent(model.EventReservationReminder, r, s.room(ctx, rooms, r.RoomID))
		if err := s.publisher.PublishReminder(ctx, event); err != nil {
			s.log.Error("Failed to publish reminder", "id", r.ID, "error", err)
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, r.ID)
			s.count(ResultFailed)
			continue
		}

		if err := s.reservations.MarkReminderSent(ctx, r.ID); err != nil {
			s.log.Error("Failed to mark reminder as sent", "id", r.ID, "error", err)
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, r.ID)
			s.count(ResultFailed)
			continue
		}

		summary.Sent++
		s.count(ResultSent)
	}

	return summary, nil
}

// room looks a room up once per pass. A missing room only costs the reminder its room name.
func (s *Scheduler) room(ctx context.Context, cache map[string]*model.Room, id string) *model.Room {
	if room, ok := cache[id]; ok {
		return room
	}
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		s.log.Warn("Failed to load room for reminder", "room_id", id, "error", err)
		room = nil
	}
	cache[id] = room
	return room
}

func (s *Scheduler) count(result string) {
	if s.metrics != nil {
		s.metrics.Reminders.WithLabelValues(result).Inc()
	}
}
