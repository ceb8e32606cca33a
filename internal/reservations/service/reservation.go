package service

import (
	"context"
	"errors"
	"fmt"

	"roomreserve/internal/reservations/conflict"
	reservationserrors "roomreserve/internal/reservations/errors"
	"roomreserve/internal/reservations/events"
	"roomreserve/internal/reservations/repository"
	"roomreserve/internal/reservations/validator"
	"roomreserve/pkg/auth"
	"roomreserve/pkg/config"
	apperrors "roomreserve/pkg/errors"
	"roomreserve/pkg/metrics"
	"roomreserve/pkg/model"
	"roomreserve/pkg/sanitizer"
	"roomreserve/pkg/scheduling"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const (
	cancelModeSoft = "soft"
	cancelModeHard = "hard"
)

type ReservationService interface {
	CreateFromRequest(ctx context.Context, principal auth.Principal, req *model.ReservationRequest) (*CreateResult, error)
	Create(ctx context.Context, principal auth.Principal, req *CreateRequest) (*CreateResult, error)
	GetByID(ctx context.Context, principal auth.Principal, id string) (*model.Reservation, error)
	List(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error)
	Update(ctx context.Context, principal auth.Principal, id string, updates *model.ReservationUpdate) (*model.Reservation, error)
	Cancel(ctx context.Context, principal auth.Principal, id string, hard bool) error
	Availability(ctx context.Context, roomID string, window scheduling.Window) (*Availability, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	roomRepo  repository.RoomRepository
	lockRepo  repository.ReservationLockRepository
	checker   *conflict.Checker
	validator *validator.ReservationValidator
	publisher events.Publisher
	metrics   *metrics.Metrics
	cfg       *config.Config
}

// NewReservationService wires the orchestrator. m may be nil.
func NewReservationService(
	repo repository.ReservationRepository,
	roomRepo repository.RoomRepository,
	lockRepo repository.ReservationLockRepository,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		roomRepo:  roomRepo,
		lockRepo:  lockRepo,
		checker:   conflict.NewChecker(repo),
		validator: validator,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
	}
}

func (s *reservationService) CreateFromRequest(ctx context.Context, principal auth.Principal, req *model.ReservationRequest) (*CreateResult, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}
	s.sanitizeRequest(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return nil, validationError("Reservation validation failed", err)
	}
	return s.Create(ctx, principal, NewCreateRequest(req))
}

func (s *reservationService) Create(ctx context.Context, principal auth.Principal, req *CreateRequest) (*CreateResult, error) {
	if err := checkVariant(req); err != nil {
		return nil, err
	}
	if principal.IsAnonymous() {
		if err := s.validator.ValidateGuest(&model.ReservationRequest{GuestName: req.Details.GuestName, GuestEmail: req.Details.GuestEmail}); err != nil {
			return nil, validationError("Guest details are required", err)
		}
	}

	policy := s.policyFor(principal)
	if err := policy.ValidateWindow(req.window()); err != nil {
		return nil, schedulingError(err)
	}

	windows := []scheduling.Window{req.window()}
	var rrule string
	if req.Kind == KindRecurring {
		var err error
		windows, err = scheduling.Expand(req.Recurring.Base, req.Recurring.Rule)
		if err != nil {
			s.cfg.Log.Warn("Recurrence expansion failed", "error", err)
			return nil, schedulingError(err)
		}
		rrule, err = req.Recurring.Rule.RRule(req.Recurring.Base.Start, len(windows))
		if err != nil {
			return nil, schedulingError(err)
		}
	}

	room, err := s.activeRoom(ctx, req.Details.RoomID)
	if err != nil {
		return nil, err
	}

	reservations := s.buildReservations(principal, req, windows, rrule)

	release, err := s.acquireSlotLocks(ctx, room.ID, windows)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// the driver reruns this callback on transient errors; ids from an aborted attempt must not leak into the next
		for _, r := range reservations {
			r.ID = ""
			r.ParentID = ""
		}

		if err := s.checker.CheckAll(sessCtx, room.ID, windows, ""); err != nil {
			if errors.Is(err, scheduling.ErrConflict) {
				return schedulingError(err)
			}
			return apperrors.Internal("Failed to check existing reservations", err)
		}

		parent := reservations[0]
		if err := s.repo.Create(sessCtx, parent); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		if len(reservations) > 1 {
			children := reservations[1:]
			for _, child := range children {
				child.ParentID = parent.ID
			}
			if err := s.repo.CreateMany(sessCtx, children); err != nil {
				return apperrors.Internal("Failed to create recurring reservations", err)
			}
		}
		return nil
	})
	if err != nil {
		appErr := transactionError(err)
		if isConflict(appErr) {
			s.countConflict()
		}
		s.cfg.Log.Error("Failed to create reservation", "room_id", room.ID, "kind", req.Kind, "error", err)
		return nil, appErr
	}

	if s.metrics != nil {
		s.metrics.ReservationsCreated.WithLabelValues(string(req.Kind)).Add(float64(len(reservations)))
	}

	parent := reservations[0]
	s.cfg.Log.Info("Reservation created successfully",
		"id", parent.ID,
		"room_id", parent.RoomID,
		"kind", req.Kind,
		"occurrences", len(reservations),
		"start_time", parent.StartTime,
	)

	event := model.NewReservationEvent(model.EventReservationCreated, parent, room)
	if req.Kind == KindRecurring {
		event.Occurrences = len(reservations)
		event.RecurrenceRule = rrule
	}
	s.notify(ctx, event)

	return &CreateResult{Reservations: reservations, Count: len(reservations)}, nil
}

func (s *reservationService) GetByID(ctx context.Context, principal auth.Principal, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError("Reservation", id, err)
	}
	if !principal.CanModify(reservation.UserID) {
		return nil, apperrors.Forbidden("You can only view your own reservations")
	}

	return reservation, nil
}

func (s *reservationService) List(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", err)
			return apperrors.Internal("Failed to count reservations", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reservations, err = s.repo.FindAll(gctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list reservations", "limit", limit, "offset", offset, "error", err)
			return apperrors.Internal("Failed to retrieve reservations", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	s.cfg.Log.Debug("Reservation search completed",
		"room_id", filter.RoomID,
		"user_id", filter.UserID,
		"count", len(reservations),
		"total_count", count,
	)
	return reservations, count, nil
}

func (s *reservationService) Update(ctx context.Context, principal auth.Principal, id string, updates *model.ReservationUpdate) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError("Reservation", id, err)
	}
	if !principal.CanModify(existing.UserID) {
		return nil, apperrors.Forbidden("You can only modify your own reservations")
	}
	if existing.Status == model.StatusCancelled {
		return nil, apperrors.InvalidInput("Cancelled reservations cannot be modified")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Reservation update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	merged := mergeReservationUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		return nil, validationError("Reservation validation failed", err)
	}
	if err := s.policyFor(principal).ValidateWindow(merged.Window()); err != nil {
		return nil, schedulingError(err)
	}

	room, err := s.activeRoom(ctx, merged.RoomID)
	if err != nil {
		return nil, err
	}

	release, err := s.acquireSlotLocks(ctx, room.ID, []scheduling.Window{merged.Window()})
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		blocking, err := s.checker.Check(sessCtx, room.ID, merged.Window(), id)
		if err != nil {
			return apperrors.Internal("Failed to check existing reservations", err)
		}
		if blocking != nil {
			return schedulingError(&scheduling.ConflictError{ReservationID: blocking.ID, Window: merged.Window()})
		}
		if err := s.repo.Update(sessCtx, id, merged); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to update reservation", err)
		}
		return nil
	})
	if err != nil {
		appErr := transactionError(err)
		if isConflict(appErr) {
			s.countConflict()
		}
		s.cfg.Log.Error("Failed to update reservation", "id", id, "error", err)
		return nil, appErr
	}

	s.cfg.Log.Info("Reservation updated successfully", "id", id)

	event := model.NewReservationEvent(model.EventReservationUpdated, merged, room)
	event.Previous = s.previousState(ctx, existing, room)
	s.notify(ctx, event)

	return merged, nil
}

func (s *reservationService) Cancel(ctx context.Context, principal auth.Principal, id string, hard bool) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError("Reservation", id, err)
	}
	if !principal.CanModify(existing.UserID) {
		return apperrors.Forbidden("You can only cancel your own reservations")
	}
	if hard && !principal.IsAdmin() {
		return apperrors.Forbidden("Only administrators can delete reservations")
	}
	if !hard && existing.Status == model.StatusCancelled {
		s.cfg.Log.Debug("Reservation already cancelled", "id", id)
		return nil
	}

	mode := cancelModeSoft
	if hard {
		mode = cancelModeHard
		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.repo.Delete(sessCtx, id); err != nil {
				return lookupError("Reservation", id, err)
			}
			return nil
		})
	} else {
		if err = s.repo.Cancel(ctx, id); err != nil {
			err = lookupError("Reservation", id, err)
		}
	}
	if err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "id", id, "mode", mode, "error", err)
		return apperrors.AsAppError(err)
	}

	if s.metrics != nil {
		s.metrics.Cancellations.WithLabelValues(mode).Inc()
	}
	s.cfg.Log.Info("Reservation cancelled successfully", "id", id, "mode", mode)

	room, err := s.roomRepo.FindByID(ctx, existing.RoomID)
	if err != nil {
		s.cfg.Log.Warn("Room lookup for cancellation notice failed", "room_id", existing.RoomID, "error", err)
		room = nil
	}
	existing.Status = model.StatusCancelled
	event := model.NewReservationEvent(model.EventReservationCancelled, existing, room)
	event.Hard = hard
	s.notify(ctx, event)

	return nil
}

func (s *reservationService) Availability(ctx context.Context, roomID string, window scheduling.Window) (*Availability, error) {
	if err := (scheduling.Policy{}).ValidateWindow(window); err != nil {
		return nil, schedulingError(err)
	}
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		return nil, lookupError("Room", roomID, err)
	}

	blocking, err := s.checker.Check(ctx, roomID, window, "")
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	return &Availability{
		RoomID:    roomID,
		StartTime: window.Start,
		EndTime:   window.End,
		Available: blocking == nil,
		Conflict:  blocking,
	}, nil
}

// --- Helpers ---

func checkVariant(req *CreateRequest) error {
	if req == nil {
		return apperrors.InvalidInput("Request body is required")
	}
	switch req.Kind {
	case KindSingle:
		if req.Single == nil || req.Recurring != nil {
			return apperrors.InvalidInput("A single reservation needs exactly one window")
		}
	case KindRecurring:
		if req.Recurring == nil || req.Single != nil {
			return apperrors.InvalidInput("A recurring reservation needs a base window and a rule")
		}
	default:
		return apperrors.InvalidInput(fmt.Sprintf("Unknown reservation kind %q", req.Kind))
	}
	return nil
}

func (s *reservationService) policyFor(principal auth.Principal) scheduling.Policy {
	if principal.IsAnonymous() {
		return scheduling.GuestPolicy().WithMaxDuration(s.cfg.MaxReservationDuration)
	}
	return scheduling.MemberPolicy(s.cfg.MinReservationDuration).WithMaxDuration(s.cfg.MaxReservationDuration)
}

func (s *reservationService) activeRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, lookupError("Room", roomID, err)
	}
	if !room.IsActive {
		return nil, apperrors.RoomInactive(roomID)
	}
	if room.ID == "" {
		room.ID = roomID
	}
	return room, nil
}

// buildReservations lays out one document per window. The first is the series parent;
// children get their parent id once the parent is inserted.
func (s *reservationService) buildReservations(principal auth.Principal, req *CreateRequest, windows []scheduling.Window, rrule string) []*model.Reservation {
	d := req.Details
	template := model.Reservation{
		RoomID:      d.RoomID,
		Title:       d.Title,
		Description: d.Description,
		Status:      model.StatusConfirmed,
		Attendees:   max(d.Attendees, 1),
		GuestEmails: d.GuestEmails,
	}

	if principal.IsAnonymous() {
		template.GuestName = d.GuestName
		template.GuestEmail = d.GuestEmail
		template.OrganizerName = d.GuestName
		template.OrganizerEmail = d.GuestEmail
	} else {
		template.UserID = principal.ID
		if principal.IsAdmin() && d.UserID != "" {
			template.UserID = d.UserID
		}
		template.OrganizerName = principal.Name
		template.OrganizerEmail = principal.Email
	}

	if req.Kind == KindRecurring {
		rule := req.Recurring.Rule
		template.IsRecurring = true
		template.RecurrencePattern = string(rule.Pattern)
		template.RecurrenceInterval = rule.Interval
		template.RecurrenceEndDate = rule.EndDate
		template.RecurrenceRule = rrule
		template.RecurrenceDates = rule.RDates(req.Recurring.Base.Start)
		for _, day := range rule.DaysOfWeek {
			template.RecurrenceDaysOfWeek = append(template.RecurrenceDaysOfWeek, int(day))
		}
	}

	reservations := make([]*model.Reservation, len(windows))
	for i, w := range windows {
		r := template
		r.StartTime = w.Start
		r.EndTime = w.End
		reservations[i] = &r
	}
	return reservations
}

func (s *reservationService) sanitizeRequest(req *model.ReservationRequest) {
	req.Title = sanitizer.NormalizeText(req.Title)
	req.Description = sanitizer.NormalizeDescription(req.Description)
	req.GuestName = sanitizer.NormalizeText(req.GuestName)
	req.GuestEmail = sanitizer.NormalizeEmail(req.GuestEmail)
	req.GuestEmails = sanitizer.NormalizeEmails(req.GuestEmails)
}

func (s *reservationService) sanitize(r *model.Reservation) {
	r.Title = sanitizer.NormalizeText(r.Title)
	r.Description = sanitizer.NormalizeDescription(r.Description)
	r.GuestEmails = sanitizer.NormalizeEmails(r.GuestEmails)
}

func mergeReservationUpdates(existing *model.Reservation, updates *model.ReservationUpdate) *model.Reservation {
	merged := *existing

	if updates.RoomID != nil {
		merged.RoomID = *updates.RoomID
	}
	if updates.Title != nil {
		merged.Title = *updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
		if !merged.StartTime.Equal(existing.StartTime) {
			merged.ReminderSent = false
		}
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}
	if updates.Attendees != nil {
		merged.Attendees = *updates.Attendees
	}
	if updates.GuestEmails != nil {
		merged.GuestEmails = *updates.GuestEmails
	}

	return &merged
}

func (s *reservationService) previousState(ctx context.Context, existing *model.Reservation, current *model.Room) *model.PreviousState {
	prev := &model.PreviousState{
		RoomID:    existing.RoomID,
		StartTime: existing.StartTime,
		EndTime:   existing.EndTime,
	}
	if existing.RoomID == current.ID {
		prev.RoomName = current.Name
		return prev
	}
	if room, err := s.roomRepo.FindByID(ctx, existing.RoomID); err == nil {
		prev.RoomName = room.Name
	}
	return prev
}

// notify publishes after commit. Failures are logged; the booking outcome never depends on them.
func (s *reservationService) notify(ctx context.Context, event *model.ReservationEvent) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.EventPublishTimeout)
	defer cancel()

	var err error
	switch event.Type {
	case model.EventReservationCreated:
		err = s.publisher.PublishCreated(pubCtx, event)
	case model.EventReservationUpdated:
		err = s.publisher.PublishUpdated(pubCtx, event)
	case model.EventReservationCancelled:
		err = s.publisher.PublishCancelled(pubCtx, event)
	default:
		err = fmt.Errorf("%w: %q", events.ErrUnknownEventType, event.Type)
	}
	if err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"type", event.Type,
			"reservation_id", event.ReservationID,
			"error", err,
		)
	}
}

func (s *reservationService) countConflict() {
	if s.metrics != nil {
		s.metrics.Conflicts.Inc()
	}
}

func isConflict(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Code == apperrors.CodeConflict
}
