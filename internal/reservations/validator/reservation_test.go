package validator

import (
	"errors"
	"testing"
	"time"

	"roomreserve/pkg/logger"
	"roomreserve/pkg/model"
)

func newTestValidator() *ReservationValidator {
	return NewReservationValidator(logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}))
}

func validRequest() *model.ReservationRequest {
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	return &model.ReservationRequest{
		RoomID:    "65f1a2b3c4d5e6f7a8b9c0d1",
		Title:     "Design review",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

func TestValidateRequest(t *testing.T) {
	v := newTestValidator()
	before := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mutate    func(r *model.ReservationRequest)
		wantField string
	}{
		{"valid single", func(r *model.ReservationRequest) {}, ""},
		{"valid weekly series", func(r *model.ReservationRequest) {
			r.Recurrence = &model.RecurrenceSpec{Pattern: "WEEKLY", Interval: 1, DaysOfWeek: []int{1, 3}}
		}, ""},
		{"missing title", func(r *model.ReservationRequest) { r.Title = "" }, "title"},
		{"invalid room id", func(r *model.ReservationRequest) { r.RoomID = "abc" }, "room_id"},
		{"invalid invitee", func(r *model.ReservationRequest) { r.GuestEmails = []string{"ok@example.com", "nope"} }, "guest_emails[1]"},
		{"unknown pattern", func(r *model.ReservationRequest) {
			r.Recurrence = &model.RecurrenceSpec{Pattern: "HOURLY"}
		}, "recurrence.pattern"},
		{"weekday out of range", func(r *model.ReservationRequest) {
			r.Recurrence = &model.RecurrenceSpec{Pattern: "WEEKLY", DaysOfWeek: []int{1, 9}}
		}, "recurrence.days_of_week[1]"},
		{"end date before start", func(r *model.ReservationRequest) {
			r.Recurrence = &model.RecurrenceSpec{Pattern: "DAILY", EndDate: &before}
		}, "recurrence.end_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(r)
			err := v.ValidateRequest(r)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on %q, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateGuest(t *testing.T) {
	v := newTestValidator()

	r := validRequest()
	err := v.ValidateGuest(r)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("expected two missing guest fields, got %v", err)
	}

	r.GuestName = "Dana"
	r.GuestEmail = "dana@example.com"
	if err := v.ValidateGuest(r); err != nil {
		t.Errorf("expected complete guest to pass, got %v", err)
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()
	empty := ""
	attendees := 0

	if err := v.ValidateUpdate(&model.ReservationUpdate{}); err != nil {
		t.Errorf("expected empty update to pass, got %v", err)
	}
	if err := v.ValidateUpdate(&model.ReservationUpdate{Title: &empty}); err == nil {
		t.Error("expected empty title to fail")
	}
	if err := v.ValidateUpdate(&model.ReservationUpdate{Attendees: &attendees}); err == nil {
		t.Error("expected zero attendees to fail")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Field: "title", Message: "title is required"}}
	want := "validation failed: 1 error(s): [title: title is required]"
	if got := errs.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
