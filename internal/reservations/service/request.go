package service

import (
	"time"

	"roomreserve/pkg/model"
	"roomreserve/pkg/scheduling"
)

type Kind string

const (
	KindSingle    Kind = "single"
	KindRecurring Kind = "recurring"
)

// Details are the fields shared by every creation variant.
type Details struct {
	RoomID      string
	UserID      string
	GuestName   string
	GuestEmail  string
	Title       string
	Description string
	Attendees   int
	GuestEmails []string
}

type SingleSpec struct {
	Window scheduling.Window
}

// RecurringSpec describes a series. Base is the first occurrence.
type RecurringSpec struct {
	Base scheduling.Window
	Rule scheduling.Rule
}

// CreateRequest is a tagged variant: exactly one of Single and Recurring is set, matching Kind.
// Whether the booking is a member or a guest booking is decided by the caller's principal.
type CreateRequest struct {
	Kind      Kind
	Details   Details
	Single    *SingleSpec
	Recurring *RecurringSpec
}

// NewCreateRequest converts a decoded API payload into its variant.
func NewCreateRequest(req *model.ReservationRequest) *CreateRequest {
	cr := &CreateRequest{
		Details: Details{
			RoomID:      req.RoomID,
			UserID:      req.UserID,
			GuestName:   req.GuestName,
			GuestEmail:  req.GuestEmail,
			Title:       req.Title,
			Description: req.Description,
			Attendees:   req.Attendees,
			GuestEmails: req.GuestEmails,
		},
	}

	window := scheduling.NewWindow(req.StartTime, req.EndTime)
	if req.Recurrence != nil {
		cr.Kind = KindRecurring
		cr.Recurring = &RecurringSpec{Base: window, Rule: req.Recurrence.Rule()}
	} else {
		cr.Kind = KindSingle
		cr.Single = &SingleSpec{Window: window}
	}
	return cr
}

func (r *CreateRequest) window() scheduling.Window {
	if r.Kind == KindRecurring && r.Recurring != nil {
		return r.Recurring.Base
	}
	if r.Single != nil {
		return r.Single.Window
	}
	return scheduling.Window{}
}

type CreateResult struct {
	Reservations []*model.Reservation `json:"reservations"`
	Count        int                  `json:"count"`
}

// Availability answers whether a room is free for a window.
type Availability struct {
	RoomID    string             `json:"room_id"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Available bool               `json:"available"`
	Conflict  *model.Reservation `json:"conflict,omitempty"`
}
