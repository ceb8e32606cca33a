package model

import (
	"time"

	"roomreserve/pkg/scheduling"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Reservation struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomID         string    `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	UserID         string    `json:"user_id,omitempty" bson:"user_id,omitempty" validate:"omitempty,max=128"`
	OrganizerName  string    `json:"organizer_name,omitempty" bson:"organizer_name,omitempty" validate:"omitempty,max=100"`
	OrganizerEmail string    `json:"organizer_email,omitempty" bson:"organizer_email,omitempty" validate:"omitempty,email"`
	GuestName      string    `json:"guest_name,omitempty" bson:"guest_name,omitempty" validate:"omitempty,min=1,max=100"`
	GuestEmail     string    `json:"guest_email,omitempty" bson:"guest_email,omitempty" validate:"omitempty,email"`
	Title          string    `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime      time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Status         string    `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled"`
	Attendees      int       `json:"attendees" bson:"attendees" validate:"min=1,max=500"`
	GuestEmails    []string  `json:"guest_emails,omitempty" bson:"guest_emails,omitempty" validate:"omitempty,max=50,dive,email"`

	IsRecurring          bool        `json:"is_recurring" bson:"is_recurring"`
	RecurrencePattern    string      `json:"recurrence_pattern,omitempty" bson:"recurrence_pattern,omitempty" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	RecurrenceInterval   int         `json:"recurrence_interval,omitempty" bson:"recurrence_interval,omitempty" validate:"omitempty,min=1"`
	RecurrenceDaysOfWeek []int       `json:"recurrence_days_of_week,omitempty" bson:"recurrence_days_of_week,omitempty" validate:"omitempty,dive,min=0,max=6"`
	RecurrenceEndDate    *time.Time  `json:"recurrence_end_date,omitempty" bson:"recurrence_end_date,omitempty"`
	RecurrenceRule       string      `json:"recurrence_rule,omitempty" bson:"recurrence_rule,omitempty"`
	RecurrenceDates      []time.Time `json:"recurrence_dates,omitempty" bson:"recurrence_dates,omitempty"`
	ParentID             string      `json:"parent_id,omitempty" bson:"parent_id,omitempty" validate:"omitempty,mongodb"`

	ReminderSent bool      `json:"reminder_sent" bson:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (r *Reservation) Window() scheduling.Window {
	return scheduling.NewWindow(r.StartTime, r.EndTime)
}

func (r *Reservation) IsGuest() bool {
	return r.UserID == ""
}

// SeriesID is the id shared by every occurrence of a recurring reservation.
func (r *Reservation) SeriesID() string {
	if r.ParentID != "" {
		return r.ParentID
	}
	return r.ID
}

// ReservationUpdate carries a partial update. Nil fields are left untouched.
type ReservationUpdate struct {
	RoomID      *string    `json:"room_id,omitempty" validate:"omitempty,mongodb"`
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Attendees   *int       `json:"attendees,omitempty" validate:"omitempty,min=1,max=500"`
	GuestEmails *[]string  `json:"guest_emails,omitempty" validate:"omitempty,max=50,dive,email"`
}

// ReservationRequest is the creation payload. A present Recurrence turns it into a series.
type ReservationRequest struct {
	RoomID      string          `json:"room_id" validate:"required,mongodb"`
	UserID      string          `json:"user_id,omitempty" validate:"omitempty,max=128"`
	GuestName   string          `json:"guest_name,omitempty" validate:"omitempty,min=1,max=100"`
	GuestEmail  string          `json:"guest_email,omitempty" validate:"omitempty,email"`
	Title       string          `json:"title" validate:"required,min=1,max=200"`
	Description string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime   time.Time       `json:"start_time" validate:"required"`
	EndTime     time.Time       `json:"end_time" validate:"required"`
	Attendees   int             `json:"attendees,omitempty" validate:"omitempty,min=1,max=500"`
	GuestEmails []string        `json:"guest_emails,omitempty" validate:"omitempty,max=50,unique,dive,email"`
	Recurrence  *RecurrenceSpec `json:"recurrence,omitempty"`
}

type RecurrenceSpec struct {
	Pattern    string     `json:"pattern" validate:"required,oneof=DAILY WEEKLY MONTHLY"`
	Interval   int        `json:"interval,omitempty" validate:"omitempty,min=1,max=99"`
	DaysOfWeek []int      `json:"days_of_week,omitempty" validate:"omitempty,max=7,unique,dive,min=0,max=6"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

func (s RecurrenceSpec) Rule() scheduling.Rule {
	rule := scheduling.Rule{
		Pattern:  scheduling.Pattern(s.Pattern),
		Interval: max(s.Interval, 1),
		EndDate:  s.EndDate,
	}
	for _, d := range s.DaysOfWeek {
		rule.DaysOfWeek = append(rule.DaysOfWeek, time.Weekday(d))
	}
	return rule
}

// ReservationFilter narrows listings. Empty fields match everything.
type ReservationFilter struct {
	RoomID    string
	UserID    string
	StartTime *time.Time
	EndTime   *time.Time
	Status    string
}
