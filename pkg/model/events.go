package model

import "time"

const (
	EventReservationCreated   = "reservation.created"
	EventReservationUpdated   = "reservation.updated"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationReminder  = "reservation.reminder"
)

type Recipient struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// PreviousState is what a reservation looked like before an update.
type PreviousState struct {
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type ReservationEvent struct {
	Type            string         `json:"type"`
	ReservationID   string         `json:"reservation_id"`
	SeriesID        string         `json:"series_id,omitempty"`
	RoomID          string         `json:"room_id"`
	RoomName        string         `json:"room_name,omitempty"`
	RoomLocation    string         `json:"room_location,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	Organizer       Recipient      `json:"organizer"`
	GuestEmails     []string       `json:"guest_emails,omitempty"`
	Occurrences     int            `json:"occurrences,omitempty"`
	RecurrenceRule  string         `json:"recurrence_rule,omitempty"`
	RecurrenceDates []time.Time    `json:"recurrence_dates,omitempty"`
	Previous        *PreviousState `json:"previous,omitempty"`
	Hard            bool           `json:"hard,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// NewReservationEvent copies the fields every event type shares.
func NewReservationEvent(eventType string, r *Reservation, room *Room) *ReservationEvent {
	e := &ReservationEvent{
		Type:            eventType,
		ReservationID:   r.ID,
		SeriesID:        r.SeriesID(),
		RoomID:          r.RoomID,
		Title:           r.Title,
		Description:     r.Description,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Organizer:       Recipient{Name: r.OrganizerName, Email: r.OrganizerEmail},
		GuestEmails:     r.GuestEmails,
		RecurrenceRule:  r.RecurrenceRule,
		RecurrenceDates: r.RecurrenceDates,
		OccurredAt:      time.Now().UTC(),
	}
	if room != nil {
		e.RoomName = room.Name
		e.RoomLocation = room.Location
	}
	return e
}
