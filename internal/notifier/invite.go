package notifier

import (
	"bytes"
	"fmt"
	"time"

	"roomreserve/pkg/model"

	"github.com/emersion/go-ical"
)

const (
	MethodRequest = "REQUEST"
	MethodCancel  = "CANCEL"

	productID = "-//roomreserve//Reservations//EN"
)

// BuildInvite renders a single-event iTIP calendar for the reservation. A new series is one
// VEVENT with an RRULE keyed by the series id. Later changes to one occurrence of a series
// carry the same UID plus a RECURRENCE-ID naming the occurrence's original start, so only
// that instance changes in the attendee's calendar. SEQUENCE grows with every revision.
func BuildInvite(event *model.ReservationEvent, method string, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropMethod, method)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, inviteUID(event))
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime.UTC())
	vevent.Props.SetText(ical.PropSummary, event.Title)
	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}
	if location := inviteLocation(event); location != "" {
		vevent.Props.SetText(ical.PropLocation, location)
	}
	vevent.Props.SetText(ical.PropSequence, fmt.Sprint(inviteSequence(event)))

	if method == MethodCancel {
		vevent.Props.SetText(ical.PropStatus, "CANCELLED")
	} else {
		vevent.Props.SetText(ical.PropStatus, "CONFIRMED")
	}

	if event.RecurrenceRule != "" {
		if event.Type == model.EventReservationCreated {
			rrule := ical.NewProp(ical.PropRecurrenceRule)
			rrule.Value = event.RecurrenceRule
			vevent.Props.Set(rrule)
			for _, d := range event.RecurrenceDates {
				rdate := ical.NewProp(ical.PropRecurrenceDates)
				rdate.SetDateTime(d.UTC())
				vevent.Props.Add(rdate)
			}
		} else {
			vevent.Props.SetDateTime(ical.PropRecurrenceID, originalStart(event).UTC())
		}
	}

	if event.Organizer.Email != "" {
		organizer := ical.NewProp(ical.PropOrganizer)
		organizer.Value = "mailto:" + event.Organizer.Email
		if event.Organizer.Name != "" {
			organizer.Params.Set(ical.ParamCommonName, event.Organizer.Name)
		}
		vevent.Props.Set(organizer)
	}
	for _, email := range event.GuestEmails {
		attendee := ical.NewProp(ical.PropAttendee)
		attendee.Value = "mailto:" + email
		attendee.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
		attendee.Params.Set(ical.ParamParticipationStatus, "NEEDS-ACTION")
		vevent.Props.Add(attendee)
	}

	cal.Children = append(cal.Children, vevent.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode invite: %w", err)
	}
	return buf.Bytes(), nil
}

// inviteUID is stable across every event of one reservation or series.
func inviteUID(event *model.ReservationEvent) string {
	id := event.SeriesID
	if id == "" {
		id = event.ReservationID
	}
	return id + "@roomreserve"
}

func inviteLocation(event *model.ReservationEvent) string {
	switch {
	case event.RoomName != "" && event.RoomLocation != "":
		return event.RoomName + ", " + event.RoomLocation
	case event.RoomName != "":
		return event.RoomName
	}
	return event.RoomLocation
}

func originalStart(event *model.ReservationEvent) time.Time {
	if event.Previous != nil {
		return event.Previous.StartTime
	}
	return event.StartTime
}

// inviteSequence orders revisions of the same UID by when the change happened.
func inviteSequence(event *model.ReservationEvent) int64 {
	if event.Type == model.EventReservationCreated {
		return 0
	}
	return event.OccurredAt.Unix()
}
