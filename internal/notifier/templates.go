package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"roomreserve/pkg/model"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

const layout = `{{define "layout"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #333;">{{.Heading}}</h2>
<p>{{.Intro}}</p>
<div style="background-color: {{.Background}}; padding: 20px; border-radius: 5px; margin: 20px 0;">
<h3 style="margin-top: 0;">{{.Event.Title}}</h3>
{{if .Event.RoomName}}<p><strong>Room:</strong> {{.Event.RoomName}}</p>{{end}}
{{if .Event.RoomLocation}}<p><strong>Location:</strong> {{.Event.RoomLocation}}</p>{{end}}
<p><strong>Start:</strong> {{fmtTime .Event.StartTime}}</p>
<p><strong>End:</strong> {{fmtTime .Event.EndTime}}</p>
{{if .Event.Occurrences}}<p><strong>Occurrences:</strong> {{.Event.Occurrences}}</p>{{end}}
{{with .Event.Previous}}<p style="color: #666;"><strong>Previously:</strong> {{if .RoomName}}{{.RoomName}}, {{end}}{{fmtTime .StartTime}} to {{fmtTime .EndTime}}</p>{{end}}
{{if .Event.Description}}<p>{{.Event.Description}}</p>{{end}}
</div>
{{if .Footer}}<p style="color: #666; font-size: 12px; margin-top: 30px;">{{.Footer}}</p>{{end}}
</div>{{end}}`

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"fmtTime": func(t time.Time) string { return t.UTC().Format(timeLayout) },
}).Parse(layout))

type messageData struct {
	Heading    string
	Intro      string
	Background template.CSS
	Footer     string
	Event      *model.ReservationEvent
}

type message struct {
	subject string
	data    messageData
	invite  string
}

// organizerMessage is what the person who booked receives for each event type.
func organizerMessage(event *model.ReservationEvent) (message, error) {
	switch event.Type {
	case model.EventReservationCreated:
		intro := "Your room reservation has been successfully confirmed."
		if event.Occurrences > 1 {
			intro = fmt.Sprintf("Your recurring room reservation has been confirmed for %d occurrences.", event.Occurrences)
		}
		return message{
			subject: "Room Reservation Confirmed: " + event.Title,
			invite:  MethodRequest,
			data: messageData{
				Heading:    "Room Reservation Confirmed",
				Intro:      intro,
				Background: "#f5f5f5",
				Footer:     "If you need to cancel or modify this reservation, please log in to your account.",
			},
		}, nil

	case model.EventReservationUpdated:
		return message{
			subject: "Room Reservation Updated: " + event.Title,
			invite:  MethodRequest,
			data: messageData{
				Heading:    "Room Reservation Updated",
				Intro:      "Your room reservation has been changed.",
				Background: "#e8f4fd",
			},
		}, nil

	case model.EventReservationCancelled:
		return message{
			subject: "Room Reservation Cancelled: " + event.Title,
			invite:  MethodCancel,
			data: messageData{
				Heading:    "Room Reservation Cancelled",
				Intro:      "Your room reservation has been cancelled.",
				Background: "#fdecea",
			},
		}, nil

	case model.EventReservationReminder:
		lead := leadMinutes(event)
		return message{
			subject: fmt.Sprintf("Reminder: %s in %d minutes", event.Title, lead),
			data: messageData{
				Heading:    "Upcoming Meeting Reminder",
				Intro:      fmt.Sprintf("This is a reminder that your meeting starts in %d minutes.", lead),
				Background: "#fff3cd",
				Footer:     "See you there!",
			},
		}, nil
	}
	return message{}, fmt.Errorf("no message for event type %q", event.Type)
}

// guestMessage is the copy sent to additional guest addresses. Reminders go to the
// organizer only.
func guestMessage(event *model.ReservationEvent) (message, bool) {
	organizer := event.Organizer.Name
	if organizer == "" {
		organizer = event.Organizer.Email
	}

	switch event.Type {
	case model.EventReservationCreated:
		return message{
			subject: "Meeting Invitation: " + event.Title,
			invite:  MethodRequest,
			data: messageData{
				Heading:    "You're Invited",
				Intro:      fmt.Sprintf("%s has invited you to a meeting.", organizer),
				Background: "#f5f5f5",
			},
		}, true
	case model.EventReservationUpdated:
		return message{
			subject: "Meeting Updated: " + event.Title,
			invite:  MethodRequest,
			data: messageData{
				Heading:    "Meeting Updated",
				Intro:      fmt.Sprintf("%s has changed a meeting you are invited to.", organizer),
				Background: "#e8f4fd",
			},
		}, true
	case model.EventReservationCancelled:
		return message{
			subject: "Meeting Cancelled: " + event.Title,
			invite:  MethodCancel,
			data: messageData{
				Heading:    "Meeting Cancelled",
				Intro:      fmt.Sprintf("%s has cancelled a meeting you were invited to.", organizer),
				Background: "#fdecea",
			},
		}, true
	}
	return message{}, false
}

func render(msg message, event *model.ReservationEvent) (string, error) {
	msg.data.Event = event
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout", msg.data); err != nil {
		return "", fmt.Errorf("failed to render %s message: %w", event.Type, err)
	}
	return buf.String(), nil
}

func leadMinutes(event *model.ReservationEvent) int {
	lead := event.StartTime.Sub(event.OccurredAt).Round(time.Minute)
	return max(int(lead/time.Minute), 0)
}
