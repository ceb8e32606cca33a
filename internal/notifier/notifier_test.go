package notifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"roomreserve/pkg/kafka"
	"roomreserve/pkg/logger"
	"roomreserve/pkg/metrics"
	"roomreserve/pkg/model"
	"roomreserve/pkg/rabbitmq"

	"github.com/emersion/go-ical"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent   []Mail
	failTo map[string]bool
}

func (m *recordingMailer) Send(ctx context.Context, mail Mail) error {
	if m.failTo[mail.To] {
		return errors.New("smtp timeout")
	}
	m.sent = append(m.sent, mail)
	return nil
}

var start = time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

func newNotifier(mailer Mailer) (*Notifier, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	n := New(mailer, log, metrics.New("test", reg))
	n.now = func() time.Time { return start.Add(-24 * time.Hour) }
	return n, reg
}

func event(eventType string) *model.ReservationEvent {
	return &model.ReservationEvent{
		Type:          eventType,
		ReservationID: "r1",
		SeriesID:      "r1",
		RoomID:        "room-1",
		RoomName:      "Orion",
		RoomLocation:  "3rd floor",
		Title:         "Planning",
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Organizer:     model.Recipient{Name: "Dana", Email: "dana@example.com"},
		GuestEmails:   []string{"lee@example.com", "DANA@example.com", "kim@example.com"},
		OccurredAt:    start.Add(-24 * time.Hour),
	}
}

func decodeInvite(t *testing.T, mail Mail) *ical.Calendar {
	t.Helper()
	require.NotNil(t, mail.Attachment, "expected an invite on mail to %s", mail.To)
	cal, err := ical.NewDecoder(bytes.NewReader(mail.Attachment.Content)).Decode()
	require.NoError(t, err)
	return cal
}

func sentCount(t *testing.T, reg *prometheus.Registry, eventType, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "test_notifications_sent_total" {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			want := map[string]string{"type": eventType, "result": result}
			for _, lp := range m.GetLabel() {
				if want[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

// ────────────────────────────────────────────────
// Notifier
// ────────────────────────────────────────────────

func TestHandle_CreatedSeries(t *testing.T) {
	mailer := &recordingMailer{}
	n, reg := newNotifier(mailer)
	e := event(model.EventReservationCreated)
	e.Occurrences = 4
	e.RecurrenceRule = "FREQ=WEEKLY;UNTIL=20300121T090000Z;INTERVAL=1;WKST=SU;BYDAY=MO"
	e.RecurrenceDates = []time.Time{e.StartTime}

	require.NoError(t, n.Handle(context.Background(), e))

	require.Len(t, mailer.sent, 3, "organizer plus two distinct guests")
	organizer := mailer.sent[0]
	assert.Equal(t, "dana@example.com", organizer.To)
	assert.Equal(t, "Room Reservation Confirmed: Planning", organizer.Subject)
	assert.Contains(t, organizer.HTML, "confirmed for 4 occurrences")
	assert.Contains(t, organizer.HTML, "Orion")

	for _, guest := range mailer.sent[1:] {
		assert.Equal(t, "Meeting Invitation: Planning", guest.Subject)
		assert.Contains(t, guest.HTML, "Dana has invited you")
	}
	assert.Equal(t, "lee@example.com", mailer.sent[1].To)
	assert.Equal(t, "kim@example.com", mailer.sent[2].To)

	cal := decodeInvite(t, organizer)
	method, err := cal.Props.Text(ical.PropMethod)
	require.NoError(t, err)
	assert.Equal(t, MethodRequest, method)

	events := cal.Events()
	require.Len(t, events, 1)
	uid, err := events[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "r1@roomreserve", uid)
	rrule := events[0].Props.Get(ical.PropRecurrenceRule)
	require.NotNil(t, rrule)
	assert.Equal(t, e.RecurrenceRule, rrule.Value)
	rdate := events[0].Props.Get(ical.PropRecurrenceDates)
	require.NotNil(t, rdate)
	rdateTime, err := rdate.DateTime(time.UTC)
	require.NoError(t, err)
	assert.True(t, rdateTime.Equal(e.StartTime), "the base is listed as an RDATE")
	assert.Len(t, events[0].Props.Values(ical.PropAttendee), 3)

	assert.Equal(t, float64(3), sentCount(t, reg, model.EventReservationCreated, metrics.ResultSuccess))
}

func TestHandle_CancelledOccurrence(t *testing.T) {
	mailer := &recordingMailer{}
	n, _ := newNotifier(mailer)
	e := event(model.EventReservationCancelled)
	e.ReservationID = "r3"
	e.SeriesID = "r1"
	e.RecurrenceRule = "FREQ=WEEKLY;COUNT=4"
	e.GuestEmails = nil

	require.NoError(t, n.Handle(context.Background(), e))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Room Reservation Cancelled: Planning", mailer.sent[0].Subject)

	raw := string(mailer.sent[0].Attachment.Content)
	assert.Contains(t, raw, "METHOD:CANCEL")
	assert.Contains(t, raw, "STATUS:CANCELLED")
	assert.Contains(t, raw, "RECURRENCE-ID:20300107T100000Z")
	assert.NotContains(t, raw, "RRULE")

	cal := decodeInvite(t, mailer.sent[0])
	uid, err := cal.Events()[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "r1@roomreserve", uid, "occurrences share the series uid")
}

func TestHandle_UpdatedShowsPreviousWindow(t *testing.T) {
	mailer := &recordingMailer{}
	n, _ := newNotifier(mailer)
	e := event(model.EventReservationUpdated)
	e.GuestEmails = []string{"lee@example.com"}
	e.Previous = &model.PreviousState{
		RoomID:    "room-0",
		RoomName:  "Lyra",
		StartTime: start.Add(-2 * time.Hour),
		EndTime:   start.Add(-time.Hour),
	}

	require.NoError(t, n.Handle(context.Background(), e))
	require.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.sent[0].HTML, "Previously:")
	assert.Contains(t, mailer.sent[0].HTML, "Lyra")
	assert.Contains(t, mailer.sent[0].HTML, "Mon, 07 Jan 2030 08:00 UTC")
	assert.Equal(t, "Meeting Updated: Planning", mailer.sent[1].Subject)

	raw := string(mailer.sent[0].Attachment.Content)
	assert.Contains(t, raw, "METHOD:REQUEST")
	assert.NotContains(t, raw, "RECURRENCE-ID", "single reservations need no recurrence id")
}

func TestHandle_ReminderGoesToOrganizerOnly(t *testing.T) {
	mailer := &recordingMailer{}
	n, _ := newNotifier(mailer)
	e := event(model.EventReservationReminder)
	e.OccurredAt = start.Add(-17 * time.Minute)

	require.NoError(t, n.Handle(context.Background(), e))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Reminder: Planning in 17 minutes", mailer.sent[0].Subject)
	assert.Nil(t, mailer.sent[0].Attachment)
	assert.Contains(t, mailer.sent[0].HTML, "3rd floor")
}

func TestHandle_EscapesUserContent(t *testing.T) {
	mailer := &recordingMailer{}
	n, _ := newNotifier(mailer)
	e := event(model.EventReservationCreated)
	e.Title = `<script>alert("x")</script>`
	e.GuestEmails = nil

	require.NoError(t, n.Handle(context.Background(), e))
	assert.NotContains(t, mailer.sent[0].HTML, "<script>")
	assert.Contains(t, mailer.sent[0].HTML, "&lt;script&gt;")
}

func TestHandle_PartialFailure(t *testing.T) {
	mailer := &recordingMailer{failTo: map[string]bool{"lee@example.com": true}}
	n, reg := newNotifier(mailer)

	err := n.Handle(context.Background(), event(model.EventReservationCreated))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to deliver 1 of 3 notifications")
	assert.Len(t, mailer.sent, 2, "remaining recipients are still attempted")
	assert.Equal(t, float64(1), sentCount(t, reg, model.EventReservationCreated, metrics.ResultFailure))
}

func TestHandle_NoRecipients(t *testing.T) {
	mailer := &recordingMailer{}
	n, _ := newNotifier(mailer)
	e := event(model.EventReservationReminder)
	e.Organizer = model.Recipient{}

	assert.NoError(t, n.Handle(context.Background(), e))
	assert.Empty(t, mailer.sent)
}

// ────────────────────────────────────────────────
// Consumer adapters
// ────────────────────────────────────────────────

func TestKafkaHandler(t *testing.T) {
	mailer := &recordingMailer{failTo: map[string]bool{"dana@example.com": true}}
	n, _ := newNotifier(mailer)
	handle := n.KafkaHandler()

	err := handle(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	err = handle(context.Background(), kafka.Message{Value: []byte(`{"type":"reservation.exploded"}`)})
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	body := `{"type":"reservation.reminder","reservation_id":"r1","title":"Planning","organizer":{"email":"dana@example.com"}}`
	err = handle(context.Background(), kafka.Message{Value: []byte(body)})
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
}

func TestRabbitMQHandler(t *testing.T) {
	mailer := &recordingMailer{}
	n, _ := newNotifier(mailer)
	handle := n.RabbitMQHandler()

	assert.NoError(t, handle(context.Background(), rabbitmq.Delivery{Body: []byte("{not json")}))
	assert.Empty(t, mailer.sent)

	body := `{"type":"reservation.cancelled","reservation_id":"r1","title":"Planning","start_time":"2030-01-07T10:00:00Z","end_time":"2030-01-07T11:00:00Z","organizer":{"email":"dana@example.com"}}`
	require.NoError(t, handle(context.Background(), rabbitmq.Delivery{Body: []byte(body)}))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, MethodCancel, mailer.sent[0].Attachment.Method)
}

// ────────────────────────────────────────────────
// MIME
// ────────────────────────────────────────────────

func TestBuildMIME(t *testing.T) {
	plain, err := buildMIME("rooms@example.com", Mail{To: "dana@example.com", Subject: "Réservation", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Contains(t, string(plain), "Content-Type: text/html")
	assert.Contains(t, string(plain), "Subject: =?utf-8?q?R=C3=A9servation?=")
	assert.NotContains(t, string(plain), "multipart")

	withInvite, err := buildMIME("rooms@example.com", Mail{
		To:         "dana@example.com",
		Subject:    "Invite",
		HTML:       "<p>hi</p>",
		Attachment: &Attachment{Filename: "invite.ics", Method: MethodRequest, Content: []byte("BEGIN:VCALENDAR")},
	})
	require.NoError(t, err)
	raw := string(withInvite)
	assert.Contains(t, raw, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, raw, "method=REQUEST")
	assert.Contains(t, raw, `filename="invite.ics"`)
	assert.True(t, strings.Index(raw, "text/html") < strings.Index(raw, "text/calendar"))
}
