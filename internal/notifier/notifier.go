package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roomreserve/pkg/logger"
	"roomreserve/pkg/metrics"
	"roomreserve/pkg/model"
)

// Notifier turns reservation events into email. The organizer receives the primary
// message; every additional guest address receives its own invitation copy.
type Notifier struct {
	mailer  Mailer
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(mailer Mailer, log *logger.Logger, m *metrics.Metrics) *Notifier {
	return &Notifier{mailer: mailer, log: log.Component("notifier"), metrics: m, now: time.Now}
}

// Handle delivers every message for event. Failed deliveries are joined into the returned
// error so the consumer can retry the event.
func (n *Notifier) Handle(ctx context.Context, event *model.ReservationEvent) error {
	mails, err := n.compose(event)
	if err != nil {
		return err
	}
	if len(mails) == 0 {
		n.log.Warn("Reservation event has no recipients", "type", event.Type, "reservation_id", event.ReservationID)
		return nil
	}

	var errs []error
	for _, mail := range mails {
		err := n.mailer.Send(ctx, mail)
		n.count(event.Type, err)
		if err != nil {
			n.log.Error("Failed to send notification",
				"type", event.Type,
				"reservation_id", event.ReservationID,
				"to", mail.To,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to deliver %d of %d notifications: %w", len(errs), len(mails), errors.Join(errs...))
	}

	n.log.Info("Notifications sent", "type", event.Type, "reservation_id", event.ReservationID, "recipients", len(mails))
	return nil
}

func (n *Notifier) compose(event *model.ReservationEvent) ([]Mail, error) {
	var mails []Mail
	organizer := strings.ToLower(event.Organizer.Email)

	if organizer != "" {
		msg, err := organizerMessage(event)
		if err != nil {
			return nil, err
		}
		mail, err := n.build(msg, event, organizer)
		if err != nil {
			return nil, err
		}
		mails = append(mails, mail)
	}

	msg, ok := guestMessage(event)
	if !ok {
		return mails, nil
	}
	for _, guest := range event.GuestEmails {
		if strings.EqualFold(guest, organizer) {
			continue
		}
		mail, err := n.build(msg, event, guest)
		if err != nil {
			return nil, err
		}
		mails = append(mails, mail)
	}
	return mails, nil
}

func (n *Notifier) build(msg message, event *model.ReservationEvent, to string) (Mail, error) {
	html, err := render(msg, event)
	if err != nil {
		return Mail{}, err
	}

	mail := Mail{To: to, Subject: msg.subject, HTML: html}
	if msg.invite != "" {
		content, err := BuildInvite(event, msg.invite, n.now())
		if err != nil {
			return Mail{}, err
		}
		mail.Attachment = &Attachment{
			Filename: "invite.ics",
			Method:   msg.invite,
			Content:  content,
		}
	}
	return mail, nil
}

func (n *Notifier) count(eventType string, err error) {
	if n.metrics != nil {
		n.metrics.NotificationsSent.WithLabelValues(eventType, metrics.Result(err)).Inc()
	}
}
