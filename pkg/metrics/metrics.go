package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "roomreserve"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	DirectionPublish = "publish"
	DirectionConsume = "consume"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	ReservationsCreated *prometheus.CounterVec
	Conflicts           prometheus.Counter
	Cancellations       *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
	BrokerMessages      *prometheus.CounterVec
	BrokerDuration      *prometheus.HistogramVec
	NotificationsSent   *prometheus.CounterVec
	Reminders           *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg, or on the default registry when reg is nil.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ReservationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "The total number of reservations persisted, one per occurrence",
		}, []string{"kind"}),
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "The total number of requests rejected because the room was taken",
		}),
		Cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_cancelled_total",
			Help:      "The total number of cancelled reservations",
		}, []string{"mode"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "The total number of reservation events handed to the broker",
		}, []string{"type", "result"}),
		BrokerMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_messages_total",
			Help:      "The total number of broker messages by direction and result",
		}, []string{"direction", "result"}),
		BrokerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broker_message_duration_seconds",
			Help:      "Time taken to publish or handle a broker message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"direction"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "The total number of notification emails by event type and result",
		}, []string{"type", "result"}),
		Reminders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "The total number of reminders processed by result",
		}, []string{"result"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
