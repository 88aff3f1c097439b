package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reasons of a failed credential fetch.
const (
	ReasonError = "error"
	ReasonEmpty = "empty"
)

type Bridge struct {
	service     *Service
	channel     string
	attempts    prometheus.Counter
	credentials prometheus.Counter
	exhausted   prometheus.Counter
	io          prometheus.Observer
}

func (b *Bridge) AttemptInc() {
	b.attempts.Inc()
}

func (b *Bridge) FailsInc(reason string) {
	b.service.fails.WithLabelValues(b.channel, reason).Inc()
}

func (b *Bridge) CredentialInc() {
	b.credentials.Inc()
}

func (b *Bridge) ExhaustedInc() {
	b.exhausted.Inc()
}

func (b *Bridge) InvocationInc(method string) {
	b.service.invocations.WithLabelValues(b.channel, method).Inc()
}

func (b *Bridge) DroppedInc(method string) {
	b.service.dropped.WithLabelValues(b.channel, method).Inc()
}

func (b *Bridge) NotificationInc(kind string) {
	b.service.notifications.WithLabelValues(b.channel, kind).Inc()
}

// NewIOTimer starts measuring a credential fetch; call the result when the
// fetch completes.
func (b *Bridge) NewIOTimer() func() {
	start := time.Now()
	return func() {
		b.io.Observe(float64(time.Since(start).Nanoseconds()))
	}
}
