package metric

import "github.com/prometheus/client_golang/prometheus"

type Service struct {
	attempts      *prometheus.CounterVec
	fails         *prometheus.CounterVec
	credentials   *prometheus.CounterVec
	exhausted     *prometheus.CounterVec
	io            *prometheus.HistogramVec
	invocations   *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func New() *Service {

	m := &Service{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_bridge",
			Name:      "credential_fetch_attempts",
			Help:      "Messaging credential fetch attempts"},
			[]string{"channel"}),
		fails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_bridge",
			Name:      "credential_fetch_fails",
			Help:      "Failed or empty messaging credential fetches"},
			[]string{"channel", "reason"}),
		credentials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_bridge",
			Name:      "credentials_obtained",
			Help:      "Messaging credentials obtained by registration cycles"},
			[]string{"channel"}),
		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_bridge",
			Name:      "registration_cycles_exhausted",
			Help:      "Registration cycles that ran out of attempts"},
			[]string{"channel"}),
		io: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "push_bridge",
			Name:      "credential_fetch_io",
			Help:      "Time spent fetching a messaging credential (in nanoseconds)"},
			[]string{"channel"}),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_bridge",
			Name:      "invocations",
			Help:      "Bridge invocations delivered to the cross-platform layer"},
			[]string{"channel", "method"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_bridge",
			Name:      "invocations_dropped",
			Help:      "Bridge invocations dropped before delivery"},
			[]string{"channel", "method"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_bridge",
			Name:      "notifications",
			Help:      "Notifications handed to the bridge by the OS"},
			[]string{"channel", "kind"}),
	}

	for _, c := range []prometheus.Collector{
		m.attempts,
		m.fails,
		m.credentials,
		m.exhausted,
		m.io,
		m.invocations,
		m.dropped,
		m.notifications,
	} {
		if err := prometheus.Register(c); err != nil {
			switch err.(type) {
			case prometheus.AlreadyRegisteredError:
				break
			default:
				panic(err)
			}
		}
	}

	return m
}

func (m *Service) GetBridgeMetrics(channel string) (*Bridge, error) {

	var err error
	labels := prometheus.Labels{"channel": channel}

	b := &Bridge{service: m, channel: channel}
	b.attempts, err = m.attempts.GetMetricWith(labels)
	if err != nil {
		return nil, err
	}

	b.credentials, err = m.credentials.GetMetricWith(labels)
	if err != nil {
		return nil, err
	}

	b.exhausted, err = m.exhausted.GetMetricWith(labels)
	if err != nil {
		return nil, err
	}

	b.io, err = m.io.GetMetricWith(labels)
	if err != nil {
		return nil, err
	}

	return b, nil
}
