package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/flockbusiness/flock-push-bridge/pkg/bridge"
	"github.com/flockbusiness/flock-push-bridge/pkg/metric"
	"github.com/flockbusiness/flock-push-bridge/pkg/notification"
	"github.com/flockbusiness/flock-push-bridge/pkg/permission"
	"github.com/flockbusiness/flock-push-bridge/pkg/queue"
	"github.com/flockbusiness/flock-push-bridge/pkg/test"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const waitFor = 2 * time.Second

var errFetch = errors.New("messaging: not ready")

type harness struct {
	t          *testing.T
	cfg        *Config
	clock      *test.ManualClock
	queue      *queue.Queue
	messaging  *test.Messaging
	authorizer *test.Authorizer
	registrar  *test.Registrar
	surface    *test.Surface
	logs       *observer.ObservedLogs
	bridge     *Bridge
}

func newHarness(t *testing.T, messaging *test.Messaging, fn func(*Dependencies)) *harness {
	t.Helper()

	h := &harness{
		t:          t,
		cfg:        DefaultConfig(),
		clock:      test.NewManualClock(),
		messaging:  messaging,
		authorizer: &test.Authorizer{Granted: true},
		registrar:  &test.Registrar{},
	}
	h.queue = queue.New(h.clock)
	h.surface = test.NewSurface(h.cfg.ChannelName)

	deps := &Dependencies{
		Queue:      h.queue,
		Messaging:  h.messaging,
		Authorizer: h.authorizer,
		Registrar:  h.registrar,
		Surface:    h.surface,
	}
	if fn != nil {
		fn(deps)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	h.logs = logs

	b, err := New(h.cfg, deps, zap.New(core), metric.New())
	require.NoError(t, err)
	h.bridge = b

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = h.queue.Run(ctx)
	}()

	t.Cleanup(func() {
		require.NoError(t, b.Close())
		cancel()
		wg.Wait()
	})

	return h
}

// sync waits until every task queued so far has run.
func (h *harness) sync() {
	h.t.Helper()

	done := make(chan struct{})
	require.True(h.t, h.queue.Async(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(waitFor):
		require.Fail(h.t, "main queue is stuck")
	}
}

func (h *harness) waitLog(msg string, count int) {
	h.t.Helper()

	require.Eventually(h.t,
		func() bool { return h.logs.FilterMessage(msg).Len() >= count },
		waitFor, time.Millisecond, msg)
}

// waitRetry waits for the scheduled retry of a failed attempt and fires it,
// checking it is not due a moment earlier.
func (h *harness) waitRetry() {
	h.t.Helper()

	require.Eventually(h.t, func() bool { return h.clock.Pending() == 1 }, waitFor, time.Millisecond)

	h.clock.Advance(h.cfg.RetryDelay - time.Millisecond)
	require.Equal(h.t, 1, h.clock.Pending())

	h.clock.Advance(time.Millisecond)
	require.Equal(h.t, 0, h.clock.Pending())
}

func TestInitializeGranted(t *testing.T) {

	h := newHarness(t, test.NewMessaging(), nil)
	h.authorizer.Snapshot = &permission.Settings{AuthorizationStatus: 2}

	h.bridge.Initialize()
	h.sync()
	h.sync()

	require.True(t, h.messaging.Configured())
	require.Equal(t, []permission.Options{permission.DefaultOptions}, h.authorizer.Requested())
	require.Equal(t, 1, h.registrar.Count())
	require.Equal(t, 1, h.logs.FilterMessage("notification settings").Len())

	// launch sequence runs once per process
	h.bridge.Initialize()
	h.sync()
	require.Len(t, h.authorizer.Requested(), 1)
	require.Equal(t, 1, h.registrar.Count())
}

func TestInitializeNotGranted(t *testing.T) {

	for _, testInfo := range []struct {
		Name    string
		Granted bool
		Err     error
	}{
		{Name: "denied", Granted: false},
		{Name: "error", Granted: true, Err: errors.New("authorization failed")},
	} {
		t.Run(testInfo.Name, func(t *testing.T) {
			h := newHarness(t, test.NewMessaging(), nil)
			h.authorizer.Granted = testInfo.Granted
			h.authorizer.Err = testInfo.Err

			h.bridge.Initialize()
			h.sync()
			h.sync()

			require.Len(t, h.authorizer.Requested(), 1)
			require.Equal(t, 0, h.registrar.Count())
			require.Empty(t, h.surface.Invocations())
		})
	}
}

func TestInitializeConfigureError(t *testing.T) {

	messaging := test.NewMessaging()
	messaging.ConfigureErr = errors.New("missing options")

	h := newHarness(t, messaging, nil)
	h.bridge.Initialize()
	h.sync()
	h.sync()

	require.Equal(t, 1, h.logs.FilterMessage("configure messaging").Len())
	require.Equal(t, 1, h.registrar.Count())
}

func TestInitializeUnansweredPrompt(t *testing.T) {

	h := newHarness(t, test.NewMessaging(), nil)
	h.authorizer.Hold = true

	h.bridge.Initialize()
	h.sync()

	// the queue keeps serving other events while the prompt is open
	token := "fcm-rotated"
	h.messaging.Refresh(&token)
	h.sync()
	require.Equal(t, 1, h.surface.Count(bridge.MethodTokenRefreshed))
	require.Equal(t, 0, h.registrar.Count())

	h.authorizer.Resolve(true, nil)
	h.sync()
	require.Equal(t, 1, h.registrar.Count())
}

func TestFetchFirstAttempt(t *testing.T) {

	h := newHarness(t, test.NewMessaging(test.FetchResult{Token: "fcm-1"}), nil)
	h.bridge.Initialize()
	h.bridge.DeviceTokenReceived([]byte{0xca, 0xfe})

	require.Eventually(t, func() bool { return h.surface.Count(bridge.MethodTokenReceived) == 1 }, waitFor, time.Millisecond)
	require.Equal(t, 1, h.messaging.Fetches())
	require.Equal(t, [][]byte{{0xca, 0xfe}}, h.messaging.APNSTokens())
	require.Equal(t, 0, h.clock.Pending())

	require.Equal(t,
		[]*bridge.Invocation{
			{Method: "onFCMTokenReceived", Args: map[string]string{"token": "fcm-1"}},
		},
		h.surface.Invocations())
}

func TestFetchRetriesThenSucceeds(t *testing.T) {

	for failures := 1; failures < DefaultMaxAttempts; failures++ {
		script := make([]test.FetchResult, 0, failures+1)
		for i := 0; i < failures; i++ {
			if i%2 == 0 {
				script = append(script, test.FetchResult{Err: errFetch})
			} else {
				script = append(script, test.FetchResult{})
			}
		}
		script = append(script, test.FetchResult{Token: "fcm-ok"})

		h := newHarness(t, test.NewMessaging(script...), nil)
		h.bridge.Initialize()
		h.bridge.DeviceTokenReceived([]byte{0x01})

		for i := 0; i < failures; i++ {
			h.waitRetry()
		}

		require.Eventually(t, func() bool { return h.surface.Count(bridge.MethodTokenReceived) == 1 }, waitFor, time.Millisecond)
		require.Equal(t, failures+1, h.messaging.Fetches())
		require.Equal(t, 0, h.clock.Pending())
		require.Equal(t, "fcm-ok", h.surface.Invocations()[0].Args[bridge.ArgToken])
	}
}

func TestFetchExhausted(t *testing.T) {

	h := newHarness(t, test.NewMessaging(test.FetchResult{Err: errFetch}), nil)
	h.bridge.Initialize()
	h.bridge.DeviceTokenReceived([]byte{0x01})

	for i := 1; i < DefaultMaxAttempts; i++ {
		h.waitRetry()
	}

	h.waitLog("credential fetch attempts exhausted", 1)
	require.Equal(t, DefaultMaxAttempts, h.messaging.Fetches())
	require.Equal(t, 0, h.clock.Pending())

	h.clock.Advance(time.Minute)
	h.sync()
	require.Equal(t, DefaultMaxAttempts, h.messaging.Fetches())
	require.Empty(t, h.surface.Invocations())
}

func TestFetchEmptyCredentialExhausted(t *testing.T) {

	h := newHarness(t, test.NewMessaging(test.FetchResult{}), nil)
	h.cfg.MaxAttempts = 1

	h.bridge.DeviceTokenReceived([]byte{0x01})

	h.waitLog("credential fetch attempts exhausted", 1)
	require.Equal(t, 1, h.messaging.Fetches())
	require.Equal(t, 1, h.logs.FilterMessage("credential is empty").Len())
	require.Equal(t, 0, h.clock.Pending())
}

func TestNewDeviceTokenRestartsCycle(t *testing.T) {

	h := newHarness(t, test.NewMessaging(
		test.FetchResult{Err: errFetch},
		test.FetchResult{Token: "fcm-2"},
	), nil)
	h.bridge.Initialize()

	h.bridge.DeviceTokenReceived([]byte{0x01})
	require.Eventually(t, func() bool { return h.clock.Pending() == 1 }, waitFor, time.Millisecond)

	h.bridge.DeviceTokenReceived([]byte{0x02})
	require.Eventually(t, func() bool { return h.surface.Count(bridge.MethodTokenReceived) == 1 }, waitFor, time.Millisecond)
	require.Equal(t, 0, h.clock.Pending())

	h.clock.Advance(time.Minute)
	h.sync()
	require.Equal(t, 2, h.messaging.Fetches())
}

func TestNoSurface(t *testing.T) {

	h := newHarness(t, test.NewMessaging(test.FetchResult{Token: "fcm-1"}), func(deps *Dependencies) {
		deps.Surface = nil
	})

	h.bridge.Initialize()
	h.bridge.DeviceTokenReceived([]byte{0x01})

	h.waitLog("no bridge channel, invocation dropped", 1)
	require.Equal(t, 1, h.logs.FilterMessage("no UI surface: bridge channel is not established").Len())
	require.Empty(t, h.surface.Invocations())
}

func TestCredentialRefreshed(t *testing.T) {

	h := newHarness(t, test.NewMessaging(), nil)
	h.bridge.Initialize()
	h.sync()

	token := "fcm-rotated"
	h.messaging.Refresh(&token)
	h.messaging.Refresh(nil)
	h.sync()

	require.Equal(t,
		[]*bridge.Invocation{
			{Method: "onFCMTokenRefreshed", Args: map[string]string{"token": "fcm-rotated"}},
		},
		h.surface.Invocations())
}

func TestNotificationTapped(t *testing.T) {

	h := newHarness(t, test.NewMessaging(), nil)
	h.bridge.Initialize()

	payload := notification.Payload{
		"aps":            map[string]interface{}{"alert": map[string]interface{}{"title": "Order", "body": "ready"}},
		"gcm.message_id": "0:1",
		"order":          "42",
	}

	completed := make(chan struct{}, 2)
	h.bridge.NotificationTapped(payload, func() { completed <- struct{}{} })
	h.bridge.NotificationTapped(notification.Payload{"bad": make(chan int)}, func() { completed <- struct{}{} })
	h.sync()

	require.Len(t, completed, 2)

	invocations := h.surface.Invocations()
	require.Len(t, invocations, 1)
	require.Equal(t, bridge.MethodNotificationTapped, invocations[0].Kind())

	decoded, err := notification.Decode(invocations[0].Args[bridge.ArgNotification])
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestForegroundNotification(t *testing.T) {

	h := newHarness(t, test.NewMessaging(), nil)
	h.bridge.Initialize()

	var got []notification.Presentation
	for _, os := range []int{17, 13} {
		h.bridge.ForegroundNotification(notification.Payload{"k": "v"}, os, func(p notification.Presentation) {
			got = append(got, p)
		})
	}
	h.sync()

	require.Equal(t,
		[]notification.Presentation{
			notification.PresentationBanner | notification.PresentationSound | notification.PresentationBadge,
			notification.PresentationAlert | notification.PresentationSound | notification.PresentationBadge,
		},
		got)
	require.Empty(t, h.surface.Invocations())
}

func TestSilentNotification(t *testing.T) {

	h := newHarness(t, test.NewMessaging(), nil)
	h.bridge.Initialize()

	var got []notification.FetchResult
	for _, payload := range []notification.Payload{
		nil,
		{},
		{"aps": map[string]interface{}{"content-available": float64(1)}, "gcm.message_id": "m-1"},
		{"aps": "garbage"},
	} {
		h.bridge.SilentNotification(payload, func(r notification.FetchResult) { got = append(got, r) })
	}
	h.sync()

	require.Equal(t,
		[]notification.FetchResult{
			notification.FetchResultNewData,
			notification.FetchResultNewData,
			notification.FetchResultNewData,
			notification.FetchResultNewData,
		},
		got)
	require.Equal(t, 1, h.logs.FilterMessage("silent notification: message").Len())
	require.Empty(t, h.surface.Invocations())
}

func TestRegistrationFailed(t *testing.T) {

	h := newHarness(t, test.NewMessaging(), nil)
	h.bridge.RegistrationFailed(errors.New("no valid aps-environment"))
	h.sync()

	require.Equal(t, 1, h.logs.FilterMessage("failed to register for remote notifications").Len())
	require.Equal(t, 0, h.messaging.Fetches())
	require.Empty(t, h.surface.Invocations())
}

func TestNewErrors(t *testing.T) {

	logger := zap.NewNop()
	svcMetric := metric.New()

	_, err := New(DefaultConfig(), nil, logger, svcMetric)
	require.Error(t, err)

	_, err = New(DefaultConfig(), &Dependencies{}, logger, svcMetric)
	require.EqualError(t, err, "registration: nil queue")

	_, err = New(&Config{ChannelName: "c", MaxAttempts: 0}, &Dependencies{}, logger, svcMetric)
	require.EqualError(t, err, "invalid `max-attempts`: 0")
}
