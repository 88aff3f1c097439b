package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingMessenger struct{}

func (failingMessenger) Send(string, []byte) error {
	return errors.New("surface detached")
}

func TestMethodNames(t *testing.T) {

	require.Equal(t, "onFCMTokenReceived", MethodTokenReceived.String())
	require.Equal(t, "onFCMTokenRefreshed", MethodTokenRefreshed.String())
	require.Equal(t, "onNotificationTapped", MethodNotificationTapped.String())
	require.Equal(t, "invalid bridge method: 42", Method(42).String())

	for _, name := range MethodStringKeys() {
		require.Equal(t, name, MethodByString(name).String())
	}
	require.Equal(t, MethodUnknown, MethodByString("onSomethingElse"))
}

func TestInvocationEncoding(t *testing.T) {

	data, err := NewInvocation(MethodTokenReceived, map[string]string{ArgToken: `tok"en`}).MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"method":"onFCMTokenReceived","args":{"token":"tok\"en"}}`, string(data))

	inv := &Invocation{}
	require.NoError(t, inv.UnmarshalJSON(data))
	require.Equal(t, MethodTokenReceived, inv.Kind())
	require.Equal(t, map[string]string{ArgToken: `tok"en`}, inv.Args)

	data, err = (&Invocation{Method: "m"}).MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"method":"m","args":null}`, string(data))

	require.Error(t, (&Invocation{}).UnmarshalJSON([]byte(`{"method":`)))
}

func TestMethodChannel(t *testing.T) {

	_, err := NewMethodChannel("", NewLoopback())
	require.Equal(t, ErrEmptyChannelName, err)

	_, err = NewMethodChannel("name", nil)
	require.Error(t, err)

	loopback := NewLoopback()
	ch, err := NewMethodChannel("com.flockbusiness/notifications", loopback)
	require.NoError(t, err)
	require.Equal(t, "com.flockbusiness/notifications", ch.Name())

	// no listener yet
	require.Error(t, ch.Invoke(MethodTokenRefreshed, map[string]string{ArgToken: "t"}))

	received := make([]*Invocation, 0)
	loopback.Listen(ch.Name(), func(inv *Invocation) { received = append(received, inv) })

	require.NoError(t, ch.Invoke(MethodTokenRefreshed, map[string]string{ArgToken: "t1"}))
	require.NoError(t, ch.Invoke(MethodNotificationTapped, map[string]string{ArgNotification: "{}"}))
	require.Equal(t,
		[]*Invocation{
			{Method: "onFCMTokenRefreshed", Args: map[string]string{ArgToken: "t1"}},
			{Method: "onNotificationTapped", Args: map[string]string{ArgNotification: "{}"}},
		},
		received)

	ch, err = NewMethodChannel("x", failingMessenger{})
	require.NoError(t, err)
	require.EqualError(t, ch.Invoke(MethodTokenReceived, nil), "bridge: send onFCMTokenReceived: surface detached")
}
