package bridge

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrEmptyChannelName = errors.New("bridge: empty channel name")

// Messenger is the transport of the active UI surface. Send delivers one
// encoded message to the listener bound to channel.
type Messenger interface {
	Send(channel string, message []byte) error
}

// MethodChannel encodes invocations and sends them over a messenger under a
// single channel name.
type MethodChannel struct {
	name      string
	messenger Messenger
}

func NewMethodChannel(name string, messenger Messenger) (*MethodChannel, error) {

	if len(name) == 0 {
		return nil, ErrEmptyChannelName
	} else if messenger == nil {
		return nil, errors.New("bridge: nil messenger")
	}

	return &MethodChannel{
		name:      name,
		messenger: messenger,
	}, nil
}

func (c *MethodChannel) Name() string {
	return c.name
}

func (c *MethodChannel) Invoke(method Method, args map[string]string) error {

	data, err := NewInvocation(method, args).MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "bridge: encode "+method.String())
	}

	if err := c.messenger.Send(c.name, data); err != nil {
		return errors.Wrap(err, "bridge: send "+method.String())
	}

	return nil
}

// Loopback is an in-process messenger. Every message is decoded and handed
// to the listener registered for its channel, in send order.
type Loopback struct {
	mu        sync.Mutex
	listeners map[string]func(*Invocation)
}

func NewLoopback() *Loopback {
	return &Loopback{
		listeners: make(map[string]func(*Invocation)),
	}
}

func (l *Loopback) Listen(channel string, fn func(*Invocation)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fn == nil {
		delete(l.listeners, channel)
		return
	}

	l.listeners[channel] = fn
}

func (l *Loopback) Send(channel string, message []byte) error {

	inv := &Invocation{}
	if err := inv.UnmarshalJSON(message); err != nil {
		return errors.Wrap(err, "loopback: decode")
	}

	l.mu.Lock()
	fn, ok := l.listeners[channel]
	l.mu.Unlock()

	if !ok {
		return errors.New("loopback: no listener on channel " + channel)
	}

	fn(inv)
	return nil
}
