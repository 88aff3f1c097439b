package service

import (
	"net/http"
	"sync"

	"github.com/flockbusiness/flock-push-bridge/pkg/bridge"
	"github.com/flockbusiness/flock-push-bridge/pkg/transport"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrNoListeners = errors.New("no bridge listeners connected")

// listeners is the UI surface of the development host: the cross-platform
// layer connects over a websocket and receives every bridge message of the
// channel it subscribed to as a text frame.
type listeners struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id      string
	channel string
	conn    *websocket.Conn
	mu      sync.Mutex
}

func newListeners(logger *zap.Logger) *listeners {
	return &listeners{
		logger:   logger.With(zap.String("component", "listeners")),
		sessions: make(map[string]*session),
	}
}

func (l *listeners) Messenger() bridge.Messenger {
	return l
}

func (l *listeners) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.sessions)
}

func (l *listeners) Send(channel string, message []byte) error {

	l.mu.RLock()
	targets := make([]*session, 0, len(l.sessions))
	for _, s := range l.sessions {
		if s.channel == channel {
			targets = append(targets, s)
		}
	}
	l.mu.RUnlock()

	if len(targets) == 0 {
		return ErrNoListeners
	}

	l.logger.Debug("bridge message",
		zap.String("channel", channel),
		zap.Int("listeners", len(targets)),
		zap.ByteString("message", transport.MaskJSON(message)))

	var lastErr error
	delivered := 0
	for _, s := range targets {
		s.mu.Lock()
		err := s.conn.WriteMessage(websocket.TextMessage, message)
		s.mu.Unlock()

		if err != nil {
			l.logger.Error("write to listener", zap.String("session", s.id), zap.Error(err))
			lastErr = err
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return errors.Wrap(lastErr, "bridge listeners")
	}

	return nil
}

// ServeHTTP upgrades GET /bridge?channel=<name> to a listener session.
func (l *listeners) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	channel := r.URL.Query().Get("channel")
	if len(channel) == 0 {
		http.Error(w, "missing channel", http.StatusBadRequest)
		return
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Error("upgrade", zap.Error(err))
		return
	}

	s := &session{id: uuid.NewString(), channel: channel, conn: conn}
	logger := l.logger.With(zap.String("session", s.id), zap.String("channel", channel))

	l.mu.Lock()
	l.sessions[s.id] = s
	l.mu.Unlock()
	logger.Info("listener connected")

	defer func() {
		l.mu.Lock()
		delete(l.sessions, s.id)
		l.mu.Unlock()

		_ = conn.Close()
		logger.Info("listener disconnected")
	}()

	// listeners never send; reading only detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (l *listeners) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, s := range l.sessions {
		_ = s.conn.Close()
		delete(l.sessions, id)
	}

	return nil
}
