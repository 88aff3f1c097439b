package service

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flockbusiness/flock-push-bridge/pkg/messaging"
	"github.com/flockbusiness/flock-push-bridge/pkg/messaging/iid"
	"github.com/flockbusiness/flock-push-bridge/pkg/metric"
	"github.com/flockbusiness/flock-push-bridge/pkg/queue"
	"github.com/flockbusiness/flock-push-bridge/pkg/registration"
	"github.com/flockbusiness/flock-push-bridge/pkg/verify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = time.Second

// Service is the development host: it runs the push registration bridge
// against a simulated OS and exposes it over HTTP.
type Service struct {
	bridge        *registration.Bridge
	queue         *queue.Queue
	listeners     *listeners
	handler       http.Handler
	logger        *zap.Logger
	adminPort     string
	ctxDone       context.Context
	ctxDoneCancel func()
}

func New(cfg *viper.Viper, logger *zap.Logger) (*Service, error) {

	c, err := NewConfig(cfg)
	if err != nil {
		return nil, err
	}

	var svcMessaging messaging.Service
	if c.IID != nil {
		svcMessaging, err = iid.New(c.IID)
		if err != nil {
			return nil, err
		}
		logger.Info("messaging", zap.String("backend", "iid"), zap.String("application", c.IID.Application))
	} else {
		svcMessaging = messaging.NewLocal(c.Host.FailFetches)
		logger.Info("messaging", zap.String("backend", "local"))
	}

	var verifier registration.Verifier
	if c.Verify != nil {
		v, err := verify.New(c.Verify)
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	mainQueue := queue.New(queue.SystemClock())
	svcListeners := newListeners(logger)
	os := &simulatedOS{cfg: c.Host}

	bridge, err := registration.New(
		c.Registration,
		&registration.Dependencies{
			Queue:      mainQueue,
			Messaging:  svcMessaging,
			Authorizer: os,
			Registrar:  os,
			Surface:    svcListeners,
			Verifier:   verifier,
		},
		logger,
		metric.New())
	if err != nil {
		return nil, err
	}

	os.bind(bridge.DeviceTokenReceived, bridge.RegistrationFailed)

	ctxDone, ctxDoneCancel := context.WithCancel(context.Background())

	return &Service{
		bridge:    bridge,
		queue:     mainQueue,
		listeners: svcListeners,
		handler: newRouter(&handlers{
			bridge:    bridge,
			listeners: svcListeners,
			channel:   c.Registration.ChannelName,
			osVersion: c.Host.OSVersion,
			logger:    logger,
		}),
		logger:        logger,
		adminPort:     c.AdminPort,
		ctxDone:       ctxDone,
		ctxDoneCancel: ctxDoneCancel,
	}, nil
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) Close() error {
	s.ctxDoneCancel()
	return nil
}

// Run serves the admin router and the main queue until Close is called or
// one of them fails.
func (s *Service) Run() error {

	var wgQueue, wgAdminSvc sync.WaitGroup

	retval := make(chan error, 2)

	wgQueue.Add(1)
	go func() {
		defer wgQueue.Done()

		err := s.queue.Run(s.ctxDone)
		if err != nil && err != context.Canceled {
			s.logger.Error("main queue stopped", zap.Error(err))
		}
		retval <- err
	}()

	adminSvc := &http.Server{
		Addr:    net.JoinHostPort("0.0.0.0", s.adminPort),
		Handler: s.handler,
	}
	defer func() {
		if err := s.bridge.Close(); err != nil {
			s.logger.Error("close bridge", zap.Error(err))
		}
		s.listeners.Close()
		s.queue.Close()
		wgQueue.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := adminSvc.Shutdown(ctx); err != nil {
			s.logger.Error("close admin service", zap.Error(err))
		}
		wgAdminSvc.Wait()
	}()

	wgAdminSvc.Add(1)
	go func() {
		defer wgAdminSvc.Done()

		err := adminSvc.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("admin router closed", zap.Error(err))
		}
		retval <- err
	}()

	s.bridge.Initialize()

	return <-retval
}
