package service

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/flockbusiness/flock-push-bridge/pkg/bridge"
	"github.com/flockbusiness/flock-push-bridge/pkg/info"
	"github.com/flockbusiness/flock-push-bridge/pkg/notification"
	"github.com/flockbusiness/flock-push-bridge/pkg/registration"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sideshow/apns2/payload"
	"go.uber.org/zap"
)

const completionTimeout = 5 * time.Second

var errCompletionTimeout = errors.New("bridge did not complete in time")

type notificationRequest struct {
	Title            string                 `json:"title"`
	Body             string                 `json:"body"`
	Sound            string                 `json:"sound"`
	Badge            *int                   `json:"badge"`
	ContentAvailable bool                   `json:"content-available"`
	Data             map[string]interface{} `json:"data"`
}

// payload assembles the user info dictionary the OS would deliver for an
// APNs notification with these fields.
func (r *notificationRequest) payload() (notification.Payload, error) {

	p := payload.NewPayload()
	if len(r.Title) > 0 {
		p.AlertTitle(r.Title)
	}
	if len(r.Body) > 0 {
		p.AlertBody(r.Body)
	}
	if len(r.Sound) > 0 {
		p.Sound(r.Sound)
	}
	if r.Badge != nil {
		p.Badge(*r.Badge)
	}
	if r.ContentAvailable {
		p.ContentAvailable()
	}
	for k, v := range r.Data {
		p.Custom(k, v)
	}

	data, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return notification.Decode(string(data))
}

type handlers struct {
	bridge    *registration.Bridge
	listeners *listeners
	channel   string
	osVersion int
	logger    *zap.Logger
}

func newRouter(h *handlers) http.Handler {

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/info", h.info).Methods(http.MethodGet)
	r.Handle("/bridge", h.listeners).Methods(http.MethodGet)

	debug := r.PathPrefix("/debug").Subrouter()
	debug.HandleFunc("/device-token", h.deviceToken).Methods(http.MethodPost)
	debug.HandleFunc("/registration-failure", h.registrationFailure).Methods(http.MethodPost)
	debug.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)
	debug.HandleFunc("/notifications/{kind}", h.notification).Methods(http.MethodPost)

	return r
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (h *handlers) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"build":     info.New("push-bridge"),
		"channel":   h.channel,
		"methods":   bridge.MethodStringKeys(),
		"listeners": h.listeners.Count(),
	})
}

func (h *handlers) deviceToken(w http.ResponseWriter, r *http.Request) {

	req := &struct {
		Token string `json:"token"`
	}{}
	if !readJSON(w, r, req) {
		return
	}

	token, err := notification.ParseDeviceToken(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.bridge.DeviceTokenReceived(token)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) registrationFailure(w http.ResponseWriter, r *http.Request) {

	req := &struct {
		Error string `json:"error"`
	}{}
	if !readJSON(w, r, req) {
		return
	}

	if len(req.Error) == 0 {
		req.Error = "registration failed"
	}

	h.bridge.RegistrationFailed(errors.New(req.Error))
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {

	req := &struct {
		Token *string `json:"token"`
	}{}
	if !readJSON(w, r, req) {
		return
	}

	h.bridge.CredentialRefreshed(req.Token)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) notification(w http.ResponseWriter, r *http.Request) {

	req := &notificationRequest{}
	if !readJSON(w, r, req) {
		return
	}

	p, err := req.payload()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	done := make(chan map[string]interface{}, 1)

	switch kind := mux.Vars(r)["kind"]; kind {
	case "foreground":
		h.bridge.ForegroundNotification(p, h.osVersion, func(opts notification.Presentation) {
			done <- map[string]interface{}{"presentation": opts.String()}
		})
	case "tapped":
		h.bridge.NotificationTapped(p, func() {
			done <- map[string]interface{}{"completed": true}
		})
	case "silent":
		h.bridge.SilentNotification(p, func(res notification.FetchResult) {
			done <- map[string]interface{}{"result": res.String()}
		})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown notification kind: "+kind))
		return
	}

	select {
	case res := <-done:
		writeJSON(w, http.StatusOK, res)
	case <-time.After(completionTimeout):
		h.logger.Error("notification", zap.Error(errCompletionTimeout))
		writeError(w, http.StatusGatewayTimeout, errCompletionTimeout)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "request body"))
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
