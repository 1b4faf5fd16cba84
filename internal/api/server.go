// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tamzrod/calpoller/internal/attr"
	"github.com/tamzrod/calpoller/internal/catalog"
	"github.com/tamzrod/calpoller/internal/device"
	"github.com/tamzrod/calpoller/internal/journal"
	"github.com/tamzrod/calpoller/internal/status"
)

// Device is what the API reads from and commands on one device.
type Device interface {
	ID() string
	Type() catalog.Type
	Mode() status.Mode
	Health() status.Snapshot
	Attributes() []attr.Value

	StartZeroCalibration(ctx context.Context, target float64) error
	StartSpanCalibration(ctx context.Context, target float64) error
	StopCalibration(ctx context.Context) error
	DefaultTarget(key catalog.GuardKey) (float64, error)
}

// EventSource serves journaled events.
type EventSource interface {
	Recent(ctx context.Context, deviceID string, limit int) ([]journal.Event, error)
}

const maxBody = 1 << 16

// commandTimeout bounds one calibration write sequence.
const commandTimeout = 30 * time.Second

// Server exposes device state, calibration commands and /metrics.
type Server struct {
	mux     *http.ServeMux
	devices map[string]Device
	order   []string
	events  EventSource
	log     zerolog.Logger
}

// New builds the handler tree. events and gatherer may be nil.
func New(devices []Device, events EventSource, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		devices: make(map[string]Device, len(devices)),
		events:  events,
		log:     log,
	}
	for _, d := range devices {
		s.devices[d.ID()] = d
		s.order = append(s.order, d.ID())
	}

	s.mux.HandleFunc("GET /api/devices", s.handleList)
	s.mux.HandleFunc("GET /api/devices/{id}", s.handleGet)
	s.mux.HandleFunc("GET /api/devices/{id}/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/devices/{id}/calibration/stop", s.handleStop)
	s.mux.HandleFunc("POST /api/devices/{id}/calibration/{kind}", s.handleStart)
	if gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ---- views ----

type healthView struct {
	Health              string    `json:"health"`
	SuccessCount        int       `json:"success_count"`
	TotalCount          int       `json:"total_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastPoll            time.Time `json:"last_poll,omitempty"`
	LastSuccess         time.Time `json:"last_success,omitempty"`
}

type deviceView struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Mode       string       `json:"mode"`
	Health     healthView   `json:"health"`
	Attributes []attr.Value `json:"attributes,omitempty"`
}

func healthName(h uint16) string {
	switch h {
	case status.HealthOK:
		return "ok"
	case status.HealthDegraded:
		return "degraded"
	case status.HealthError:
		return "error"
	default:
		return "unknown"
	}
}

func view(d Device, withAttributes bool) deviceView {
	h := d.Health()
	v := deviceView{
		ID:   d.ID(),
		Type: d.Type().Name,
		Mode: d.Mode().String(),
		Health: healthView{
			Health:              healthName(h.Health),
			SuccessCount:        h.SuccessCount,
			TotalCount:          h.TotalCount,
			ConsecutiveFailures: h.ConsecutiveFailures,
			LastPoll:            h.LastPoll,
			LastSuccess:         h.LastSuccess,
		},
	}
	if withAttributes {
		v.Attributes = d.Attributes()
	}
	return v
}

// ---- handlers ----

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	out := make([]deviceView, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, view(s.devices[id], false))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, view(d, true))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.events == nil {
		s.writeError(w, http.StatusNotFound, errors.New("journal disabled"))
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	evs, err := s.events.Recent(r.Context(), d.ID(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if evs == nil {
		evs = []journal.Event{}
	}
	s.writeJSON(w, http.StatusOK, evs)
}

type startRequest struct {
	Target *float64 `json:"target"`
}

type commandResponse struct {
	Device  string  `json:"device"`
	Command string  `json:"command"`
	Target  float64 `json:"target,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	key, err := device.ParseGuardKey(r.PathValue("kind"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	var req startRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	target := 0.0
	if req.Target != nil {
		target = *req.Target
	} else if target, err = d.DefaultTarget(key); err != nil {
		s.writeCommandError(w, err)
		return
	}

	ctx, cancel := commandContext(r)
	defer cancel()

	if key == catalog.GuardZero {
		err = d.StartZeroCalibration(ctx, target)
	} else {
		err = d.StartSpanCalibration(ctx, target)
	}
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	s.log.Info().Str("device", d.ID()).Str("calibration", string(key)).Float64("target", target).Msg("calibration started via api")
	s.writeJSON(w, http.StatusAccepted, commandResponse{Device: d.ID(), Command: string(key), Target: target})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ctx, cancel := commandContext(r)
	defer cancel()

	if err := d.StopCalibration(ctx); err != nil {
		s.writeCommandError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, commandResponse{Device: d.ID(), Command: "stop"})
}

// ---- helpers ----

// commandContext outlives the client connection: a write sequence that has
// started must not stop half way because the caller went away.
func commandContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), commandTimeout)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (Device, bool) {
	id := r.PathValue("id")
	d, ok := s.devices[id]
	if !ok {
		s.writeError(w, http.StatusNotFound, errors.New("unknown device "+strconv.Quote(id)))
	}
	return d, ok
}

func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	if errors.Is(err, device.ErrCalibrationUnsupported) {
		code = http.StatusConflict
	}
	s.writeError(w, code, err)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("api: encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

// readJSON decodes an optional body; an empty body leaves v untouched.
func (s *Server) readJSON(r *http.Request, v any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}
