// Temimi Realtime - Messaging and Danmu Synchronization Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/temimi-realtime

package status

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/temimi-realtime/internal/app"
	"github.com/tomtom215/temimi-realtime/internal/config"
	"github.com/tomtom215/temimi-realtime/internal/logging"
	"github.com/tomtom215/temimi-realtime/internal/metrics"
	"github.com/tomtom215/temimi-realtime/internal/models"
	"github.com/tomtom215/temimi-realtime/internal/realtime"
)

// Error codes used in status responses.
const (
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// StateSource supplies the client state. *app.App satisfies it.
type StateSource interface {
	Snapshot() app.State
}

// BreakerSource reports the REST circuit breaker state. *api.Client
// satisfies it.
type BreakerSource interface {
	BreakerState() string
}

// StateView is the /state payload.
type StateView struct {
	app.State
	Breaker       string `json:"breaker,omitempty"`
	StreamClients int    `json:"stream_clients"`
}

// Health is the /healthz payload.
type Health struct {
	Authenticated bool   `json:"authenticated"`
	Messaging     string `json:"messaging"`
	Danmu         string `json:"danmu"`
	Breaker       string `json:"breaker,omitempty"`
}

// Server is the local status surface.
type Server struct {
	cfg      config.StatusConfig
	state    StateSource
	breaker  BreakerSource
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer creates the surface. breaker may be nil.
func NewServer(cfg *config.StatusConfig, state StateSource, breaker BreakerSource, hub *Hub) *Server {
	s := &Server{
		cfg:     *cfg,
		state:   state,
		breaker: breaker,
		hub:     hub,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      s.checkOrigin,
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))
	r.Use(recordRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitRequests > 0 {
			r.Use(httprate.Limit(
				s.cfg.RateLimitRequests,
				s.cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					respondError(w, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded")
				}),
			))
		}
		r.Get("/state", s.handleState)
		r.Get("/ws", s.handleStream)
	})

	return r
}

func (s *Server) breakerState() string {
	if s.breaker == nil {
		return ""
	}
	return s.breaker.BreakerState()
}

func (s *Server) view() StateView {
	return StateView{
		State:         s.state.Snapshot(),
		Breaker:       s.breakerState(),
		StreamClients: s.hub.ClientCount(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.state.Snapshot()
	h := Health{
		Authenticated: st.Session.Authenticated,
		Messaging:     realtime.StateClosed.String(),
		Danmu:         realtime.StateClosed.String(),
		Breaker:       s.breakerState(),
	}
	for _, ch := range st.Channels {
		switch ch.Kind {
		case realtime.Messaging.String():
			h.Messaging = ch.State.String()
		case realtime.Danmu.String():
			h.Danmu = ch.State.String()
		}
	}
	respondJSON(w, http.StatusOK, h)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.view())
}

// handleStream upgrades to a websocket that receives the current state
// followed by every change and notice.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Status stream upgrade failed")
		return
	}

	c := NewClient(s.hub, conn)
	c.Queue(Message{Type: MessageTypeState, Data: s.view()})
	if !s.hub.Register(r.Context(), c) {
		_ = conn.Close()
		return
	}
	c.Start()
}

// checkOrigin accepts requests without an Origin header, which local tools
// omit, and browser origins on the CORS allow list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", logging.RedactURL(origin)).Msg("Status stream rejected from unlisted origin")
	return false
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func writeResponse(w http.ResponseWriter, status int, resp models.APIResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode status response")
		http.Error(w, `{"status":"error","error":{"code":"`+ErrCodeInternalError+`"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// requestIDWithLogging wraps chi's RequestID and carries the id into the
// logging context as the correlation id.
func requestIDWithLogging(next http.Handler) http.Handler {
	return chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimiddleware.GetReqID(r.Context())
		ctx := logging.ContextWithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// recordRequests counts requests by route pattern and status.
func recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		metrics.RecordStatusRequest(r.Method, route, code)
	})
}
