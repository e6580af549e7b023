// Package httpx maps the HTTP surface onto the roster service. The routes
// mirror the operations the roster manager exposes: create, list, join,
// leave, cancel, restore, delete, plus a per-match event stream.
package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frops/sportmanager/internal/domain"
	"github.com/frops/sportmanager/internal/service/roster"
	"github.com/frops/sportmanager/internal/ws"
	"github.com/frops/sportmanager/pkg/config"
)

// Router wires HTTP endpoints to the roster service.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	roster   roster.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter
	cfg      config.APIConfig
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitWrite     = 60
	rateLimitRead      = 240
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies. dbHealth may be nil when the
// store has no external backend.
func NewRouter(logger *slog.Logger, rosterSvc roster.Service, hub *ws.Hub, limiter RateLimiter, cfg config.APIConfig, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
		roster: rosterSvc,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		cfg:      cfg,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP applies the CORS policy and delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	headers := w.Header()
	headers.Set("Access-Control-Allow-Origin", "*")
	headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if req.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.HandleFunc("/matches", r.audit("/matches", r.handleMatches))
	r.mux.HandleFunc("/matches/", r.audit("/matches/{id}", r.handleMatchSubroutes))
	r.mux.HandleFunc("/ws/matches", r.audit("/ws/matches", r.withRateLimit("/ws/matches", rateLimitWebsocket, rateWindowRealtime, r.handleMatchEventsWS)))
	r.mux.Handle("/metrics", promhttp.Handler())
}

// matchResponse attaches the derived capacity state to a match snapshot.
type matchResponse struct {
	*domain.Match
	CapacityState domain.CapacityState `json:"capacityState"`
}

func matchPayload(m *domain.Match) matchResponse {
	return matchResponse{Match: m, CapacityState: m.CapacityState()}
}

// participantClaim is the identity claim carried on join and leave requests.
type participantClaim struct {
	Name       string `json:"name"`
	ExternalID *int64 `json:"externalId"`
}

func (r *Router) handleMatches(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.withRateLimit("/matches", rateLimitRead, rateWindowDefault, r.handleListMatches)(w, req)
	case http.MethodPost:
		r.withRateLimit("/matches", rateLimitWrite, rateWindowDefault, r.handleCreateMatch)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleListMatches(w http.ResponseWriter, req *http.Request) {
	matches, err := r.roster.List(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := make([]matchResponse, 0, len(matches))
	for i := range matches {
		payload = append(payload, matchPayload(&matches[i]))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) handleCreateMatch(w http.ResponseWriter, req *http.Request) {
	var input roster.CreateInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Omitted fields get the configured defaults; the core still rejects
	// anything invalid that makes it through.
	if strings.TrimSpace(input.VenueName) == "" {
		input.VenueName = r.cfg.DefaultVenueName
	}
	if input.MinPlayers == 0 {
		input.MinPlayers = r.cfg.DefaultMinPlayers
	}
	if input.MaxPlayers == 0 {
		input.MaxPlayers = r.cfg.DefaultMaxPlayers
	}
	match, err := r.roster.Create(req.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, matchPayload(match))
}

func (r *Router) handleMatchSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/matches/")
	parts := strings.Split(trimmed, "/")
	matchID := parts[0]
	if matchID == "" {
		r.notFound(w)
		return
	}
	switch {
	case len(parts) == 1:
		r.handleMatch(w, req, matchID)
	case len(parts) == 2:
		r.handleMatchAction(w, req, matchID, parts[1])
	default:
		r.notFound(w)
	}
}

func (r *Router) handleMatch(w http.ResponseWriter, req *http.Request, matchID string) {
	switch req.Method {
	case http.MethodGet:
		r.withRateLimit("/matches/{id}", rateLimitRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			match, err := r.roster.Get(req.Context(), matchID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, matchPayload(match))
		})(w, req)
	case http.MethodDelete:
		r.withRateLimit("/matches/{id}", rateLimitWrite, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			if err := r.roster.Delete(req.Context(), matchID); err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		})(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleMatchAction(w http.ResponseWriter, req *http.Request, matchID, action string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	route := "/matches/{id}/" + action
	r.withRateLimit(route, rateLimitWrite, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
		var match *domain.Match
		var err error
		switch action {
		case "join":
			claim, ok := decodeClaim(w, req)
			if !ok {
				return
			}
			match, err = r.roster.Join(req.Context(), matchID, claim.Name, claim.ExternalID)
		case "leave":
			claim, ok := decodeClaim(w, req)
			if !ok {
				return
			}
			match, err = r.roster.Leave(req.Context(), matchID, claim.Name, claim.ExternalID)
		case "cancel":
			match, err = r.roster.Cancel(req.Context(), matchID)
		case "restore":
			match, err = r.roster.Restore(req.Context(), matchID)
		default:
			r.notFound(w)
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matchPayload(match))
	})(w, req)
}

func decodeClaim(w http.ResponseWriter, req *http.Request) (participantClaim, bool) {
	var claim participantClaim
	if err := json.NewDecoder(req.Body).Decode(&claim); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return participantClaim{}, false
	}
	return claim, true
}

func (r *Router) handleMatchEventsWS(w http.ResponseWriter, req *http.Request) {
	matchID := req.URL.Query().Get("match_id")
	if matchID == "" {
		writeError(w, http.StatusBadRequest, "match_id query parameter required")
		return
	}
	if _, err := r.roster.Get(req.Context(), matchID); err != nil {
		writeDomainError(w, err)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(matchID, client)
	go func() {
		defer func() {
			r.hub.Unregister(matchID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := map[string]any{
		"store": map[string]any{"driver": r.cfg.StoreDriver},
	}
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
		r.recordRequestMetrics(req.Method, route, status, duration)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working behind the audit recorder.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
