package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/named-data/ndnplay/fetch"
	"github.com/named-data/ndnplay/std/log"
)

// RequestTypeHeader carries the player's request class.
const RequestTypeHeader = "X-Request-Type"

var manifestTypes = map[string]string{
	".mpd":  "application/dash+xml",
	".m3u8": "application/vnd.apple.mpegurl",
	".m4s":  "video/iso.segment",
}

// Server is the HTTP surface of a fetcher.
type Server struct {
	fetcher *fetch.Fetcher
	metrics *Metrics
	router  chi.Router
}

// NewServer creates the HTTP routes. metrics may be nil.
func NewServer(fetcher *fetch.Fetcher, metrics *Metrics) *Server {
	s := &Server{fetcher: fetcher, metrics: metrics}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)
	if metrics != nil {
		r.Use(metrics.RequestMiddleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler(func() {
			stats := fetcher.Diagnostics()
			metrics.SetQueue(stats.Queued, stats.Running)
		}))
	}
	r.Get("/ndn/*", s.getObject)
	r.Put("/fwhints", s.putFwHints)
	r.Post("/session/reset", s.resetSession)
	r.Get("/status", s.getStatus)

	s.router = r
	return s
}

func (s *Server) String() string {
	return "gateway-http"
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrap := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrap, r)
		log.Debug(s, "HTTP request", "method", r.Method, "path", r.URL.Path,
			"status", wrap.Status(), "bytes", wrap.BytesWritten(), "duration", time.Since(start))
	})
}

type errorBody struct {
	URI         string `json:"uri,omitempty"`
	Status      int    `json:"status"`
	Class       string `json:"class,omitempty"`
	Error       string `json:"error"`
	Recoverable bool   `json:"recoverable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug(nil, "Unable to write response", "err", err)
	}
}

// requestClass reads the class from the header, the type query or the name.
func requestClass(r *http.Request, uri string) fetch.RequestClass {
	if v := r.Header.Get(RequestTypeHeader); v != "" {
		return fetch.ParseRequestClass(v)
	}
	if v := r.URL.Query().Get("type"); v != "" {
		return fetch.ParseRequestClass(v)
	}
	return fetch.InferRequestClass(uri)
}

// getObject handles GET /ndn/*, the name of the object being the path.
func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	uri := "/" + chi.URLParam(r, "*")
	class := requestClass(r, uri)

	res, err := s.fetcher.Fetch(r.Context(), uri, class).Wait()
	if err != nil {
		var netErr *fetch.NetworkError
		switch {
		case fetch.IsCancelled(err):
			// client is gone
			log.Debug(s, "Request cancelled", "uri", uri)
		case errors.As(err, &netErr):
			writeJSON(w, netErr.StatusCode, errorBody{
				URI:         netErr.URI,
				Status:      netErr.StatusCode,
				Class:       netErr.Class.String(),
				Error:       netErr.Err.Error(),
				Recoverable: netErr.Recoverable(),
			})
		case errors.Is(err, fetch.ErrInvalidURI):
			writeJSON(w, http.StatusBadRequest, errorBody{URI: uri, Status: http.StatusBadRequest, Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody{URI: uri, Status: http.StatusInternalServerError, Error: err.Error()})
		}
		return
	}

	base := path.Base(uri)
	if ct, ok := manifestTypes[path.Ext(base)]; ok {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-NDN-Name", res.Name.String())
	w.Header().Set("X-NDN-Segments", strconv.Itoa(res.SegmentCount))
	w.Header().Set("X-NDN-Cached", strconv.FormatBool(res.Cached))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, base, time.Time{}, bytes.NewReader(res.Payload))
}

// putFwHints handles PUT /fwhints with a JSON object of prefix -> hint.
func (s *Server) putFwHints(w http.ResponseWriter, r *http.Request) {
	var mapping map[string]string
	if err := json.NewDecoder(r.Body).Decode(&mapping); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Status: http.StatusBadRequest, Error: err.Error()})
		return
	}
	if err := s.fetcher.UpdateForwardingHints(mapping); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fetch.ErrConfig) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorBody{Status: status, Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetSession(w http.ResponseWriter, _ *http.Request) {
	s.fetcher.ResetSession()
	w.WriteHeader(http.StatusNoContent)
}

type statusBody struct {
	SessionID  uint64  `json:"session_id"`
	Convention string  `json:"convention"`
	Version    string  `json:"version,omitempty"`
	Queued     int     `json:"queued"`
	Running    int     `json:"running"`
	Limit      int     `json:"limit"`
	SRTTMs     float64 `json:"srtt_ms"`
	RTTVarMs   float64 `json:"rttvar_ms"`
	RTOMs      float64 `json:"rto_ms"`
	Window     int     `json:"cwnd"`
	Algorithm  string  `json:"algorithm"`
	FwHints    int     `json:"fw_hints"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	d := s.fetcher.Diagnostics()
	writeJSON(w, http.StatusOK, statusBody{
		SessionID:  d.SessionID,
		Convention: d.Convention,
		Version:    d.Version,
		Queued:     d.Queued,
		Running:    d.Running,
		Limit:      d.Limit,
		SRTTMs:     ms(d.SRTT),
		RTTVarMs:   ms(d.RTTVar),
		RTOMs:      ms(d.RTO),
		Window:     d.Window,
		Algorithm:  d.Algorithm,
		FwHints:    d.FwHints,
	})
}
