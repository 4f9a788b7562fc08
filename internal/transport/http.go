package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rajchodisetti/quote-gateway/internal/gate"
	"github.com/Rajchodisetti/quote-gateway/internal/observ"
	"github.com/Rajchodisetti/quote-gateway/internal/quotes"
	"github.com/Rajchodisetti/quote-gateway/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the gateway's inbound HTTP API.
type Handler struct {
	gate    *gate.Gate
	service *quotes.Service
	manager *session.Manager
	now     func() time.Time
}

// NewHandler wires the admission gate, orchestrator and session manager into
// an http.Handler.
func NewHandler(g *gate.Gate, service *quotes.Service, manager *session.Manager) http.Handler {
	h := &Handler{gate: g, service: service, manager: manager, now: time.Now}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleHome)
	mux.HandleFunc("/price/", h.handlePrice)
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.Handle("/metrics", observ.Handler())

	return recoverPanic(mux)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("quote gateway is running"))
}

func (h *Handler) handlePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.gate.Admit(credential(r), h.now()); err != nil {
		writeError(w, err)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/price/")
	symbols := strings.Split(raw, ",")

	result, err := h.service.GetPrices(r.Context(), symbols)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.manager.EnsureReady(r.Context())

	state := h.manager.State()
	status := http.StatusOK
	if state != session.StateReady {
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "session %s", state)
}

// credential extracts the gate credential from the Authorization header
// (with or without a Bearer prefix) or the token query parameter.
func credential(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(quotes.KindOf(err)), errorResponse{Error: err.Error()})
}

func statusFor(kind quotes.Kind) int {
	switch kind {
	case quotes.KindUnauthorized:
		return http.StatusUnauthorized
	case quotes.KindRateLimited:
		return http.StatusTooManyRequests
	case quotes.KindInvalidRequest:
		return http.StatusBadRequest
	case quotes.KindNoData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				observ.Log("handler_panic", map[string]any{"path": r.URL.Path, "panic": fmt.Sprint(rec)})
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
