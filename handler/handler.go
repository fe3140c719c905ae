package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"livechat-engine/internal/conversation"
	"livechat-engine/internal/domain"
)

const (
	correlationHeader = "X-Correlation-Id"
	maxBodyBytes      = 64 * 1024

	codeInvalidInput = "INVALID_INPUT"
	codeInternal     = "INTERNAL_ERROR"
)

// Engine is the part of the conversation engine the HTTP surface drives.
type Engine interface {
	Snapshot() conversation.State
	Shown(m domain.Message) bool
	Submit(ctx context.Context, ev conversation.Event) error
}

type Handler struct {
	engine Engine
	logger *slog.Logger
}

type stateResponse struct {
	conversation.State
	Phase       domain.Phase    `json:"phase"`
	LastMessage *domain.Message `json:"lastMessage,omitempty"`
}

type acceptedResponse struct {
	Accepted string `json:"accepted"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type chatRequest struct {
	Open *bool `json:"open"`
}

type sendRequest struct {
	Text string             `json:"text"`
	File *domain.Attachment `json:"file,omitempty"`
}

func NewHandler(engine Engine, logger *slog.Logger) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("handler: engine must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}, nil
}

// Routes builds the local HTTP surface: state reads, user actions and metrics.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(correlationID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.health)
	r.Get("/state", h.state)

	r.Group(func(r chi.Router) {
		r.Use(limitBody)

		r.Post("/chat", h.setChatOpen)
		r.Post("/messages", h.sendMessage)
		r.Post("/fullscreen/toggle", h.submit(func() conversation.Event { return conversation.ToggleFullscreen{} }))
		r.Post("/typing", h.submit(func() conversation.Event { return conversation.NotifyTyping{} }))
		r.Post("/history/next", h.submit(func() conversation.Event { return conversation.RequestNextPage{} }))
		r.Post("/engagement/close", h.submit(func() conversation.Event { return conversation.CloseChat{} }))
		r.Post("/personalization/open", h.submit(func() conversation.Event { return conversation.OpenPersonalizationForm{} }))
		r.Post("/personalization/close", h.submit(func() conversation.Event { return conversation.ClosePersonalizationForm{} }))
		r.Post("/thank-you/hide", h.submit(func() conversation.Event { return conversation.HideThankYou{} }))
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) state(w http.ResponseWriter, _ *http.Request) {
	st := h.engine.Snapshot()
	resp := stateResponse{State: st, Phase: st.Phase()}
	if last, ok := st.LastShownMessage(h.engine.Shown); ok {
		resp.LastMessage = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) setChatOpen(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Open == nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "open_required")
		return
	}
	h.accept(w, r, conversation.SetChatOpen{Open: *req.Open})
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid_json")
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.File == nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "empty_message")
		return
	}
	h.accept(w, r, conversation.SendMessage{Text: req.Text, File: req.File})
}

func (h *Handler) submit(build func() conversation.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.accept(w, r, build())
	}
}

// accept queues ev and answers 202; the effect shows up in later snapshots.
func (h *Handler) accept(w http.ResponseWriter, r *http.Request, ev conversation.Event) {
	if err := h.engine.Submit(r.Context(), ev); err != nil {
		status, code, reason := http.StatusInternalServerError, codeInternal, ""
		var convErr *conversation.Error
		if errors.As(err, &convErr) {
			code, reason = string(convErr.Code), convErr.Reason
			if convErr.Code == conversation.ErrorStopped {
				status = http.StatusServiceUnavailable
			}
		}
		h.logger.Warn("action rejected",
			"action", ev.Name(),
			"correlation_id", w.Header().Get(correlationHeader),
			"err", err,
		)
		writeError(w, status, code, reason)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Accepted: ev.Name()})
}

// correlationID echoes the caller's correlation id or assigns a new one.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(correlationHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, reason string) {
	writeJSON(w, status, errorResponse{Error: code, Reason: reason})
}
