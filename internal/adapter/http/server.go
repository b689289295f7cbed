package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"qutebrowser-agent/internal/application/port/input"
	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

const (
	MessageImageUploaded  = "Image uploaded successfully"
	MessageSessionStopped = "Session stopped successfully"
)

type Config struct {
	// MaxImageBytes caps uploaded image bodies.
	MaxImageBytes int64
	// RequestLogging enables per-request access logs.
	RequestLogging bool
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func DefaultConfig() Config {
	return Config{
		MaxImageBytes:  20 << 20,
		RequestLogging: true,
	}
}

type Server struct {
	sessions      input.SessionService
	logger        output.LoggerPort
	maxImageBytes int64
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Response string `json:"response"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer exposes the session operations over HTTP.
func NewServer(sessions input.SessionService, logger output.LoggerPort, cfg Config) http.Handler {
	s := &Server{
		sessions:      sessions,
		logger:        logger,
		maxImageBytes: cfg.MaxImageBytes,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.RequestLogging {
		r.Use(httplog.RequestLogger(httplog.NewLogger("qutebrowser-agent", httplog.Options{
			JSON:    true,
			Concise: true,
		})))
	}

	r.Get("/healthz", s.handleHealthz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleStopSession)
			r.Post("/messages", s.handleSendMessage)
			r.Post("/images", s.handleUploadImage)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.CreateSession()
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	// A started run always completes, even if the client goes away.
	ctx := context.WithoutCancel(r.Context())

	response, err := s.sessions.SendMessage(ctx, id, req.Message)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{Response: response})
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "image body is empty")
		return
	}

	if err := s.sessions.UploadImage(id, data); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: MessageImageUploaded})
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.sessions.StopSession(id); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: MessageSessionStopped})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if s.logger != nil {
		s.logger.Error("Request failed", "error", err)
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
