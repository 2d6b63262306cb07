// Package api exposes the DDQ answering pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fabfab/ddq-agent/ddq"
	"github.com/fabfab/ddq-agent/docgen"
	"github.com/fabfab/ddq-agent/llm"
)

// AnswerService is the pipeline behind POST /v1/answer.
type AnswerService interface {
	Answer(ctx context.Context, req ddq.Request) (ddq.Response, error)
}

// Server routes HTTP requests to the answer pipeline. A nil service means
// initialization failed at startup; every request is then rejected with
// 503 rather than re-attempting initialization per request.
type Server struct {
	svc     AnswerService
	apiKey  string
	logger  *log.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type answerRequest struct {
	Prompt   string           `json:"prompt"`
	History  []historyMessage `json:"history"`
	Template string           `json:"template"`
}

type answerResponse struct {
	AIResponse       string   `json:"ai_response"`
	Sources          []string `json:"sources"`
	DocumentURL      string   `json:"document_url"`
	RequestID        string   `json:"request_id"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
}

type templatesResponse struct {
	Templates []string `json:"templates"`
}

// New constructs a Server. apiKey enables the shared-secret header check
// when non-empty.
func New(svc AnswerService, apiKey string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{svc: svc, apiKey: apiKey, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/answer", s.handleAnswer)
	mux.HandleFunc("/v1/templates", s.handleTemplates)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, templatesResponse{Templates: docgen.Names()})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	start := time.Now()
	requestID := newRequestID()

	if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
		s.logger.Printf("request %s: invalid or missing API key", requestID)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if s.svc == nil {
		s.logger.Printf("request %s: answer service unavailable due to initialization failure", requestID)
		http.Error(w, "Internal Server Error: answer service unavailable.", http.StatusServiceUnavailable)
		return
	}

	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	s.logger.Printf("request %s: received prompt: %s", requestID, clip(req.Prompt, 50))

	history := make([]llm.Message, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	resp, err := s.svc.Answer(r.Context(), ddq.Request{
		Prompt:   req.Prompt,
		History:  history,
		Template: req.Template,
	})
	if err != nil {
		s.answerError(w, requestID, err)
		return
	}

	elapsed := time.Since(start).Milliseconds()
	s.logger.Printf("request %s: prompt length %d, sources %d, response length %d, processing time %dms",
		requestID, len(req.Prompt), len(resp.Sources), len(resp.Answer), elapsed)

	sources := resp.Sources
	if sources == nil {
		sources = []string{}
	}

	s.writeJSON(w, http.StatusOK, answerResponse{
		AIResponse:       resp.Answer,
		Sources:          sources,
		DocumentURL:      resp.DocumentURL,
		RequestID:        requestID,
		ProcessingTimeMS: elapsed,
	})
}

// answerError maps pipeline error categories to HTTP statuses without
// leaking upstream error bodies to the caller.
func (s *Server) answerError(w http.ResponseWriter, requestID string, err error) {
	s.logger.Printf("request %s: %v", requestID, err)

	switch {
	case errors.Is(err, ddq.ErrValidation):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ddq.ErrRetrievalUnavailable):
		http.Error(w, "Internal Server Error: search service unavailable.", http.StatusServiceUnavailable)
	case errors.Is(err, ddq.ErrSynthesis):
		http.Error(w, "Internal Server Error: failed to get response from AI model.", http.StatusInternalServerError)
	case errors.Is(err, ddq.ErrUpload):
		http.Error(w, "Internal Server Error: failed to archive response document.", http.StatusInternalServerError)
	default:
		http.Error(w, "Internal Server Error: an unexpected error occurred.", http.StatusInternalServerError)
	}
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}

func newRequestID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return time.Now().UTC().Format("20060102150405") + "-" + suffix
}

func clip(text string, max int) string {
	if text == "" {
		return "<empty>"
	}
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
