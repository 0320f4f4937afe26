package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/ingest"
)

// ChatService is the conversational surface the API exposes.
type ChatService interface {
	Chat(ctx context.Context, userId string, message string) string
	Analysis(ctx context.Context, userId string) string
	StoreResults(ctx context.Context, userId string, records []bloodtest.Record) error
}

// IngestRunner processes one uploaded attachment into structured results.
type IngestRunner interface {
	RunPayload(ctx context.Context, filename string, payload string) (*ingest.Result, error)
}

type Handler struct {
	service ChatService
	runner  IngestRunner
	logger  *slog.Logger
}

type chatRequest struct {
	UserId  string `json:"userId"`
	Message string `json:"message"`
}

type analysisRequest struct {
	UserId string `json:"userId"`
}

type ingestRequest struct {
	UserId   string `json:"userId"`
	Filename string `json:"filename"`
	Payload  string `json:"payload"`
}

type responseBody struct {
	Response string `json:"response"`
}

type errorBody struct {
	Error string `json:"error"`
}

type ingestErrorBody struct {
	Error            string             `json:"error"`
	BloodTestResults []bloodtest.Record `json:"bloodTestResults"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	if len(strings.TrimSpace(req.UserId)) == 0 || len(strings.TrimSpace(req.Message)) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "userId and message are required"})
		return
	}

	answer := h.service.Chat(r.Context(), req.UserId, req.Message)

	writeJSON(w, http.StatusOK, responseBody{Response: answer})
}

func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	if len(strings.TrimSpace(req.UserId)) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "userId is required"})
		return
	}

	answer := h.service.Analysis(r.Context(), req.UserId)

	writeJSON(w, http.StatusOK, responseBody{Response: answer})
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	if len(strings.TrimSpace(req.UserId)) == 0 || len(strings.TrimSpace(req.Payload)) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "userId and payload are required"})
		return
	}

	result, err := h.runner.RunPayload(r.Context(), req.Filename, req.Payload)
	if err != nil {
		h.logger.Warn("ingestion failed", "user", req.UserId, "filename", req.Filename, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, ingestErrorBody{
			Error:            err.Error(),
			BloodTestResults: []bloodtest.Record{},
		})
		return
	}

	if len(result.BloodTestResults) > 0 {
		if err := h.service.StoreResults(r.Context(), req.UserId, result.BloodTestResults); err != nil {
			h.logger.Error("failed to store results", "user", req.UserId, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to store results"})
			return
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to write response", "error", err)
	}
}

func NewHandler(service ChatService, runner IngestRunner) *Handler {
	if service == nil {
		panic("chat service is required")
	}

	if runner == nil {
		panic("ingest runner is required")
	}

	return &Handler{
		service: service,
		runner:  runner,
		logger:  slog.Default().With("component", "http-handler"),
	}
}

func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	api.HandleFunc("/analysis", h.Analysis).Methods(http.MethodPost)
	api.HandleFunc("/ingest", h.Ingest).Methods(http.MethodPost)
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	return router
}
