package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vulnscout/vulnscout/internal/bus"
	"github.com/vulnscout/vulnscout/internal/pipeline"
	apperrors "github.com/vulnscout/vulnscout/internal/pkg/errors"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
)

// Runner executes one pipeline invocation. Satisfied by
// *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, question string, limit int) (*pipeline.Result, error)
}

// QueryRequest is the JSON request body for /v1/query.
type QueryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// QueryResponse is the JSON response body for /v1/query.
type QueryResponse struct {
	Guidance string `json:"guidance"`
}

// Handler provides HTTP handlers for the query pipeline.
type Handler struct {
	runner   Runner
	eventBus bus.Bus
	log      *logger.Logger
}

// NewHandler creates a new query handler.
func NewHandler(runner Runner, eventBus bus.Bus, log *logger.Logger) *Handler {
	return &Handler{
		runner:   runner,
		eventBus: eventBus,
		log:      log.WithComponent("http"),
	}
}

// HandleQuery handles POST /v1/query.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apperrors.WriteErrorWithStatus(w, http.StatusMethodNotAllowed,
			apperrors.InvalidRequestError("method not allowed"))
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteErrorWithStatus(w, http.StatusBadRequest,
			apperrors.InvalidRequestError("invalid request body: "+err.Error()))
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		apperrors.WriteErrorWithStatus(w, http.StatusBadRequest,
			apperrors.ValidationError("query cannot be empty"))
		return
	}

	h.publish(r, bus.TopicQueryReceived, bus.QueryPayload{
		Query: req.Query,
		Limit: req.Limit,
	})

	res, err := h.runner.Run(r.Context(), req.Query, req.Limit)
	if err != nil {
		h.log.WithQuery(req.Query).Error("pipeline failed", "error", err)
		h.publish(r, bus.TopicQueryFailed, bus.QueryPayload{
			Query:       req.Query,
			ErrorCode:   apperrors.Code(err),
			ErrorDetail: err.Error(),
		})
		apperrors.WriteError(w, err)
		return
	}

	h.publish(r, bus.TopicQueryCompleted, bus.QueryPayload{
		Query:     req.Query,
		Limit:     req.Limit,
		Records:   len(res.Records),
		TotalSecs: res.Timings.Total.Seconds(),
	})

	writeJSON(w, http.StatusOK, QueryResponse{Guidance: res.Report})
}

// publish emits a lifecycle event; bus failures never affect the
// request.
func (h *Handler) publish(r *http.Request, topic string, payload bus.QueryPayload) {
	if h.eventBus == nil {
		return
	}

	event := bus.Event{
		ID:        generateEventID(),
		Type:      topic,
		Source:    "server",
		Timestamp: time.Now().UnixNano(),
		Payload:   payload,
	}
	if err := h.eventBus.Publish(r.Context(), topic, event); err != nil {
		h.log.Warn("event publish failed", "topic", topic, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
