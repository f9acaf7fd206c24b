// Package lambdaapi adapts API Gateway proxy events to the intake service.
package lambdaapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/JonMunkholm/intake/internal/api"
	"github.com/JonMunkholm/intake/internal/core"
)

// Handler serves POST /employees and GET /employees/{employeeID}.
type Handler struct {
	service      *core.Service
	logger       *slog.Logger
	maxBodyBytes int
}

// NewHandler creates a handler over service. Bodies larger than
// maxBodyBytes are rejected as malformed.
func NewHandler(service *core.Service, maxBodyBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:      service,
		logger:       logger,
		maxBodyBytes: int(maxBodyBytes),
	}
}

// Handle is the Lambda entry point.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx = core.ContextWithClient(ctx, req.RequestContext.Identity.SourceIP, req.RequestContext.Identity.UserAgent)
	log := h.logger.With("request_id", req.RequestContext.RequestID)

	switch {
	case req.HTTPMethod == http.MethodPost && isCollection(req.Path):
		return h.submit(ctx, log, req)
	case req.HTTPMethod == http.MethodGet && req.PathParameters["employeeID"] != "":
		return h.lookup(ctx, log, req.PathParameters["employeeID"])
	default:
		return jsonResponse(http.StatusNotFound, api.ErrorResponse{
			Error:   "route not found",
			Message: "route not found",
			Code:    "REQ404",
		})
	}
}

func (h *Handler) submit(ctx context.Context, log *slog.Logger, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body, err := h.body(req)
	if err != nil {
		return h.errorResponse(log, err, http.StatusBadRequest)
	}
	sub, err := api.DecodeSubmission(strings.NewReader(body))
	if err != nil {
		return h.errorResponse(log, err, http.StatusBadRequest)
	}

	res := h.service.Submit(ctx, sub)
	if res.Err != nil && res.Outcome == core.OutcomeWriteFailed {
		log.Error("submission write failed",
			"submission_id", res.SubmissionID,
			"error", res.Err,
		)
	}
	return jsonResponse(api.StatusFor(res.Outcome), api.NewSubmitResponse(res))
}

func (h *Handler) lookup(ctx context.Context, log *slog.Logger, id string) (events.APIGatewayProxyResponse, error) {
	rec, err := h.service.Lookup(ctx, id)
	if err != nil {
		return h.errorResponse(log, err, api.ErrorStatus(err))
	}
	return jsonResponse(http.StatusOK, api.NewEmployeeResponse(rec))
}

func (h *Handler) body(req events.APIGatewayProxyRequest) (string, error) {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", fmt.Errorf("%w: body: %w", api.ErrMalformed, err)
		}
		body = string(raw)
	}
	if h.maxBodyBytes > 0 && len(body) > h.maxBodyBytes {
		return "", fmt.Errorf("%w: body exceeds %d bytes", api.ErrMalformed, h.maxBodyBytes)
	}
	return body, nil
}

func (h *Handler) errorResponse(log *slog.Logger, err error, status int) (events.APIGatewayProxyResponse, error) {
	msg := core.MapError(err)
	log.Warn("request error", "status", status, "error", err, "code", msg.Code)
	return jsonResponse(status, api.NewErrorResponse(msg))
}

func isCollection(path string) bool {
	return strings.HasSuffix(strings.TrimSuffix(path, "/"), "/employees")
}

func jsonResponse(status int, v interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("encode response: %w", err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}
