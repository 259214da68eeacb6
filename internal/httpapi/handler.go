package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uneedwind/webhook-gateway/internal/config"
	"github.com/uneedwind/webhook-gateway/internal/ecpay"
	"github.com/uneedwind/webhook-gateway/internal/envelope"
	"github.com/uneedwind/webhook-gateway/internal/logging"
	"github.com/uneedwind/webhook-gateway/internal/metrics"
)

const (
	defaultMaxBodyBytes = 1 << 20 // 1MB

	opWebhook    = "webhook"
	opN8NTrigger = "n8n_trigger"
)

// Route is one row of the routing table. An empty Method accepts every method.
type Route struct {
	Method      string
	Pattern     string
	Handler     http.HandlerFunc
	Middlewares []func(http.Handler) http.Handler
}

// Relay forwards ECPay callbacks upstream.
type Relay interface {
	Forward(ctx context.Context, payload ecpay.Payload) (ecpay.UpstreamResponse, error)
}

// Deps are the process-wide collaborators handed to every handler.
type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.HTTPMetrics
	Deployment   config.Deployment
	ServiceName  string
	MaxBodyBytes int64
	// Relay mounts POST /api/ecpay/callback when non-nil.
	Relay Relay
	Now   func() time.Time
}

type handler struct {
	logger       *slog.Logger
	metrics      *metrics.HTTPMetrics
	deployment   config.Deployment
	serviceName  string
	maxBodyBytes int64
	relay        Relay
	now          func() time.Time
}

func newHandler(deps Deps) *handler {
	h := &handler{
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		deployment:   deps.Deployment,
		serviceName:  deps.ServiceName,
		maxBodyBytes: deps.MaxBodyBytes,
		relay:        deps.Relay,
		now:          deps.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = defaultMaxBodyBytes
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.serviceName == "" {
		h.serviceName = h.deployment.Service
	}
	return h
}

// Routes returns the routing table served by the façade.
func Routes(deps Deps) []Route {
	h := newHandler(deps)
	routes := []Route{
		{Method: http.MethodGet, Pattern: "/", Handler: h.index},
		{Method: http.MethodGet, Pattern: "/health", Handler: h.health},
		{Method: http.MethodPost, Pattern: "/api/webhook", Handler: h.webhook},
		{Method: http.MethodPost, Pattern: "/api/n8n-trigger", Handler: h.n8nTrigger},
	}
	if h.relay != nil {
		routes = append(routes, Route{
			Pattern:     ecpayCallbackPath,
			Handler:     h.ecpayCallback,
			Middlewares: []func(http.Handler) http.Handler{ecpayCORS()},
		})
	}
	return routes
}

// RegisterRoutes mounts every row of the table on r.
func RegisterRoutes(r chi.Router, routes []Route) {
	for _, route := range routes {
		rr := r
		if len(route.Middlewares) > 0 {
			rr = r.With(route.Middlewares...)
		}
		if route.Method == "" {
			rr.HandleFunc(route.Pattern, route.Handler)
			continue
		}
		rr.Method(route.Method, route.Pattern, route.Handler)
	}
}

func (h *handler) index(w http.ResponseWriter, _ *http.Request) {
	envelope.Write(w, http.StatusOK, envelope.Healthy("Service is running on GCP", map[string]any{
		"service": h.serviceName,
		"version": h.deployment.Version,
	}))
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	envelope.Write(w, http.StatusOK, envelope.Healthy("", map[string]any{
		"timestamp": h.deployment.DeploymentID,
		"service":   h.deployment.Service,
		"version":   h.deployment.Version,
	}))
}

func (h *handler) webhook(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	data, err := h.parseWebhook(w, r)
	if err != nil {
		h.fail(w, logger, "webhook processing error", err)
		return
	}

	logger.Info("received webhook data", slog.Any("data", data))
	envelope.Write(w, http.StatusOK, envelope.Success("Webhook processed successfully", map[string]any{
		"received_data": data,
	}))
}

func (h *handler) parseWebhook(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	mt := mediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		data, err := decodeMultipart(w, r, h.maxBodyBytes)
		if err != nil {
			return nil, requestError(opWebhook, err)
		}
		return data, nil
	}

	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		return nil, requestError(opWebhook, err)
	}
	if mt == "application/json" {
		data, err := decodeObject(body)
		if err != nil {
			return nil, requestError(opWebhook, err)
		}
		return data, nil
	}
	data, err := decodeForm(body)
	if err != nil {
		return nil, requestError(opWebhook, err)
	}
	return data, nil
}

func (h *handler) n8nTrigger(w http.ResponseWriter, r *http.Request) {
	logger := h.requestLogger(r)

	workflowID, err := h.parseTrigger(w, r)
	if err != nil {
		h.fail(w, logger, "error triggering workflow", err)
		return
	}

	// No downstream workflow engine is wired; the identifier is only echoed.
	logger.Info("triggering workflow", slog.Any("workflow_id", workflowID))
	envelope.Write(w, http.StatusOK, envelope.Success("Workflow triggered", map[string]any{
		"workflow_id": workflowID,
	}))
}

// parseTrigger decodes the body as JSON whatever the declared content type and
// returns the raw workflow_id value, nil when absent.
func (h *handler) parseTrigger(w http.ResponseWriter, r *http.Request) (any, error) {
	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		return nil, requestError(opN8NTrigger, err)
	}
	data, err := decodeObject(body)
	if err != nil {
		return nil, requestError(opN8NTrigger, err)
	}
	return data["workflow_id"], nil
}

// fail logs err once at error level and writes the 500 error envelope.
func (h *handler) fail(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		h.metrics.IncParseFailure(reqErr.Op)
	}
	logger.Error(msg, slog.String("error", err.Error()))
	envelope.Write(w, http.StatusInternalServerError, envelope.Error(err))
}

func (h *handler) requestLogger(r *http.Request) *slog.Logger {
	return logging.WithRequestID(r.Context(), h.logger, middleware.GetReqID(r.Context()))
}
