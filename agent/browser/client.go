package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/BaSui01/browseruse/config"
	"github.com/BaSui01/browseruse/internal/ctxkeys"
	"github.com/BaSui01/browseruse/internal/tlsutil"
	"github.com/BaSui01/browseruse/types"
)

// Client talks to the remote browser-automation service.
type Client interface {
	// Submit hands an objective to the service and returns its task handle.
	Submit(ctx context.Context, objective string) (TaskHandle, error)
	// Query reports the current status of a submitted task. Failures are
	// folded into a TaskError status.
	Query(ctx context.Context, handle TaskHandle) TaskStatus
}

// WithRequestID attaches a correlation id that HTTPClient forwards as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return ctxkeys.WithRunID(ctx, id)
}

// RequestIDFromContext returns the correlation id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return ctxkeys.RunID(ctx)
}

type submitRequest struct {
	Objective string `json:"browser_use_objective"`
}

type submitResponse struct {
	TaskID json.RawMessage `json:"task_id"`
}

// RequestObserver is notified after every request to the service. status is
// 0 when the request failed before a response arrived.
type RequestObserver interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithRequestObserver installs a RequestObserver.
func WithRequestObserver(o RequestObserver) ClientOption {
	return func(c *HTTPClient) {
		if o != nil {
			c.observer = o
		}
	}
}

// HTTPClient is the Client for the service's submit/query HTTP API.
type HTTPClient struct {
	client   *resty.Client
	observer RequestObserver
	logger   *zap.Logger
}

const (
	submitPath = "/submit"
	queryPath  = "/query/{task_id}"
)

// NewHTTPClient validates cfg and builds a client for cfg.BaseURL.
func NewHTTPClient(cfg config.BrowserUseConfig, logger *zap.Logger, opts ...ClientOption) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsConfig, err := tlsutil.ClientTLSConfig(cfg.CAFile)
	if err != nil {
		return nil, types.NewConfigError("browser_use.ca_file: %v", err)
	}

	rc := resty.New().
		SetTransport(tlsutil.NewTransport(tlsConfig)).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(logger.Sugar())
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}

	c := &HTTPClient{
		client: rc,
		logger: logger.With(zap.String("component", "browseruse_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) observe(method, path string, resp *resty.Response, start time.Time) {
	if c.observer == nil {
		return
	}
	status := 0
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
	}
	c.observer.RecordHTTPRequest(method, path, status, time.Since(start))
}

func (c *HTTPClient) request(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if id, ok := RequestIDFromContext(ctx); ok {
		req.SetHeader("X-Request-ID", id)
	}
	return req
}

// Submit posts the objective to /submit. Only 202 Accepted with a task_id
// counts as success.
func (c *HTTPClient) Submit(ctx context.Context, objective string) (TaskHandle, error) {
	c.logger.Info("submitting browser task", zap.String("url", c.client.BaseURL+submitPath))

	start := time.Now()
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(submitRequest{Objective: objective}).
		Post(submitPath)
	c.observe(http.MethodPost, submitPath, resp, start)
	if err != nil {
		c.logger.Error("submit request failed", zap.Error(err))
		return "", types.NewTransportError("submit request", err)
	}

	if resp.StatusCode() != http.StatusAccepted {
		c.logger.Error("submit rejected", zap.Int("status_code", resp.StatusCode()))
		return "", types.NewError(types.ErrSubmissionFailed,
			fmt.Sprintf("Request failed with status code: %d", resp.StatusCode())).
			WithHTTPStatus(resp.StatusCode()).
			WithRetryable(resp.StatusCode() >= http.StatusInternalServerError)
	}

	var body submitResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		c.logger.Error("submit response is not JSON", zap.Error(err))
		return "", types.NewError(types.ErrMalformedResponse, "submit response is not valid JSON").WithCause(err)
	}

	id, ok := parseTaskID(body.TaskID)
	if !ok {
		c.logger.Error("submit response carries no task_id")
		return "", types.NewError(types.ErrSubmissionFailed, "submit response carries no task_id")
	}
	return TaskHandle(id), nil
}

// Query fetches /query/{task_id}: 200 is completed, 202 is processing,
// anything else is an error.
func (c *HTTPClient) Query(ctx context.Context, handle TaskHandle) TaskStatus {
	c.logger.Debug("querying browser task", zap.String("task_id", string(handle)))

	start := time.Now()
	resp, err := c.request(ctx).
		SetPathParam("task_id", string(handle)).
		Get(queryPath)
	c.observe(http.MethodGet, queryPath, resp, start)
	if err != nil {
		c.logger.Error("query request failed", zap.String("task_id", string(handle)), zap.Error(err))
		return Failed(fmt.Sprintf("An error occurred: %v", err))
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		payload := bytes.TrimSpace(resp.Body())
		if len(payload) == 0 {
			return Completed(json.RawMessage("null"), "")
		}
		if !json.Valid(payload) {
			c.logger.Error("query response is not JSON", zap.String("task_id", string(handle)))
			return Failed("Malformed response: body is not valid JSON")
		}
		return Completed(json.RawMessage(payload), serviceMessage(payload))
	case http.StatusAccepted:
		return Processing()
	default:
		c.logger.Error("query rejected",
			zap.String("task_id", string(handle)),
			zap.Int("status_code", resp.StatusCode()))
		return Failed(fmt.Sprintf("Unexpected status code: %d", resp.StatusCode()))
	}
}

// parseTaskID accepts task_id as a JSON string or number.
func parseTaskID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), true
		}
	}
	return "", false
}
