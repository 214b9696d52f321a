// Package gateway calls the remote analysis functions over HTTP. One POST per
// invocation, no retries; retry policy belongs to the user.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adstrategy-service/internal/common/config"
	apperrors "adstrategy-service/internal/common/errors"
	commonhttp "adstrategy-service/internal/common/http"
	"adstrategy-service/internal/common/logger"
	"adstrategy-service/internal/common/metrics"
)

// Remote analysis function names. The path of each call is {baseURL}/{name}.
const (
	FunctionAnalyzeProduct             = "analyzeProduct"
	FunctionGenerateLpFirstView        = "generateLpFirstView"
	FunctionGenerateStrategyHypothesis = "generateStrategyHypothesis"
)

// Invoker is the gateway seam the pipeline depends on.
type Invoker interface {
	Invoke(ctx context.Context, function string, payload interface{}) (json.RawMessage, error)
}

// envelope is the common wrapper every function response carries.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client invokes analysis functions over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewClient(cfg config.FunctionsConfig, log logger.Logger) *Client {
	timeout := config.GetDuration(cfg.Timeout)
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: commonhttp.NewClient(timeout),
		logger:     log,
	}
}

// Invoke posts payload to the named function and returns the raw response
// body. Transport errors, non-2xx statuses, malformed bodies and
// success:false all surface as analysis failures; the payload is passed
// through unmodified.
func (c *Client) Invoke(ctx context.Context, function string, payload interface{}) (json.RawMessage, error) {
	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to encode request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", c.baseURL, function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(function, "error", start)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewAnalysisTimeoutError(function)
		}
		return nil, apperrors.NewAnalysisFailedError(function, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(function, "error", start)
		return nil, apperrors.NewAnalysisFailedError(function, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(function, "error", start)
		c.logger.Warn("analysis function returned non-2xx", map[string]interface{}{
			"function": function,
			"status":   resp.StatusCode,
		})
		return nil, apperrors.NewAnalysisFailedError(function, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.record(function, "error", start)
		return nil, apperrors.NewAnalysisFailedError(function, fmt.Errorf("malformed response: %w", err))
	}
	if !env.Success {
		c.record(function, "rejected", start)
		msg := env.Error
		if msg == "" {
			msg = "analysis reported failure"
		}
		return nil, apperrors.NewAnalysisFailedError(function, fmt.Errorf("%s", msg))
	}

	c.record(function, "success", start)
	c.logger.Debug("analysis function succeeded", map[string]interface{}{
		"function": function,
		"elapsed":  time.Since(start).String(),
	})
	return raw, nil
}

func (c *Client) record(function, status string, start time.Time) {
	metrics.AnalysisCallsTotal.WithLabelValues(function, status).Inc()
	metrics.AnalysisCallDuration.WithLabelValues(function).Observe(time.Since(start).Seconds())
}
