package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/appstore/internal/metrics"
)

// Executor performs single-attempt JSON exchanges and classifies their failures.
// It never retries: recovery policy belongs to the caller.
type Executor struct {
	logger *zap.Logger
	http   *http.Client
	tag    string
}

// New creates an Executor. tag prefixes log event names.
func New(logger *zap.Logger, httpClient *http.Client, tag string) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{
		logger: logger,
		http:   httpClient,
		tag:    tag,
	}
}

// PostJSON marshals body, POSTs it to url and decodes the JSON response into out.
// endpoint is the logical operation name used in errors, logs and metrics.
func (e *Executor) PostJSON(ctx context.Context, endpoint, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return e.DoJSON(req, endpoint, out)
}

// DoJSON executes req once and JSON-decodes a 2xx/3xx response into out.
//
// Status >= 400 yields *StatusError; a failed exchange yields *TransportError.
func (e *Executor) DoJSON(req *http.Request, endpoint string, out any) error {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.APIRequestDuration, start, endpoint)

	resp, err := e.http.Do(req)
	if err != nil {
		metrics.IncAPIRequest(endpoint, "transport_error")
		e.logger.Warn(e.tag+".http_failed",
			zap.String("endpoint", endpoint),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return &TransportError{Endpoint: endpoint, URL: req.URL.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncAPIRequest(endpoint, "transport_error")
		e.logger.Warn(e.tag+".read_failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		return &TransportError{Endpoint: endpoint, URL: req.URL.String(), Err: err}
	}
	elapsed := time.Since(start)
	metrics.IncAPIRequest(endpoint, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode >= 400 {
		e.logger.Warn(e.tag+".rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", elapsed))
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: body}
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			e.logger.Warn(e.tag+".decode_failed",
				zap.String("endpoint", endpoint),
				zap.Error(err),
				zap.String("body", string(body)))
			return fmt.Errorf("%s: decode failed: %w", endpoint, err)
		}
	}

	e.logger.Debug(e.tag+".http_success",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	return nil
}
