// Package flow submits incidents to the remote workflow endpoint.
//
// One row is one POST of a JSON object. The flow's reply is interpreted by
// core; this package only reports the HTTP status and the decoded body.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/IncidentUpload/internal/config"
	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/JonMunkholm/IncidentUpload/internal/logging"
)

// maxResponseBytes caps how much of a flow response is read.
const maxResponseBytes int64 = 1 << 20

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts payloads to a single flow URL. It implements core.Submitter.
type Client struct {
	url  string
	http HTTPDoer
}

// New creates a Client from the flow config. A zero timeout leaves calls
// bounded only by the caller's context.
func New(cfg config.FlowConfig) *Client {
	return NewWithDoer(cfg.URL, &http.Client{Timeout: cfg.Timeout})
}

// NewWithDoer creates a Client using doer for transport.
func NewWithDoer(url string, doer HTTPDoer) *Client {
	return &Client{url: url, http: doer}
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Submit posts p and returns the response status and body. A body that is
// not a JSON object is returned as an empty map. Only failures to obtain a
// response are errors.
func (c *Client) Submit(ctx context.Context, p core.Payload) (core.Outcome, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return core.Outcome{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return core.Outcome{}, fmt.Errorf("build flow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return core.Outcome{}, fmt.Errorf("submit to flow: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return core.Outcome{}, fmt.Errorf("read flow response: %w", err)
	}

	logging.FromContext(ctx).Debug("flow call",
		slog.Int("status", resp.StatusCode),
		slog.Int("response_bytes", len(raw)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return core.Outcome{StatusCode: resp.StatusCode, Body: decodeObject(raw)}, nil
}

// decodeObject parses raw as a JSON object, returning an empty map for
// anything else (empty body, HTML error page, array, scalar).
func decodeObject(raw []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}
