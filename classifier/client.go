package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// Client communicates with the Python AI engine that does the actual traffic
// classification.
type Client struct {
	baseURL string
	client  *http.Client
}

// Verdict is the engine's answer for one upload. Confidence is always a
// usable number: a missing or non-numeric score from the engine is coerced
// to 0.0 rather than failing the request.
type Verdict struct {
	Prediction string
	Confidence float64
	Severity   string
	Message    string
}

// Error is returned for any classification failure: connection errors,
// timeouts, non-success statuses, or unparseable bodies. Status is zero when
// no HTTP response was received.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("classification failed: %s", e.Message)
	}
	return fmt.Sprintf("classification failed: engine returned status %d: %s", e.Status, e.Message)
}

// NewClient creates a classifier client for the given engine base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// HealthCheck verifies the AI engine is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("AI engine not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AI engine unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// AnalyzeFile forwards raw file bytes to POST /analyze/{dataset}/{model} as
// a multipart upload and returns the engine's verdict.
func (c *Client) AnalyzeFile(ctx context.Context, dataset, model, filename string, payload []byte) (Verdict, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return Verdict{}, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Verdict{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/analyze/%s/%s", c.baseURL, dataset, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

// AnalyzeManual sends a JSON feature map to POST /analyze-manual and returns
// the engine's verdict.
func (c *Client) AnalyzeManual(ctx context.Context, features map[string]interface{}) (Verdict, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to encode features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-manual", bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (Verdict, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return Verdict{}, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, &Error{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, &Error{Status: resp.StatusCode, Message: upstreamMessage(raw)}
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Verdict{}, &Error{Status: resp.StatusCode, Message: "unparseable engine response"}
	}

	verdict := Verdict{
		Prediction: stringField(fields, "prediction"),
		Severity:   stringField(fields, "severity"),
		Message:    stringField(fields, "message"),
	}

	// The file path reports confidence_score; the manual path reports
	// threat_score. Either way a bad value degrades to zero.
	verdict.Confidence = coerceConfidence(fields["confidence_score"])
	if _, ok := fields["confidence_score"]; !ok {
		verdict.Confidence = coerceConfidence(fields["threat_score"])
	}

	return verdict, nil
}

// upstreamMessage digs the human-readable error out of an engine failure
// body (FastAPI wraps it in {"detail": ...}); falls back to the raw body.
func upstreamMessage(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "AI engine error"
}

func stringField(fields map[string]interface{}, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}

func coerceConfidence(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0.0
}
