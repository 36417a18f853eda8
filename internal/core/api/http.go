package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// UserAgent is sent on every request. The CBC endpoints reject requests
// without a browser-looking agent.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.164 Safari/537.36"

// DefaultOrigin is the CBC web origin all generations talk to.
const DefaultOrigin = "https://www.cbc.ca"

// Fetcher performs single-attempt requests and classifies their failures
// as UpstreamError.
type Fetcher struct {
	client *http.Client
	log    *zap.SugaredLogger
}

// NewFetcher wraps client. A nil client means http.DefaultClient, a nil
// logger discards output.
func NewFetcher(client *http.Client, log *zap.SugaredLogger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Fetcher{client: client, log: log}
}

// Get fetches url and returns the body of a 2xx response.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return f.do(req, headers)
}

// PostJSON sends payload as a JSON body and returns the body of a 2xx response.
func (f *Fetcher) PostJSON(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return f.do(req, headers)
}

func (f *Fetcher) do(req *http.Request, headers map[string]string) ([]byte, error) {
	req.Header.Set("User-Agent", UserAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	f.log.Debugw("request", "method", req.Method, "url", req.URL.String())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	f.log.Debugw("response", "url", req.URL.String(), "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	return body, nil
}

// decodeJSON unmarshals body into v, reporting failures as SchemaError.
func decodeJSON(url string, body []byte, what string, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &SchemaError{URL: url, What: "failed to decode " + what, Err: err}
	}
	return nil
}

// rawText returns a JSON string's contents or a number's literal text, and
// "" for anything else.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// parseAirTime accepts epoch milliseconds, as a JSON number or string, or
// an RFC 3339 timestamp.
func parseAirTime(raw json.RawMessage) (time.Time, error) {
	s := rawText(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing or non-scalar timestamp %s", raw)
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is neither epoch milliseconds nor RFC 3339", s)
	}
	return t, nil
}
