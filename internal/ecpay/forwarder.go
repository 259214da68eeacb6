package ecpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "ECPay-Webhook-Proxy/1.0"

// maxUpstreamBody caps how much of the upstream reply is kept for logging.
const maxUpstreamBody = 64 << 10

// ErrUpstreamRejected is returned when the upstream answers with a non-200 status.
var ErrUpstreamRejected = errors.New("upstream rejected callback")

// UpstreamResponse captures the upstream reply for logging.
type UpstreamResponse struct {
	StatusCode int
	Body       string
}

// Forwarder posts callback payloads to the configured upstream URL.
type Forwarder struct {
	httpClient *http.Client
	url        string
}

// NewForwarder creates a Forwarder. targetURL must be an absolute http(s) URL.
func NewForwarder(targetURL string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		httpClient: &http.Client{Timeout: timeout},
		url:        strings.TrimSpace(targetURL),
	}
}

// Forward sends payload as JSON. It returns the upstream response alongside
// ErrUpstreamRejected when the status is not 200, and a transport error when
// the request could not be completed.
func (f *Forwarder) Forward(ctx context.Context, payload Payload) (UpstreamResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return UpstreamResponse{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return UpstreamResponse{}, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return UpstreamResponse{}, fmt.Errorf("send upstream request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return UpstreamResponse{StatusCode: resp.StatusCode}, fmt.Errorf("read upstream response: %w", err)
	}

	out := UpstreamResponse{StatusCode: resp.StatusCode, Body: string(raw)}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("%w: status %d", ErrUpstreamRejected, resp.StatusCode)
	}
	return out, nil
}
