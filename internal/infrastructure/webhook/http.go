package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

// Delivery headers.
const (
	HeaderEvent     = "X-Expensa-Event"
	HeaderDelivery  = "X-Expensa-Delivery"
	HeaderTimestamp = "X-Expensa-Timestamp"
	HeaderSignature = "X-Expensa-Signature"
)

// HTTPEmitter POSTs audit events as JSON. With a signing secret every delivery carries
// an HMAC-SHA256 signature over "<timestamp>.<body>".
type HTTPEmitter struct {
	client *http.Client
	url    string
	secret []byte
	now    func() time.Time
}

type HTTPEmitterOption func(*HTTPEmitter)

// WithClient replaces the default client (10s timeout).
func WithClient(c *http.Client) HTTPEmitterOption {
	return func(e *HTTPEmitter) { e.client = c }
}

// WithSigningSecret enables X-Expensa-Signature. The secret is independent of the
// session signing key.
func WithSigningSecret(secret string) HTTPEmitterOption {
	return func(e *HTTPEmitter) { e.secret = []byte(secret) }
}

func NewHTTPEmitter(url string, opts ...HTTPEmitterOption) *HTTPEmitter {
	e := &HTTPEmitter{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HTTPEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, event.Event)
	req.Header.Set(HeaderDelivery, uuid.NewString())
	if len(e.secret) > 0 {
		ts := e.now().Unix()
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderSignature, Sign(e.secret, ts, body))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver audit event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}

// Sign returns the X-Expensa-Signature value for body sent at ts (Unix seconds).
func Sign(secret []byte, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a delivery signature in constant time. Receivers should also reject
// timestamps outside their tolerance.
func Verify(secret []byte, ts int64, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, ts, body)), []byte(signature))
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook endpoint returned status %d", e.Status)
}

var _ ports.WebhookEmitter = (*HTTPEmitter)(nil)
