// Package remote calls an external ML analysis service over JSON/HTTP. One
// Client implements every document and face analyzer port.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docverify/internal/platform/config"
	"docverify/internal/verification/document"
	"docverify/internal/verification/face"
	"docverify/internal/verification/models"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// ErrCircuitOpen is returned without calling the service while the breaker
// is open.
var ErrCircuitOpen = fmt.Errorf("analyzer circuit open: %w", sentinel.ErrUnavailable)

// maximum response body read from the service
const maxResponseBytes = 1 << 20

type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func New(cfg config.Analyzers, opts ...Option) (*Client, error) {
	if cfg.RemoteURL == "" {
		return nil, fmt.Errorf("analyzer remote url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.RemoteURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse analyzer url: %w", err)
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: circuit.New("analyzers",
			circuit.WithFailureThreshold(cfg.FailureThreshold),
			circuit.WithSuccessThreshold(cfg.SuccessThreshold),
			circuit.WithCooldown(cfg.Cooldown),
		),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DocumentAnalyzers returns the document ports served by this client.
func (c *Client) DocumentAnalyzers() document.Analyzers {
	return document.Analyzers{Quality: c, Type: c, Security: c, Text: c, Tampering: c}
}

func (c *Client) FaceAnalyzers() face.Analyzers {
	return face.Analyzers{Detector: c, Quality: c, Liveness: c, Comparer: c, Age: c}
}

type imageRequest struct {
	Image []byte              `json:"image"`
	Side  models.DocumentSide `json:"side,omitempty"`
}

type compareRequest struct {
	IDImage []byte `json:"id_image"`
	Selfie  []byte `json:"selfie"`
}

type ageResponse struct {
	Age float64 `json:"age"`
}

func (c *Client) AssessQuality(ctx context.Context, image []byte) (out models.ImageQuality, err error) {
	err = c.call(ctx, "/v1/document/quality", imageRequest{Image: image}, &out)
	return out, err
}

func (c *Client) DetectType(ctx context.Context, image []byte) (out models.DocumentTypeCheck, err error) {
	err = c.call(ctx, "/v1/document/type", imageRequest{Image: image}, &out)
	return out, err
}

func (c *Client) DetectSecurityFeatures(ctx context.Context, image []byte) (out models.SecurityFeatures, err error) {
	err = c.call(ctx, "/v1/document/security-features", imageRequest{Image: image}, &out)
	return out, err
}

func (c *Client) ExtractFields(ctx context.Context, image []byte, side models.DocumentSide) (out models.ExtractedFields, err error) {
	err = c.call(ctx, "/v1/document/fields", imageRequest{Image: image, Side: side}, &out)
	return out, err
}

func (c *Client) DetectTampering(ctx context.Context, image []byte) (out models.TamperingSignals, err error) {
	err = c.call(ctx, "/v1/document/tampering", imageRequest{Image: image}, &out)
	return out, err
}

func (c *Client) DetectFaces(ctx context.Context, image []byte) (out models.FaceDetection, err error) {
	err = c.call(ctx, "/v1/face/detect", imageRequest{Image: image}, &out)
	return out, err
}

func (c *Client) AssessFace(ctx context.Context, image []byte) (out models.FaceQuality, err error) {
	err = c.call(ctx, "/v1/face/quality", imageRequest{Image: image}, &out)
	return out, err
}

func (c *Client) CheckLiveness(ctx context.Context, selfie []byte) (out models.LivenessSignals, err error) {
	err = c.call(ctx, "/v1/face/liveness", imageRequest{Image: selfie}, &out)
	return out, err
}

func (c *Client) CompareFaces(ctx context.Context, idImage, selfie []byte) (out models.FaceComparisonCheck, err error) {
	err = c.call(ctx, "/v1/face/compare", compareRequest{IDImage: idImage, Selfie: selfie}, &out)
	return out, err
}

func (c *Client) EstimateAge(ctx context.Context, image []byte) (float64, error) {
	var out ageResponse
	err := c.call(ctx, "/v1/face/age", imageRequest{Image: image}, &out)
	return out.Age, err
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analyzer %s returned %d: %s", e.Path, e.Status, e.Body)
}

func (c *Client) call(ctx context.Context, path string, in, out any) error {
	if !c.breaker.Allow(c.now()) {
		return ErrCircuitOpen
	}

	err := c.do(ctx, path, in, out)
	switch {
	case err == nil:
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "analyzer circuit closed", "breaker", c.breaker.Name())
		}
	case countsAsOutage(err):
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "analyzer circuit opened",
				"breaker", c.breaker.Name(),
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Caller cancellation and 4xx answers say nothing about service health.
func countsAsOutage(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 || se.Status == http.StatusTooManyRequests
	}
	return true
}
