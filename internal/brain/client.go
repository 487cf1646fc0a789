// Package brain calls the jason-brain function with location-enriched slots.
package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/config"
	"github.com/rcliao/jason-client/internal/locate"
	"github.com/rcliao/jason-client/internal/logging"
	"github.com/rcliao/jason-client/internal/model"
	"github.com/rcliao/jason-client/internal/slots"
)

const (
	serviceName = "jason-brain"

	DefaultTimeout = 30 * time.Second
)

// Config locates the service and carries its credential.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ConfigFrom extracts the client settings from the process configuration.
func ConfigFrom(c *config.Config) Config {
	return Config{BaseURL: c.BaseURL(), Token: c.Token(), Timeout: c.RequestTimeout}
}

// CallOptions are per-call settings.
type CallOptions struct {
	RequestID string
	DryRun    bool
}

// Client issues one HTTP request per Call and never returns an error;
// every failure is reported in the BrainResponse.
type Client struct {
	cfg      Config
	http     *http.Client
	logger   *zap.Logger
	acquirer locate.Acquirer
	recorder Recorder
	now      func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// WithAcquirer enables device location for calls whose slots lack lat/lng.
func WithAcquirer(a locate.Acquirer) Option {
	return func(c *Client) { c.acquirer = a }
}

// WithRecorder receives a CallRecord after every call.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New creates a client. Without WithAcquirer slots are sent as given.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestBody struct {
	Messages  []model.ChatMessage `json:"messages"`
	Slots     model.SlotMap       `json:"slots"`
	RequestID string              `json:"requestId,omitempty"`
}

// Call merges device location into slots and posts the conversation.
func (c *Client) Call(ctx context.Context, messages []model.ChatMessage, slotMap model.SlotMap, opts CallOptions) model.BrainResponse {
	start := c.now()
	rec := CallRecord{
		RequestID: opts.RequestID,
		DryRun:    opts.DryRun,
		Started:   start,
	}

	resp := c.call(ctx, messages, slotMap, opts, &rec)

	rec.OK = resp.OK
	rec.Error = resp.Error
	rec.Latency = c.now().Sub(start)
	if rec.RequestID == "" {
		rec.RequestID = resp.RequestID
	}
	c.record(ctx, rec)
	return resp
}

func (c *Client) call(ctx context.Context, messages []model.ChatMessage, slotMap model.SlotMap, opts CallOptions, rec *CallRecord) model.BrainResponse {
	rec.Outcome = OutcomeSlotsMerging
	merged, src := slots.Merge(ctx, slotMap, c.acquirer)
	rec.LocationSource = src
	c.logger.Debug("slots merged", zap.String("location_source", string(src)), zap.Int("slots", len(merged)))

	if messages == nil {
		messages = []model.ChatMessage{}
	}
	body, err := json.Marshal(requestBody{Messages: messages, Slots: merged, RequestID: opts.RequestID})
	if err != nil {
		rec.Outcome = OutcomeEncodeFailed
		return failure(fmt.Sprintf("Could not encode request for %s: %v", serviceName, err))
	}

	rec.Outcome = OutcomeRequesting
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+serviceName, bytes.NewReader(body))
	if err != nil {
		rec.Outcome = OutcomeNetworkFailed
		return c.networkFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("apikey", c.cfg.Token)
	if opts.DryRun {
		req.Header.Set("x-dry-run", "1")
	}

	res, err := c.http.Do(req)
	if err != nil {
		rec.Outcome = OutcomeNetworkFailed
		return c.networkFailure(err)
	}
	defer res.Body.Close()
	rec.Status = res.StatusCode

	data, err := io.ReadAll(res.Body)
	if err != nil {
		rec.Outcome = OutcomeNetworkFailed
		return c.networkFailure(err)
	}

	rec.Outcome = OutcomeParsing
	var out model.BrainResponse
	if err := json.Unmarshal(data, &out); err != nil {
		rec.Outcome = OutcomeParseFailed
		c.logger.Warn("unparseable brain response", zap.Int("status", res.StatusCode), zap.Error(err))
		return failure(fmt.Sprintf("Bad JSON from %s (%d)", serviceName, res.StatusCode))
	}

	out.NormalizeAnnotations()
	rec.Outcome = OutcomeNormalized
	return out
}

func (c *Client) networkFailure(err error) model.BrainResponse {
	c.logger.Warn("brain request failed", zap.Error(err))
	return failure(fmt.Sprintf("Network error calling %s: %s", serviceName, detail(err)))
}

// detail strips the method and URL that *url.Error prepends.
func detail(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}

func failure(msg string) model.BrainResponse {
	return model.BrainResponse{OK: false, Error: msg}
}

func (c *Client) record(ctx context.Context, rec CallRecord) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		c.logger.Warn("failed to record brain call", zap.String("request_id", rec.RequestID), zap.Error(err))
	}
}
