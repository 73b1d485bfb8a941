package backend

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

	"github.com/angelmondragon/homeplast-storefront/pkg/auth"
	"github.com/angelmondragon/homeplast-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/angelmondragon/homeplast-storefront/pkg/metrics"
	"github.com/sony/gobreaker/v2"
)

const maxResponseBytes = 4 << 20

// Params configures the shop back-end client.
type Params struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerInterval    time.Duration
	BreakerOpenTimeout time.Duration
	HTTPClient         *http.Client
	Metrics            *metrics.BackendMetrics
	Logger             *logger.Logger
}

// ParamsFromConfig maps the backend config section onto client params.
func ParamsFromConfig(cfg config.BackendConfig) Params {
	return Params{
		BaseURL:            cfg.BaseURL,
		Timeout:            cfg.Timeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerInterval:    cfg.BreakerInterval,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}
}

// Client talks JSON over HTTP to the shop REST back end. Every call runs through a
// circuit breaker, forwards the caller's bearer token and is timed.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[rawResponse]
	metrics *metrics.BackendMetrics
	logg    *logger.Logger
}

type rawResponse struct {
	status int
	body   []byte
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type call struct {
	endpoint   string
	method     string
	path       string
	body       any
	rejectCode pkgerrors.Code
}

// New builds a back-end client.
func New(params Params) (*Client, error) {
	if strings.TrimSpace(params.BaseURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backend base url is required")
	}
	base, err := url.Parse(strings.TrimRight(params.BaseURL, "/") + "/")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid backend base url")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	maxFailures := params.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	c := &Client{
		baseURL: base,
		http:    httpClient,
		timeout: params.Timeout,
		metrics: params.Metrics,
		logg:    logg,
	}
	c.breaker = gobreaker.NewCircuitBreaker[rawResponse](gobreaker.Settings{
		Name:     "shop-backend",
		Interval: params.BreakerInterval,
		Timeout:  params.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "backend circuit breaker state changed")
		},
	})
	return c, nil
}

// do executes the call and decodes the envelope data into out when out is non-nil.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	start := time.Now()
	outcome := metrics.OutcomeSuccess
	defer func() {
		c.metrics.Observe(cl.endpoint, outcome, time.Since(start))
	}()

	resp, err := c.breaker.Execute(func() (rawResponse, error) {
		return c.send(ctx, cl)
	})
	if err != nil {
		outcome = metrics.OutcomeFailure
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.Wrap(pkgerrors.CodeNetworkFailure, err, "shop back end unavailable")
		}
		return pkgerrors.Wrap(pkgerrors.CodeNetworkFailure, err, fmt.Sprintf("%s %s failed", cl.method, cl.path))
	}

	env, decodeErr := decodeEnvelope(resp.body)
	if resp.status >= http.StatusBadRequest {
		outcome = metrics.OutcomeRejected
		return rejection(resp.status, env.Message, cl.rejectCode)
	}
	if decodeErr != nil {
		outcome = metrics.OutcomeMalformed
		return pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, decodeErr, fmt.Sprintf("decode %s response", cl.endpoint))
	}
	if !*env.Success {
		outcome = metrics.OutcomeRejected
		return rejection(resp.status, env.Message, cl.rejectCode)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		outcome = metrics.OutcomeMalformed
		return pkgerrors.New(pkgerrors.CodeMalformedResponse, fmt.Sprintf("%s response has no data", cl.endpoint))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		outcome = metrics.OutcomeMalformed
		return pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, err, fmt.Sprintf("decode %s data", cl.endpoint))
	}
	return nil
}

// send performs one HTTP round trip. Only transport errors and 5xx responses are
// reported as errors so that client rejections never trip the breaker.
func (c *Client) send(ctx context.Context, cl call) (rawResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target, err := c.baseURL.Parse(strings.TrimLeft(cl.path, "/"))
	if err != nil {
		return rawResponse{}, fmt.Errorf("build url: %w", err)
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return rawResponse{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target.String(), body)
	if err != nil {
		return rawResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := auth.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := logger.RequestIDFromContext(ctx); reqID != "" {
		req.Header.Set("X-Request-Id", reqID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return rawResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return rawResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return rawResponse{}, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return rawResponse{status: resp.StatusCode, body: raw}, nil
}

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, err
	}
	if env.Success == nil {
		return env, errors.New("envelope missing success flag")
	}
	return env, nil
}

func rejection(status int, message string, fallback pkgerrors.Code) error {
	if message == "" {
		message = "request rejected by shop back end"
	}
	code := fallback
	switch status {
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		code = pkgerrors.CodeRateLimit
	}
	if code == "" {
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"upstream_status": status})
}
