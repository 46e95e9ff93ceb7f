package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/deskdriver/internal/infrastructure/resilience"
)

// Options configures a Client.
type Options struct {
	// BasePath is the driver route prefix.
	BasePath string
	Timeout  time.Duration
	// MaxRetries applies to requests that could not reach the driver.
	MaxRetries int
	Username   string
	Password   string
	Breaker    resilience.Settings
	// Logger receives breaker state changes. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns options matching a default driver.
func DefaultOptions() Options {
	return Options{
		BasePath:   "/wd/hub",
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
}

// Client talks to a deskdriver server.
type Client struct {
	resty    *resty.Client
	breaker  *resilience.Breaker
	basePath string
}

// New creates a client for the driver at baseURL.
func New(baseURL string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.CheckRetry = retryUnreached

	r := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "deskdriver-client/1.0")
	r.JSONMarshal = sonic.Marshal
	r.JSONUnmarshal = sonic.Unmarshal
	if opts.Username != "" {
		r.SetBasicAuth(opts.Username, opts.Password)
	}

	settings := opts.Breaker
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || protocolError(err)
		}
	}
	if settings.OnStateChange == nil {
		settings.OnStateChange = func(name string, from, to resilience.State) {
			logger.Warn("Driver circuit breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
	}

	return &Client{
		resty:    r,
		breaker:  resilience.New("deskdriver", settings),
		basePath: "/" + strings.Trim(opts.BasePath, "/"),
	}
}

// retryUnreached retries only requests whose connection was never
// established, so no command is applied twice.
func retryUnreached(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	var opErr *net.OpError
	return err != nil && errors.As(err, &opErr) && opErr.Op == "dial", nil
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

type envelope struct {
	Value json.RawMessage `json:"value"`
}

// call sends one command and decodes its value into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		req := c.resty.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		var env envelope
		if err := sonic.Unmarshal(resp.Body(), &env); err != nil {
			if resp.IsError() {
				return &Error{Status: resp.StatusCode(), Code: CodeUnknown, Message: strings.TrimSpace(resp.String())}
			}
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}

		if resp.IsError() {
			e := &Error{Status: resp.StatusCode()}
			if err := sonic.Unmarshal(env.Value, e); err != nil || e.Code == "" {
				e.Code = CodeUnknown
				e.Message = strings.TrimSpace(resp.String())
			}
			return e
		}
		if out == nil || len(env.Value) == 0 {
			return nil
		}
		return sonic.Unmarshal(env.Value, out)
	})
}

func (c *Client) path(parts ...string) string {
	return c.basePath + "/" + strings.Join(parts, "/")
}

// Status is the driver readiness report.
type Status struct {
	Ready    bool           `json:"ready"`
	Message  string         `json:"message"`
	Build    map[string]any `json:"build"`
	Sessions int            `json:"sessions"`
}

// Status queries GET /status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.call(ctx, http.MethodGet, c.path("status"), nil, &s)
	return s, err
}

// SessionSummary is one entry of the session listing.
type SessionSummary struct {
	ID           string    `json:"id"`
	Created      time.Time `json:"created"`
	LastActionAt time.Time `json:"lastActionAt"`
	Root         bool      `json:"root"`
}

// Sessions lists live sessions.
func (c *Client) Sessions(ctx context.Context) ([]SessionSummary, error) {
	var out []SessionSummary
	err := c.call(ctx, http.MethodGet, "/sessions", nil, &out)
	return out, err
}

// Capabilities selects the automation target. Set exactly one field;
// App may be "Root" for the whole desktop.
type Capabilities struct {
	App            string
	TopLevelWindow string
}

func (caps Capabilities) alwaysMatch() map[string]any {
	m := map[string]any{"platformName": "Windows"}
	if caps.App != "" {
		m["appium:app"] = caps.App
	}
	if caps.TopLevelWindow != "" {
		m["appium:appTopLevelWindow"] = caps.TopLevelWindow
	}
	return m
}

// NewSession opens a session.
func (c *Client) NewSession(ctx context.Context, caps Capabilities) (*Session, error) {
	body := map[string]any{
		"capabilities": map[string]any{"alwaysMatch": caps.alwaysMatch()},
	}
	var out struct {
		SessionID    string         `json:"sessionId"`
		Capabilities map[string]any `json:"capabilities"`
	}
	if err := c.call(ctx, http.MethodPost, c.path("session"), body, &out); err != nil {
		return nil, err
	}
	return &Session{c: c, ID: out.SessionID, Capabilities: out.Capabilities}, nil
}
