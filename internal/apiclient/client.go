// Package apiclient is the console's outbound client for the school payments API.
//
// Every call carries the session's access credential. A 401 on the first attempt
// triggers one credential renewal and one retry; if renewal is impossible the
// session is cleared and the caller gets a *SessionEndedError. Other failures
// are returned unchanged as *StatusError.
package apiclient

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

	"schoolpay/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultRefreshPath = "/auth/refresh"
	maxErrorBody       = 64 << 10
)

// Session is the part of the session manager the client needs. *session.Manager satisfies it.
type Session interface {
	Credentials() (access, refresh string)
	RotateCredentials(prev, access, refresh string) bool
	Clear()
}

// SessionEndedHook runs after the session was cleared by a failed renewal.
// The console uses it to force the operator back to the login page.
type SessionEndedHook func(ctx context.Context, cause error)

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RefreshPath string
}

type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	sess      Session
	refresher Refresher
	log       *slog.Logger

	onSessionEnded SessionEndedHook
	flights        singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

func WithSessionEndedHook(h SessionEndedHook) Option {
	return func(c *Client) { c.onSessionEnded = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(cfg Config, sess Session, opts ...Option) (*Client, error) {
	if sess == nil {
		return nil, errors.New("apiclient: session is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url must be absolute, got %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = defaultRefreshPath
	}

	c := &Client{base: base, timeout: cfg.Timeout, sess: sess}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.refresher == nil {
		c.refresher = NewHTTPRefresher(c.resolve(cfg.RefreshPath).String(), &http.Client{Timeout: cfg.Timeout})
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c, nil
}

// Get is Do for GET requests with query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Do sends a JSON request and decodes a JSON response into out (when non-nil).
// path is relative to the base URL and may carry a query string.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(method, path, body)
	if err != nil {
		return err
	}

	used, _ := c.sess.Credentials()
	err = c.send(ctx, method, path, payload, used, out)
	if !isExpired(err) {
		return c.observe(ctx, err)
	}

	access, err := c.renew(ctx, used, err)
	if err != nil {
		return err
	}

	// Exactly one retry; a second 401 is returned to the caller as-is.
	return c.observe(ctx, c.send(ctx, method, path, payload, access, out))
}

// DoPublic sends a request without credentials and without renewal.
// Sign-in uses it: a rejected password must not end a session.
func (c *Client) DoPublic(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(method, path, body)
	if err != nil {
		return err
	}
	return c.observe(ctx, c.send(ctx, method, path, payload, "", out))
}

func encodeBody(method, path string, body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
	}
	return b, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, access string, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	u := c.resolve(path)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("apiclient: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp, method, u.Path)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

// observe logs failures the way the operator needs to see them and passes err through.
func (c *Client) observe(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	log := logger.From(ctx)
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.StatusCode == http.StatusForbidden:
		apiErrorsTotal.WithLabelValues("4xx").Inc()
		log.Warn("api access forbidden", "path", se.Path, "message", se.Message)
	case errors.As(err, &se) && se.StatusCode >= 500:
		apiErrorsTotal.WithLabelValues("5xx").Inc()
		log.Error("api server error", "path", se.Path, "status", se.StatusCode, "message", se.Message)
	case errors.As(err, &se):
		apiErrorsTotal.WithLabelValues("4xx").Inc()
	default:
		apiErrorsTotal.WithLabelValues("transport").Inc()
	}
	return err
}

func (c *Client) resolve(path string) *url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: path}
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return &u
}

func readStatusError(resp *http.Response, method, path string) *StatusError {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &msg) == nil {
		se.Message = msg.Message
		if se.Message == "" {
			se.Message = msg.Error
		}
	}
	return se
}
