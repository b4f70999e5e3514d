// Package syncclient sends seating chart changes to the seating service.
//
// Every call posts (or gets) JSON and decodes a JSON payload.  A call
// succeeds when the HTTP status is 2xx and the payload does not mark itself
// failed with "ok": false.  Any other outcome is returned as *Error, whose
// Message comes from the payload when it carries one.
//
// Calls are not queued or cancelled by the client; callers that want a
// deadline pass one in the context.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/config"
)

// Both anti-forgery header names are sent because server-side checks
// differ in which one they read.
const (
	HeaderCSRFToken  = "X-CSRFToken"
	HeaderXCSRFToken = "X-CSRF-Token"
)

// Client talks to the seating endpoints of one course.
type Client struct {
	base   *url.URL
	page   config.PageConfig
	http   *http.Client
	csrf   string
	bearer string
	log    *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient, e.g. to add a cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCSRFToken sets the anti-forgery token issued with the page.
func WithCSRFToken(token string) Option {
	return func(c *Client) { c.csrf = token }
}

// WithBearerToken authenticates every call with a JWT.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearer = token }
}

// WithLogger sets the logger used for failed calls.  Nil keeps the no-op
// logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client resolving the page's endpoint paths against
// baseURL.
func New(baseURL string, page config.PageConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	c := &Client{base: base, page: page, http: http.DefaultClient, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetCSRFToken replaces the anti-forgery token, e.g. after a page reload.
func (c *Client) SetCSRFToken(token string) { c.csrf = token }

// Page returns the endpoint configuration the client was built with.
func (c *Client) Page() config.PageConfig { return c.page }

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}

func userPath(base string, userID uint64) string {
	return base + strconv.FormatUint(userID, 10)
}

// do sends body (nil for GET) and decodes a successful payload into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), rdr)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.csrf != "" {
		req.Header.Set(HeaderCSRFToken, c.csrf)
		req.Header.Set(HeaderXCSRFToken, c.csrf)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("seating request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &Error{Message: "network error: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: "read response: " + err.Error(), Err: err}
	}
	if err := checkPayload(resp.StatusCode, raw); err != nil {
		c.log.Warn("seating request rejected",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", resp.StatusCode), zap.Error(err))
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "invalid response payload", Err: err}
	}
	return nil
}

// envelope is the part of an object payload that signals rejection.
type envelope struct {
	OK      *bool           `json:"ok"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

func (e envelope) text() string {
	switch {
	case e.Error != "":
		return e.Error
	case e.Message != "":
		return e.Message
	}
	var s string
	if len(e.Detail) > 0 && json.Unmarshal(e.Detail, &s) == nil {
		return s
	}
	return ""
}

// checkPayload applies the success rule: 2xx and not {"ok": false}.
func checkPayload(status int, raw []byte) error {
	var env envelope
	isObject := bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
	if isObject {
		_ = json.Unmarshal(raw, &env)
	}
	transportOK := status >= 200 && status < 300
	if transportOK && (env.OK == nil || *env.OK) {
		return nil
	}
	msg := env.text()
	switch {
	case msg != "":
	case transportOK:
		msg = "request rejected by server"
	default:
		msg = fmt.Sprintf("request failed with status %d %s", status, strings.ToLower(http.StatusText(status)))
	}
	return &Error{Status: status, Message: msg, Rejected: env.OK != nil && !*env.OK}
}
