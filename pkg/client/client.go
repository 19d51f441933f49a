package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"guestbook/pkg/logger"
	"guestbook/pkg/models"
)

var (
	ErrForbidden = errors.New("not allowed to delete this entry")
	ErrNotFound  = errors.New("entry not found")
	// ErrUnavailable accompanies the fallback collection when the remote
	// list could not be read.
	ErrUnavailable = errors.New("guestbook api unavailable")
)

// StatusError is a non-2xx answer the client does not treat as a soft outcome.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("guestbook api: status %d", e.Code)
	}
	return fmt.Sprintf("guestbook api: status %d: %s", e.Code, e.Message)
}

type Options struct {
	// Timeout bounds a request when the context carries no deadline.
	Timeout time.Duration
	// SoftSuccessDelay is waited before reporting a write against an
	// unreachable or unconfigured backend as done. Zero means 800ms,
	// negative means no wait.
	SoftSuccessDelay time.Duration
}

// Client talks to the guestbook HTTP endpoint. It holds no entry state.
type Client struct {
	endpoint  string
	http      *fasthttp.Client
	timeout   time.Duration
	softDelay time.Duration
}

func New(endpoint string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.SoftSuccessDelay < 0 {
		opts.SoftSuccessDelay = 0
	} else if opts.SoftSuccessDelay == 0 {
		opts.SoftSuccessDelay = 800 * time.Millisecond
	}
	return &Client{
		endpoint: endpoint,
		http: &fasthttp.Client{
			Name:                "ghost-tram-guestbook",
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout:   opts.Timeout,
		softDelay: opts.SoftSuccessDelay,
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// FetchAll returns the remote collection, most recent first. When the list
// cannot be read it still returns the fallback collection, paired with an
// error wrapping ErrUnavailable, so callers always have something to show
// and can tell stand-in data from server data. A cancelled context returns
// no entries.
func (c *Client) FetchAll(ctx context.Context) ([]models.Entry, error) {
	status, body, err := c.do(ctx, fasthttp.MethodGet, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.For("client").Debug("fetch failed, using fallback", "err", err)
		return Fallback(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status < 200 || status > 299 {
		logger.For("client").Debug("fetch not ok, using fallback", "status", status)
		return Fallback(), fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}

	var wire []models.WireEntry
	if err := json.Unmarshal(body, &wire); err != nil {
		logger.For("client").Warn("fetch returned malformed body, using fallback", "err", err)
		return Fallback(), fmt.Errorf("%w: decode list: %v", ErrUnavailable, err)
	}

	entries := make([]models.Entry, 0, len(wire))
	for _, w := range wire {
		entries = append(entries, w.ToEntry())
	}
	return entries, nil
}

// Post creates an entry and returns the id the server assigned. A 404 or an
// unreachable backend is a soft success: the call waits the soft delay and
// returns an empty id with a nil error.
func (c *Client) Post(ctx context.Context, e models.NewEntry) (string, error) {
	payload, err := json.Marshal(models.CreateRequest{
		Name:    e.Name,
		Message: e.Message,
		Date:    e.Date,
		OC:      models.Deref(e.OC),
		ReplyTo: models.Deref(e.ReplyTo),
	})
	if err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}

	status, body, err := c.do(ctx, fasthttp.MethodPost, payload)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.For("client").Debug("post transport failure, soft success", "err", err)
		return "", c.softSuccess(ctx)
	}

	switch {
	case status == fasthttp.StatusNotFound:
		return "", c.softSuccess(ctx)
	case status < 200 || status > 299:
		return "", statusError(status, body)
	}

	var resp struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.ID, nil
}

// Delete removes an entry on behalf of actingName. A denied request returns
// ErrForbidden, an unknown id ErrNotFound.
func (c *Client) Delete(ctx context.Context, id, actingName string) error {
	payload, err := json.Marshal(models.DeleteRequest{ID: id, Username: actingName})
	if err != nil {
		return fmt.Errorf("encode delete: %w", err)
	}

	status, body, err := c.do(ctx, fasthttp.MethodDelete, payload)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	switch {
	case status == fasthttp.StatusForbidden:
		return ErrForbidden
	case status == fasthttp.StatusNotFound:
		return ErrNotFound
	case status < 200 || status > 299:
		return statusError(status, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, payload []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(method)
	req.Header.Set("Cache-Control", "no-cache")
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}

func (c *Client) softSuccess(ctx context.Context) error {
	if c.softDelay <= 0 {
		return nil
	}
	t := time.NewTimer(c.softDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func statusError(status int, body []byte) error {
	var msg struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &msg)
	return &StatusError{Code: status, Message: msg.Error}
}
