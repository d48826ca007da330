// client/gateway/client.go

// Package gateway is a thin HTTP client for the notes integration API
// mounted at /api/integration. Every failure is returned as *Error.
package gateway

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-client/domain"
)

const (
	// BasePath is where the integration layer exposes its routes.
	BasePath = "/api/integration"

	// DefaultTimeout bounds every request, including reading the body.
	DefaultTimeout = 10 * time.Second

	headerRequestID = "X-Request-ID"
	contentTypeJSON = "application/json"
)

var errMissingID = errors.New("missing id")

const (
	opList   = "Failed to fetch notes"
	opGet    = "Failed to fetch note"
	opCreate = "Failed to create note"
	opUpdate = "Failed to update note"
	opDelete = "Failed to delete note"
	opHealth = "Health check failed"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. A zero Timeout on h is filled
// from WithTimeout (or DefaultTimeout); h itself is not modified.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// Client is stateless after construction and safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	headers    http.Header
	log        zerolog.Logger
}

// New creates a Client for the API host at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("gateway: base URL %q must be absolute", baseURL)
	}
	parsed = parsed.JoinPath(BasePath)

	c := &Client{
		baseURL: parsed,
		timeout: DefaultTimeout,
		headers: make(http.Header),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	switch {
	case c.httpClient == nil:
		c.httpClient = &http.Client{Timeout: c.timeout}
	case c.httpClient.Timeout == 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the resolved integration endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) ListNotes(ctx context.Context) ([]domain.Note, error) {
	var notes []domain.Note
	status, err := c.do(ctx, opList, http.MethodGet, "notes", nil, &notes)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if n.ID == "" {
			return nil, decodeError(opList, status, errMissingID)
		}
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	return notes, nil
}

func (c *Client) GetNote(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	return c.noteRequest(ctx, opGet, http.MethodGet, notePath(id), nil)
}

func (c *Client) CreateNote(ctx context.Context, data domain.NoteData) (*domain.Note, error) {
	return c.noteRequest(ctx, opCreate, http.MethodPost, "notes", data)
}

// UpdateNote replaces every editable field of the note.
func (c *Client) UpdateNote(ctx context.Context, id domain.NoteID, data domain.NoteData) (*domain.Note, error) {
	return c.noteRequest(ctx, opUpdate, http.MethodPut, notePath(id), data)
}

func (c *Client) DeleteNote(ctx context.Context, id domain.NoteID) error {
	_, err := c.do(ctx, opDelete, http.MethodDelete, notePath(id), nil, nil)
	return err
}

func (c *Client) HealthCheck(ctx context.Context) (*domain.HealthStatus, error) {
	var health domain.HealthStatus
	if _, err := c.do(ctx, opHealth, http.MethodGet, "health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// noteRequest expects a single note back. A note without an id is malformed.
func (c *Client) noteRequest(ctx context.Context, op, method, path string, in any) (*domain.Note, error) {
	var note domain.Note
	status, err := c.do(ctx, op, method, path, in, &note)
	if err != nil {
		return nil, err
	}
	if note.ID == "" {
		return nil, decodeError(op, status, errMissingID)
	}
	return &note, nil
}

func notePath(id domain.NoteID) string {
	return "notes/" + url.PathEscape(id.String())
}

// do performs one request and returns the response status. A nil out
// discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if in != nil {
		data, err := jsonMarshal(in)
		if err != nil {
			return 0, &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	fullURL := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return 0, transportError(op, err)
	}
	req.Header = c.headers.Clone()
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	reqID := uuid.NewString()
	req.Header.Set(headerRequestID, reqID)

	logger := c.log.With().Str("method", method).Str("url", fullURL).Str("request_id", reqID).Logger()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("request failed")
		return 0, transportError(op, unwrapURLError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("read response body")
		return resp.StatusCode, transportError(op, err)
	}

	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, responseError(op, resp.StatusCode, data)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return resp.StatusCode, decodeError(op, resp.StatusCode, errors.New("empty body"))
	case bytes.Equal(trimmed, []byte("null")):
		return resp.StatusCode, decodeError(op, resp.StatusCode, errors.New("null body"))
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return resp.StatusCode, decodeError(op, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

// unwrapURLError strips the "Get \"http://...\":" prefix net/http adds so
// the message shown to users names the failure, not the URL.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
