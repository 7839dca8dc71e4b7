// Package portal is an HTTP client for the tutor portal backends.
//
// Three services are involved:
//
//   - the portal API (authentication, catalog, chat, history, transcription),
//     reached at the configured base URL;
//   - the test-generation (RAG) server, reached at a separate quiz URL;
//   - the model server, which the portal API proxies chat requests to. The
//     client only talks to it directly for health checks.
//
// All calls are JSON over HTTP. Authentication is an opaque session cookie
// kept in the client's [http.CookieJar]; callers that want the session to
// survive process restarts supply their own persistent jar via [WithJar].
//
// Failures reported by a backend are returned as [*AppError]. Transport
// failures (refused connections, timeouts) are returned wrapped so that
// [errors.Is] and [errors.As] still see the underlying error.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultChatPath is the chat endpoint relative to the portal base URL.
	DefaultChatPath = "/api/chat/"
	// DefaultHistoryPath is the chat history endpoint.
	DefaultHistoryPath = "/api/chat/history/"
	// DefaultTranscribePath is the speech transcription endpoint.
	DefaultTranscribePath = "/api/transcribe/"
	// DefaultQuizURL is the test-generation server.
	DefaultQuizURL = "http://127.0.0.1:5002"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20
)

// Client talks to the portal backends. It is safe for concurrent use.
type Client struct {
	base           *url.URL
	http           *http.Client
	chatPath       string
	historyPath    string
	transcribePath string
	quizURL        string
}

// Option is a functional option for [New].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is used for the
// session cookie; a jar is created if it has none.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cp := *c
		cl.http = &cp
	}
}

// WithTransport sets the RoundTripper used for every request.
func WithTransport(rt http.RoundTripper) Option {
	return func(cl *Client) { cl.http.Transport = rt }
}

// WithJar sets the cookie jar holding the session cookie.
func WithJar(jar http.CookieJar) Option {
	return func(cl *Client) { cl.http.Jar = jar }
}

// WithChatPath overrides [DefaultChatPath].
func WithChatPath(p string) Option {
	return func(cl *Client) { cl.chatPath = p }
}

// WithHistoryPath overrides [DefaultHistoryPath].
func WithHistoryPath(p string) Option {
	return func(cl *Client) { cl.historyPath = p }
}

// WithTranscribePath overrides [DefaultTranscribePath].
func WithTranscribePath(p string) Option {
	return func(cl *Client) { cl.transcribePath = p }
}

// WithQuizURL overrides [DefaultQuizURL].
func WithQuizURL(u string) Option {
	return func(cl *Client) { cl.quizURL = strings.TrimRight(u, "/") }
}

// New returns a Client for the portal API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("portal: base URL must not be empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("portal: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("portal: base URL %q must be http or https", baseURL)
	}

	c := &Client{
		base:           u,
		http:           &http.Client{},
		chatPath:       DefaultChatPath,
		historyPath:    DefaultHistoryPath,
		transcribePath: DefaultTranscribePath,
		quizURL:        DefaultQuizURL,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("portal: cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the portal API base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// QuizURL returns the test-generation server URL.
func (c *Client) QuizURL() string { return c.quizURL }

// Jar returns the cookie jar holding the session.
func (c *Client) Jar() http.CookieJar { return c.http.Jar }

// endpoint resolves path against the base URL, appending query if non-nil.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// envelope is the union of the status fields the backends put next to their
// payload.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Warning string `json:"warning"`
	Detail  string `json:"detail"`
}

func (e envelope) text() string {
	for _, s := range []string{e.Error, e.Detail, e.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}

// doJSON sends a JSON request (body may be nil) and decodes a JSON response
// into out (which may be nil).
func (c *Client) doJSON(ctx context.Context, method, target string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// do executes req and decodes the response into out. Non-2xx responses and
// {"success": false} bodies become *AppError.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	jsonErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.text()
		if jsonErr != nil || msg == "" {
			msg = strings.TrimSpace(string(data))
			if msg == "" || len(msg) > 200 || strings.HasPrefix(msg, "<") {
				msg = http.StatusText(resp.StatusCode)
			}
		}
		return &AppError{StatusCode: resp.StatusCode, Message: msg, Warning: env.Warning}
	}

	if jsonErr == nil && env.Success != nil && !*env.Success {
		return &AppError{StatusCode: resp.StatusCode, Message: env.text(), Warning: env.Warning}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
