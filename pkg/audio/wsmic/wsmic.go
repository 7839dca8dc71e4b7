// Package wsmic implements [audio.Device] against a WebSocket capture bridge,
// for example a browser page or a sidecar that owns the physical microphone.
//
// Protocol:
//
//   - The bridge streams binary messages containing 16-bit signed
//     little-endian PCM.
//   - It may send a text message {"type":"format","sample_rate":N,"channels":N}
//     before the first audio message to announce the PCM format.
//   - It may send {"type":"error","message":"..."} to abort the capture; a
//     message containing "permission" maps to [audio.ErrPermissionDenied].
//   - The client sends {"type":"stop"} to end the capture; the bridge flushes
//     any buffered audio and closes the connection normally.
//
// A 401 or 403 on the upgrade request is reported as
// [audio.ErrPermissionDenied].
package wsmic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/tutor/pkg/audio"
)

const defaultGrace = 2 * time.Second

// Device dials a capture bridge on every [Device.Open].
type Device struct {
	url    string
	token  string
	format audio.Format
	grace  time.Duration
	client *http.Client
}

// Option is a functional option for [New].
type Option func(*Device)

// WithToken sets a bearer token sent on the upgrade request.
func WithToken(token string) Option {
	return func(d *Device) { d.token = token }
}

// WithFormat sets the PCM format assumed until the bridge announces one.
func WithFormat(f audio.Format) Option {
	return func(d *Device) { d.format = f }
}

// WithGracePeriod sets how long the bridge may take to close after a stop
// request before the client closes the connection itself.
func WithGracePeriod(dur time.Duration) Option {
	return func(d *Device) { d.grace = dur }
}

// WithHTTPClient sets the client used for the upgrade request.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Device) { d.client = c }
}

// New returns a Device for the bridge at url (ws:// or wss://).
func New(url string, opts ...Option) *Device {
	d := &Device{
		url:    url,
		format: audio.SpeechFormat,
		grace:  defaultGrace,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

type control struct {
	Type       string `json:"type"`
	Message    string `json:"message,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// Open implements [audio.Device].
func (d *Device) Open(ctx context.Context) (audio.Capture, error) {
	headers := http.Header{}
	if d.token != "" {
		headers.Set("Authorization", "Bearer "+d.token)
	}

	conn, resp, err := websocket.Dial(ctx, d.url, &websocket.DialOptions{
		HTTPHeader: headers,
		HTTPClient: d.client,
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("wsmic: dial: %s: %w", resp.Status, audio.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("wsmic: dial: %w", err)
	}
	conn.SetReadLimit(1 << 20)

	readCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &capture{
		conn:   conn,
		format: d.format,
		grace:  d.grace,
		cancel: cancel,
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop(readCtx)

	slog.Debug("wsmic: capture started", "url", d.url)
	return c, nil
}

var _ audio.Device = (*Device)(nil)

type capture struct {
	conn   *websocket.Conn
	grace  time.Duration
	cancel context.CancelFunc
	chunks chan []byte
	done   chan struct{}

	mu      sync.Mutex
	format  audio.Format
	err     error
	stopped bool

	stopOnce  sync.Once
	closeOnce sync.Once
}

func (c *capture) readLoop(ctx context.Context) {
	defer close(c.done)
	defer close(c.chunks)

	for {
		typ, msg, err := c.conn.Read(ctx)
		if err != nil {
			c.finish(err)
			return
		}
		if typ == websocket.MessageBinary {
			select {
			case c.chunks <- msg:
			case <-ctx.Done():
				return
			}
			continue
		}

		var ctl control
		if err := json.Unmarshal(msg, &ctl); err != nil {
			slog.Warn("wsmic: ignoring malformed control message", "err", err)
			continue
		}
		switch ctl.Type {
		case "format":
			c.mu.Lock()
			if f := (audio.Format{SampleRate: ctl.SampleRate, Channels: ctl.Channels}); f.Valid() {
				c.format = f
			}
			c.mu.Unlock()
		case "error":
			c.mu.Lock()
			c.err = bridgeError(ctl.Message)
			c.mu.Unlock()
			c.conn.Close(websocket.StatusNormalClosure, "capture aborted")
			return
		}
	}
}

// finish records why the read loop ended. Normal closure and reads cut short
// by Stop or Close are a clean end.
func (c *capture) finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil || c.stopped {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
		return
	}
	c.err = fmt.Errorf("wsmic: read: %w", err)
}

func bridgeError(msg string) error {
	if strings.Contains(strings.ToLower(msg), "permission") {
		return fmt.Errorf("wsmic: %s: %w", msg, audio.ErrPermissionDenied)
	}
	return fmt.Errorf("wsmic: bridge error: %s", msg)
}

func (c *capture) Chunks() <-chan []byte { return c.chunks }

func (c *capture) Format() audio.Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// Stop asks the bridge to flush and close. If it has not closed within the
// grace period the connection is closed from this side.
func (c *capture) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), c.grace)
		defer cancel()
		if err := c.conn.Write(ctx, websocket.MessageText, []byte(`{"type":"stop"}`)); err != nil {
			c.cancel()
			return
		}
		go func() {
			t := time.NewTimer(c.grace)
			defer t.Stop()
			select {
			case <-c.done:
			case <-t.C:
				c.cancel()
			}
		}()
	})
}

func (c *capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *capture) Close() error {
	c.closeOnce.Do(func() {
		c.Stop()
		c.cancel()
		<-c.done
		c.conn.Close(websocket.StatusNormalClosure, "capture closed")
	})
	return nil
}
