// Package mock provides in-memory mock implementations of the [audio.Device]
// and [audio.Capture] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so that
// tests can assert on call counts, and they expose exported fields that the
// test can set to control return values.
//
// Typical usage:
//
//	capture := mock.NewCapture(audio.SpeechFormat, []byte{1, 2, 3, 4})
//	dev := &mock.Device{OpenResult: capture}
//	c, err := dev.Open(ctx)
//	// ... c.Stop() closes c.Chunks() after the preloaded chunks.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/tutor/pkg/audio"
)

// ─── Capture ─────────────────────────────────────────────────────────────────

// Capture is a mock implementation of [audio.Capture]. Chunks passed to
// [NewCapture] are buffered up front; further chunks can be pushed with Feed.
// Stop and End both close the chunk channel exactly once.
type Capture struct {
	mu     sync.Mutex
	ch     chan []byte
	format audio.Format
	ended  bool
	err    error

	// CloseError is returned by [Capture.Close].
	CloseError error

	// CallCountStop records how many times Stop was called.
	CallCountStop int

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

// NewCapture returns a Capture in format f with the given chunks preloaded.
func NewCapture(f audio.Format, chunks ...[]byte) *Capture {
	ch := make(chan []byte, len(chunks)+64)
	for _, c := range chunks {
		ch <- c
	}
	return &Capture{ch: ch, format: f}
}

// Feed pushes one more chunk. It is a no-op once the capture has ended.
func (c *Capture) Feed(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return
	}
	c.ch <- chunk
}

// End simulates the input going away with err (nil for a clean end of stream).
func (c *Capture) End(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.end(err)
}

func (c *Capture) end(err error) {
	if c.ended {
		return
	}
	c.ended = true
	c.err = err
	close(c.ch)
}

// Chunks implements [audio.Capture].
func (c *Capture) Chunks() <-chan []byte { return c.ch }

// Format implements [audio.Capture].
func (c *Capture) Format() audio.Format { return c.format }

// Stop implements [audio.Capture].
func (c *Capture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountStop++
	c.end(nil)
}

// Err implements [audio.Capture].
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close implements [audio.Capture].
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountClose++
	c.end(nil)
	return c.CloseError
}

// Stops returns the current Stop call count.
func (c *Capture) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCountStop
}

// Closes returns the current Close call count.
func (c *Capture) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCountClose
}

var _ audio.Capture = (*Capture)(nil)

// ─── Device ──────────────────────────────────────────────────────────────────

// Device is a mock implementation of [audio.Device].
type Device struct {
	mu sync.Mutex

	// OpenResult is returned by [Device.Open] when OpenError is nil.
	OpenResult *Capture

	// OpenError is returned by [Device.Open] when non-nil.
	OpenError error

	// OpenHook, if set, runs inside Open before the result is returned.
	// Tests use it to block Open and observe intermediate state.
	OpenHook func(ctx context.Context)

	// CallCountOpen records how many times Open was called.
	CallCountOpen int
}

// Open implements [audio.Device].
func (d *Device) Open(ctx context.Context) (audio.Capture, error) {
	d.mu.Lock()
	d.CallCountOpen++
	hook := d.OpenHook
	result, err := d.OpenResult, d.OpenError
	d.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = NewCapture(audio.SpeechFormat)
	}
	return result, nil
}

// Opens returns the current Open call count.
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.CallCountOpen
}

var _ audio.Device = (*Device)(nil)
