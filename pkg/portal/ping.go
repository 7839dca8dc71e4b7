package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Ping issues a GET to target and reports an error unless it answers with a
// status below 500. It is used for reachability checks of the portal, the
// model server and the test-generation server; no cookie is sent.
func (c *Client) Ping(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("portal: ping: %w", err)
	}
	hc := &http.Client{Transport: c.http.Transport}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("portal: ping %s: %w", target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("portal: ping %s: HTTP %d", target, resp.StatusCode)
	}
	return nil
}

// Endpoint returns the absolute URL of a portal API path.
func (c *Client) Endpoint(path string) string { return c.endpoint(path, nil) }
