package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// SendChat sends one message to the tutor and returns the reply text. The
// call is bounded only by ctx; callers set the per-attempt deadline.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint(c.chatPath, nil), req, &resp); err != nil {
		return "", fmt.Errorf("portal: chat: %w", err)
	}
	return resp.Response, nil
}

// History returns the stored conversation for a chapter, oldest first.
func (c *Client) History(ctx context.Context, subjectID, chapterID int64) ([]HistoryEntry, error) {
	q := url.Values{}
	q.Set("subject_id", strconv.FormatInt(subjectID, 10))
	q.Set("chapter_id", strconv.FormatInt(chapterID, 10))

	var resp struct {
		History []HistoryEntry `json:"history"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(c.historyPath, q), nil, &resp); err != nil {
		return nil, fmt.Errorf("portal: history: %w", err)
	}
	return resp.History, nil
}
