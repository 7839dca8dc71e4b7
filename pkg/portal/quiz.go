package portal

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// GenerateTest asks the test-generation server for multiple-choice questions
// about a chapter. The server expects the chapter ID as a string.
func (c *Client) GenerateTest(ctx context.Context, chapterID int64, topic string) ([]Question, error) {
	body := map[string]string{
		"chapter_id": strconv.FormatInt(chapterID, 10),
		"topic":      topic,
	}
	var resp struct {
		Questions []Question `json:"questions"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.quizURL+"/generate_test", body, &resp); err != nil {
		return nil, fmt.Errorf("portal: generate test: %w", err)
	}
	return resp.Questions, nil
}
