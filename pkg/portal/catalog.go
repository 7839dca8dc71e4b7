package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// subjectList accepts both {"subjects": [...]} and a bare array.
type subjectList []Subject

func (l *subjectList) UnmarshalJSON(data []byte) error {
	var bare []Subject
	if err := json.Unmarshal(data, &bare); err == nil {
		*l = bare
		return nil
	}
	var wrapped struct {
		Subjects []Subject `json:"subjects"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Subjects
	return nil
}

// Subjects lists all subjects.
func (c *Client) Subjects(ctx context.Context) ([]Subject, error) {
	var list subjectList
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/api/subjects/", nil), nil, &list); err != nil {
		return nil, fmt.Errorf("portal: subjects: %w", err)
	}
	return list, nil
}

// Chapters lists the chapters of a subject for the student's standard, in
// portal order.
func (c *Client) Chapters(ctx context.Context, subjectID int64) ([]Chapter, error) {
	path := "/api/chapters/" + strconv.FormatInt(subjectID, 10) + "/"
	var chapters []Chapter
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(path, nil), nil, &chapters); err != nil {
		return nil, fmt.Errorf("portal: chapters: %w", err)
	}
	return chapters, nil
}
