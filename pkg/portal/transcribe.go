package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
)

// ErrNoTranscript is returned when the transcription endpoint reports success
// without a transcribed_text field.
var ErrNoTranscript = errors.New("portal: transcription returned no text")

// Transcribe uploads a WAV recording and returns the recognised text. An
// empty string with a nil error means the backend heard nothing.
func (c *Client) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return "", fmt.Errorf("portal: transcribe: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("portal: transcribe: write audio: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return "", fmt.Errorf("portal: transcribe: write language: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("portal: transcribe: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.transcribePath, nil), &body)
	if err != nil {
		return "", fmt.Errorf("portal: transcribe: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Text *string `json:"transcribed_text"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("portal: transcribe: %w", err)
	}
	if resp.Text == nil {
		return "", ErrNoTranscript
	}
	return *resp.Text, nil
}
