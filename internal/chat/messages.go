package chat

import (
	"fmt"
	"strings"
	"time"
)

// Text shown to the student. Kept together so screens and tests agree.
const (
	msgModelOffline = "The AI model server is offline right now. Please try again in a few minutes."
	msgSlowResponse = "The AI model is taking too long to respond. Please try a shorter question or try again later."
	msgConnectivity = "I'm having trouble connecting to the AI model. Please check that the model server is running and try again."
	msgGeneric      = "Sorry, something went wrong. Please try again."
	msgCancelled    = "Request cancelled."

	msgMicDenied     = "Microphone access was denied. Please allow access to the microphone and try again."
	msgMicFailed     = "Could not start recording. Please check your microphone and try again."
	msgCaptureFailed = "Recording stopped unexpectedly. Please try again."
	msgSTTFailed     = "Sorry, I couldn't transcribe your recording. Please try again or type your question."
	msgNoSpeech      = "I couldn't hear anything. Please try speaking again."
)

// The substrings are matched case-insensitively and in this order; the first
// group with a hit wins.
var failureMatchers = []struct {
	failure Failure
	needles []string
}{
	{FailureConnectivity, []string{"connection error"}},
	{FailureModelOffline, []string{"not running", "offline", "connection refused", "unavailable", "cannot connect"}},
	{FailureSlowResponse, []string{"timeout", "timed out", "took too long"}},
}

// classify maps a backend error text to a Failure.
func classify(backend string) Failure {
	lower := strings.ToLower(backend)
	for _, m := range failureMatchers {
		for _, n := range m.needles {
			if strings.Contains(lower, n) {
				return m.failure
			}
		}
	}
	return FailureGeneric
}

// failureText is the turn text for an application failure.
func failureText(f Failure, backend string) string {
	switch f {
	case FailureModelOffline:
		return msgModelOffline
	case FailureSlowResponse:
		return msgSlowResponse
	case FailureConnectivity:
		return msgConnectivity
	}
	if backend = strings.TrimSpace(backend); backend != "" {
		return "Sorry, something went wrong: " + backend
	}
	return msgGeneric
}

func timeoutText(d time.Duration) string {
	return fmt.Sprintf("The request took too long (more than %d seconds) and was stopped. Please try again.", int(d.Round(time.Second).Seconds()))
}

func retryText(attempt, of int) string {
	return fmt.Sprintf("Connection problem, retrying... (attempt %d of %d)", attempt, of)
}

func exhaustedText(attempts int) string {
	return fmt.Sprintf("Could not reach the tutor after %d attempts. Please check your connection and try again.", attempts)
}
