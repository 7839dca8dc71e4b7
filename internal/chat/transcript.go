package chat

import (
	"time"

	"github.com/google/uuid"
)

// Speaker attributes a [Turn] to the student or the tutor.
type Speaker int

const (
	SpeakerUser Speaker = iota
	SpeakerAssistant
)

func (s Speaker) String() string {
	if s == SpeakerUser {
		return "user"
	}
	return "assistant"
}

// TurnKind tells screens how to render a [Turn].
type TurnKind int

const (
	// TurnMessage is conversation content.
	TurnMessage TurnKind = iota
	// TurnNotice is an interim status line, such as a retry announcement.
	TurnNotice
	// TurnError is a terminal failure shown in place of a reply.
	TurnError
)

func (k TurnKind) String() string {
	switch k {
	case TurnMessage:
		return "message"
	case TurnNotice:
		return "notice"
	case TurnError:
		return "error"
	default:
		return "unknown"
	}
}

// Turn is one entry of the transcript.
type Turn struct {
	ID      uuid.UUID
	Speaker Speaker
	Kind    TurnKind
	Text    string
	At      time.Time
}

// Scope identifies the conversation: one chapter of one subject. A zero
// ChapterID means no chapter is selected.
type Scope struct {
	SubjectID    int64
	ChapterID    int64
	ChapterTitle string
}

// Selected reports whether s names a chapter.
func (s Scope) Selected() bool { return s.ChapterID != 0 }

// CaptureState is the state of the voice input.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureRecording
	CaptureTranscribing
)

func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "idle"
	case CaptureRecording:
		return "recording"
	case CaptureTranscribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	Turns []Turn

	// Sending is true while a chat request is in flight.
	Sending bool

	// Busy is true while a chat request or a transcription is in flight.
	// Screens disable the submit control while it is set.
	Busy bool

	Capture CaptureState

	// Draft is text produced by a transcription and not yet taken.
	Draft string

	Scope Scope
}
