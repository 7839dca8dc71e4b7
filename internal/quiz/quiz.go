// Package quiz runs a generated multiple-choice chapter test: fetching the
// questions, recording answers and scoring the submission.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/pkg/portal"
)

// User-facing failure texts.
const (
	MsgGenerateFailed = "Failed to generate test"
	MsgConnectFailed  = "Failed to connect to the AI server."
)

// Verdicts shown after submission.
const (
	VerdictPerfect  = "Perfect Score!"
	VerdictGood     = "Good job!"
	VerdictPractice = "Keep practicing!"
)

var (
	// ErrSubmitted is returned when answering or submitting a finished test.
	ErrSubmitted = errors.New("quiz: test already submitted")

	// ErrIncomplete is returned by Submit while questions are unanswered.
	ErrIncomplete = errors.New("quiz: not every question is answered")

	// ErrNoSuchQuestion is returned for an out-of-range question index.
	ErrNoSuchQuestion = errors.New("quiz: no such question")

	// ErrInvalidOption is returned when the answer is not one of the options.
	ErrInvalidOption = errors.New("quiz: not one of the options")
)

// Error is a generation failure. Message is safe to show the student.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "quiz: " + e.Message
	}
	return fmt.Sprintf("quiz: %s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Generator produces the questions for a chapter. [*portal.Client] satisfies it.
type Generator interface {
	GenerateTest(ctx context.Context, chapterID int64, topic string) ([]portal.Question, error)
}

// DefaultTopic is the topic sent when the chapter title is unknown.
func DefaultTopic(chapterID int64) string {
	return fmt.Sprintf("Chapter %d Science", chapterID)
}

// Option configures [Generate].
type Option func(*options)

type options struct {
	metrics *observe.Metrics
}

// WithMetrics overrides the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Generate fetches a test for chapterID. An empty topic is replaced by
// [DefaultTopic]. Failures other than cancellation are returned as [*Error].
func Generate(ctx context.Context, gen Generator, chapterID int64, topic string, opts ...Option) (*Session, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	if topic == "" {
		topic = DefaultTopic(chapterID)
	}
	ctx, span := observe.StartSpan(observe.WithChapter(ctx, 0, chapterID), "quiz.generate")
	defer span.End()
	log := observe.Logger(ctx)

	start := time.Now()
	questions, err := gen.GenerateTest(ctx, chapterID, topic)
	status := "ok"
	defer func() {
		o.metrics.QuizDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(observe.Attr("status", status)))
	}()

	var appErr *portal.AppError
	switch {
	case err == nil && len(questions) == 0:
		status = "empty"
		log.Warn("quiz: server returned no questions")
		return nil, &Error{Message: MsgGenerateFailed}
	case err == nil:
	case ctx.Err() != nil:
		status = "cancelled"
		return nil, fmt.Errorf("quiz: generate: %w", err)
	case errors.As(err, &appErr):
		status = "error"
		msg := appErr.UserMessage()
		if msg == "" {
			msg = MsgGenerateFailed
		}
		log.Warn("quiz: generation failed", "err", err)
		return nil, &Error{Message: msg, Err: err}
	default:
		status = "unreachable"
		log.Error("quiz: test server unreachable", "err", err)
		return nil, &Error{Message: MsgConnectFailed, Err: err}
	}

	log.Debug("quiz: test generated", "questions", len(questions))
	return &Session{
		chapterID: chapterID,
		topic:     topic,
		questions: questions,
		answers:   make(map[int]string, len(questions)),
	}, nil
}

// Verdict returns the message for score out of total.
func Verdict(score, total int) string {
	switch {
	case score == total:
		return VerdictPerfect
	case 2*score >= total:
		return VerdictGood
	default:
		return VerdictPractice
	}
}
