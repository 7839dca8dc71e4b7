package chat

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/pkg/portal"
)

// Send posts text to the tutor for the selected chapter and appends the
// outcome to the transcript: the reply on success, or exactly one error turn.
//
// Network failures are retried according to the retry policy. Every retry
// moves the user's turn to the end of the transcript and appends a notice.
// Application failures and timeouts are never retried.
//
// Send returns [ErrEmptyMessage], [ErrNoChapter], [ErrBusy] or [ErrClosed]
// without touching the transcript. On failure after dispatch it returns a
// [*DispatchError]. If the chapter changes while a request is in flight the
// request is cancelled and Send returns [ErrSuperseded].
func (c *Controller) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	ctx, stop := c.bind(ctx)
	defer stop()

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return "", ErrClosed
	case !c.scope.Selected():
		c.mu.Unlock()
		return "", ErrNoChapter
	case c.sending || c.capture == CaptureTranscribing:
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.wg.Add(1)
	defer c.wg.Done()
	c.sending = true
	c.abortSend = stop
	scope, epoch := c.scope, c.epoch
	user := c.newTurn(SpeakerUser, TurnMessage, text)
	c.transcript = append(c.transcript, user)
	c.mu.Unlock()
	c.notify()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.abortSend = nil
		c.mu.Unlock()
		c.notify()
	}()

	ctx = observe.WithChapter(ctx, scope.SubjectID, scope.ChapterID)
	ctx, span := observe.StartSpan(ctx, "chat.send")
	defer span.End()

	reply, err := c.dispatch(ctx, portal.ChatRequest{
		Message:   text,
		ChapterID: scope.ChapterID,
		SubjectID: scope.SubjectID,
	}, epoch, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return reply, err
}

func (c *Controller) dispatch(ctx context.Context, req portal.ChatRequest, epoch uint64, userID uuid.UUID) (string, error) {
	log := observe.Logger(ctx)
	retries := c.retry.Attempts() - 1

	for attempt := 1; ; attempt++ {
		reply, err := c.attempt(ctx, req)
		if err == nil {
			if !c.appendIfCurrent(epoch, c.newTurn(SpeakerAssistant, TurnMessage, reply)) {
				return "", ErrSuperseded
			}
			log.Debug("chat: reply received", "attempt", attempt, "chars", len(reply))
			return reply, nil
		}

		var appErr *portal.AppError
		switch {
		case errors.As(err, &appErr):
			f := classify(appErr.Message)
			log.Warn("chat: backend reported failure", "failure", f, "status", appErr.StatusCode, "err", err)
			return "", c.fail(ctx, epoch, TurnError, failureText(f, appErr.Message),
				&DispatchError{Kind: KindApplication, Failure: f, Attempts: attempt, Err: err})

		case ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", c.fail(ctx, epoch, TurnNotice, msgCancelled,
				&DispatchError{Kind: KindCancelled, Attempts: attempt, Err: err})

		case isTimeout(err):
			log.Warn("chat: request timed out", "timeout", c.timeout, "err", err)
			return "", c.fail(ctx, epoch, TurnError, timeoutText(c.timeout),
				&DispatchError{Kind: KindTimeout, Attempts: attempt, Err: err})

		case !c.retry.ShouldRetry(attempt):
			log.Error("chat: giving up after network failures", "attempts", attempt, "err", err)
			return "", c.fail(ctx, epoch, TurnError, exhaustedText(attempt),
				&DispatchError{Kind: KindNetwork, Attempts: attempt, Err: err})
		}

		log.Warn("chat: network failure, retrying", "attempt", attempt, "err", err)
		c.mu.Lock()
		if epoch != c.epoch {
			c.mu.Unlock()
			return "", ErrSuperseded
		}
		c.removeLocked(userID)
		moved := c.newTurn(SpeakerUser, TurnMessage, req.Message)
		userID = moved.ID
		c.transcript = append(c.transcript, moved, c.newTurn(SpeakerAssistant, TurnNotice, retryText(attempt, retries)))
		c.mu.Unlock()
		c.notify()
		c.metrics.ChatRetries.Add(ctx, 1)

		if err := c.retry.Wait(ctx); err != nil {
			return "", c.fail(ctx, epoch, TurnNotice, msgCancelled,
				&DispatchError{Kind: KindCancelled, Attempts: attempt, Err: err})
		}
	}
}

// attempt issues one request under the per-attempt deadline.
func (c *Controller) attempt(ctx context.Context, req portal.ChatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()
	reply, err := c.svc.SendChat(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ChatDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("status", status)))
	return reply, err
}

// fail appends the terminal turn for de and returns the error reported to
// the caller.
func (c *Controller) fail(ctx context.Context, epoch uint64, kind TurnKind, text string, de *DispatchError) error {
	c.metrics.RecordChatFailure(ctx, de.Kind.String())
	if !c.appendIfCurrent(epoch, c.newTurn(SpeakerAssistant, kind, text)) {
		return ErrSuperseded
	}
	return de
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
