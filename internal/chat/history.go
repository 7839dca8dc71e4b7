package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/tutor/internal/observe"
	"github.com/MrWong99/tutor/pkg/portal"
)

// SelectChapter switches the conversation to scope. The transcript and the
// draft are cleared immediately and any in-flight chat request is
// cancelled. For a selected chapter the stored history is then loaded and
// replaces the transcript wholesale.
//
// If another SelectChapter call wins the race, the loaded history is
// discarded and [ErrSuperseded] is returned. A zero scope clears the
// conversation without contacting the backend.
func (c *Controller) SelectChapter(ctx context.Context, scope Scope) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.epoch++
	epoch := c.epoch
	c.scope = scope
	c.transcript = nil
	c.draft = ""
	abort := c.abortSend
	c.mu.Unlock()
	if abort != nil {
		abort()
	}
	c.notify()

	if !scope.Selected() {
		return nil
	}

	ctx, stop := c.bind(observe.WithChapter(ctx, scope.SubjectID, scope.ChapterID))
	defer stop()
	entries, err := c.svc.History(ctx, scope.SubjectID, scope.ChapterID)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		observe.Logger(ctx).Warn("chat: failed to load history", "err", err)
		return fmt.Errorf("chat: load history: %w", err)
	}
	turns := make([]Turn, 0, len(entries))
	for _, e := range entries {
		turns = append(turns, c.historyTurn(e))
	}
	c.transcript = turns
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Controller) historyTurn(e portal.HistoryEntry) Turn {
	sp := SpeakerAssistant
	if strings.EqualFold(strings.TrimSpace(e.Role), "user") {
		sp = SpeakerUser
	}
	return c.newTurn(sp, TurnMessage, e.Message)
}
