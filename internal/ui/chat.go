package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrWong99/tutor/internal/chat"
)

// Conversation is the controller behind a chat screen. [*chat.Controller]
// satisfies it.
type Conversation interface {
	Send(ctx context.Context, text string) (string, error)
	ToggleCapture(ctx context.Context)
	SelectChapter(ctx context.Context, scope chat.Scope) error
	Snapshot() chat.Snapshot
	TakeDraft() string
	VoiceEnabled() bool
	Close() error
}

var _ Conversation = (*chat.Controller)(nil)

// Messages carry the id of the screen that issued them so that results
// arriving after the screen was left are dropped.
type (
	stateMsg  struct{ id int }
	toggleMsg struct{ id int }
	sendMsg   struct {
		id  int
		err error
	}
	historyMsg struct {
		id  int
		err error
	}
)

// headerHeight and footerHeight are the rows around the transcript viewport.
const (
	headerHeight = 2
	footerHeight = 5
)

// ChatScreen is the conversation view for one chapter.
type ChatScreen struct {
	id      int
	ctx     context.Context
	cancel  context.CancelFunc
	conv    Conversation
	events  <-chan struct{}
	scope   chat.Scope
	subject string

	snap     chat.Snapshot
	loadErr  error
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	styles   Styles
	width    int
}

func newChatScreen(ctx context.Context, id int, conv Conversation, events <-chan struct{}, chosen ChapterChosenMsg) ChatScreen {
	ctx, cancel := context.WithCancel(ctx)

	in := textinput.New()
	in.Placeholder = "Ask a question about " + chosen.Scope.ChapterTitle
	in.CharLimit = 2000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return ChatScreen{
		id:       id,
		ctx:      ctx,
		cancel:   cancel,
		conv:     conv,
		events:   events,
		scope:    chosen.Scope,
		subject:  chosen.Subject,
		viewport: viewport.New(0, 0),
		input:    in,
		spinner:  sp,
		styles:   DefaultStyles(),
	}
}

// Init loads the chapter's history and subscribes to controller updates.
func (m ChatScreen) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForState(), m.selectChapter())
}

// Close releases the controller. It is safe to call more than once.
func (m ChatScreen) Close() {
	m.cancel()
	if err := m.conv.Close(); err != nil {
		slog.Warn("ui: close conversation", "err", err)
	}
}

// SetSize lays the screen out for a terminal of the given size.
func (m *ChatScreen) SetSize(width, height int) {
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = max(height-headerHeight-footerHeight, 1)
	m.input.Width = max(width-6, 10)
	m.render()
}

func (m ChatScreen) waitForState() tea.Cmd {
	ctx, events, id := m.ctx, m.events, m.id
	return func() tea.Msg {
		select {
		case <-events:
			return stateMsg{id: id}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m ChatScreen) selectChapter() tea.Cmd {
	ctx, conv, scope, id := m.ctx, m.conv, m.scope, m.id
	return func() tea.Msg {
		return historyMsg{id: id, err: conv.SelectChapter(ctx, scope)}
	}
}

func (m ChatScreen) send(text string) tea.Cmd {
	ctx, conv, id := m.ctx, m.conv, m.id
	return func() tea.Msg {
		_, err := conv.Send(ctx, text)
		return sendMsg{id: id, err: err}
	}
}

func (m ChatScreen) toggle() tea.Cmd {
	ctx, conv, id := m.ctx, m.conv, m.id
	return func() tea.Msg {
		conv.ToggleCapture(ctx)
		return toggleMsg{id: id}
	}
}

// Update implements the chat screen's half of tea.Model.
func (m ChatScreen) Update(msg tea.Msg) (ChatScreen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		if msg.id != m.id {
			return m, nil
		}
		m.refresh()
		return m, m.waitForState()

	case historyMsg:
		if msg.id != m.id {
			return m, nil
		}
		if msg.err != nil && !errors.Is(msg.err, chat.ErrSuperseded) && !errors.Is(msg.err, chat.ErrClosed) {
			m.loadErr = msg.err
		}
		m.refresh()
		return m, nil

	case sendMsg:
		if msg.id != m.id {
			return m, nil
		}
		// Failures are already on the transcript.
		m.refresh()
		return m, nil

	case toggleMsg:
		if msg.id == m.id {
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.snap.Busy {
				return m, nil
			}
			m.input.Reset()
			return m, m.send(text)
		case "ctrl+r":
			if !m.conv.VoiceEnabled() {
				return m, nil
			}
			return m, m.toggle()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh pulls the controller state and moves a fresh transcription into the
// input line.
func (m *ChatScreen) refresh() {
	m.snap = m.conv.Snapshot()
	if draft := m.conv.TakeDraft(); draft != "" {
		m.input.SetValue(draft)
		m.input.CursorEnd()
	}
	if m.snap.Busy {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
	m.render()
}

func (m *ChatScreen) render() {
	width := max(m.viewport.Width-2, 20)
	var b strings.Builder
	for i, t := range m.snap.Turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderTurn(t, width, m.styles))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func renderTurn(t chat.Turn, width int, st Styles) string {
	body := lipgloss.NewStyle().Width(width)
	switch t.Kind {
	case chat.TurnNotice:
		return st.Notice.Width(width).Render(t.Text)
	case chat.TurnError:
		return st.Error.Width(width).Render("! " + t.Text)
	}
	if t.Speaker == chat.SpeakerUser {
		return st.User.Render("You") + "\n" + body.Render(t.Text)
	}
	return st.Assistant.Render("Tutor") + "\n" + body.Render(t.Text)
}

func (m ChatScreen) status() string {
	switch {
	case m.snap.Capture == chat.CaptureRecording:
		return m.styles.Recording.Render("● Recording") + m.styles.Muted.Render("  ctrl+r to stop")
	case m.snap.Capture == chat.CaptureTranscribing:
		return m.spinner.View() + " Transcribing..."
	case m.snap.Sending:
		return m.spinner.View() + " The tutor is thinking..."
	case m.loadErr != nil:
		return m.styles.Error.Render("Could not load history: " + m.loadErr.Error())
	}
	hint := "enter send · esc chapters · ctrl+c quit"
	if m.conv.VoiceEnabled() {
		hint = "enter send · ctrl+r voice · esc chapters · ctrl+c quit"
	}
	return m.styles.Muted.Render(hint)
}

// View implements tea.Model.
func (m ChatScreen) View() string {
	header := m.styles.Header.Render(m.subject + " › " + m.scope.ChapterTitle)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.styles.Input.Render(m.input.View()),
		m.status(),
	)
}
