package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrWong99/tutor/internal/chat"
	"github.com/MrWong99/tutor/pkg/portal"
)

// ConversationFactory creates the controller for a newly opened chapter.
// notify must be called after every controller state change; it never blocks.
type ConversationFactory func(notify func()) Conversation

// AppOption configures an [App].
type AppOption func(*App)

// WithInitialChapter opens the chat screen for scope directly, skipping the
// picker.
func WithInitialChapter(scope chat.Scope, subject string) AppOption {
	return func(a *App) {
		a.initial = &ChapterChosenMsg{Scope: scope, Subject: subject}
	}
}

// App is the root model: the picker, and the chat screen once a chapter is
// open. Esc on the chat screen returns to the picker and releases the
// controller; ctrl+c quits.
type App struct {
	ctx     context.Context
	newConv ConversationFactory
	picker  Picker
	chat    ChatScreen
	inChat  bool
	nextID  int
	width   int
	height  int
	initial *ChapterChosenMsg
}

// NewApp returns the root model.
func NewApp(ctx context.Context, catalog Catalog, subjects []portal.Subject, newConv ConversationFactory, opts ...AppOption) App {
	a := App{
		ctx:     ctx,
		newConv: newConv,
		picker:  NewPicker(ctx, catalog, subjects),
	}
	for _, o := range opts {
		o(&a)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	if a.initial != nil {
		chosen := *a.initial
		return func() tea.Msg { return chosen }
	}
	return a.picker.Init()
}

// InChat reports whether the chat screen is showing.
func (a App) InChat() bool { return a.inChat }

// Close releases the open chat screen, if any.
func (a App) Close() {
	if a.inChat {
		a.chat.Close()
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.picker.SetSize(msg.Width, msg.Height)
		if a.inChat {
			a.chat.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.Close()
			a.inChat = false
			return a, tea.Quit
		case "esc":
			if a.inChat {
				a.chat.Close()
				a.inChat = false
				return a, nil
			}
		}

	case ChapterChosenMsg:
		a.Close()
		return a.open(msg)
	}

	var cmd tea.Cmd
	if a.inChat {
		a.chat, cmd = a.chat.Update(msg)
	} else {
		a.picker, cmd = a.picker.Update(msg)
	}
	return a, cmd
}

func (a App) open(chosen ChapterChosenMsg) (tea.Model, tea.Cmd) {
	events := make(chan struct{}, 1)
	notify := func() {
		select {
		case events <- struct{}{}:
		default:
		}
	}
	a.nextID++
	a.chat = newChatScreen(a.ctx, a.nextID, a.newConv(notify), events, chosen)
	if a.width > 0 {
		a.chat.SetSize(a.width, a.height)
	}
	a.inChat = true
	return a, a.chat.Init()
}

// View implements tea.Model.
func (a App) View() string {
	if a.inChat {
		return a.chat.View()
	}
	return a.picker.View()
}
