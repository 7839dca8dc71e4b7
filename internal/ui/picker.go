package ui

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrWong99/tutor/internal/chat"
	"github.com/MrWong99/tutor/pkg/portal"
)

// Catalog lists the chapters of a subject. [*portal.Client] satisfies it.
type Catalog interface {
	Chapters(ctx context.Context, subjectID int64) ([]portal.Chapter, error)
}

// ChapterChosenMsg is emitted when the student picks a chapter.
type ChapterChosenMsg struct {
	Scope   chat.Scope
	Subject string
}

type chaptersMsg struct {
	subject  portal.Subject
	chapters []portal.Chapter
	err      error
}

type pickerStage int

const (
	stageSubjects pickerStage = iota
	stageLoading
	stageChapters
)

type subjectItem struct {
	subject portal.Subject
	color   lipgloss.Color
}

func (i subjectItem) Title() string {
	return lipgloss.NewStyle().Foreground(i.color).Render("■") + " " + i.subject.Name
}
func (i subjectItem) Description() string { return fmt.Sprintf("Subject #%d", i.subject.ID) }
func (i subjectItem) FilterValue() string { return i.subject.Name }

type chapterItem struct {
	chapter portal.Chapter
}

func (i chapterItem) Title() string {
	return fmt.Sprintf("%d. %s", i.chapter.Order, i.chapter.Title)
}
func (i chapterItem) Description() string { return "Chat with the tutor about this chapter" }
func (i chapterItem) FilterValue() string { return i.chapter.Title }

// Picker lets the student choose a subject and then one of its chapters.
type Picker struct {
	ctx      context.Context
	catalog  Catalog
	subjects list.Model
	chapters list.Model
	stage    pickerStage
	subject  portal.Subject
	err      error
	styles   Styles
}

// NewPicker returns a picker over subjects. Chapters are fetched from catalog
// when a subject is chosen.
func NewPicker(ctx context.Context, catalog Catalog, subjects []portal.Subject) Picker {
	items := make([]list.Item, len(subjects))
	for i, s := range subjects {
		items[i] = subjectItem{subject: s, color: SubjectColor(i)}
	}
	styles := DefaultStyles()
	return Picker{
		ctx:      ctx,
		catalog:  catalog,
		subjects: newList("Subjects", items, styles),
		chapters: newList("Chapters", nil, styles),
		styles:   styles,
	}
}

func newList(title string, items []list.Item, styles Styles) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Styles.Title = styles.Title
	l.SetShowHelp(true)
	l.DisableQuitKeybindings()
	return l
}

// Init implements tea.Model.
func (m Picker) Init() tea.Cmd { return nil }

// SetSize resizes both lists.
func (m *Picker) SetSize(width, height int) {
	m.subjects.SetSize(width, height-1)
	m.chapters.SetSize(width, height-1)
}

// Filtering reports whether a list is consuming keys for its filter.
func (m Picker) Filtering() bool {
	return m.active().FilterState() == list.Filtering
}

func (m Picker) active() list.Model {
	if m.stage == stageChapters {
		return m.chapters
	}
	return m.subjects
}

// Update implements the picker's half of tea.Model.
func (m Picker) Update(msg tea.Msg) (Picker, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case chaptersMsg:
		if msg.subject.ID != m.subject.ID || m.stage != stageLoading {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.stage = stageSubjects
			return m, nil
		}
		chapters := slices.Clone(msg.chapters)
		slices.SortStableFunc(chapters, func(a, b portal.Chapter) int { return a.Order - b.Order })
		items := make([]list.Item, len(chapters))
		for i, c := range chapters {
			items[i] = chapterItem{chapter: c}
		}
		m.chapters.Title = msg.subject.Name
		m.chapters.ResetFilter()
		m.chapters.Select(0)
		cmd := m.chapters.SetItems(items)
		m.stage = stageChapters
		return m, cmd

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch msg.String() {
		case "enter":
			return m.choose()
		case "esc", "backspace":
			if m.stage == stageChapters {
				m.stage = stageSubjects
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.stage {
	case stageSubjects:
		m.subjects, cmd = m.subjects.Update(msg)
	case stageChapters:
		m.chapters, cmd = m.chapters.Update(msg)
	}
	return m, cmd
}

func (m Picker) choose() (Picker, tea.Cmd) {
	switch m.stage {
	case stageSubjects:
		it, ok := m.subjects.SelectedItem().(subjectItem)
		if !ok {
			return m, nil
		}
		m.subject = it.subject
		m.stage = stageLoading
		m.err = nil
		return m, m.loadChapters(it.subject)
	case stageChapters:
		it, ok := m.chapters.SelectedItem().(chapterItem)
		if !ok {
			return m, nil
		}
		chosen := ChapterChosenMsg{
			Scope: chat.Scope{
				SubjectID:    m.subject.ID,
				ChapterID:    it.chapter.ID,
				ChapterTitle: it.chapter.Title,
			},
			Subject: m.subject.Name,
		}
		return m, func() tea.Msg { return chosen }
	}
	return m, nil
}

func (m Picker) loadChapters(s portal.Subject) tea.Cmd {
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		chapters, err := catalog.Chapters(ctx, s.ID)
		return chaptersMsg{subject: s, chapters: chapters, err: err}
	}
}

// View implements tea.Model.
func (m Picker) View() string {
	var status string
	switch {
	case m.stage == stageLoading:
		status = m.styles.Muted.Render("Loading chapters of " + m.subject.Name + "...")
	case m.err != nil:
		status = m.styles.Error.Render("Could not load chapters: " + m.err.Error())
	}
	if m.stage == stageChapters {
		return lipgloss.JoinVertical(lipgloss.Left, m.chapters.View(), status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.subjects.View(), status)
}
