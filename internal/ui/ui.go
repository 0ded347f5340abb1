package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/tasks"
)

// ViewState represents the current view in the TUI
type ViewState int

const (
	SongListView ViewState = iota
	ConfirmView
	AssembleView
	ResultView
)

// Model is the main bubbletea model for playlist assembly
type Model struct {
	ctx    context.Context
	svc    services.Service
	engine tasks.Assembler
	req    tasks.AssembleRequest

	view          ViewState
	width, height int

	songList   list.Model
	resultList list.Model
	spinner    spinner.Model
	help       help.Model
	keys       keyMap

	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	log          []string

	report *models.PlaylistReport
	err    error
}

const maxLogLines = 8

// NewModel creates a TUI model that previews req and assembles it on svc once confirmed.
func NewModel(ctx context.Context, svc services.Service, engine tasks.Assembler, req tasks.AssembleRequest) Model {
	delegate := list.NewDefaultDelegate()

	songList := list.New(songItems(req.Songs), delegate, 0, 0)
	songList.Title = playlistName(req)
	songList.SetShowHelp(false)

	resultList := list.New([]list.Item{}, delegate, 0, 0)
	resultList.SetShowHelp(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title

	return Model{
		ctx:        ctx,
		svc:        svc,
		engine:     engine,
		req:        req,
		view:       SongListView,
		songList:   songList,
		resultList: resultList,
		spinner:    s,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Report returns the assembled playlist report, if assembly finished.
func (m Model) Report() *models.PlaylistReport { return m.report }

// Err returns the assembly error, if any.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.songList.SetSize(msg.Width, msg.Height-4)
		m.resultList.SetSize(msg.Width, msg.Height-8)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.view != AssembleView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	switch m.view {
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case ResultView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && m.view != AssembleView {
		return m, tea.Quit
	}

	switch m.view {
	case SongListView:
		if key.Matches(msg, m.keys.create) && len(m.req.Songs) > 0 {
			m.view = ConfirmView
			return m, nil
		}
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	case ConfirmView:
		switch {
		case key.Matches(msg, m.keys.yes):
			m.view = AssembleView
			cmd := m.startAssemble()
			return m, cmd
		case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
			m.view = SongListView
		}
		return m, nil
	case ResultView:
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if update.Message != "" {
			m.log = append(m.log, update.Message)
			if len(m.log) > maxLogLines {
				m.log = m.log[len(m.log)-maxLogLines:]
			}
		}
		return m, m.waitForProgress()
	case MsgAssembleComplete:
		result := msg.data.(assembleResult)
		m.report, m.err = result.report, result.err
		m.view = ResultView
		if m.report != nil {
			m.resultList.Title = fmt.Sprintf("%s (%d/%d added)", m.report.Platform, m.report.FoundCount(), len(m.report.Songs))
			m.resultList.SetItems(resolvedItems(m.report.Songs))
		}
		return m, nil
	}
	return m, nil
}

// startAssemble runs the engine in a goroutine and listens for its progress.
func (m *Model) startAssemble() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan, m.done = progress, done

	ctx, svc, engine, req := m.ctx, m.svc, m.engine, m.req
	go func() {
		report, err := engine.Assemble(ctx, svc, req, progress)
		done <- assembleCompleteMsg(report, err)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// waitForProgress blocks until the next progress update or the final result.
func (m Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m Model) View() string {
	switch m.view {
	case SongListView:
		return m.renderSongList()
	case ConfirmView:
		return m.renderConfirm()
	case AssembleView:
		return m.renderAssemble()
	case ResultView:
		return m.renderResult()
	}
	return ""
}

func (m Model) renderSongList() string {
	if len(m.req.Songs) == 0 {
		return styles.warn.Render("No songs to add.") + "\n\n" + m.help.View(m.keys)
	}
	return m.songList.View() + "\n" + m.help.View(m.keys)
}

func (m Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Create playlist"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Create %q on %s with %d songs?\n\n", playlistName(m.req), m.svc.Name(), len(m.req.Songs))
	b.WriteString(styles.help.Render("y: yes • n: no"))
	return b.String()
}

func (m Model) renderAssemble() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Creating playlist on " + m.svc.Name()))
	b.WriteString("\n")

	phase := m.progress.Phase.String()
	if phase == "" {
		phase = "starting"
	}
	fmt.Fprintf(&b, "%s %s", m.spinner.View(), strings.ReplaceAll(phase, "_", " "))
	if m.progress.Total > 0 {
		fmt.Fprintf(&b, " %d/%d", m.progress.Step, m.progress.Total)
	}
	b.WriteString("\n\n")

	for _, line := range m.log {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderResult() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.err.Render("✗ Failed to create playlist"))
		b.WriteString("\n\n")
		b.WriteString(m.err.Error())
		b.WriteString("\n\n")
		b.WriteString(styles.help.Render("q: quit"))
		return b.String()
	}

	if m.report == nil {
		return styles.warn.Render("No result.") + "\n"
	}

	b.WriteString(styles.ok.Render("✓ Playlist created"))
	b.WriteString("\n")
	if m.report.PlaylistURL != "" {
		b.WriteString(styles.link.Render(m.report.PlaylistURL))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Added %d of %d songs\n", m.report.FoundCount(), len(m.report.Songs))

	if len(m.report.NotFoundSongs) > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("%d not found:", len(m.report.NotFoundSongs))))
		b.WriteString("\n")
		for _, name := range m.report.NotFoundSongs {
			b.WriteString("  • " + name + "\n")
		}
	}
	b.WriteString("\n")
	if m.height > 0 {
		b.WriteString(m.resultList.View())
		b.WriteString("\n")
	}
	b.WriteString(styles.help.Render("q: quit"))
	return b.String()
}

func playlistName(req tasks.AssembleRequest) string {
	if req.Name == "" {
		return tasks.DefaultPlaylistName
	}
	return req.Name
}
