package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunningView ViewState = iota
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.ImportEngine
	cfg    *shared.Config
	opts   tasks.ImportOpts

	width    int
	height   int
	viewport viewport.Model
	ready    bool

	lines        []string
	progressChan chan tasks.ProgressUpdate
	result       *tasks.ImportRunResult
	err          error

	help help.Model
	keys keyMap
}

type progressUpdateMsg tasks.ProgressUpdate

type importCompleteMsg struct {
	result *tasks.ImportRunResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.ImportEngine, cfg *shared.Config, opts tasks.ImportOpts) *Model {
	return &Model{
		ctx:    ctx,
		view:   RunningView,
		engine: engine,
		cfg:    cfg,
		opts:   opts,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init starts the import run and begins listening for progress.
func (m *Model) Init() tea.Cmd {
	return m.startImport()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = msg.Height - 6
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case progressUpdateMsg:
		m.appendUpdate(tasks.ProgressUpdate(msg))
		return m, m.waitForProgress()

	case importCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// appendUpdate turns a progress update into a colored log line.
func (m *Model) appendUpdate(update tasks.ProgressUpdate) {
	line := update.Message
	if result, ok := update.Data.(tasks.ImportResult); ok {
		line = m.renderLine(result)
	}
	m.lines = append(m.lines, line)

	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderLine(result tasks.ImportResult) string {
	line := fmt.Sprintf("%-10s %-20s %s", result.Kind, result.Status, result.Title)
	switch result.Status {
	case tasks.StatusCreated, tasks.StatusCreatedBinary, tasks.StatusResynced:
		return styles.ok.Render(line)
	case tasks.StatusFailed:
		if result.Err != nil {
			line = fmt.Sprintf("%s: %v", line, result.Err)
		}
		return styles.err.Render(line)
	case tasks.StatusWouldCreate, tasks.StatusWouldCreateBinary, tasks.StatusWouldUpdate, tasks.StatusWouldResync:
		return styles.warn.Render(line)
	default:
		return styles.help.Render(line)
	}
}

func (m *Model) renderRunning() string {
	title := styles.title.Render(m.titleText())
	body := strings.Join(m.lines, "\n")
	if m.ready {
		body = m.viewport.View()
	}
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Import failed: %v\n\nPress q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Import complete")
	summary := formatter.SummaryLine(m.result)
	body := strings.Join(m.lines, "\n")
	if m.ready {
		body = m.viewport.View()
	}
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, summary, body, helpView)
}

func (m *Model) titleText() string {
	if m.opts.DryRun {
		return "Importing (dry run)"
	}
	return "Importing"
}

func (m *Model) startImport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.Run(m.ctx, m.progressChan, m.cfg, m.opts)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return importCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return importCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}
