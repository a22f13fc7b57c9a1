package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/desertthunder/playgen/internal/formatter"
	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FormView ViewState = iota
	GenerateView
	ResultView
)

// Runner runs one generation cycle. [tasks.Engine] implements it.
type Runner interface {
	Run(ctx context.Context, req models.PlaylistRequest, progress chan<- tasks.ProgressUpdate) (*tasks.GenerationResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	runner       Runner
	form         *huh.Form
	description  string
	count        int
	defaultCount int
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	done         chan cycleComplete
	progress     tasks.ProgressUpdate
	result       *tasks.GenerationResult
	err          error
	width        int
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. defaultCount preselects the song count in the form.
func NewModel(ctx context.Context, runner Runner, defaultCount int) *Model {
	if defaultCount < models.MinSongs || defaultCount > models.MaxSongs {
		defaultCount = models.MaxSongs
	}

	m := &Model{
		ctx:          ctx,
		view:         FormView,
		runner:       runner,
		defaultCount: defaultCount,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.form = m.newForm()
	return m
}

// Init initializes the TUI by focusing the request form.
func (m *Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if m.form != nil {
			m.form = m.form.WithWidth(min(msg.Width, 80))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case GenerateView:
			return m.handleGenerateKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != GenerateView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgCycleComplete:
			data := msg.data.(cycleComplete)
			m.finish(data.result, data.err)
			return m, nil
		}
	}

	if m.view == FormView {
		return m.updateForm(msg)
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case FormView:
		return m.renderForm()
	case GenerateView:
		return m.renderGenerate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) newForm() *huh.Form {
	m.description = ""
	m.count = m.defaultCount

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Describe the music you'd like to hear..").
				Placeholder("Upbeat 80s synthpop for a night drive").
				Value(&m.description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("description cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[int]().
				Title("Songs").
				Options(huh.NewOptions(songCounts()...)...).
				Value(&m.count),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func songCounts() []int {
	counts := make([]int, 0, models.MaxSongs-models.MinSongs+1)
	for n := models.MinSongs; n <= models.MaxSongs; n++ {
		counts = append(counts, n)
	}
	return counts
}

func (m *Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		return m, tea.Quit
	case huh.StateCompleted:
		return m, m.submit()
	}
	return m, cmd
}

// submit validates the form values and starts a cycle, or shows the validation failure as a result.
func (m *Model) submit() tea.Cmd {
	req, err := models.NewPlaylistRequest(m.description, m.count)
	if err != nil {
		req = models.PlaylistRequest{Description: m.description, SongCount: m.count}
		m.finish(&tasks.GenerationResult{Request: req, State: tasks.Failed, Err: err}, err)
		return nil
	}
	return m.startCycle(req)
}

func (m *Model) startCycle(req models.PlaylistRequest) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.view = GenerateView
	m.progress = tasks.ProgressUpdate{Message: "Starting..."}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan cycleComplete, 1)

	progress, done := m.progressChan, m.done
	go func() {
		result, err := m.runner.Run(ctx, req, progress)
		done <- cycleComplete{result, err}
		close(progress)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return cycleCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			c := <-done
			return cycleCompleteMsg(c.result, c.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) finish(result *tasks.GenerationResult, err error) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.result = result
	m.err = err
	m.progressChan = nil
	m.done = nil
	m.view = ResultView
}

func (m *Model) handleGenerateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.quit):
		// The cycle observes cancellation and completes with context.Canceled.
		if m.cancel != nil {
			m.cancel()
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = FormView
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		m.form = m.newForm()
		if m.width > 0 {
			m.form = m.form.WithWidth(min(m.width, 80))
		}
		return m, m.form.Init()
	}
	return m, nil
}

func (m *Model) renderForm() string {
	title := styles.title.Render("playgen")
	return fmt.Sprintf("%s\n%s", title, m.form.View())
}

func (m *Model) renderGenerate() string {
	title := styles.title.Render("Generating Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.Authenticate:
		phase = "Checking Spotify session"
	case tasks.Generate:
		phase = "Generating playlist"
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = "Creating playlist on Spotify"
	default:
		phase = "Working"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel})
	return fmt.Sprintf("%s\n%s %s\n%s\n\n%s", title, m.spinner.View(), phase, styles.help.Render(m.progress.Message), helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	var b strings.Builder
	if m.err != nil || m.result == nil {
		b.WriteString(styles.err.Render("✗ Playlist generation failed"))
		b.WriteString("\n\n")
		if m.result != nil && m.result.Spec != nil {
			b.WriteString(renderSpec(m.result.Spec))
			b.WriteString("\n")
		}
		msg := tasks.Explain(m.err)
		if msg == "" {
			msg = "No result available"
		}
		b.WriteString(styles.warn.Render(msg))
		fmt.Fprintf(&b, "\n\n%s", helpView)
		return b.String()
	}

	b.WriteString(styles.ok.Render("✓ Playlist created!"))
	b.WriteString("\n\n")
	if m.result.User != nil {
		b.WriteString(styles.help.Render("Logged in as " + m.result.User.String()))
		b.WriteString("\n\n")
	}
	b.WriteString(renderSpec(m.result.Spec))
	if m.result.Playlist != nil {
		fmt.Fprintf(&b, "\n%s\n", styles.link.Render(m.result.Playlist.URL))
	}
	fmt.Fprintf(&b, "\n%s", helpView)
	return b.String()
}

func renderSpec(spec *models.PlaylistSpec) string {
	if spec == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(spec.Name))
	b.WriteString("\n")
	if spec.Description != "" {
		b.WriteString(spec.Description + "\n\n")
	}
	b.WriteString(formatter.SongList(spec))
	return b.String()
}
