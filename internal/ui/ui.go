package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotgrab/internal/services"
	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/desertthunder/spotgrab/internal/tasks"
	"github.com/desertthunder/spotgrab/internal/track"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	FileListView
	ConfirmView
	DownloadView
	ResultView
)

// Options configures an interactive download.
type Options struct {
	URI                    string
	CredentialsPath        string
	DefaultCredentialsPath string
	Policy                 track.QualityPolicy
	OutputDir              string
	Preload                bool
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	sessions services.SessionService
	opts     Options
	logger   *log.Logger

	view   ViewState
	width  int
	height int

	session  services.Session
	id       track.ID
	meta     *track.Metadata
	fileList list.Model
	selected track.AudioFile

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	summary      *tasks.DownloadSummary
	downloadErr  error
	err          error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, sessions services.SessionService, opts Options, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Model{
		ctx:      ctx,
		view:     LoadingView,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the bootstrap stage: authenticate and fetch track metadata.
func (m *Model) Init() tea.Cmd {
	return m.bootstrap()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.fileList.Width() == 0 {
			m.fileList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FileListView:
			return m.handleFileListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case LoadingView, DownloadView:
			if msg.String() == "ctrl+c" {
				m.closeSession()
				return m, tea.Quit
			}
		}
		return m, nil

	case sessionReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.session = msg.session
		m.id = msg.id
		m.meta = msg.meta
		m.buildFileList()
		m.view = FileListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case downloadCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.closeSession()
		return m, nil
	}

	if m.view == FileListView {
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case FileListView:
		return m.renderFileList()
	case ConfirmView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleFileListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.closeSession()
		return m, tea.Quit
	case "enter":
		selected := m.fileList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(fileItem); ok {
				m.selected = item.file
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.closeSession()
		return m, tea.Quit
	case "n", "esc":
		m.view = FileListView
		return m, nil
	case "y":
		m.view = DownloadView
		return m, m.startDownload()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		m.closeSession()
		return m, tea.Quit
	case "r":
		if m.session == nil {
			m.err = nil
			m.view = LoadingView
			return m, m.bootstrap()
		}
		m.err = nil
		m.summary = nil
		m.view = FileListView
		return m, nil
	}
	return m, nil
}

// bootstrap resolves credentials, authenticates and fetches the metadata
// snapshot, all off the Elm loop.
func (m *Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		source := services.ResolveCredentialSource(m.opts.CredentialsPath, m.opts.DefaultCredentialsPath, m.logger)

		session, err := m.sessions.Authenticate(m.ctx, source)
		if err != nil {
			return sessionReadyMsg{err: err}
		}

		id, err := track.ParseURI(m.opts.URI)
		if err != nil {
			session.Close()
			return sessionReadyMsg{err: err}
		}

		meta, err := session.TrackMetadata(m.ctx, id)
		if err != nil {
			session.Close()
			return sessionReadyMsg{err: err}
		}
		if len(meta.Files) == 0 {
			session.Close()
			return sessionReadyMsg{err: fmt.Errorf("%w: track %s has no audio files", shared.ErrNoAudioAvailable, id)}
		}

		return sessionReadyMsg{session: session, id: id, meta: meta}
	}
}

// buildFileList populates the descriptor list, cursor on the policy's pick.
func (m *Model) buildFileList() {
	preferred, hasPreferred := m.opts.Policy.Select(m.meta.Files)

	items := make([]list.Item, len(m.meta.Files))
	cursor := 0
	for i, file := range m.meta.Files {
		match := hasPreferred && file == preferred
		items[i] = fileItem{file: file, preferred: match}
		if match {
			cursor = i
		}
	}

	m.fileList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.fileList.Title = fmt.Sprintf("%s - %s", m.meta.ArtistLine(), m.meta.Name)
	m.fileList.SetSize(m.width-4, m.height-8)
	m.fileList.Select(cursor)
}

func (m *Model) destination() string {
	dir := m.opts.OutputDir
	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("track_%s%s", m.id.Hex(), m.selected.Format.Extension())
	return filepath.Join(dir, name)
}

func (m *Model) startDownload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	dest := m.destination()

	go func() {
		defer close(m.progressChan)

		if dir := m.opts.OutputDir; dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				m.downloadErr = fmt.Errorf("%w: create output dir: %v", shared.ErrFileWrite, err)
				return
			}
		}

		stream, err := m.session.OpenStream(m.ctx, m.id, m.selected, services.StreamOptions{Preload: m.opts.Preload})
		if err != nil {
			m.downloadErr = err
			return
		}
		defer stream.Close()

		summary, err := tasks.Download(stream, dest, tasks.DefaultChunkSize, tasks.DefaultProgressEvery, m.progressChan)
		m.summary = summary
		m.downloadErr = err
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return downloadCompleteMsg{summary: m.summary, err: m.downloadErr}
		}

		update, ok := <-m.progressChan
		if !ok {
			return downloadCompleteMsg{summary: m.summary, err: m.downloadErr}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) closeSession() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Connecting")
	return fmt.Sprintf("%s\n\nAuthenticating and fetching track metadata...\n\n%s",
		title, styles.help.Render("ctrl+c to cancel"))
}

func (m *Model) renderFileList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.fileList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Download '%s'?", m.meta.Name))
	info := fmt.Sprintf("\nArtist: %s\nAlbum: %s\nDuration: %s\nFormat: %s\nDestination: %s\n",
		m.meta.ArtistLine(), m.meta.Album, shared.FormatDuration(m.meta.DurationMS),
		m.selected.Format, m.destination())

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render("Downloading")

	status := "Opening stream..."
	if m.progress.Message != "" {
		status = m.progress.Message
	}

	return fmt.Sprintf("%s\n\n%s\n", title, status)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		body := styles.err.Render(fmt.Sprintf("Download failed: %v", m.err))
		if m.summary != nil && m.summary.Bytes > 0 {
			body += fmt.Sprintf("\n\n%s", styles.warn.Render(
				fmt.Sprintf("Partial file retained at %s (%s)", m.summary.Path, shared.FormatBytes(m.summary.Bytes))))
		}
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	if m.summary == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Download Complete!")
	info := fmt.Sprintf("\nTrack: %s - %s\nDestination: %s\nSize: %s\nElapsed: %s",
		m.meta.ArtistLine(), m.meta.Name,
		m.summary.Path, shared.FormatBytes(m.summary.Bytes), m.summary.Elapsed.Round(time.Millisecond))

	return fmt.Sprintf("%s%s\n\n%s", title, info, helpView)
}
