package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intelliscript/tui/internal/api"
	"github.com/intelliscript/tui/internal/config"
	"github.com/intelliscript/tui/internal/export"
	"github.com/intelliscript/tui/internal/session"
	"github.com/intelliscript/tui/internal/ui"
)

// Tab selects which result pane is shown on the results view.
type Tab int

const (
	TabTranscript Tab = iota
	TabSummary
	TabChapters
	TabQA
)

func (t Tab) String() string {
	switch t {
	case TabTranscript:
		return "TRANSCRIPT"
	case TabSummary:
		return "SUMMARY"
	case TabChapters:
		return "CHAPTERS"
	case TabQA:
		return "Q&A"
	}
	return "?"
}

var tabs = []Tab{TabTranscript, TabSummary, TabChapters, TabQA}

// InputFocus tracks which submission input is active on the upload view.
type InputFocus int

const (
	FocusURL InputFocus = iota
	FocusFile
)

// QAExchange is the current question and its answer. A new question
// replaces the whole exchange.
type QAExchange struct {
	Question string
	Answer   api.Answer
}

var languages = []string{"en", "de", "es", "fr", "zh"}

// Model is the root bubbletea model for the IntelliScript TUI.
type Model struct {
	client *api.Client
	cfg    config.Config
	logger *slog.Logger

	sess session.Session

	// Upload view
	inputFocus    InputFocus
	urlInput      textinput.Model
	fileInput     textinput.Model
	language      string
	notice        string
	noticeIsError bool

	// Processing view
	spinner spinner.Model
	// pollGen is the cancellation token for the poll/fetch tick chain.
	// Bumping it orphans every message scheduled under an older value.
	pollGen int

	// Results view
	activeTab     Tab
	viewport      viewport.Model
	viewportReady bool
	questionInput textinput.Model
	qa            *QAExchange
	qaPending     bool
	qaGen         int
	exportIdx     int
	exportBusy    bool

	width  int
	height int
}

// New creates a new Model in the upload state.
func New(client *api.Client, cfg config.Config, logger *slog.Logger) Model {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://youtube.com/watch?v=..."
	urlInput.CharLimit = 2048
	urlInput.Focus()

	fileInput := textinput.New()
	fileInput.Placeholder = "/path/to/video.mp4"
	fileInput.CharLimit = 2048

	questionInput := textinput.New()
	questionInput.Placeholder = "Ask about the video..."
	questionInput.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.SpinnerStyle

	return Model{
		client:        client,
		cfg:           cfg,
		logger:        logger,
		language:      cfg.Language,
		urlInput:      urlInput,
		fileInput:     fileInput,
		questionInput: questionInput,
		spinner:       sp,
	}
}

/// Init returns the initial commands: cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// startURLCmd submits a URL session the client already named.
func (m Model) startURLCmd(sess session.Session, gen int) tea.Cmd {
	client, timeout := m.client, m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.ProcessURL(ctx, sess.ID, sess.SourceURL, sess.Language); err != nil {
			return SessionStartErrorMsg{Gen: gen, Err: err}
		}
		return SessionStartedMsg{Gen: gen, Sess: sess}
	}
}

// startFileCmd uploads a file and adopts the server-assigned session id.
func (m Model) startFileCmd(sess session.Session, gen int) tea.Cmd {
	client, timeout := m.client, m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		id, err := client.Upload(ctx, sess.SourceFile)
		if err != nil {
			return SessionStartErrorMsg{Gen: gen, Err: err}
		}
		return SessionStartedMsg{Gen: gen, Sess: sess.AdoptID(id)}
	}
}

// pollTickCmd schedules the next status query.
func pollTickCmd(gen int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return PollTickMsg{Gen: gen}
	})
}

// backoffDelay grows the retry delay per consecutive failure. The first
// retry doubles the base, so with the 2s base the waits run 4s, 8s, 16s
// and then hold at the 30s cap.
func backoffDelay(failures int, base time.Duration) time.Duration {
	delay := base * time.Duration(1<<min(failures, 4))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

// fetchTickCmd schedules the next results query.
func fetchTickCmd(gen int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return FetchTickMsg{Gen: gen}
	})
}

// queryProgressCmd runs one status query with a deadline.
func (m Model) queryProgressCmd(gen int) tea.Cmd {
	client, timeout, id := m.client, m.cfg.RequestTimeout, m.sess.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		report, err := client.Progress(ctx, id)
		if err != nil {
			return PollErrorMsg{Gen: gen, Err: err}
		}
		return ProgressMsg{Gen: gen, Report: report}
	}
}

// fetchResultsCmd runs one results query with a deadline.
func (m Model) fetchResultsCmd(gen int) tea.Cmd {
	client, timeout, id := m.client, m.cfg.RequestTimeout, m.sess.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		env, err := client.Results(ctx, id)
		if err != nil {
			return ResultsErrorMsg{Gen: gen, Err: err}
		}
		return ResultsMsg{Gen: gen, Envelope: env}
	}
}

// askCmd submits a question about the active session.
func (m Model) askCmd(gen int, question string) tea.Cmd {
	client, timeout, id := m.client, m.cfg.RequestTimeout, m.sess.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := client.Ask(ctx, id, question)
		if err != nil {
			return AnswerErrorMsg{Gen: gen, Err: err}
		}
		return AnswerMsg{Gen: gen, Question: question, Answer: answer}
	}
}

// exportCmd fetches an artifact and saves it locally.
func (m Model) exportCmd(format string) tea.Cmd {
	client, timeout, id := m.client, m.cfg.RequestTimeout, m.sess.ID
	dir := m.cfg.ExportDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		payload, err := client.Export(ctx, id, format)
		if err != nil {
			return ExportErrorMsg{Format: format, Err: err}
		}
		path, err := export.Save(dir, format, payload)
		if err != nil {
			return ExportErrorMsg{Format: format, Err: err}
		}
		return ExportDoneMsg{Format: format, Path: path}
	}
}

// clearNoticeCmd fires after a delay to clear transient notices.
func clearNoticeCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearNoticeMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SessionStartedMsg:
		// The user may have abandoned while the submission was in flight,
		// possibly starting another one. Only the current submission counts.
		if msg.Gen != m.pollGen || m.sess.View != session.ViewProcessing {
			return m, nil
		}
		m.sess = msg.Sess
		m.logger.Info("session started", "session_id", m.sess.ID)
		m.pollGen++
		return m, pollTickCmd(m.pollGen, m.cfg.PollInterval)

	case SessionStartErrorMsg:
		if msg.Gen != m.pollGen || m.sess.View != session.ViewProcessing {
			return m, nil
		}
		m.logger.Error("submission failed", "error", msg.Err)
		m.sess = session.Session{}
		m.notice = "Submission failed: " + msg.Err.Error()
		m.noticeIsError = true
		return m, nil

	case PollTickMsg:
		if msg.Gen != m.pollGen || !m.pollingActive() {
			return m, nil
		}
		return m, m.queryProgressCmd(msg.Gen)

	case ProgressMsg:
		if msg.Gen != m.pollGen || !m.pollingActive() {
			return m, nil
		}
		m.sess = m.sess.ApplyReport(msg.Report)
		if m.sess.Terminal {
			m.logger.Info("pipeline terminal", "session_id", m.sess.ID)
			return m, m.fetchResultsCmd(msg.Gen)
		}
		if msg.Report.Progress < 0 || msg.Report.Status == session.StatusError {
			m.sess = m.sess.Fail(stageFailureText(msg.Report))
			return m, nil
		}
		return m, pollTickCmd(msg.Gen, m.cfg.PollInterval)

	case PollErrorMsg:
		if msg.Gen != m.pollGen || !m.pollingActive() {
			return m, nil
		}
		m.logger.Warn("status query failed", "error", msg.Err, "failures", m.sess.PollFailures+1)
		m.sess = m.sess.PollFailed(msg.Err)
		if m.sess.Failed {
			return m, nil
		}
		return m, pollTickCmd(msg.Gen, backoffDelay(m.sess.PollFailures, m.cfg.PollInterval))

	case FetchTickMsg:
		if msg.Gen != m.pollGen || m.sess.Failed || m.sess.View != session.ViewProcessing {
			return m, nil
		}
		return m, m.fetchResultsCmd(msg.Gen)

	case ResultsMsg:
		if msg.Gen != m.pollGen || m.sess.Failed || m.sess.View != session.ViewProcessing {
			return m, nil
		}
		if !msg.Envelope.Ready() {
			m.sess = m.sess.FetchNotReady()
			if m.sess.Failed {
				return m, nil
			}
			return m, fetchTickCmd(msg.Gen, m.cfg.PollInterval)
		}
		m.sess = m.sess.Complete(msg.Envelope.Results)
		m.activeTab = TabTranscript
		m.refreshViewport()
		m.logger.Info("results ready", "session_id", m.sess.ID)
		return m, nil

	case ResultsErrorMsg:
		if msg.Gen != m.pollGen || m.sess.View != session.ViewProcessing {
			return m, nil
		}
		m.logger.Warn("results query failed", "error", msg.Err)
		m.sess = m.sess.PollFailed(msg.Err)
		if m.sess.Failed {
			return m, nil
		}
		return m, fetchTickCmd(msg.Gen, backoffDelay(m.sess.PollFailures, m.cfg.PollInterval))

	case AnswerMsg:
		if msg.Gen != m.qaGen {
			return m, nil
		}
		m.qaPending = false
		m.qa = &QAExchange{Question: msg.Question, Answer: msg.Answer}
		m.refreshViewport()
		return m, nil

	case AnswerErrorMsg:
		if msg.Gen != m.qaGen {
			return m, nil
		}
		m.qaPending = false
		m.logger.Error("question failed", "error", msg.Err)
		m.notice = "Question failed: " + msg.Err.Error()
		m.noticeIsError = true
		return m, clearNoticeCmd()

	case ExportDoneMsg:
		m.exportBusy = false
		m.notice = "Saved " + msg.Path
		m.noticeIsError = false
		return m, clearNoticeCmd()

	case ExportErrorMsg:
		m.exportBusy = false
		m.logger.Error("export failed", "format", msg.Format, "error", msg.Err)
		m.notice = "Export failed: " + msg.Err.Error()
		m.noticeIsError = true
		return m, clearNoticeCmd()

	case ClearNoticeMsg:
		// Submission failures on the upload view stay until the next
		// attempt.
		if m.sess.View != session.ViewUpload {
			m.notice = ""
			m.noticeIsError = false
		}
		return m, nil
	}

	return m, nil
}

// pollingActive reports whether progress ticks should still be applied.
func (m Model) pollingActive() bool {
	return m.sess.Active() &&
		m.sess.View == session.ViewProcessing &&
		!m.sess.Terminal &&
		!m.sess.Failed
}

func stageFailureText(r api.ProgressReport) string {
	if r.Message != "" {
		return r.Message
	}
	return "processing failed"
}

// handleKey processes key presses per view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		m.pollGen++
		return m, tea.Quit
	}

	switch m.sess.View {
	case session.ViewUpload:
		return m.handleUploadKey(msg)
	case session.ViewProcessing:
		return m.handleProcessingKey(msg)
	case session.ViewResults:
		return m.handleResultsKey(msg)
	}
	return m, nil
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyTab:
		if m.inputFocus == FocusURL {
			m.inputFocus = FocusFile
			m.urlInput.Blur()
			m.fileInput.Focus()
		} else {
			m.inputFocus = FocusURL
			m.fileInput.Blur()
			m.urlInput.Focus()
		}
		return m, nil

	case KeyCycleLang:
		m.language = nextLanguage(m.language)
		return m, nil

	case KeyEnter:
		return m.submit()
	}

	var cmd tea.Cmd
	if m.inputFocus == FocusURL {
		m.urlInput, cmd = m.urlInput.Update(msg)
	} else {
		m.fileInput, cmd = m.fileInput.Update(msg)
	}
	return m, cmd
}

// submit starts a session from the active input. The view flips to
// processing before the request resolves; failure flips it back.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.notice = ""
	m.noticeIsError = false

	if m.inputFocus == FocusURL {
		url := strings.TrimSpace(m.urlInput.Value())
		if url == "" {
			return m, nil
		}
		m.sess = session.FromURL(url, m.language)
		return m, m.startURLCmd(m.sess, m.pollGen)
	}

	path := strings.TrimSpace(m.fileInput.Value())
	if path == "" {
		return m, nil
	}
	m.sess = session.FromFile(path, m.language)
	return m, m.startFileCmd(m.sess, m.pollGen)
}

func (m Model) handleProcessingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper:
		m.pollGen++
		return m, tea.Quit

	case KeyRetry:
		if !m.sess.Failed {
			return m, nil
		}
		m.sess = m.sess.Retry()
		m.pollGen++
		if m.sess.Terminal {
			return m, m.fetchResultsCmd(m.pollGen)
		}
		if m.sess.Active() {
			return m, m.queryProgressCmd(m.pollGen)
		}
		// The submission itself never completed; back to upload.
		m.sess = session.Session{}
		return m, nil

	case KeyNewSession, KeyEsc:
		return m.resetToUpload(), nil
	}
	return m, nil
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.questionInput.Focused() {
		switch msg.String() {
		case KeyEnter:
			return m.submitQuestion()
		case KeyEsc:
			m.questionInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.questionInput, cmd = m.questionInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case KeyQuit, KeyQuitUpper:
		return m, tea.Quit

	case KeyTab:
		m.activeTab = tabs[(int(m.activeTab)+1)%len(tabs)]
		m.refreshViewport()
		return m, nil

	case KeyUp:
		m.viewport.LineUp(1)
		return m, nil

	case KeyDown:
		m.viewport.LineDown(1)
		return m, nil

	case KeyCycleFormat:
		m.exportIdx = (m.exportIdx + 1) % len(export.Formats)
		return m, nil

	case KeyExport:
		if m.exportBusy {
			return m, nil
		}
		m.exportBusy = true
		return m, m.exportCmd(export.Formats[m.exportIdx])

	case KeyAsk:
		m.activeTab = TabQA
		m.refreshViewport()
		m.questionInput.Focus()
		return m, textinput.Blink

	case KeyNewSession:
		return m.resetToUpload(), nil
	}
	return m, nil
}

// submitQuestion sends the typed question. Blank input or a missing
// session id is a local no-op.
func (m Model) submitQuestion() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.questionInput.Value())
	if question == "" || !m.sess.Active() {
		return m, nil
	}
	m.qaGen++
	m.qaPending = true
	m.questionInput.SetValue("")
	m.questionInput.Blur()
	return m, m.askCmd(m.qaGen, question)
}

// resetToUpload discards the session and every piece of derived state.
// The poll generation bump orphans any in-flight tick.
func (m Model) resetToUpload() Model {
	m.pollGen++
	m.qaGen++
	m.sess = session.Session{}
	m.qa = nil
	m.qaPending = false
	m.exportBusy = false
	m.exportIdx = 0
	m.activeTab = TabTranscript
	m.notice = ""
	m.noticeIsError = false
	m.questionInput.SetValue("")
	m.questionInput.Blur()
	m.urlInput.SetValue("")
	m.fileInput.SetValue("")
	m.inputFocus = FocusURL
	m.fileInput.Blur()
	m.urlInput.Focus()
	return m
}

func nextLanguage(current string) string {
	for i, l := range languages {
		if l == current {
			return languages[(i+1)%len(languages)]
		}
	}
	return languages[0]
}
