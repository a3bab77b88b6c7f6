package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mailsweep/internal/analysis"
	"mailsweep/internal/catalog"
	"mailsweep/internal/cleanup"
	"mailsweep/internal/export"
	"mailsweep/internal/gmail"
	"mailsweep/internal/model"
	"mailsweep/internal/query"
	"mailsweep/internal/util"
)

type viewState int

const (
	viewLoading    viewState = iota
	viewAuth                 // waiting for auth code input
	viewCategories           // category picker
	viewResults              // analysis summary
	viewLog                  // paced cleanup steps
)

// ConnectFunc opens the search backend. The Gmail backend may send a consent
// URL on prompt.URL and wait for a pasted code on prompt.Code.
type ConnectFunc func(ctx context.Context, prompt gmail.Prompt) (cleanup.Backend, error)

// Options configure a new AppModel.
type Options struct {
	Catalog   *catalog.Catalog
	Selection model.Selection
	Pace      time.Duration
	ExportDir string
	Connect   ConnectFunc
}

type AppModel struct {
	// Core state
	ctx       context.Context
	cancel    context.CancelFunc
	opts      Options
	ctl       *cleanup.Controller
	status    string
	presetIdx int

	// Auth flow
	authURLs    chan string
	authCodes   chan string
	connectDone chan connectedMsg
	textInput   textinput.Model
	authURL     string

	// View state machine
	view     viewState
	running  bool
	stepping bool

	// Sub-models
	categoriesList list.Model
	resultsList    list.Model
	logViewport    viewport.Model
	spinner        spinner.Model

	// Layout
	width, height int

	// Program reference for sending messages from goroutines
	program *tea.Program
}

// SetProgram stores a reference to the tea.Program so goroutines can send
// progress messages back to the Update loop.
func (m *AppModel) SetProgram(p *tea.Program) {
	m.program = p
}

func NewAppModel(ctx context.Context, opts Options) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Paste auth code or redirect URL here"
	ti.Focus()

	cl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	// Remove esc from the list's built-in Quit binding so it doesn't exit on home
	cl.KeyMap.Quit.SetKeys("q")
	rl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	rl.KeyMap.Quit.SetKeys("q")

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(ctx)
	return AppModel{
		ctx:            ctx,
		cancel:         cancel,
		opts:           opts,
		status:         "Connecting to Gmail...",
		presetIdx:      presetIndex(query.RangeOf(opts.Selection)),
		view:           viewLoading,
		textInput:      ti,
		categoriesList: cl,
		resultsList:    rl,
		logViewport:    viewport.New(0, 0),
		spinner:        sp,
	}
}

// Close cancels background work. Safe to call more than once.
func (m *AppModel) Close() {
	if m.ctl != nil {
		m.ctl.Close()
	}
	m.cancel()
}

func presetIndex(tr query.TimeRange) int {
	for i, p := range query.Presets() {
		if p.Range == tr {
			return i
		}
	}
	return -1
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.connectCmd(), textinput.Blink, m.spinner.Tick)
}

func (m *AppModel) connectCmd() tea.Cmd {
	m.authURLs = make(chan string, 1)
	m.authCodes = make(chan string, 1)
	m.connectDone = make(chan connectedMsg, 1)
	urls, codes, done := m.authURLs, m.authCodes, m.connectDone
	ctx, connect := m.ctx, m.opts.Connect
	return func() tea.Msg {
		go func() {
			b, err := connect(ctx, gmail.Prompt{URL: urls, Code: codes})
			done <- connectedMsg{backend: b, err: err}
		}()

		// The consent flow sends the auth URL first when it needs one;
		// otherwise the connection result arrives directly.
		select {
		case u := <-urls:
			return authURLMsg(u)
		case r := <-done:
			return r
		}
	}
}

func (m *AppModel) waitConnectedCmd() tea.Cmd {
	done := m.connectDone
	return func() tea.Msg {
		return <-done
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listH := msg.Height - 6 // room for header + footer
		m.categoriesList.SetSize(msg.Width, listH)
		m.resultsList.SetSize(msg.Width, listH)
		m.logViewport.Width = msg.Width
		m.logViewport.Height = msg.Height - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case authURLMsg:
		m.authURL = string(msg)
		m.view = viewAuth
		return m, m.waitConnectedCmd()

	case connectedMsg:
		if msg.err != nil {
			// Keep going without a backend: the header shows the placeholder
			// and analyses fail, but selection and export still work.
			util.Log.WithError(msg.err).Warn("gmail unavailable")
			m.ctl = cleanup.New(m.opts.Catalog, nil, m.opts.Selection, cleanup.WithPace(m.opts.Pace))
			m.ctl.RefreshProfile(m.ctx)
			m.refreshCategories()
			m.view = viewCategories
			m.status = errorStyle.Render("Connection failed: " + msg.err.Error())
			return m, nil
		}
		m.ctl = cleanup.New(m.opts.Catalog, msg.backend, m.opts.Selection, cleanup.WithPace(m.opts.Pace))
		m.refreshCategories()
		m.view = viewCategories
		m.status = "Counting emails in account..."
		return m, m.refreshProfileCmd()

	case profileMsg:
		if msg.Err != nil {
			m.status = "Profile lookup failed: " + msg.Err.Error()
			return m, clearStatusAfter(3 * time.Second)
		}
		m.status = ""
		return m, nil

	case analysisProgressMsg:
		if !m.running {
			return m, nil
		}
		m.status = fmt.Sprintf("Analyzing... %d / %d queries", msg.p.Done, msg.p.Total)
		return m, nil

	case analysisDoneMsg:
		if errors.Is(msg.err, cleanup.ErrSuperseded) {
			return m, nil
		}
		m.running = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, clearStatusAfter(3 * time.Second)
		}
		if msg.snap.Failed() {
			m.status = errorStyle.Render(msg.snap.Error)
			return m, nil
		}
		m.resultsList.SetItems(resultsToItems(msg.snap))
		m.resultsList.Title = resultsTitle(msg.snap)
		m.resultsList.ResetSelected()
		m.view = viewResults
		m.status = ""
		if n := msg.snap.FailedQueries(); n > 0 {
			m.status = fmt.Sprintf("%d %s could not be estimated and count as 0", n, plural(n, "query", "queries"))
		}
		return m, nil

	case stepsStartedMsg:
		if msg.err != nil {
			m.stepping = false
			m.status = msg.err.Error()
			return m, clearStatusAfter(3 * time.Second)
		}
		m.view = viewLog
		m.refreshLog()
		return m, m.nextActionCmd()

	case actionMsg:
		if !msg.ok {
			m.stepping = false
			m.refreshLog()
			return m, nil
		}
		m.refreshLog()
		return m, m.nextActionCmd()

	case exportedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.status = "Saved " + msg.path
		}
		return m, clearStatusAfter(3 * time.Second)

	case statusMsg:
		if string(msg) == "" {
			m.status = ""
		}
		return m, nil
	}

	// Delegate to active sub-model
	var cmd tea.Cmd
	switch m.view {
	case viewAuth:
		m.textInput, cmd = m.textInput.Update(msg)
	case viewCategories:
		m.categoriesList, cmd = m.categoriesList.Update(msg)
	case viewResults:
		m.resultsList, cmd = m.resultsList.Update(msg)
	case viewLog:
		m.logViewport, cmd = m.logViewport.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	}

	switch m.view {
	case viewLoading:
		if key == "q" {
			return m, tea.Quit
		}
		return m, nil

	case viewAuth:
		switch key {
		case "enter":
			val := m.textInput.Value()
			m.textInput.Reset()
			select {
			case m.authCodes <- val:
				m.status = "Exchanging code..."
			default:
			}
			return m, nil
		case "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd

	case viewCategories:
		// When the list is filtering, let it handle all keys except ctrl+c
		if m.categoriesList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.categoriesList, cmd = m.categoriesList.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m, tea.Quit
		case " ", "x":
			return m.toggleSelected()
		case "t":
			return m.nextTimeRange()
		case "a", "enter":
			return m.startAnalysis()
		case "e":
			m.status = "Exporting..."
			return m, m.exportCmd()
		case "r":
			m.status = "Counting emails in account..."
			return m, m.refreshProfileCmd()
		case "tab":
			if _, ok := m.ctl.Snapshot(); ok && !m.running {
				m.view = viewResults
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.categoriesList, cmd = m.categoriesList.Update(msg)
		return m, cmd

	case viewResults:
		if m.resultsList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.resultsList, cmd = m.resultsList.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m, tea.Quit
		case "esc", "tab":
			m.view = viewCategories
			return m, nil
		case "c":
			if m.stepping {
				m.view = viewLog
				return m, nil
			}
			m.stepping = true
			return m, m.startStepsCmd()
		case "l":
			m.refreshLog()
			m.view = viewLog
			return m, nil
		case "o":
			if sel, ok := m.resultsList.SelectedItem().(resultItem); ok {
				return m, openSearchCmd(sel.Query)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.resultsList, cmd = m.resultsList.Update(msg)
		return m, cmd

	case viewLog:
		switch key {
		case "q":
			return m, tea.Quit
		case "esc":
			m.view = viewResults
			return m, nil
		case "o":
			recs := m.ctl.ActionLog()
			if len(recs) > 0 {
				return m, openSearchCmd(recs[len(recs)-1].Query)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *AppModel) toggleSelected() (tea.Model, tea.Cmd) {
	selected, ok := m.categoriesList.SelectedItem().(categoryItem)
	if !ok {
		return m, nil
	}
	if err := m.ctl.Toggle(selected.ID); err != nil {
		m.status = err.Error()
		return m, clearStatusAfter(2 * time.Second)
	}
	m.refreshCategories()
	return m, nil
}

func (m *AppModel) nextTimeRange() (tea.Model, tea.Cmd) {
	presets := query.Presets()
	m.presetIdx = (m.presetIdx + 1) % len(presets)
	m.ctl.SetTimeRange(presets[m.presetIdx].Range)
	m.refreshCategories()
	return m, nil
}

func (m *AppModel) startAnalysis() (tea.Model, tea.Cmd) {
	if m.running {
		return m, nil
	}
	if m.ctl.Selection().Empty() {
		m.status = cleanup.ErrNothingSelected.Error()
		return m, clearStatusAfter(2 * time.Second)
	}
	m.running = true
	m.stepping = false
	m.status = "Analyzing..."
	return m, tea.Batch(m.analyzeCmd(), m.spinner.Tick)
}

func (m *AppModel) refreshCategories() {
	sel := m.ctl.Selection()
	idx := m.categoriesList.Index()
	m.categoriesList.SetItems(categoriesToItems(m.ctl.Catalog().All(), sel))
	m.categoriesList.Select(idx)
	m.categoriesList.Title = fmt.Sprintf("Categories (%d selected, %s)", sel.Len(), query.RangeOf(sel).Label())
}

func (m *AppModel) refreshLog() {
	recs := m.ctl.ActionLog()
	pending := 0
	if m.stepping {
		if snap, ok := m.ctl.Snapshot(); ok {
			pending = len(snap.Results) - len(recs)
		}
	}
	m.logViewport.SetContent(renderActionLog(recs, pending))
	m.logViewport.GotoBottom()
}

// Commands

func (m *AppModel) refreshProfileCmd() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return profileMsg(ctl.RefreshProfile(ctx))
	}
}

func (m *AppModel) analyzeCmd() tea.Cmd {
	ctx, ctl, program := m.ctx, m.ctl, m.program
	return func() tea.Msg {
		snap, err := ctl.Analyze(ctx, func(_ uint64, p analysis.Progress) {
			if program != nil {
				program.Send(analysisProgressMsg{p: p})
			}
		})
		return analysisDoneMsg{snap: snap, err: err}
	}
}

func (m *AppModel) startStepsCmd() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return stepsStartedMsg{err: ctl.StartActionLog(ctx)}
	}
}

func (m *AppModel) nextActionCmd() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		rec, ok := ctl.NextAction(ctx)
		return actionMsg{rec: rec, ok: ok}
	}
}

func (m *AppModel) exportCmd() tea.Cmd {
	ctl, dir := m.ctl, m.opts.ExportDir
	return func() tea.Msg {
		now := time.Now()
		path, err := export.WriteFile(dir, ctl.Export(now), now)
		return exportedMsg{path: path, err: err}
	}
}

func openSearchCmd(q string) tea.Cmd {
	return func() tea.Msg {
		if err := gmail.OpenSearch(q); err != nil {
			util.Log.WithError(err).WithField("query", q).Warn("open search failed")
			return statusMsg("could not open browser")
		}
		return nil
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg("")
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// View renders the appropriate view based on current state.
func (m *AppModel) View() string {
	// Auth code input
	if m.view == viewAuth {
		s := "Please open this URL in your browser to authenticate:\n\n" +
			m.authURL + "\n\n" +
			m.textInput.View()
		if m.status != "" {
			s += "\n\n" + m.status
		}
		return s
	}

	if m.view == viewLoading {
		return m.spinner.View() + " " + m.status + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Total emails in account: " + m.ctl.Profile().TotalLabel()))
	b.WriteString("\n")

	switch m.view {
	case viewCategories:
		b.WriteString(m.categoriesList.View())
		b.WriteString("\n")
		b.WriteString(categoriesFooter())
	case viewResults:
		b.WriteString(m.resultsList.View())
		b.WriteString("\n")
		b.WriteString(resultsFooter())
	case viewLog:
		b.WriteString(m.logViewport.View())
		b.WriteString("\n")
		b.WriteString(logFooter())
	}

	if m.running {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " " + m.status)
	} else if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}

	return b.String()
}
