package ui

import (
	"reflect"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyjira/lazyjira/internal/jira"
	"github.com/lazyjira/lazyjira/internal/theme"
	uistate "github.com/lazyjira/lazyjira/internal/ui/state"
)

// Mode identifies the active view.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeTransitions
	ModeCommentInput
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeDetail:
		return "detail"
	case ModeTransitions:
		return "transitions"
	case ModeCommentInput:
		return "comment"
	case ModeCreate:
		return "create"
	default:
		return "unknown"
	}
}

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Options carries the user-facing knobs the model needs.
type Options struct {
	Instance string
	Project  string
	JQL      string
	PageSize int
	Verbose  bool
}

// detail holds the state of the open issue.
type detail struct {
	issue       jira.Issue
	comments    []jira.Comment
	commentsErr string
}

// Model implements the Bubble Tea model for the issue browser.
type Model struct {
	svc  jira.Service
	opts Options

	mode    Mode
	list    *uistate.IssueList
	detail  *detail
	loading bool
	// loadingPage guards the background next-page fetch separately
	// so scrolling stays responsive while it runs.
	loadingPage bool
	errMsg      string
	infoMsg     string
	width       int
	height      int

	transitions      []jira.Transition
	transitionCursor int

	filtering    bool
	spin         spinner.Model
	commentInput textinput.Model
	detailView   viewport.Model
	createForm   *createForm

	handlers map[reflect.Type]msgHandler
}

// NewModel initialises the UI state against the given service.
func NewModel(svc jira.Service, opts Options) *Model {
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	if styles.Loading != nil {
		sp.Style = *styles.Loading
	}

	input := textinput.New()
	input.Placeholder = "add a comment"
	input.CharLimit = 2000
	if styles.FilterPrompt != nil {
		input.PromptStyle = *styles.FilterPrompt
	}
	if styles.FilterPlaceholder != nil {
		input.PlaceholderStyle = *styles.FilterPlaceholder
	}

	m := &Model{
		svc:          svc,
		opts:         opts,
		mode:         ModeList,
		list:         uistate.NewIssueList(nil),
		loading:      true,
		spin:         sp,
		commentInput: input,
		detailView:   viewport.New(0, 0),
	}
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadIssuesCmd(m.opts.JQL))
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	return m, nil
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):           m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):    m.handleWindowSizeMsg,
		reflect.TypeOf(spinner.TickMsg{}):      m.handleSpinnerTickMsg,
		reflect.TypeOf(issuesLoadedMsg{}):      m.handleIssuesLoadedMsg,
		reflect.TypeOf(pageLoadedMsg{}):        m.handlePageLoadedMsg,
		reflect.TypeOf(detailLoadedMsg{}):      m.handleDetailLoadedMsg,
		reflect.TypeOf(transitionsLoadedMsg{}): m.handleTransitionsLoadedMsg,
		reflect.TypeOf(transitionDoneMsg{}):    m.handleTransitionDoneMsg,
		reflect.TypeOf(commentAddedMsg{}):      m.handleCommentAddedMsg,
		reflect.TypeOf(issueCreatedMsg{}):      m.handleIssueCreatedMsg,
		reflect.TypeOf(yankDoneMsg{}):          m.handleYankDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) handleSpinnerTickMsg(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return nil
	}
	if !m.loading && !m.loadingPage {
		return nil
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(tick)
	return cmd
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	m.width = size.Width
	m.height = size.Height
	m.detailView.Width = size.Width
	m.detailView.Height = m.detailBodyHeight()
	if m.detail != nil {
		m.detailView.SetContent(m.renderDetailBody())
	}
	m.list.EnsureCursorVisible(m.listBodyHeight())
	return nil
}

func (m *Model) setError(err error) {
	m.errMsg = err.Error()
	m.infoMsg = ""
}

func (m *Model) setInfo(info string) {
	if m.opts.Verbose {
		m.infoMsg = info
	}
	m.errMsg = ""
}

func (m *Model) clearMessages() {
	m.errMsg = ""
	m.infoMsg = ""
}
