// Package tui is the terminal chat client: multi-conversation chat, document
// upload and retrieval-augmented answers with citations.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docuchat/docuchat/internal/client"
	"github.com/docuchat/docuchat/internal/conversation"
)

type mode int

const (
	modeChat mode = iota
	modeNewTitle
	modeUploadPath
	modeConfirm
)

type confirmKind int

const (
	confirmDelete confirmKind = iota
	confirmReset
	confirmClear
)

// Completion messages are addressed to the conversation their operation was
// issued for, which may no longer be the active one.
type queryDoneMsg struct {
	convID string
	result *client.QueryResult
	err    error
}

type uploadDoneMsg struct {
	convID string
	result *client.UploadResult
	err    error
}

type resetDoneMsg struct {
	convID string
	err    error
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	tabStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	activeTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	chatBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const helpLine = "enter send · ctrl+n new · ctrl+o upload · tab switch · ctrl+s sources · ctrl+l clear · ctrl+r reset · ctrl+x delete · ctrl+c quit"

// Model is the Bubble Tea model for the chat client.
type Model struct {
	manager  *conversation.Manager
	remote   *client.Client
	renderer *Renderer
	theme    string

	input    textinput.Model
	viewport viewport.Model

	mode        mode
	confirm     confirmKind
	confirmConv string

	inflight  map[string]bool // conversation id -> query in flight
	uploading map[string]bool

	showSources bool
	status      string
	statusIsErr bool
	width       int
	height      int
	ready       bool
}

// New creates the chat model.
func New(manager *conversation.Manager, remote *client.Client, theme string) (Model, error) {
	renderer, err := NewRenderer(theme, 80)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Upload a document, then ask a question"
	ti.CharLimit = 0
	ti.Focus()

	vp := viewport.New(0, 0)

	return Model{
		manager:   manager,
		remote:    remote,
		renderer:  renderer,
		theme:     theme,
		input:     ti,
		viewport:  vp,
		inflight:  make(map[string]bool),
		uploading: make(map[string]bool),
		status:    "Ready.",
	}, nil
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.refreshViewport()
		return m, nil

	case queryDoneMsg:
		delete(m.inflight, msg.convID)
		reply := conversation.Message{Timestamp: time.Now().UTC()}
		if msg.err != nil {
			reply.Text = "Sorry, something went wrong: " + errorDetail(msg.err)
			reply.IsError = true
		} else {
			reply.Text = msg.result.Answer
			reply.Sources = msg.result.Sources
		}
		if err := m.manager.AppendMessage(msg.convID, reply); err != nil {
			m.setStatus("Conversation is gone: "+err.Error(), true)
		}
		m.refreshViewport()
		return m, nil

	case uploadDoneMsg:
		delete(m.uploading, msg.convID)
		if msg.err != nil {
			m.setStatus("Upload failed: "+errorDetail(msg.err), true)
			return m, nil
		}
		if err := m.manager.RecordUpload(msg.convID); err != nil {
			m.setStatus("Conversation is gone: "+err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Indexed %d chunk(s). Ask away.", msg.result.Chunks), false)
		return m, nil

	case resetDoneMsg:
		if msg.err != nil {
			m.setStatus("Reset failed: "+errorDetail(msg.err), true)
			return m, nil
		}
		if err := m.manager.ApplyReset(msg.convID); err != nil {
			m.setStatus("Conversation is gone: "+err.Error(), true)
			return m, nil
		}
		m.setStatus("Conversation reset.", false)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.mode == modeConfirm {
		switch msg.String() {
		case "y", "Y":
			return m.runConfirmed()
		default:
			m.mode = modeChat
			m.setStatus("Cancelled.", false)
			return m, nil
		}
	}

	switch msg.String() {
	case "esc":
		if m.mode != modeChat {
			m.mode = modeChat
			m.input.Reset()
			m.input.Prompt = "> "
			m.setStatus("Cancelled.", false)
		}
		return m, nil
	case "enter":
		return m.handleEnter()
	}

	// Prompt modes capture everything else as text.
	if m.mode != modeChat {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "tab":
		return m.cycleConversation(1), nil
	case "shift+tab":
		return m.cycleConversation(-1), nil
	case "ctrl+n":
		m.mode = modeNewTitle
		m.input.Reset()
		m.input.Prompt = "title: "
		m.setStatus("Name the new conversation, enter to create.", false)
		return m, nil
	case "ctrl+o":
		m.mode = modeUploadPath
		m.input.Reset()
		m.input.Prompt = "file: "
		m.setStatus("Path to a .pdf, .docx or .txt file, enter to upload.", false)
		return m, nil
	case "ctrl+s":
		m.showSources = !m.showSources
		m.refreshViewport()
		return m, nil
	case "ctrl+x":
		m.mode = modeConfirm
		m.confirm = confirmDelete
		m.confirmConv = m.manager.ActiveID()
		m.setStatus("Delete this conversation? y/n", false)
		return m, nil
	case "ctrl+r":
		m.mode = modeConfirm
		m.confirm = confirmReset
		m.confirmConv = m.manager.ActiveID()
		m.setStatus("Reset documents and history for this conversation? y/n", false)
		return m, nil
	case "ctrl+l":
		m.mode = modeConfirm
		m.confirm = confirmClear
		m.confirmConv = m.manager.ActiveID()
		m.setStatus("Clear this conversation's messages? y/n", false)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeNewTitle:
		conv, err := m.manager.Create(value)
		m.mode = modeChat
		m.input.Reset()
		m.input.Prompt = "> "
		if err != nil {
			m.setStatus("Cannot create conversation: "+err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Created %q.", conv.Title), false)
		m.refreshViewport()
		return m, nil

	case modeUploadPath:
		convID := m.manager.ActiveID()
		conv := m.manager.Active()
		m.mode = modeChat
		m.input.Reset()
		m.input.Prompt = "> "
		if value == "" {
			m.setStatus("Upload failed: no file selected.", true)
			return m, nil
		}
		if m.uploading[convID] {
			m.setStatus("An upload is already running for this conversation.", true)
			return m, nil
		}
		m.uploading[convID] = true
		m.setStatus("Uploading "+value+"…", false)
		return m, m.uploadCmd(value, convID, conv.IndexName)

	default:
		return m.sendQuery(value)
	}
}

func (m Model) sendQuery(question string) (tea.Model, tea.Cmd) {
	if question == "" {
		return m, nil
	}

	convID := m.manager.ActiveID()
	conv := m.manager.Active()

	// Query issuance is gated per conversation: documents must be indexed and
	// no other query may be in flight for the same conversation.
	if !conv.HasDocuments {
		m.setStatus("Upload a document before asking questions.", true)
		return m, nil
	}
	if m.inflight[convID] {
		m.setStatus("Waiting for the previous answer.", true)
		return m, nil
	}

	userMsg := conversation.Message{
		Text:      question,
		IsUser:    true,
		Timestamp: time.Now().UTC(),
	}
	if err := m.manager.AppendMessage(convID, userMsg); err != nil {
		m.setStatus("Conversation is gone: "+err.Error(), true)
		return m, nil
	}

	m.inflight[convID] = true
	m.input.Reset()
	m.setStatus("Thinking…", false)
	m.refreshViewport()
	return m, m.queryCmd(question, convID, conv.IndexName)
}

func (m Model) runConfirmed() (tea.Model, tea.Cmd) {
	convID := m.confirmConv
	m.mode = modeChat

	switch m.confirm {
	case confirmDelete:
		if err := m.manager.Delete(convID, true); err != nil {
			m.setStatus("Cannot delete: "+err.Error(), true)
			return m, nil
		}
		m.setStatus("Conversation deleted.", false)
		m.refreshViewport()
		return m, nil

	case confirmClear:
		if err := m.manager.Clear(convID, true); err != nil {
			m.setStatus("Cannot clear: "+err.Error(), true)
			return m, nil
		}
		m.setStatus("Messages cleared.", false)
		m.refreshViewport()
		return m, nil

	case confirmReset:
		m.setStatus("Resetting…", false)
		return m, m.resetCmd(convID)
	}
	return m, nil
}

func (m Model) queryCmd(question, convID, indexName string) tea.Cmd {
	remote := m.remote
	return func() tea.Msg {
		result, err := remote.Query(context.Background(), question, convID, indexName)
		return queryDoneMsg{convID: convID, result: result, err: err}
	}
}

func (m Model) uploadCmd(path, convID, indexName string) tea.Cmd {
	remote := m.remote
	return func() tea.Msg {
		result, err := remote.Upload(context.Background(), path, convID, indexName)
		return uploadDoneMsg{convID: convID, result: result, err: err}
	}
}

func (m Model) resetCmd(convID string) tea.Cmd {
	remote := m.remote
	return func() tea.Msg {
		err := remote.Reset(context.Background(), convID)
		return resetDoneMsg{convID: convID, err: err}
	}
}

func (m Model) cycleConversation(step int) Model {
	conversations := m.manager.Conversations()
	if len(conversations) < 2 {
		return m
	}
	current := 0
	for i, conv := range conversations {
		if conv.ID == m.manager.ActiveID() {
			current = i
			break
		}
	}
	next := (current + step + len(conversations)) % len(conversations)
	if err := m.manager.SetActive(conversations[next].ID); err != nil {
		m.setStatus("Cannot switch: "+err.Error(), true)
		return m
	}
	m.refreshViewport()
	return m
}

func (m *Model) resize() {
	chatFrameW, chatFrameH := chatBoxStyle.GetFrameSize()
	_, inputFrameH := inputBoxStyle.GetFrameSize()
	reserved := 2 + inputFrameH + 1 + 1 + 1 // tabs row, input box, status, help, spacer
	vh := m.height - reserved - chatFrameH
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = max(20, m.width-chatFrameW)
	m.viewport.Height = vh
	m.input.Width = max(20, m.width-chatFrameW-4)

	if renderer, err := NewRenderer(m.theme, m.viewport.Width); err == nil {
		m.renderer = renderer
	}
}

func (m *Model) refreshViewport() {
	conv := m.manager.Active()
	if len(conv.Messages) == 0 {
		m.viewport.SetContent(helpStyle.Render("No messages yet."))
		return
	}
	parts := make([]string, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		parts = append(parts, m.renderer.Render(msg, m.showSources))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusIsErr = isErr
}

// View renders the tab bar, chat history, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var tabs []string
	for _, conv := range m.manager.Conversations() {
		label := conv.Title
		if m.inflight[conv.ID] || m.uploading[conv.ID] {
			label += " …"
		}
		if conv.ID == m.manager.ActiveID() {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	tabBar := titleStyle.Render("docuchat") + " " + strings.Join(tabs, " ")

	inputView := m.input.View()
	if m.inflight[m.manager.ActiveID()] {
		inputView = helpStyle.Render("waiting for answer…")
	}

	status := statusStyle.Render(m.status)
	if m.statusIsErr {
		status = statusErrorStyle.Render(m.status)
	}

	return tabBar + "\n" +
		chatBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(inputView) + "\n" +
		status + "\n" +
		helpStyle.Render(helpLine)
}

func errorDetail(err error) string {
	var remoteErr *client.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Detail
	}
	return err.Error()
}
