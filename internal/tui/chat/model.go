package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samsaffron/term-chat/internal/config"
	"github.com/samsaffron/term-chat/internal/debuglog"
	"github.com/samsaffron/term-chat/internal/llm"
	"github.com/samsaffron/term-chat/internal/ui"
)

// Model is the bubbletea model for an interactive chat session. It runs
// inline (no alt screen): finished turns are printed into the scrollback
// and only the composer, spinner and status line live in the view.
type Model struct {
	cfg    *config.Config
	client llm.Client
	logger *debuglog.Logger

	// Optional capabilities, feature-detected from the client
	switcher ModelSwitcher
	lister   ModelLister
	checker  ModelChecker

	conv   *Conversation
	disp   *Dispatcher
	dialog *DialogModel

	textarea textarea.Model
	spinner  spinner.Model
	styles   *ui.Styles

	width    int
	height   int
	status   string
	quitting bool
}

// New creates a chat model for the given backend client
func New(cfg *config.Config, client llm.Client, logger *debuglog.Logger) *Model {
	styles := ui.DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Send a message (/help for commands)"
	ta.Prompt = "┃ "
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	// Enter submits; newlines go in with ctrl+j
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		conv:     NewConversation(),
		disp:     NewDispatcher(),
		dialog:   NewDialogModel(styles),
		textarea: ta,
		spinner:  sp,
		styles:   styles,
	}

	if s, ok := client.(ModelSwitcher); ok {
		m.switcher = s
	}
	if l, ok := client.(ModelLister); ok {
		m.lister = l
	}
	if c, ok := client.(ModelChecker); ok {
		m.checker = c
	}

	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, tea.Println(m.renderWelcome())}
	if cmd := m.checkModelCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// checkModelCmd verifies the configured model in the background. The check
// never blocks the session and never fails it.
func (m *Model) checkModelCmd() tea.Cmd {
	if m.checker == nil {
		return nil
	}
	checker := m.checker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if w := checker.CheckModel(ctx); w != nil {
			return modelCheckMsg{warning: w.Message()}
		}
		return modelCheckMsg{}
	}
}

// fetchModelsCmd lists installed models in the background
func (m *Model) fetchModelsCmd(forPicker bool) tea.Cmd {
	lister := m.lister
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		names, err := lister.ListModels(ctx)
		return modelsMsg{names: names, err: err, forPicker: forPicker}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(msg.Width)
		m.dialog.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.disp.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case inferenceDoneMsg:
		return m.handleInferenceDone(msg)

	case inferenceErrMsg:
		return m.handleInferenceErr(msg)

	case modelsMsg:
		return m.handleModels(msg)

	case modelCheckMsg:
		if msg.warning == "" {
			return m, nil
		}
		m.logger.LogWarning(msg.warning)
		return m, tea.Println(m.styles.Warning.Render("Warning: "+msg.warning) + "\n")
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// An open dialog captures all input; enter applies the selection
	if m.dialog.IsOpen() {
		if msg.Type == tea.KeyEnter {
			return m.applyDialogSelection()
		}
		var cmd tea.Cmd
		m.dialog, cmd = m.dialog.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+k":
		return m.cmdClear()
	case "ctrl+l":
		return m.cmdModel(nil)
	case "enter":
		return m.submit()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.updateStatus()
	return m, cmd
}

// updateStatus refreshes the command completion hint under the composer
func (m *Model) updateStatus() {
	value := m.textarea.Value()
	if strings.HasPrefix(value, "/") && !strings.ContainsAny(value, " \n") {
		var hints []string
		for _, c := range FilterCommands(value) {
			hints = append(hints, "/"+c.Name)
		}
		m.status = strings.Join(hints, "  ")
		return
	}
	m.status = ""
}

func (m *Model) applyDialogSelection() (tea.Model, tea.Cmd) {
	item := m.dialog.Selected()
	m.dialog.Close()
	if item == nil || item.Selected {
		// Nothing chosen, or the active model re-picked
		return m, nil
	}
	return m.switchModel(item.ID)
}

// submit sends the composed prompt as a background request. While a request
// is in flight the enter key is dropped and the draft stays in the composer.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.status = ""
		return m.ExecuteCommand(text)
	}

	if m.disp.Busy() {
		m.status = "waiting for the current reply"
		return m, nil
	}

	// Snapshot history before recording the new turn so the prompt cannot
	// be doubled into the request.
	history := m.conv.SnapshotForRequest()
	m.conv.AddUser(text)

	m.logger.LogRequest(m.client.Name(), m.client.Model(), len(text), len(history))

	cmd := m.disp.Dispatch(context.Background(), m.client, text, history)

	m.textarea.SetValue("")
	m.status = ""

	return m, tea.Batch(
		tea.Println(m.renderUserTurn(text)),
		cmd,
		m.spinner.Tick,
	)
}

func (m *Model) handleInferenceDone(msg inferenceDoneMsg) (tea.Model, tea.Cmd) {
	if !m.disp.Resolve(msg.seq) {
		// Reply from before a /clear; the conversation it belongs to is gone
		return m, nil
	}

	m.conv.AddAssistant(msg.text, msg.dur)
	m.logger.LogResponse(m.client.Name(), m.client.Model(), len(msg.text), msg.dur)
	m.status = fmt.Sprintf("%.1fs", msg.dur.Seconds())

	return m, tea.Println(m.renderAssistantTurn(msg.text))
}

func (m *Model) handleInferenceErr(msg inferenceErrMsg) (tea.Model, tea.Cmd) {
	if !m.disp.Resolve(msg.seq) {
		return m, nil
	}

	m.logger.LogError(m.client.Name(), llm.KindOf(msg.err).String(), msg.err)

	return m, tea.Println(m.renderError(msg.err))
}

func (m *Model) handleModels(msg modelsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(m.renderError(msg.err))
	}
	if len(msg.names) == 0 {
		return m, tea.Println(m.styles.Muted.Render("No models installed. Pull one with 'ollama pull <model>'.") + "\n")
	}

	if msg.forPicker {
		m.dialog.ShowModelPicker(m.client.Model(), msg.names)
		return m, nil
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Installed models") + "\n")
	current := m.client.Model()
	for _, name := range msg.names {
		b.WriteString(m.styles.FormatActive(name == current, name) + "\n")
	}
	return m, tea.Println(b.String())
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	if m.dialog.IsOpen() {
		b.WriteString(m.dialog.View())
		b.WriteString("\n")
	}

	if m.disp.Busy() {
		b.WriteString(m.spinner.View() + " Thinking...\n")
	}

	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())

	return b.String()
}

func (m *Model) statusLine() string {
	model := runewidth.Truncate(m.client.Model(), 28, "…")
	left := fmt.Sprintf("%s · %s", m.client.Name(), model)
	if m.status != "" {
		left += " · " + m.status
	}
	return m.styles.Muted.Render(left)
}

// Rendering helpers

func (m *Model) contentWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m *Model) renderMarkdown(content string) string {
	return ui.RenderMarkdown(content, m.contentWidth())
}

func (m *Model) renderWelcome() string {
	title := m.styles.Title.Render("term-chat")
	sub := m.styles.Muted.Render(fmt.Sprintf("%s · %s · /help for commands", m.client.Name(), m.client.Model()))
	return title + "  " + sub + "\n"
}

func (m *Model) renderUserTurn(text string) string {
	wrapped := wordwrap.String(text, m.contentWidth()-2)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = m.styles.Bold.Render("❯ ") + line
		} else {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) renderAssistantTurn(text string) string {
	return m.renderMarkdown(text) + "\n"
}

func (m *Model) renderError(err error) string {
	msg := err.Error()
	if llm.KindOf(err) == llm.ErrKindNetwork && m.client.Name() == "ollama" && !strings.Contains(msg, "ollama serve") {
		msg += " - make sure Ollama is running (`ollama serve`)"
	}
	return m.styles.Error.Render("Error: ") + msg + "\n"
}
