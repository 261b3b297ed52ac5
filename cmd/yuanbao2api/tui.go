package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
	"github.com/MingriLingran/yuanbao-chat/pkg/types"
)

var (
	tuiHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("219")).Bold(true)
	tuiStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tuiUserStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	tuiAIStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	tuiThinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	tuiPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36")).Bold(true)
)

func tuiCmd() *cobra.Command {
	return configCommand("tui", "Terminal UI chat interface",
		`Start a terminal UI chat interface with a more visual experience.`,
		nil,
		func(cfg config.Config, logger *slog.Logger, _ []string) error {
			agents := newAgents()
			cookie, err := requireCredential(context.Background(), cfg, agents, logger)
			if err != nil {
				return err
			}
			client := newClient(cfg, agents, logger)

			p := tea.NewProgram(initialTUIModel(client, cookie, newChatState(cfg)), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		})
}

// tea messages
type chatResultMsg struct {
	res types.ChatResult
}

type chatErrorMsg struct {
	err error
}

type tuiModel struct {
	client     *yuanbao.Client
	cookie     string
	state      *chatState
	input      textinput.Model
	viewport   viewport.Model
	messages   []string
	sending    bool
	statusLine string
}

func initialTUIModel(client *yuanbao.Client, cookie string, state *chatState) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "Type message or /commands..."
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.YPosition = 1

	return tuiModel{
		client:     client,
		cookie:     cookie,
		state:      state,
		input:      ti,
		viewport:   vp,
		messages:   []string{"Welcome to the Yuanbao TUI. Use " + strings.Join(chatCommands, ", ") + "."},
		statusLine: "Ready",
	}
}

func (m tuiModel) Init() tea.Cmd { return textinput.Blink }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.sending {
				return m, nil
			}
			m.input.SetValue("")
			if res, ok := m.state.handleCommand(line); ok {
				if res.quit {
					return m, tea.Quit
				}
				style := tuiStatusStyle
				if res.isErr {
					style = tuiErrorStyle
				}
				m.messages = append(m.messages, style.Render("["+strings.ToLower(res.label)+"] "+res.text))
				m.statusLine = res.text
				m.syncViewport()
				return m, nil
			}
			return m.sendUserMessage(line)
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 5
		m.syncViewport()
	case chatResultMsg:
		m.sending = false
		m.statusLine = "Received response"
		m.renderAI(msg.res)
		m.syncViewport()
	case chatErrorMsg:
		m.sending = false
		m.statusLine = fmt.Sprintf("Error: %v", msg.err)
		m.messages = append(m.messages, tuiErrorStyle.Render("[error] "+msg.err.Error()))
		m.syncViewport()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) sendUserMessage(line string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, tuiUserStyle.Render("You:")+" "+line)
	m.sending = true
	m.statusLine = "Sending..."
	m.syncViewport()

	client, req := m.client, m.state.request(m.cookie, line)
	return m, func() tea.Msg {
		res, err := client.Chat(context.Background(), req)
		if err != nil {
			return chatErrorMsg{err}
		}
		return chatResultMsg{res: res}
	}
}

func (m *tuiModel) renderAI(res types.ChatResult) {
	if res.HasReasoning() {
		m.messages = append(m.messages, tuiThinkStyle.Render("AI (think):\n"+res.Reasoning))
	}
	m.messages = append(m.messages, tuiAIStyle.Render("AI:")+" "+strings.TrimSpace(res.Answer))
}

func (m *tuiModel) syncViewport() {
	m.viewport.SetContent(strings.Join(m.messages, "\n\n"))
	m.viewport.GotoBottom()
}

func (m tuiModel) View() string {
	header := tuiHeaderStyle.Render(fmt.Sprintf("Yuanbao TUI | model=%s | search=%v | conversation=%s",
		m.state.model, m.state.search, m.state.conversationID))
	status := tuiStatusStyle.Render(m.statusLine)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		tuiPromptStyle.Render(m.input.View()),
	)
}
