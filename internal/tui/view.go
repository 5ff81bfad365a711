package tui

import (
	"fmt"
	"strings"

	"github.com/RichardoC/Doc-i/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, true, false, false)

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))

	activeItemStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	itemStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	aiLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	systemStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240"))
	userTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	confirmStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)
)

func (m Model) View() string {
	if m.fatal != nil {
		return alertStyle.Render("Initialization failed: "+m.fatal.Error()) +
			"\n\nPress ctrl+c to exit.\n"
	}
	if !m.ready {
		return "Starting Doc-i...\n"
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.viewport.View())

	var b strings.Builder
	b.WriteString(titleStyle.Render("Doc-i"))
	b.WriteString(dimStyle.Render("  chat with your documents"))
	b.WriteString("\n")
	b.WriteString(main)
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if m.confirm != nil {
		b.WriteString(confirmStyle.Render(m.confirm.prompt + " [y/n]"))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Conversations"))
	b.WriteString("\n")
	if len(m.sessions) == 0 {
		b.WriteString(dimStyle.Render("No history yet"))
		b.WriteString("\n")
	}
	for i, s := range m.sessions {
		title := s.Title
		if title == "" {
			title = "Untitled Chat"
		}
		line := fmt.Sprintf("%d. %s", i+1, truncate(title, sidebarWidth-6))
		if s.ID == m.activeID {
			b.WriteString(activeItemStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Files"))
	b.WriteString("\n")
	if len(m.files) == 0 {
		b.WriteString(dimStyle.Render("No files uploaded yet"))
		b.WriteString("\n")
	}
	for _, name := range m.files {
		line := FileIcon(name) + " " + truncate(name, sidebarWidth-8)
		b.WriteString(itemStyle.Render(line))
		b.WriteString("\n")
	}
	if m.uploadStatus != "" {
		b.WriteString("\n")
		if strings.HasPrefix(m.uploadStatus, "Error") {
			b.WriteString(alertStyle.Render(m.uploadStatus))
		} else {
			b.WriteString(dimStyle.Render(m.uploadStatus))
		}
		b.WriteString("\n")
	}

	return sidebarStyle.Height(m.viewport.Height).Render(b.String())
}

func (m Model) renderStatus() string {
	switch {
	case m.thinking:
		return m.spin.View() + dimStyle.Render(" thinking...")
	case m.revealing:
		return dimStyle.Render("answering...")
	case m.uploadBusy:
		return m.spin.View() + dimStyle.Render(" indexing...")
	case m.alert != "":
		return alertStyle.Render(m.alert)
	}
	return ""
}

// renderTranscript renders all messages plus, while a reveal is in
// flight, the partial answer. User text is shown verbatim as plain
// text; only ai and system content goes through the markdown renderer.
func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
	}
	if m.revealing {
		b.WriteString(aiLabelStyle.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(m.revealBuf))
		b.WriteString("\n")
	} else if m.thinking {
		b.WriteString(aiLabelStyle.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg models.Message) string {
	switch msg.Role {
	case models.RoleUser:
		return userLabelStyle.Render("You") + "\n" +
			userTextStyle.Render(msg.Content) + "\n\n"
	case models.RoleSystem:
		return systemStyle.Render(msg.Content) + "\n\n"
	default:
		return aiLabelStyle.Render("Assistant") + "\n" +
			m.renderMarkdown(msg.Content) + "\n"
	}
}

// renderMarkdown falls back to the raw text when the terminal renderer
// is unavailable or chokes on the input.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
