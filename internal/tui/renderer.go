package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/docuchat/docuchat/internal/conversation"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorLabelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	errorTextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceHeaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	sourceBodyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingLeft(2)
)

// Renderer turns messages into terminal output. User messages stay verbatim;
// assistant messages render as markdown with highlighted code fences.
type Renderer struct {
	markdown *glamour.TermRenderer
}

func NewRenderer(theme string, width int) (*Renderer, error) {
	if width <= 0 {
		width = 80
	}
	markdown, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("build markdown renderer: %w", err)
	}
	return &Renderer{markdown: markdown}, nil
}

// Render formats one message. Source citations are collapsed unless
// showSources is set; an error message keeps its text but gets a distinct
// marker and color.
func (r *Renderer) Render(msg conversation.Message, showSources bool) string {
	if msg.IsUser {
		return userLabelStyle.Render("You") + "\n" + msg.Text
	}

	label := assistantLabelStyle.Render("Assistant")
	body := msg.Text
	if msg.IsError {
		label = errorLabelStyle.Render("Assistant ✗")
		body = errorTextStyle.Render(msg.Text)
		return label + "\n" + body
	}

	if rendered, err := r.markdown.Render(msg.Text); err == nil {
		body = strings.TrimRight(rendered, "\n")
	}

	out := label + "\n" + body
	if len(msg.Sources) > 0 {
		out += "\n" + r.renderSources(msg.Sources, showSources)
	}
	return out
}

func (r *Renderer) renderSources(sources []conversation.Source, expanded bool) string {
	if !expanded {
		return sourceHeaderStyle.Render(fmt.Sprintf("▸ %d source(s) — ctrl+s to expand", len(sources)))
	}

	var sb strings.Builder
	sb.WriteString(sourceHeaderStyle.Render(fmt.Sprintf("▾ %d source(s)", len(sources))))
	for i, src := range sources {
		sb.WriteString("\n")
		sb.WriteString(sourceBodyStyle.Render(fmt.Sprintf("[%d] %s\n%s", i+1, src.Source, src.Content)))
	}
	return sb.String()
}
