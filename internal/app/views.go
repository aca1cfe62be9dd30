package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/intelliscript/tui/internal/api"
	"github.com/intelliscript/tui/internal/export"
	"github.com/intelliscript/tui/internal/session"
	"github.com/intelliscript/tui/internal/ui"
)

// View renders the full TUI for the current session view.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.sess.View {
	case session.ViewUpload:
		sections = append(sections, m.renderUploadView())
	case session.ViewProcessing:
		sections = append(sections, m.renderProcessingView())
	case session.ViewResults:
		sections = append(sections, m.renderResultsView())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.notice != "" {
		sections = append(sections, m.renderNoticeBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("INTELLISCRIPT")

	var info string
	if m.sess.Active() {
		info = ui.DimStyle.Render(" — session " + m.sess.ID)
	}
	lang := ui.DimStyle.Render(" [" + m.language + "]")

	return title + info + lang
}

func (m Model) renderUploadView() string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, "  "+ui.TabStyle.Render("Submit a video"))
	lines = append(lines, "")

	urlLabel := "  URL  "
	fileLabel := "  File "
	if m.inputFocus == FocusURL {
		urlLabel = ui.SelectedStyle.Render("> URL  ")
	} else {
		fileLabel = ui.SelectedStyle.Render("> File ")
	}

	lines = append(lines, urlLabel+m.urlInput.View())
	lines = append(lines, fileLabel+m.fileInput.View())
	lines = append(lines, "")
	lines = append(lines, ui.DimStyle.Render("  Language: "+m.language+" (ctrl+l to change)"))

	return m.padToContentHeight(lines)
}

func (m Model) renderProcessingView() string {
	var lines []string
	lines = append(lines, "")

	if m.sess.Failed {
		lines = append(lines, "  "+ui.ErrorStyle.Render("Processing stalled"))
		lines = append(lines, "  "+ui.ErrorTextStyle.Render(m.sess.ErrText))
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Press r to retry, n for a new session"))
		return m.padToContentHeight(lines)
	}

	lines = append(lines, "  "+m.spinner.View()+ui.TabStyle.Render(" Processing")+
		ui.DimStyle.Render(fmt.Sprintf("  %d%%", clampPct(m.sess.Overall))))
	lines = append(lines, "")

	if len(m.sess.Stages) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Waiting for the first status report..."))
	}
	for _, stage := range m.sess.Stages {
		lines = append(lines, "  "+renderStageLine(stage, m.width-4))
	}

	return m.padToContentHeight(lines)
}

// renderStageLine renders one stage as marker, bar, percentage and name.
func renderStageLine(s session.StageProgress, width int) string {
	var marker string
	switch s.Status {
	case session.StatusCompleted:
		marker = ui.StageDoneStyle.Render("✓")
	case session.StatusError:
		marker = ui.StageErrorStyle.Render("✗")
	default:
		marker = ui.DimStyle.Render("•")
	}

	bar := renderProgressBar(s.Progress)
	pct := fmt.Sprintf("%3d%%", clampPct(s.Progress))

	// Truncate the plain text before styling it, so the escape codes that
	// color the bar and percentage are never cut mid-sequence. The marker,
	// bar, percentage and separating spaces occupy a fixed 24 cells.
	const prefixWidth = 24
	name := truncateToWidth(s.Stage, max(0, width-prefixWidth))
	line := marker + " " + bar + " " + ui.StatusStyle.Render(pct) + " " + name

	if s.Message != "" && s.Message != s.Stage {
		rest := width - prefixWidth - lipgloss.Width(name) - 3
		if rest > 0 {
			line += ui.DimStyle.Render(" - " + truncateToWidth(s.Message, rest))
		}
	}
	return line
}

func renderProgressBar(progress int) string {
	const barLen = 16
	filled := clampPct(progress) * barLen / 100

	var bar string
	for i := 0; i < barLen; i++ {
		if i < filled {
			if progress >= 100 {
				bar += ui.BarFilledStyle.Render("█")
			} else if float64(i)/barLen > 0.6 {
				bar += ui.BarHotStyle.Render("█")
			} else {
				bar += ui.BarFilledStyle.Render("█")
			}
		} else {
			bar += ui.BarEmptyStyle.Render("░")
		}
	}
	return bar
}

func clampPct(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (m Model) renderResultsView() string {
	var lines []string
	lines = append(lines, m.renderTabBar())
	lines = append(lines, m.viewport.View())

	if m.activeTab == TabQA {
		prompt := "  ? "
		if m.questionInput.Focused() {
			prompt = ui.SelectedStyle.Render("> ? ")
		}
		lines = append(lines, prompt+m.questionInput.View())
	} else {
		lines = append(lines, ui.DimStyle.Render(
			"  Export: "+export.Formats[m.exportIdx]+" (e to cycle, x to save)"))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderTabBar() string {
	var parts []string
	for _, t := range tabs {
		if t == m.activeTab {
			parts = append(parts, ui.TabActiveStyle.Render("["+t.String()+"]"))
		} else {
			parts = append(parts, ui.TabStyle.Render(" "+t.String()+" "))
		}
	}
	return " " + strings.Join(parts, " ")
}

// renderTabContent builds the scrollable body for the active tab.
func (m Model) renderTabContent() string {
	bundle := m.sess.Bundle
	if bundle == nil {
		return ""
	}
	width := max(20, m.width-4)

	switch m.activeTab {
	case TabTranscript:
		return renderTranscript(bundle.Transcript, width)

	case TabSummary:
		if bundle.Summary == "" {
			return ui.DimStyle.Render("  No summary available.")
		}
		return "  " + strings.Join(wrapText(bundle.Summary, width), "\n  ")

	case TabChapters:
		if len(bundle.Chapters) == 0 {
			return ui.DimStyle.Render("  No chapters available.")
		}
		var lines []string
		for _, ch := range bundle.Chapters {
			span := ui.TimestampStyle.Render(
				"[" + formatTime(ch.Start) + "–" + formatTime(ch.End) + "]")
			lines = append(lines, "  "+span+" "+ui.SelectedStyle.Render(ch.Title))
			if ch.Description != "" {
				for _, wl := range wrapText(ch.Description, width-4) {
					lines = append(lines, ui.DimStyle.Render("      "+wl))
				}
			}
		}
		return strings.Join(lines, "\n")

	case TabQA:
		return m.renderQA(width)
	}
	return ""
}

func renderTranscript(t api.Transcript, width int) string {
	if len(t.Segments) == 0 {
		if t.Text != "" {
			return "  " + strings.Join(wrapText(t.Text, width), "\n  ")
		}
		return ui.DimStyle.Render("  Empty transcript.")
	}

	var lines []string
	for _, seg := range t.Segments {
		ts := ui.TimestampStyle.Render("[" + formatTime(seg.Start) + "]")
		prefix := "  " + ts + " "
		if seg.Speaker != "" {
			prefix += ui.SpeakerStyle.Render(seg.Speaker+":") + " "
		}
		indent := strings.Repeat(" ", lipgloss.Width(prefix))

		wrapped := wrapText(seg.Text, max(10, width-lipgloss.Width(prefix)))
		lines = append(lines, prefix+wrapped[0])
		for _, wl := range wrapped[1:] {
			lines = append(lines, indent+wl)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderQA(width int) string {
	var lines []string

	if m.qaPending {
		lines = append(lines, "  "+m.spinner.View()+ui.DimStyle.Render(" Thinking..."))
		lines = append(lines, "")
	}

	if m.qa == nil {
		lines = append(lines, ui.DimStyle.Render("  Press / and ask a question about the video."))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "  "+ui.SelectedStyle.Render("Q: ")+m.qa.Question)
	lines = append(lines, "")
	for _, wl := range wrapText(m.qa.Answer.Answer, width-2) {
		lines = append(lines, "  "+wl)
	}

	if len(m.qa.Answer.Context) > 0 {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.TabStyle.Render("Sources"))
		for _, sn := range m.qa.Answer.Context {
			attribution := ""
			if sn.Metadata.Speaker != "" {
				attribution = sn.Metadata.Speaker + " "
			}
			if sn.Metadata.StartTime > 0 || sn.Metadata.EndTime > 0 {
				attribution += "[" + formatTime(sn.Metadata.StartTime) +
					"–" + formatTime(sn.Metadata.EndTime) + "]"
			}
			if attribution != "" {
				lines = append(lines, "  "+ui.TimestampStyle.Render(attribution))
			}
			for _, wl := range wrapText(sn.Content, width-4) {
				lines = append(lines, ui.DimStyle.Render("    "+wl))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderNoticeBar() string {
	if m.noticeIsError {
		return ui.ErrorStyle.Render("! ") + ui.ErrorTextStyle.Render(m.notice)
	}
	return ui.SuccessStyle.Render("✓ ") + ui.NoticeStyle.Render(m.notice)
}

func (m Model) renderFooter() string {
	var parts []string

	switch m.sess.View {
	case session.ViewUpload:
		parts = append(parts, key("Tab", "Source"))
		parts = append(parts, key("Enter", "Submit"))
		parts = append(parts, key("ctrl+l", "Language"))
	case session.ViewProcessing:
		if m.sess.Failed {
			parts = append(parts, key("r", "Retry"))
		}
		parts = append(parts, key("n", "New"))
		parts = append(parts, key("q", "Quit"))
	case session.ViewResults:
		parts = append(parts, key("Tab", "Pane"))
		parts = append(parts, key("↑↓", "Scroll"))
		parts = append(parts, key("/", "Ask"))
		parts = append(parts, key("x", "Export"))
		parts = append(parts, key("n", "New"))
		parts = append(parts, key("q", "Quit"))
	}

	parts = append(parts, key("ctrl+c", "Exit"))
	return strings.Join(parts, "  ")
}

func key(k, desc string) string {
	return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
}

// contentHeight is the vertical space between header and footer chrome.
func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// header(1) + dividers(2) + notice(1) + footer(1) + padding
	reserved := 6
	return max(5, m.height-reserved)
}

func (m Model) padToContentHeight(lines []string) string {
	h := m.contentHeight()
	for len(lines) < h {
		lines = append(lines, "")
	}
	if len(lines) > h {
		lines = lines[:h]
	}
	return strings.Join(lines, "\n")
}

func (m *Model) resizeViewport() {
	w := max(20, m.width)
	// Tab bar and the input/export line flank the viewport.
	h := max(3, m.contentHeight()-2)
	if !m.viewportReady {
		m.viewport = viewport.New(w, h)
		m.viewportReady = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.viewportReady {
		m.resizeViewport()
		return
	}
	m.viewport.SetContent(m.renderTabContent())
	m.viewport.GotoTop()
}

// formatTime renders seconds as MM:SS.
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Helpers

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
