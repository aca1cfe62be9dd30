package app

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/intelliscript/tui/internal/session"
)

func TestStageLineFitsWidth(t *testing.T) {
	stage := session.StageProgress{
		Stage:    "Transcribing audio with the large model",
		Message:  "processing chunk 14 of 32, this is a rather long status message",
		Progress: 45,
		Status:   session.StatusProcessing,
	}

	for _, width := range []int{40, 60, 76} {
		line := renderStageLine(stage, width)
		if got := lipgloss.Width(line); got > width {
			t.Errorf("width %d: rendered line is %d cells wide", width, got)
		}
	}
}

func TestStageLineTruncatesTextNotEscapes(t *testing.T) {
	stage := session.StageProgress{
		Stage:    strings.Repeat("x", 200),
		Progress: 100,
		Status:   session.StatusCompleted,
	}

	line := renderStageLine(stage, 50)
	if got := lipgloss.Width(line); got > 50 {
		t.Errorf("rendered line is %d cells wide, want at most 50", got)
	}
	// A cut escape sequence leaves a bare ESC with no terminator.
	parts := strings.Split(line, "\x1b")
	for _, part := range parts[1:] {
		if !strings.Contains(part, "m") {
			t.Fatal("line contains an unterminated escape sequence")
		}
	}
}

func TestStageLineOmitsMessageWhenNoRoom(t *testing.T) {
	stage := session.StageProgress{
		Stage:    "Summarization",
		Message:  "condensing transcript",
		Progress: 10,
		Status:   session.StatusProcessing,
	}

	line := renderStageLine(stage, 30)
	if strings.Contains(line, "condensing") {
		t.Error("message should be dropped when the stage name fills the line")
	}
	if got := lipgloss.Width(line); got > 30 {
		t.Errorf("rendered line is %d cells wide, want at most 30", got)
	}
}
