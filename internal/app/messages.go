package app

import (
	"github.com/intelliscript/tui/internal/api"
	"github.com/intelliscript/tui/internal/session"
)

// SessionStartedMsg is sent when the backend accepted a submission. For
// file uploads Sess already carries the server-assigned id. Gen ties the
// response to the submission that issued it; a response for an abandoned
// submission is dropped.
type SessionStartedMsg struct {
	Gen  int
	Sess session.Session
}

// SessionStartErrorMsg is sent when a submission failed before a session
// existed on the backend.
type SessionStartErrorMsg struct {
	Gen int
	Err error
}

// PollTickMsg fires one status query. Gen ties the tick to the poll
// generation it was scheduled for; stale ticks are dropped.
type PollTickMsg struct {
	Gen int
}

// ProgressMsg carries one raw status report.
type ProgressMsg struct {
	Gen    int
	Report api.ProgressReport
}

// PollErrorMsg is sent when a status query failed.
type PollErrorMsg struct {
	Gen int
	Err error
}

// FetchTickMsg fires one results query after the not-ready delay.
type FetchTickMsg struct {
	Gen int
}

// ResultsMsg carries the results envelope for a terminal session.
type ResultsMsg struct {
	Gen      int
	Envelope api.ResultsEnvelope
}

// ResultsErrorMsg is sent when a results query failed.
type ResultsErrorMsg struct {
	Gen int
	Err error
}

// AnswerMsg carries the backend's answer to a question. Gen identifies the
// question it answers; a superseded answer is dropped.
type AnswerMsg struct {
	Gen      int
	Question string
	Answer   api.Answer
}

// AnswerErrorMsg is sent when a question failed. The previous exchange is
// kept.
type AnswerErrorMsg struct {
	Gen int
	Err error
}

// ExportDoneMsg is sent after an artifact was fetched and saved.
type ExportDoneMsg struct {
	Format string
	Path   string
}

// ExportErrorMsg is sent when an export failed. No file was written.
type ExportErrorMsg struct {
	Format string
	Err    error
}

// ClearNoticeMsg clears a transient notice after a timeout.
type ClearNoticeMsg struct{}
