// Package session holds the client-side state machine for one video
// processing session: view transitions, progress aggregation, and the
// retry budgets for polling and result retrieval. Everything here is a
// pure function from (old state, event) to new state so the contracts are
// testable without any rendering layer.
package session

import (
	"github.com/google/uuid"
	"github.com/intelliscript/tui/internal/api"
)

// View is the presentation state for a session.
type View int

const (
	ViewUpload View = iota
	ViewProcessing
	ViewResults
)

func (v View) String() string {
	switch v {
	case ViewUpload:
		return "upload"
	case ViewProcessing:
		return "processing"
	case ViewResults:
		return "results"
	}
	return "unknown"
}

// Retry budgets and cadence for the processing phase.
const (
	// MaxPollFailures is how many consecutive failed status queries are
	// tolerated before the session enters the error state.
	MaxPollFailures = 3
	// MaxFetchAttempts bounds the poller-terminal-but-results-not-ready
	// race before the session enters the error state.
	MaxFetchAttempts = 5
)

// Session is the full client-side state of one processing request.
// Methods use value semantics: each transition returns the new state and
// leaves the receiver untouched.
type Session struct {
	ID         string
	Language   string
	SourceURL  string
	SourceFile string

	View    View
	Stages  []StageProgress
	Overall int

	// Terminal marks that polling has stopped for good and result
	// retrieval has begun.
	Terminal bool
	Bundle   *api.ResultBundle

	// Failed marks an explicit error state with a retry affordance, in
	// place of a silent stall.
	Failed  bool
	ErrText string

	PollFailures  int
	FetchAttempts int
}

// NewID returns a collision-resistant session identifier for URL
// submissions.
func NewID() string {
	return uuid.NewString()
}

// FromURL starts a session for a remote video. The client owns the id so
// it can name the session in the process-url request.
func FromURL(url, language string) Session {
	return Session{
		ID:        NewID(),
		Language:  language,
		SourceURL: url,
		View:      ViewProcessing,
	}
}

// FromFile starts a session for a local file. The id stays empty until the
// backend assigns one in the upload response.
func FromFile(path, language string) Session {
	return Session{
		Language:   language,
		SourceFile: path,
		View:       ViewProcessing,
	}
}

// AdoptID records the server-assigned id after a successful upload.
func (s Session) AdoptID(id string) Session {
	s.ID = id
	return s
}

// ApplyReport merges one raw status report into the session. Reports are
// ignored once the session is terminal, so a late tick can never reorder
// state after completion. A successful report resets the poll failure
// count.
func (s Session) ApplyReport(r api.ProgressReport) Session {
	if s.Terminal || s.View == ViewResults {
		return s
	}
	s.Stages = Merge(s.Stages, r)
	s.Overall = r.Progress
	s.PollFailures = 0
	if r.Terminal() {
		s.Terminal = true
	}
	return s
}

// PollFailed records one failed status query. Once the failure budget is
// spent the session moves to the error state instead of stalling silently.
func (s Session) PollFailed(err error) Session {
	s.PollFailures++
	if s.PollFailures >= MaxPollFailures {
		return s.Fail("lost contact with the backend: " + err.Error())
	}
	return s
}

// FetchNotReady records one results query that found the backend not yet
// converged. Exhausting the attempt budget moves to the error state.
func (s Session) FetchNotReady() Session {
	s.FetchAttempts++
	if s.FetchAttempts >= MaxFetchAttempts {
		return s.Fail("backend reported completion but results never became ready")
	}
	return s
}

// Complete stores the immutable result bundle and moves to the results
// view.
func (s Session) Complete(bundle *api.ResultBundle) Session {
	s.Bundle = bundle
	s.View = ViewResults
	s.Failed = false
	s.ErrText = ""
	return s
}

// Fail moves the session to the explicit error state shown on the
// processing view.
func (s Session) Fail(msg string) Session {
	s.Failed = true
	s.ErrText = msg
	return s
}

// Retry clears the error state so polling or fetching can resume.
func (s Session) Retry() Session {
	s.Failed = false
	s.ErrText = ""
	s.PollFailures = 0
	s.FetchAttempts = 0
	return s
}

// Active reports whether the session has an id to poll or query against.
func (s Session) Active() bool {
	return s.ID != ""
}
