// Package api provides the client and protocol types for communicating with
// the IntelliScript processing backend over HTTP/JSON.
package api

// UploadResponse is returned after a video file upload is accepted.
type UploadResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status,omitempty"`
}

// ProcessURLRequest asks the backend to download and process a remote video.
// The client supplies the session id so both sides agree on it up front.
type ProcessURLRequest struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	Language  string `json:"language"`
}

// ProgressReport is one raw status report for a session's pipeline.
// The backend reports errors as a negative progress value.
type ProgressReport struct {
	SessionID string `json:"session_id,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Progress  int    `json:"progress"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Terminal reports whether this report ends the polling loop.
func (r ProgressReport) Terminal() bool {
	return r.Progress >= 100 || r.Status == "completed"
}

// ResultsEnvelope wraps the results endpoint response. Results is nil while
// the backend is still processing.
type ResultsEnvelope struct {
	Status  string        `json:"status"`
	Results *ResultBundle `json:"results"`
}

// Ready reports whether the envelope carries a usable result bundle.
func (e ResultsEnvelope) Ready() bool {
	return e.Status == "completed" && e.Results != nil
}

// ResultBundle is the complete output of a processed session.
type ResultBundle struct {
	Transcript  Transcript  `json:"transcript"`
	Diarization Diarization `json:"diarization"`
	Summary     string      `json:"summary"`
	Chapters    []Chapter   `json:"chapters,omitempty"`
	VideoPath   string      `json:"video_path,omitempty"`
	AudioPath   string      `json:"audio_path,omitempty"`
}

// Transcript is the raw transcription structure.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Segment is one time-stamped transcript segment. Start and End are in
// seconds.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Diarization carries speaker-separation metadata. The client treats the
// per-speaker segments opaquely beyond speaker labels and timing.
type Diarization struct {
	Segments []Segment `json:"segments,omitempty"`
}

// Chapter is one entry in the chapter outline of a processed video.
type Chapter struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
}

// AskRequest is a natural-language question about a completed session.
type AskRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// Answer is the backend's response to a question, with the retrieved
// context snippets the answer was grounded on.
type Answer struct {
	Answer  string    `json:"answer"`
	Context []Snippet `json:"context"`
}

// Snippet is one retrieved context passage backing an answer.
type Snippet struct {
	Content  string          `json:"content"`
	Metadata SnippetMetadata `json:"metadata"`
}

// SnippetMetadata locates a snippet in the source media.
type SnippetMetadata struct {
	Speaker   string  `json:"speaker,omitempty"`
	StartTime float64 `json:"start_time,omitempty"`
	EndTime   float64 `json:"end_time,omitempty"`
}
