package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// startMockBackend serves a single handler and returns a client wired to it.
func startMockBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var gotPath, gotFilename string
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			f.Close()
			gotFilename = header.Filename
		}
		json.NewEncoder(w).Encode(UploadResponse{SessionID: "sess-42", Status: "uploaded"})
	})

	id, err := client.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if id != "sess-42" {
		t.Errorf("session id = %q, want %q", id, "sess-42")
	}
	if gotPath != "/api/upload" {
		t.Errorf("path = %q, want /api/upload", gotPath)
	}
	if gotFilename != "talk.mp4" {
		t.Errorf("filename = %q, want talk.mp4", gotFilename)
	}
}

func TestUploadMissingSessionID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(UploadResponse{})
	})

	if _, err := client.Upload(context.Background(), path); err == nil {
		t.Error("expected error for response without session_id")
	}
}

func TestProcessURL(t *testing.T) {
	var got ProcessURLRequest
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process-url" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]string{"session_id": got.SessionID, "status": "processing"})
	})

	err := client.ProcessURL(context.Background(), "sess-7", "https://youtube.com/watch?v=abc", "en")
	if err != nil {
		t.Fatalf("process url: %v", err)
	}
	if got.SessionID != "sess-7" {
		t.Errorf("session_id = %q", got.SessionID)
	}
	if got.URL != "https://youtube.com/watch?v=abc" {
		t.Errorf("url = %q", got.URL)
	}
	if got.Language != "en" {
		t.Errorf("language = %q", got.Language)
	}
}

func TestProgress(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/progress/sess-7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ProgressReport{
			SessionID: "sess-7",
			Stage:     "Transcribing with Whisper...",
			Progress:  30,
			Status:    "processing",
			Message:   "Transcribing with Whisper...",
		})
	})

	report, err := client.Progress(context.Background(), "sess-7")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if report.Progress != 30 {
		t.Errorf("progress = %d, want 30", report.Progress)
	}
	if report.Terminal() {
		t.Error("30%% processing should not be terminal")
	}
}

func TestProgressTerminal(t *testing.T) {
	cases := []struct {
		report ProgressReport
		want   bool
	}{
		{ProgressReport{Progress: 100}, true},
		{ProgressReport{Progress: 40, Status: "completed"}, true},
		{ProgressReport{Progress: 99, Status: "processing"}, false},
		{ProgressReport{Progress: -1, Status: "error"}, false},
	}
	for _, c := range cases {
		if got := c.report.Terminal(); got != c.want {
			t.Errorf("Terminal(%+v) = %v, want %v", c.report, got, c.want)
		}
	}
}

func TestResultsNotReady(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "processing", "results": nil})
	})

	env, err := client.Results(context.Background(), "sess-7")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if env.Ready() {
		t.Error("processing envelope should not be ready")
	}
}

func TestResultsReady(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/results/sess-7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ResultsEnvelope{
			Status: "completed",
			Results: &ResultBundle{
				Transcript: Transcript{
					Text: "hello world",
					Segments: []Segment{
						{Start: 0, End: 2.5, Text: "hello world", Speaker: "SPEAKER_00"},
					},
				},
				Summary:   "A short greeting.",
				VideoPath: "uploads/sess-7/talk.mp4",
			},
		})
	})

	env, err := client.Results(context.Background(), "sess-7")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if !env.Ready() {
		t.Fatal("completed envelope should be ready")
	}
	if len(env.Results.Transcript.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(env.Results.Transcript.Segments))
	}
	if env.Results.Transcript.Segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("speaker = %q", env.Results.Transcript.Segments[0].Speaker)
	}
}

func TestAsk(t *testing.T) {
	var got AskRequest
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(Answer{
			Answer: "The speaker introduces the agenda.",
			Context: []Snippet{
				{
					Content:  "Today we will cover three topics.",
					Metadata: SnippetMetadata{Speaker: "SPEAKER_01", StartTime: 12.5, EndTime: 15.0},
				},
			},
		})
	})

	answer, err := client.Ask(context.Background(), "sess-7", "What is the agenda?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got.Question != "What is the agenda?" {
		t.Errorf("question = %q", got.Question)
	}
	if len(answer.Context) != 1 {
		t.Fatalf("context = %d, want 1", len(answer.Context))
	}
	if answer.Context[0].Metadata.Speaker != "SPEAKER_01" {
		t.Errorf("speaker = %q", answer.Context[0].Metadata.Speaker)
	}
}

func TestExport(t *testing.T) {
	payload := []byte("1\n00:00:00,000 --> 00:00:02,500\nhello world\n")
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/export/sess-7/srt" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
	})

	got, err := client.Export(context.Background(), "sess-7", "srt")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q", got)
	}
}

func TestStatusError(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Export failed: unsupported format", http.StatusInternalServerError)
	})

	_, err := client.Export(context.Background(), "sess-7", "doc")
	if err == nil {
		t.Fatal("expected status error")
	}
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status code = %d", statusErr.StatusCode)
	}
}

func TestContextCancellation(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Progress(ctx, "sess-7"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
