package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL is where a locally run backend listens.
const DefaultBaseURL = "http://localhost:8000"

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("backend %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("backend %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// Client talks to the IntelliScript backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL. Per-call deadlines come
// from the caller's context; the transport timeout is a backstop for calls
// made without one.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upload sends a local video file and returns the session id the backend
// assigned to it.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp UploadResponse
	if err := c.do(req, "upload", &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("upload response missing session_id")
	}
	return resp.SessionID, nil
}

// ProcessURL asks the backend to download and process a remote video under
// the given session id.
func (c *Client) ProcessURL(ctx context.Context, sessionID, url, language string) error {
	req := ProcessURLRequest{SessionID: sessionID, URL: url, Language: language}
	return c.postJSON(ctx, "/api/process-url", req, nil, "process-url")
}

// Progress fetches the current pipeline status for a session.
func (c *Client) Progress(ctx context.Context, sessionID string) (ProgressReport, error) {
	var report ProgressReport
	err := c.getJSON(ctx, "/api/progress/"+sessionID, &report, "progress")
	return report, err
}

// Results fetches the result bundle for a session. A non-completed status
// in the envelope means the backend has not converged yet; that is not an
// error here.
func (c *Client) Results(ctx context.Context, sessionID string) (ResultsEnvelope, error) {
	var env ResultsEnvelope
	err := c.getJSON(ctx, "/api/results/"+sessionID, &env, "results")
	return env, err
}

// Ask submits a question about a completed session.
func (c *Client) Ask(ctx context.Context, sessionID, question string) (Answer, error) {
	var answer Answer
	req := AskRequest{SessionID: sessionID, Question: question}
	if err := c.postJSON(ctx, "/api/ask", req, &answer, "ask"); err != nil {
		return Answer{}, err
	}
	return answer, nil
}

// Export retrieves the rendered artifact for a session in the given format
// as an opaque payload.
func (c *Client) Export(ctx context.Context, sessionID, format string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/export/"+sessionID+"/"+format, nil)
	if err != nil {
		return nil, fmt.Errorf("build export request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{
			Operation:  "export",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export payload: %w", err)
	}
	return payload, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any, operation string) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, operation, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any, operation string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	return c.do(req, operation, out)
}

func (c *Client) do(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", operation, err)
	}
	return nil
}
