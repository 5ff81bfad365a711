package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RichardoC/Doc-i/internal/models"
	"go.uber.org/zap"
)

// Client talks to the document-chat backend. It holds no state of its
// own; every call is a single request/response exchange with no retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

// APIError is a non-2xx response from the backend. Message carries the
// backend's own error text when the body had one, so callers can surface
// it verbatim; it is empty otherwise.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

type sessionsResponse struct {
	Sessions []models.Session `json:"sessions"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

// SessionData is the stored state of one session as reported by
// GET /sessions/{id}.
type SessionData struct {
	Messages []models.Message `json:"messages"`
	Files    []string         `json:"files"`
}

type filesResponse struct {
	Files []string `json:"files"`
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type deleteFileRequest struct {
	Filename  string `json:"filename"`
	SessionID string `json:"session_id"`
}

func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	var out sessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return out.Sessions, nil
}

func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var out createSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", nil, &out); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("backend returned a session without an id")
	}
	return out.ID, nil
}

func (c *Client) LoadSession(ctx context.Context, id string) (*SessionData, error) {
	var out SessionData
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func (c *Client) ListFiles(ctx context.Context, sessionID string) ([]string, error) {
	path := "/files"
	if sessionID != "" {
		path += "?session_id=" + url.QueryEscape(sessionID)
	}
	var out filesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return out.Files, nil
}

// FilePayload is one file to upload: a display name and its content.
type FilePayload struct {
	Name   string
	Reader io.Reader
}

// Upload sends the files as a multipart form scoped to sessionID and
// returns the backend's authoritative post-upload file listing. The
// backend may dedupe or rename, so the returned list is the truth, not
// what was sent.
func (c *Client) Upload(ctx context.Context, sessionID string, files []FilePayload) ([]string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("failed to read %s for upload: %w", f.Name, err)
		}
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", sessionID); err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("upload request failed", zap.Error(err))
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFrom(resp)
	}
	var out filesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return out.Files, nil
}

func (c *Client) DeleteFile(ctx context.Context, sessionID, filename string) error {
	req := deleteFileRequest{Filename: filename, SessionID: sessionID}
	if err := c.doJSON(ctx, http.MethodPost, "/delete", req, nil); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", filename, err)
	}
	return nil
}

func (c *Client) Chat(ctx context.Context, sessionID, query string) (string, error) {
	req := chatRequest{Query: query, SessionID: sessionID}
	var out chatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat", req, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// doJSON performs one JSON exchange. A non-2xx status becomes an
// *APIError; out is left untouched on any failure.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.errorFrom(resp)
		c.logger.Warn("backend reported failure",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) errorFrom(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
