package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RichardoC/Doc-i/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, zap.NewNop())
}

func TestListSessions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"sessions": []map[string]string{
				{"id": "s2", "title": "Newer chat"},
				{"id": "s1", "title": "Older chat"},
			},
		})
	})

	sessions, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	// Directory order is the backend's; the client must not reorder.
	require.Equal(t, []models.Session{
		{ID: "s2", Title: "Newer chat"},
		{ID: "s1", Title: "Older chat"},
	}, sessions)
}

func TestCreateSessionRejectsMissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := c.CreateSession(context.Background())
	require.Error(t, err)
}

func TestLoadSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/abc", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{
				{"role": "user", "content": "hi"},
				{"role": "ai", "content": "hello"},
			},
			"files": []string{"notes.pdf"},
		})
	})

	data, err := c.LoadSession(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, data.Messages, 2)
	assert.Equal(t, models.RoleAI, data.Messages[1].Role)
	assert.Equal(t, []string{"notes.pdf"}, data.Files)
}

func TestChatSurfacesBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "backend down"})
	})

	_, err := c.Chat(context.Background(), "s1", "What is X?")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "backend down", apiErr.Message)
}

func TestChatErrorWithoutBodyHasEmptyMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Chat(context.Background(), "s1", "query")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Empty(t, apiErr.Message)
}

func TestUploadSendsMultipartForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "s1", r.FormValue("session_id"))

		parts := r.MultipartForm.File["files"]
		require.Len(t, parts, 2)
		assert.Equal(t, "a.pdf", parts[0].Filename)
		assert.Equal(t, "b.txt", parts[1].Filename)

		json.NewEncoder(w).Encode(map[string][]string{"files": {"a.pdf", "b.txt"}})
	})

	files, err := c.Upload(context.Background(), "s1", []FilePayload{
		{Name: "a.pdf", Reader: strings.NewReader("%PDF-1.4")},
		{Name: "b.txt", Reader: strings.NewReader("plain text")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.txt"}, files)
}

func TestUploadSurfacesBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "No file part"})
	})

	_, err := c.Upload(context.Background(), "s1", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "No file part", apiErr.Message)
}

func TestDeleteFilePostsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/delete", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a.pdf", body["filename"])
		assert.Equal(t, "s1", body["session_id"])
		json.NewEncoder(w).Encode(map[string]string{"message": "Removed a.pdf from this chat."})
	})

	require.NoError(t, c.DeleteFile(context.Background(), "s1", "a.pdf"))
}

func TestListFilesScopesToSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s1", r.URL.Query().Get("session_id"))
		json.NewEncoder(w).Encode(map[string][]string{"files": {"a.pdf"}})
	})

	files, err := c.ListFiles(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, files)
}

func TestNetworkFailureIsNotAPIError(t *testing.T) {
	c := New("http://127.0.0.1:0", zap.NewNop())

	_, err := c.ListSessions(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
