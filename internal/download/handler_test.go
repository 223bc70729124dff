package download

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anydownloader/service/internal/fetch"
	"github.com/anydownloader/service/internal/response"
)

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/download-and-upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	h := NewHandler(NewService(&fakeDownloader{}, &fakeStorage{}, time.Hour))

	for _, body := range []string{"", "{", `{"url": 42}`} {
		rec := postJSON(t, h.DownloadAndUpload, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "InputError", env.Error.Kind)
	}
}

func TestHandlerRejectsBadURL(t *testing.T) {
	dl := &fakeDownloader{}
	h := NewHandler(NewService(dl, &fakeStorage{}, time.Hour))

	for _, body := range []string{`{}`, `{"url":""}`, `{"url":"not a url"}`} {
		rec := postJSON(t, h.DownloadAndUpload, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "InputError", env.Error.Kind)
	}
	assert.Equal(t, 0, dl.calls, "invalid input must not reach the fetcher")
}

func TestHandlerFetchError(t *testing.T) {
	dl := &fakeDownloader{err: errors.New("unsupported URL")}
	st := &fakeStorage{}
	h := NewHandler(NewService(dl, st, time.Hour))

	rec := postJSON(t, h.DownloadAndUpload, `{"url":"https://example.com/not-a-video"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FetchError", env.Error.Kind)
	assert.Equal(t, 0, st.uploads)
}

func TestHandlerLinkError(t *testing.T) {
	st := &fakeStorage{presignErr: errors.New("auth service outage")}
	h := NewHandler(NewService(&fakeDownloader{}, st, time.Hour))

	rec := postJSON(t, h.DownloadAndUpload, `{"url":"https://example.com/watch?v=1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "LinkError", env.Error.Kind)
	assert.Len(t, st.objects, 1, "uploaded object survives a link failure")
}

func TestHandlerInternalErrorIsOpaque(t *testing.T) {
	// A downloader returning a Result pointing at a missing file trips the
	// internal open-file stage.
	dl := &brokenPathDownloader{}
	h := NewHandler(NewService(dl, &fakeStorage{}, time.Hour))

	rec := postJSON(t, h.DownloadAndUpload, `{"url":"https://example.com/watch?v=1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "InternalError", env.Error.Kind)
	assert.Equal(t, "internal server error", env.Error.Message)
}

func TestHandlerSuccess(t *testing.T) {
	h := NewHandler(NewService(&fakeDownloader{}, &fakeStorage{}, time.Hour))

	rec := postJSON(t, h.DownloadAndUpload, `{"url":"https://example.com/watch?v=1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Success bool   `json:"success"`
		Data    Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data.URL)
	assert.Equal(t, "clip.mp4", env.Data.FileName)
	assert.Equal(t, int64(11), env.Data.SizeBytes)
	assert.False(t, env.Data.ExpiresAt.IsZero())
}

func TestHandlerDebugStorage(t *testing.T) {
	st := &fakeStorage{}
	h := NewHandler(NewService(&fakeDownloader{}, st, time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/debug/storage", nil)
	rec := httptest.NewRecorder()
	h.DebugStorage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, st.objects, 1)

	st.uploadErr = errors.New("credentials rejected")
	rec = httptest.NewRecorder()
	h.DebugStorage(rec, httptest.NewRequest(http.MethodPost, "/debug/storage", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// brokenPathDownloader returns a Result whose file does not exist.
type brokenPathDownloader struct{}

func (b *brokenPathDownloader) Fetch(ctx context.Context, url string) (*fetch.Result, error) {
	return &fetch.Result{Path: "/nonexistent/clip.mp4", FileName: "clip.mp4", Size: 1}, nil
}
