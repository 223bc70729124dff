// Package download implements the fetch → upload → link pipeline and its HTTP
// surface. Each request runs the stages strictly in order, stops at the first
// failure, and removes its temp file on every exit path.
package download

import (
	"context"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anydownloader/service/internal/fetch"
	"github.com/anydownloader/service/internal/storage"
)

// Service runs the download pipeline.
type Service struct {
	dl      fetch.Downloader
	store   storage.Storage
	linkTTL time.Duration
}

// NewService creates a pipeline Service.
func NewService(dl fetch.Downloader, store storage.Storage, linkTTL time.Duration) *Service {
	return &Service{dl: dl, store: store, linkTTL: linkTTL}
}

// Result is the success payload of a pipeline run. Field names are part of
// the API contract.
type Result struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	FileName  string    `json:"fileName"`
	SizeBytes int64     `json:"sizeBytes"`
	ObjectKey string    `json:"objectKey"`
	VersionID string    `json:"versionId"`
}

// Run executes fetch → upload → link for one URL. The fetched temp file is
// deleted before Run returns, success or failure. Errors come back as
// *StageError carrying the failing stage's kind; the object is never rolled
// back once uploaded, even if link issuance fails afterwards.
func (s *Service) Run(ctx context.Context, rawURL string) (*Result, error) {
	res, err := s.dl.Fetch(ctx, rawURL)
	if err != nil {
		return nil, &StageError{Kind: KindFetch, Message: "media extraction failed", Err: err}
	}
	defer res.Discard()

	key := buildObjectKey(res.FileName)

	f, err := os.Open(res.Path)
	if err != nil {
		return nil, &StageError{Kind: KindInternal, Message: "open downloaded file", Err: err}
	}
	defer f.Close()

	version, err := s.store.Upload(ctx, key, f, res.Size, contentTypeFor(res.FileName))
	if err != nil {
		return nil, &StageError{Kind: KindUpload, Message: "storage upload failed", Err: err}
	}

	link, err := s.store.PresignLink(ctx, key, s.linkTTL)
	if err != nil {
		return nil, &StageError{Kind: KindLink, Message: "download link issuance failed", Err: err}
	}

	return &Result{
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
		FileName:  res.FileName,
		SizeBytes: res.Size,
		ObjectKey: key,
		VersionID: version,
	}, nil
}

// ProbeResult is the payload of a storage probe.
type ProbeResult struct {
	ObjectKey string    `json:"objectKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProbeStorage verifies storage credentials without a real download: it
// uploads a tiny probe object and issues a short-lived link for it.
func (s *Service) ProbeStorage(ctx context.Context) (*ProbeResult, error) {
	key := "healthcheck/" + requestID() + ".txt"

	body := "ok"
	if _, err := s.store.Upload(ctx, key, strings.NewReader(body), int64(len(body)), "text/plain"); err != nil {
		return nil, &StageError{Kind: KindUpload, Message: "storage probe upload failed", Err: err}
	}

	ttl := s.linkTTL
	if ttl > 5*time.Minute {
		ttl = 5 * time.Minute
	}
	link, err := s.store.PresignLink(ctx, key, ttl)
	if err != nil {
		return nil, &StageError{Kind: KindLink, Message: "storage probe link issuance failed", Err: err}
	}

	return &ProbeResult{ObjectKey: key, URL: link.URL, ExpiresAt: link.ExpiresAt}, nil
}

// buildObjectKey derives the bucket key for a fetched file. The random prefix
// makes keys from concurrent requests collision-free even for identical
// titles.
func buildObjectKey(fileName string) string {
	return "uploads/" + requestID() + "-" + sanitizeName(fileName)
}

func requestID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// maxNameLen bounds the sanitized portion of an object key. yt-dlp already
// truncates titles; this guards against oversized ids and extensions.
const maxNameLen = 120

// sanitizeName reduces a file name to characters that are safe in URLs and
// object keys. Runs of anything outside [A-Za-z0-9._-] collapse to a single
// underscore.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			if pendingSep && b.Len() > 0 && r != '.' && r != '_' && r != '-' {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}

	s := strings.Trim(b.String(), "._-")
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	if s == "" {
		return "file"
	}
	return s
}

// contentTypeFor guesses a MIME type from the file extension.
func contentTypeFor(fileName string) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// String implements fmt.Stringer for logging convenience.
func (r *Result) String() string {
	return fmt.Sprintf("%s (%d bytes) -> %s", r.FileName, r.SizeBytes, r.ObjectKey)
}
