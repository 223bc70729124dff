package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/anydownloader/service/internal/response"
)

// ErrInvalidKey is returned for keys that escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// ErrTokenScope is returned when a token does not authorize the requested key.
var ErrTokenScope = errors.New("token not valid for this key")

// LocalStorage implements Storage on the local filesystem, for running without
// a remote bucket. Objects live under a root directory and are served back by
// this process at GET /downloads/{key}. Links carry an HMAC-signed token in
// the Authorization query parameter, scoped to the key's prefix, so they have
// the same shape and lifetime semantics as presigned S3 links.
type LocalStorage struct {
	dir        string
	secret     []byte
	publicBase string
}

// NewLocalStorage creates the root directory if needed and returns a
// ready-to-use LocalStorage. publicBase is the browser-reachable base URL of
// this process, e.g. "http://localhost:8080".
func NewLocalStorage(dir string, secret []byte, publicBase string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{
		dir:        dir,
		secret:     secret,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Upload writes reader to disk under key and returns a generated version id.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	rel, err := safeRel(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create key dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create object %q: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("write object %q: %w", key, err)
	}
	return uuid.NewString(), nil
}

// PresignLink mints a signed download token scoped to the key's prefix and
// composes the browser-usable URL embedding it.
func (s *LocalStorage) PresignLink(ctx context.Context, key string, ttl time.Duration) (*Link, error) {
	if _, err := safeRel(key); err != nil {
		return nil, err
	}

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(ttl)

	claims := jwt.MapClaims{
		"scope": keyPrefix(key),
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign download token: %w", err)
	}

	u := s.publicBase + "/downloads/" + key + "?Authorization=" + url.QueryEscape(token)
	return &Link{URL: u, ExpiresAt: expiresAt}, nil
}

// VerifyToken validates a download token against the requested key: the
// signature must check out, the token must be unexpired, and its scope must
// prefix the key.
func (s *LocalStorage) VerifyToken(token, key string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return fmt.Errorf("parse download token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.ErrTokenInvalidClaims
	}
	scope, _ := claims["scope"].(string)
	if scope == "" || !strings.HasPrefix(key, scope) {
		return ErrTokenScope
	}
	return nil
}

// ServeDownload handles GET /downloads/{key}. The object key is the route
// wildcard; the token rides in the Authorization query parameter.
func (s *LocalStorage) ServeDownload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	token := r.URL.Query().Get("Authorization")
	if token == "" {
		response.Unauthorized(w, "missing download token")
		return
	}
	if err := s.VerifyToken(token, key); err != nil {
		response.Unauthorized(w, "invalid or expired download token")
		return
	}

	rel, err := safeRel(key)
	if err != nil {
		response.NotFound(w, "object not found")
		return
	}
	p := filepath.Join(s.dir, rel)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		response.NotFound(w, "object not found")
		return
	}

	http.ServeFile(w, r, p)
}

// safeRel converts an object key to a filesystem path relative to the storage
// root, rejecting empty keys and any key that normalizes outside of it.
func safeRel(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return "", ErrInvalidKey
	}
	return filepath.FromSlash(clean), nil
}

// keyPrefix returns the directory portion of a key including the trailing
// slash, or the key itself when it has no directory part.
func keyPrefix(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[:i+1]
	}
	return key
}
