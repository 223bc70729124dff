// Package fetch retrieves media from a source URL using yt-dlp.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"
)

// ErrNoOutput is returned when yt-dlp exits successfully but no file was produced.
var ErrNoOutput = errors.New("extraction produced no output file")

// Result describes a successfully downloaded media file. The file lives in a
// per-request temp directory owned by the caller; Discard must be called on
// every path once the Result exists.
type Result struct {
	Path     string // absolute path of the downloaded file
	FileName string // base name as produced by the tool
	Size     int64
	Dir      string // per-request temp directory, removed by Discard
}

// Discard removes the temp directory holding the downloaded file. It is
// idempotent; calling it after the directory is gone is a no-op.
func (r *Result) Discard() {
	if r.Dir != "" {
		_ = os.RemoveAll(r.Dir)
		r.Dir = ""
	}
}

// Downloader is the contract the pipeline needs from the extraction tool.
type Downloader interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Options configures optional yt-dlp behavior.
type Options struct {
	// Path to a Netscape-format cookies file passed to yt-dlp.
	CookiesFile string
	// Browser[:profile] spec to read cookies from, e.g. "chrome" or
	// "firefox:default". Ignored when CookiesFile is set.
	CookiesFromBrowser string
}

// YTDLP downloads media by invoking the yt-dlp binary.
type YTDLP struct {
	opts Options
}

// New creates a yt-dlp backed Downloader.
func New(opts Options) *YTDLP {
	return &YTDLP{opts: opts}
}

// Install downloads the yt-dlp binary if it is not already present on the
// host. Call once at startup.
func Install(ctx context.Context) error {
	_, err := ytdlp.Install(ctx, nil)
	return err
}

// Fetch downloads the media at url into a freshly created temp directory and
// returns its location and size. On failure the temp directory is removed
// before returning; on success the caller owns cleanup via Result.Discard.
func (y *YTDLP) Fetch(ctx context.Context, url string) (*Result, error) {
	dir, err := os.MkdirTemp("", "anydl-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	cmd := ytdlp.New().
		NoPlaylist().
		RestrictFilenames().
		Quiet().
		NoWarnings().
		NoProgress().
		Format("bv*+ba/b").
		MergeOutputFormat("mp4").
		Output(filepath.Join(dir, "%(title).60s-%(id)s.%(ext)s"))

	switch {
	case y.opts.CookiesFile != "":
		cmd = cmd.Cookies(y.opts.CookiesFile)
	case y.opts.CookiesFromBrowser != "":
		cmd = cmd.CookiesFromBrowser(y.opts.CookiesFromBrowser)
	}

	if _, err := cmd.Run(ctx, url); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	name, size, err := pickOutput(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	return &Result{
		Path:     filepath.Join(dir, name),
		FileName: name,
		Size:     size,
		Dir:      dir,
	}, nil
}

// pickOutput selects the downloaded file from the temp directory. Merging can
// leave intermediate fragments behind, so the largest regular file wins.
func pickOutput(dir string) (string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("read output dir: %w", err)
	}

	var name string
	var size int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if name == "" || info.Size() > size {
			name = e.Name()
			size = info.Size()
		}
	}
	if name == "" {
		return "", 0, ErrNoOutput
	}
	return name, size, nil
}
