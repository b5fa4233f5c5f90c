package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrNotFound is returned when a key has no stored blob.
var ErrNotFound = errors.New("blob not found")

// MediaPath is the URL path prefix blobs are served under.
const MediaPath = "/media/"

// Store persists blobs on an afero filesystem and builds public URLs for them.
type Store struct {
	fs      afero.Fs
	baseURL string
}

// New creates a Store writing to fs. baseURL is the absolute origin media URLs are built on.
func New(fs afero.Fs, baseURL string) *Store {
	return &Store{
		fs:      fs,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewOnDisk creates a Store rooted at dir on the local filesystem.
func NewOnDisk(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root %s: %w", dir, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL), nil
}

// Put stores data under prefix with a fresh name that keeps filename's extension,
// and returns the key.
func (s *Store) Put(ctx context.Context, prefix, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	key := path.Join(prefix, uuid.NewString()+ext)

	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := afero.WriteReader(s.fs, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return key, nil
}

// Open returns a reader for the blob stored under key.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(clean)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("blob %s: %w", key, ErrNotFound)
	}
	return f, nil
}

// Delete removes the blob stored under key. Removing a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(clean); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// URL returns the absolute location the blob under key is served from.
func (s *Store) URL(key string) string {
	return s.baseURL + MediaPath + strings.TrimLeft(key, "/")
}

// cleanKey rejects keys that would escape the store's root.
func cleanKey(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("blob %s: %w", key, ErrNotFound)
	}
	return strings.TrimPrefix(clean, "/"), nil
}
