package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/store"
)

const (
	jsonExt = ".json"
	zstdExt = ".json.zst"
)

// FileOptions configures the file backend.
type FileOptions struct {
	// Dir holds one document per key. It is created if missing.
	Dir string

	// Compress writes documents zstd-compressed.
	Compress bool
}

// FileStateStore keeps one document per key under a directory.
// Keys are path-escaped, so any key maps to a single file.
type FileStateStore struct {
	dir      string
	compress bool
}

// NewFileStateStore creates a file backend rooted at opts.Dir.
func NewFileStateStore(opts FileOptions) (*FileStateStore, error) {
	if opts.Dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStateStore{dir: opts.Dir, compress: opts.Compress}, nil
}

// Dir returns the directory documents are written to.
func (f *FileStateStore) Dir() string {
	return f.dir
}

func (f *FileStateStore) path(key string, compressed bool) string {
	ext := jsonExt
	if compressed {
		ext = zstdExt
	}
	return filepath.Join(f.dir, url.PathEscape(key)+ext)
}

// Save writes state under key. The document is written to a temporary file and
// renamed into place. A stale document in the other encoding is removed.
func (f *FileStateStore) Save(ctx context.Context, key string, state *graph.PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := store.Marshal(state)
	if err != nil {
		return err
	}
	if f.compress {
		if data, err = compress(data); err != nil {
			return err
		}
	}

	target := f.path(key, f.compress)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move state into place: %w", err)
	}

	if err := os.Remove(f.path(key, !f.compress)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale state: %w", err)
	}
	return nil
}

// Load reads the document stored under key. Both encodings are accepted.
func (f *FileStateStore) Load(ctx context.Context, key string) (*graph.PersistedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, compressed := range []bool{f.compress, !f.compress} {
		data, err := os.ReadFile(f.path(key, compressed))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read state: %w", err)
		}
		if compressed {
			if data, err = decompress(data); err != nil {
				return nil, err
			}
		}
		return store.Unmarshal(data)
	}
	return nil, store.ErrNotFound
}

// Delete removes the document stored under key in either encoding.
func (f *FileStateStore) Delete(_ context.Context, key string) error {
	for _, compressed := range []bool{false, true} {
		if err := os.Remove(f.path(key, compressed)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete state: %w", err)
		}
	}
	return nil
}

// List returns the stored keys in ascending order.
func (f *FileStateStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var escaped string
		switch {
		case strings.HasSuffix(name, zstdExt):
			escaped = strings.TrimSuffix(name, zstdExt)
		case strings.HasSuffix(name, jsonExt):
			escaped = strings.TrimSuffix(name, jsonExt)
		default:
			continue
		}
		key, err := url.PathUnescape(escaped)
		if err != nil {
			continue
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op.
func (f *FileStateStore) Close() error {
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	out, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}
