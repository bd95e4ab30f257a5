package dataset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"leavingrate/domain/core"
)

// OutputStorage is where a run writes its tables and reports
type OutputStorage interface {
	Create(ctx context.Context, name string) (io.WriteCloser, string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Path(name string) string
}

// StorageConfig holds configuration for output storage
type StorageConfig struct {
	BasePath   string // output directory
	PerRunDir  bool   // write into a timestamped subdirectory per run
	DirPerm    os.FileMode
	BufferSize int
}

// DefaultStorageConfig returns sensible defaults
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		BasePath:   "leaving_rate_results",
		DirPerm:    0755,
		BufferSize: 64 * 1024,
	}
}

// LocalFileStorage implements OutputStorage on the local filesystem
type LocalFileStorage struct {
	config *StorageConfig
	dir    string
}

// NewLocalFileStorage creates a storage rooted at config.BasePath. With
// PerRunDir set, files land in <base>/<timestamp>_<run id prefix>.
func NewLocalFileStorage(config *StorageConfig, runID core.RunID) *LocalFileStorage {
	if config == nil {
		config = DefaultStorageConfig()
	}
	dir := config.BasePath
	if config.PerRunDir {
		dir = filepath.Join(dir, fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), shortID(runID)))
	}
	return &LocalFileStorage{config: config, dir: dir}
}

// NewLocalFileStorageWithPath creates a storage writing directly into basePath
func NewLocalFileStorageWithPath(basePath string) *LocalFileStorage {
	config := DefaultStorageConfig()
	config.BasePath = basePath
	return NewLocalFileStorage(config, "")
}

// Dir returns the directory files are written to
func (s *LocalFileStorage) Dir() string {
	return s.dir
}

// Path returns the full path for name
func (s *LocalFileStorage) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Create opens name for writing, creating the directory if needed. The
// caller closes the returned writer.
func (s *LocalFileStorage) Create(ctx context.Context, name string) (io.WriteCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	perm := s.config.DirPerm
	if perm == 0 {
		perm = 0755
	}
	filePath := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(filePath), perm); err != nil {
		return nil, "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	f, err := os.Create(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create destination file: %w", err)
	}
	size := s.config.BufferSize
	if size <= 0 {
		size = 64 * 1024
	}
	return &bufferedFile{Writer: bufio.NewWriterSize(f, size), file: f}, filePath, nil
}

// bufferedFile flushes its buffer before closing the file
type bufferedFile struct {
	*bufio.Writer
	file *os.File
}

func (b *bufferedFile) Close() error {
	if err := b.Flush(); err != nil {
		b.file.Close()
		return err
	}
	return b.file.Close()
}

// Exists checks if a file exists in storage
func (s *LocalFileStorage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

func shortID(id core.RunID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	if s == "" {
		return "run"
	}
	return s
}
