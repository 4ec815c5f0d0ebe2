package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// DefaultMaxSize is the size at which a log file is rotated.
	DefaultMaxSize = 10 << 20

	// DefaultMaxBackups is how many rotated files are kept.
	DefaultMaxBackups = 3
)

// RotatingFile is an io.WriteCloser that rotates path to path.1, path.2, ...
// once it would grow beyond maxSize.
type RotatingFile struct {
	mu sync.Mutex

	path       string
	maxSize    int64
	maxBackups int

	file *os.File
	size int64
}

// NewRotatingFile opens path for appending. Non-positive limits fall back
// to DefaultMaxSize and DefaultMaxBackups.
func NewRotatingFile(path string, maxSize int64, maxBackups int) (*RotatingFile, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if maxBackups <= 0 {
		maxBackups = DefaultMaxBackups
	}

	rf := &RotatingFile{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) open() error {
	if err := os.MkdirAll(filepath.Dir(rf.path), 0o750); err != nil {
		return fmt.Errorf("log: create directory: %w", err)
	}

	// 0600: the log may hold hostnames and usernames.
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("log: open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("log: stat file: %w", err)
	}

	rf.file = f
	rf.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, os.ErrClosed
	}

	// An empty file is never rotated, so a single oversized record still
	// lands somewhere.
	if rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize {
		if err := rf.rotate(); err != nil {
			return 0, fmt.Errorf("log: rotate: %w", err)
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// rotate must be called with mu held.
func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return err
	}
	rf.file = nil

	oldest := backupName(rf.path, rf.maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return err
	}

	for i := rf.maxBackups - 1; i >= 1; i-- {
		if err := os.Rename(backupName(rf.path, i), backupName(rf.path, i+1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	if err := os.Rename(rf.path, backupName(rf.path, 1)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return rf.open()
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// Close implements io.Closer.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
