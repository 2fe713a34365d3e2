package resource

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/gekko3d/lumen/logging"
)

// Loader hands out raw file bytes by path. A missing or unreadable file
// yields an empty slice.
type Loader interface {
	Load(path string) []byte
	Exists(path string) bool
}

type FileLoader struct {
	Root   string
	logger logging.Logger
}

func NewFileLoader(root string, logger logging.Logger) *FileLoader {
	return &FileLoader{Root: root, logger: logging.OrNop(logger)}
}

func (l *FileLoader) resolve(path string) string {
	if l.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.Root, path)
}

func (l *FileLoader) Load(path string) []byte {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		l.logger.Debugf("resource %s not loaded: %v", path, err)
		return nil
	}
	return data
}

func (l *FileLoader) Exists(path string) bool {
	info, err := os.Stat(l.resolve(path))
	return err == nil && !info.IsDir()
}

// MemoryLoader serves files registered in memory. Used by tools and tests.
type MemoryLoader struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{files: make(map[string][]byte)}
}

func (l *MemoryLoader) Add(path string, data []byte) {
	l.mu.Lock()
	l.files[filepath.ToSlash(path)] = data
	l.mu.Unlock()
}

func (l *MemoryLoader) Remove(path string) {
	l.mu.Lock()
	delete(l.files, filepath.ToSlash(path))
	l.mu.Unlock()
}

func (l *MemoryLoader) Load(path string) []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.files[filepath.ToSlash(path)]
}

func (l *MemoryLoader) Exists(path string) bool {
	return len(l.Load(path)) > 0
}
