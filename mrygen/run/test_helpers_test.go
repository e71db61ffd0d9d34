package run_test

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// memFS is an in-memory FileSystem. Directories exist when created or when a file lives below them.
type memFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
	wd    string
}

func newMemFS(files map[string]string) *memFS {
	m := &memFS{files: map[string][]byte{}, dirs: map[string]bool{}, wd: "/proj"}
	for name, content := range files {
		m.files[name] = []byte(content)
	}

	return m
}

func (m *memFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return append([]byte(nil), data...), nil
}

func (m *memFS) WriteFile(name string, data []byte, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = append([]byte(nil), data...)

	return nil
}

func (m *memFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	seen := map[string]bool{}

	var entries []fs.DirEntry

	for path := range m.files {
		rel, ok := strings.CutPrefix(path, name+"/")
		if !ok {
			continue
		}

		child, _, nested := strings.Cut(rel, "/")
		if seen[child] {
			continue
		}

		seen[child] = true
		entries = append(entries, fs.FileInfoToDirEntry(memInfo{name: child, dir: nested}))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

func (m *memFS) Open(path string) (io.ReadCloser, error) {
	data, err := m.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memFS) Create(path string) (io.WriteCloser, error) {
	return &memFile{fs: m, path: path}, nil
}

func (m *memFS) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs[path] = true

	return nil
}

func (m *memFS) Stat(path string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; ok {
		return memInfo{name: filepath.Base(path)}, nil
	}

	if m.isDir(path) {
		return memInfo{name: filepath.Base(path), dir: true}, nil
	}

	return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func (m *memFS) Getwd() (string, error) {
	return m.wd, nil
}

func (m *memFS) content(name string) (string, bool) {
	data, err := m.ReadFile(name)

	return string(data), err == nil
}

func (m *memFS) isDir(path string) bool {
	if m.dirs[path] {
		return true
	}

	for name := range m.files {
		if strings.HasPrefix(name, path+"/") {
			return true
		}
	}

	return false
}

// memFile buffers writes and stores them on Close.
type memFile struct {
	bytes.Buffer

	fs   *memFS
	path string
}

func (f *memFile) Close() error {
	return f.fs.WriteFile(f.path, f.Bytes(), 0o600)
}

type memInfo struct {
	name string
	dir  bool
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return 0 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }

func (i memInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o755
	}

	return 0o600
}

// noEnv is an environment with nothing set.
func noEnv(string) string {
	return ""
}

// envOf returns a getEnv backed by vars.
func envOf(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}
