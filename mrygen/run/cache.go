package run

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Exported constants.
const (
	// CacheDirName is the name of the local cache directory.
	CacheDirName = ".mrygen"
	// CacheFileName is the name of the cache file inside CacheDirName.
	CacheFileName = "cache.msgpack.zst"
	// DirPerm is the default directory permission.
	DirPerm = 0o755
	// FilePerm is the default file permission.
	FilePerm = 0o600
)

// CacheData represents the structure of the persistent disk cache.
type CacheData struct {
	Entries map[string]CacheEntry `msgpack:"entries"`
}

// CacheEntry represents a single cached generation result, keyed by source path.
type CacheEntry struct {
	Signature string    `msgpack:"signature"`
	Content   string    `msgpack:"content"`
	Stats     FileStats `msgpack:"stats"`
}

// CacheFileSystem abstracts file operations for the cache system.
type CacheFileSystem interface {
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	MkdirAll(path string, perm os.FileMode) error
	Stat(path string) (os.FileInfo, error)
	Getwd() (string, error)
}

// CalculateSignature hashes the generation options and the source content. Any change to either invalidates the
// cached output.
func CalculateSignature(options []string, content []byte) string {
	hasher := xxhash.New()

	for _, option := range options {
		_, _ = hasher.WriteString(option)
		_, _ = hasher.Write([]byte{0})
	}

	_, _ = hasher.Write(content)

	return strconv.FormatUint(hasher.Sum64(), 16)
}

// FindProjectRoot locates the nearest directory containing a Cargo.toml file.
func FindProjectRoot(cfs CacheFileSystem) (string, error) {
	curr, err := cfs.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for {
		_, err = cfs.Stat(filepath.Join(curr, "Cargo.toml"))
		if err == nil {
			return curr, nil
		}

		parent := filepath.Dir(curr)
		if parent == curr {
			return "", errProjectRootNotFound
		}

		curr = parent
	}
}

// CachePath returns where the cache lives: dir when set, otherwise CacheDirName under the project root, falling
// back to the working directory.
func CachePath(dir string, cfs CacheFileSystem) (string, error) {
	if dir != "" {
		return filepath.Join(dir, CacheFileName), nil
	}

	root, err := FindProjectRoot(cfs)
	if err != nil {
		root, err = cfs.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	return filepath.Join(root, CacheDirName, CacheFileName), nil
}

// LoadDiskCache reads the cache from the specified path. A missing or unreadable cache yields empty data.
func LoadDiskCache(path string, cfs CacheFileSystem) CacheData {
	data := CacheData{Entries: map[string]CacheEntry{}}

	file, err := cfs.Open(path)
	if err != nil {
		return data
	}
	defer file.Close()

	compressed, err := io.ReadAll(file)
	if err != nil {
		return data
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return data
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return data
	}

	var loaded CacheData

	err = msgpack.Unmarshal(raw, &loaded)
	if err != nil || loaded.Entries == nil {
		return data
	}

	return loaded
}

// SaveDiskCache writes the cache to the specified path.
func SaveDiskCache(path string, data CacheData, cfs CacheFileSystem) error {
	raw, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create cache encoder: %w", err)
	}

	compressed := encoder.EncodeAll(raw, nil)
	_ = encoder.Close()

	err = cfs.MkdirAll(filepath.Dir(path), DirPerm)
	if err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	file, err := cfs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(compressed)
	if err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// unexported variables.
var (
	errProjectRootNotFound = errors.New("could not find project root (Cargo.toml)")
)
