// mry/mrygen adds mock points to declaration-language source files.
// Install it with `go install github.com/yyYank/mry/mrygen@latest` and run `mrygen <file-or-dir>...`. Every record
// gains a hidden recorder field plus a plain twin and a conversion, every method block gains instrumented methods
// and a block of mock_<method> locators, and every interface gains a Mock<Name> stand-in implementation. Output is
// written to generated_<name> beside each source file; use --stdout or --diff to preview instead.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/yyYank/mry/mrygen/run"
)

// main is the entry point of the mrygen tool.
func main() {
	if os.Args == nil {
		return
	}

	// Run reports failures on stderr itself.
	err := run.Run(os.Args, os.Getenv, &realFileSystem{}, os.Stdout, os.Stderr)
	if err != nil {
		os.Exit(1)
	}
}

// realFileSystem implements FileSystem using os package.
type realFileSystem struct{}

// ReadFile reads the file named by name and returns the contents.
func (rfs *realFileSystem) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}

	return data, nil
}

// WriteFile writes data to the file named by name.
func (rfs *realFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	err := os.WriteFile(name, data, perm)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}

	return nil
}

// ReadDir lists the directory named by name.
func (rfs *realFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", name, err)
	}

	return entries, nil
}

func (rfs *realFileSystem) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

func (rfs *realFileSystem) Create(path string) (io.WriteCloser, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

func (rfs *realFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm) //nolint:wrapcheck
}

func (rfs *realFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path) //nolint:wrapcheck
}

func (rfs *realFileSystem) Getwd() (string, error) {
	return os.Getwd() //nolint:wrapcheck
}
