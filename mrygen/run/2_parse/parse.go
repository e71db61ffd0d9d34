// Package parse reads declaration-language source into the explicit syntax tree.
package parse

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
)

// Exported variables.
var (
	ErrNoSourceFiles = errors.New("no source files found")
	ErrNotSingleItem = errors.New("expected exactly one declaration")
)

// SourceExt is the extension of files the directory loader picks up.
const SourceExt = ".rs"

// File parses a whole source file. filename is only used for positions in errors and spans.
func File(filename, src string) (*syntax.File, error) {
	node, err := fileParser.ParseString(filename, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	conv := &converter{src: src, file: filename}

	return conv.convertFile(node), nil
}

// Item parses source holding exactly one top-level declaration.
func Item(src string) (syntax.Item, error) {
	file, err := File("<input>", src)
	if err != nil {
		return nil, err
	}

	if len(file.Items) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNotSingleItem, len(file.Items))
	}

	return file.Items[0], nil
}

// SourceFiles lists the source files in dir, sorted, skipping previously generated output (files whose name starts
// with skipPrefix). Subdirectories are not descended into. readDir is normally os.ReadDir.
func SourceFiles(readDir func(string) ([]fs.DirEntry, error), dir, skipPrefix string) ([]string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, SourceExt) {
			continue
		}

		if skipPrefix != "" && strings.HasPrefix(name, skipPrefix) {
			continue
		}

		files = append(files, filepath.Join(dir, name))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", ErrNoSourceFiles, SourceExt, dir)
	}

	sort.Strings(files)

	return files, nil
}
