// Package output names, writes and diffs generated source files.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/akedrou/textdiff"
)

// Prefix marks generated files; the directory loader skips files carrying it.
const Prefix = "generated_"

// Writer interface for writing generated code.
type Writer interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Filename returns the path generated code for source is written to: generated_<name> next to the source.
func Filename(source string) string {
	dir, base := filepath.Split(source)
	if strings.HasPrefix(base, Prefix) {
		return source
	}

	return filepath.Join(dir, Prefix+base)
}

// WriteGeneratedCode writes the generated code for source and returns the file name used.
func WriteGeneratedCode(code string, source string, fileWriter Writer, out io.Writer) (string, error) {
	const generatedFilePermissions = 0o600

	filename := Filename(source)

	err := fileWriter.WriteFile(filename, []byte(code), generatedFilePermissions)
	if err != nil {
		return "", fmt.Errorf("error writing %s: %w", filename, err)
	}

	_, _ = fmt.Fprintf(out, "%s written successfully.\n", filename)

	return filename, nil
}

// Diff returns the unified diff from the source text to the generated text, empty when they are equal.
func Diff(source, original, generated string) string {
	return textdiff.Unified(source, Filename(source), original, generated)
}
