// Package run implements the main logic for the mrygen tool in a testable way.
package run

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alexflint/go-arg"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	parse "github.com/yyYank/mry/mrygen/run/2_parse"
	generate "github.com/yyYank/mry/mrygen/run/5_generate"
	output "github.com/yyYank/mry/mrygen/run/6_output"
)

// Interfaces - Public

// FileSystem abstracts every file operation the tool performs.
type FileSystem interface {
	CacheFileSystem
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

// Exported variables.
var (
	ErrConflictingModes = errors.New("--stdout and --diff cannot be combined")
)

// Structs - Private

// cliArgs defines the command-line arguments for the generator.
type cliArgs struct {
	Inputs  []string `arg:"positional,required" help:"source files or directories to instrument"`
	Config  string   `arg:"--config"            help:"configuration file (defaults to .mrygen.yaml when present)"`
	Stdout  bool     `arg:"--stdout"            help:"print generated code instead of writing generated_<name> files"`
	Diff    bool     `arg:"--diff"              help:"print a unified diff from each source to its generated code"`
	Summary bool     `arg:"--summary"           help:"print a table of what was generated"`
	NoCache bool     `arg:"--no-cache"          help:"neither read nor update the generation cache"`
	NoColor bool     `arg:"--no-color"          help:"disable colored diagnostics"`
	Verbose bool     `arg:"-v,--verbose"        help:"log progress to stderr and print error causes"`
}

// runner carries the state of one invocation.
type runner struct {
	args      cliArgs
	cfg       Config
	fileSys   FileSystem
	stdout    io.Writer
	logger    *slog.Logger
	reporter  *Reporter
	cache     *CacheData
	cachePath string
	dirty     bool
}

// Functions - Public

// Run executes the mrygen tool logic. It takes command-line arguments, an environment variable getter, a
// FileSystem for file operations, and the streams to report to. Every input file (or every source file of an input
// directory) is rewritten into generated_<name> beside it, or printed with --stdout or --diff. Failures are
// reported on stderr and returned; the first failing file aborts the run.
func Run(args []string, getEnv func(string) string, fileSys FileSystem, stdout, stderr io.Writer) error {
	parsed, err := parseArgs(args, stdout)
	if errors.Is(err, errHelpShown) {
		return nil
	}

	if err != nil {
		NewReporter(stderr, false, parsed.NoColor).ReportError(err)
		return err
	}

	reporter := NewReporter(stderr, parsed.Verbose, parsed.NoColor)

	err = execute(parsed, getEnv, fileSys, stdout, stderr, reporter)
	if err != nil {
		reporter.ReportError(err)
		return err
	}

	return nil
}

// Functions - Private

func execute(
	parsed cliArgs,
	getEnv func(string) string,
	fileSys FileSystem,
	stdout, stderr io.Writer,
	reporter *Reporter,
) error {
	cfg, err := LoadConfig(parsed.Config, getEnv, fileSys)
	if err != nil {
		return err
	}

	logger, closer := NewLogger(cfg.Log, parsed.Verbose, stderr)
	defer closer.Close()

	sources, err := expandInputs(parsed.Inputs, fileSys)
	if err != nil {
		return err
	}

	r := &runner{
		args:     parsed,
		cfg:      cfg,
		fileSys:  fileSys,
		stdout:   stdout,
		logger:   logger,
		reporter: reporter,
	}

	r.loadCache()

	results := make([]fileResult, 0, len(sources))

	for _, source := range sources {
		result, err := r.process(source)
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", source, err)
		}

		results = append(results, result)
	}

	r.saveCache()

	if parsed.Summary {
		_, _ = fmt.Fprint(stdout, renderSummary(results))
	}

	return nil
}

// parseArgs parses command-line arguments into cliArgs. Help is written to out and reported as errHelpShown.
func parseArgs(args []string, out io.Writer) (cliArgs, error) {
	var parsed cliArgs

	parser, err := arg.NewParser(arg.Config{Program: "mrygen"}, &parsed)
	if err != nil {
		return cliArgs{}, fmt.Errorf("failed to create argument parser: %w", err)
	}

	var cmdArgs []string
	if len(args) > 1 {
		cmdArgs = args[1:]
	}

	err = parser.Parse(cmdArgs)
	if errors.Is(err, arg.ErrHelp) {
		parser.WriteHelp(out)
		return parsed, errHelpShown
	}

	if err != nil {
		return parsed, fmt.Errorf("failed to parse arguments: %w", err)
	}

	if parsed.Stdout && parsed.Diff {
		return parsed, ErrConflictingModes
	}

	return parsed, nil
}

// expandInputs turns the inputs into the ordered, de-duplicated list of source files.
func expandInputs(inputs []string, fileSys FileSystem) ([]string, error) {
	seen := map[string]bool{}
	sources := make([]string, 0, len(inputs))

	for _, input := range inputs {
		info, err := fileSys.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", input, err)
		}

		files := []string{input}

		if info.IsDir() {
			files, err = parse.SourceFiles(fileSys.ReadDir, input, output.Prefix)
			if err != nil {
				return nil, err
			}
		}

		for _, file := range files {
			if !seen[file] {
				seen[file] = true
				sources = append(sources, file)
			}
		}
	}

	return sources, nil
}

// process generates code for one source file, or reuses the cached code when neither the source nor the options
// changed, and emits it in the selected mode.
func (r *runner) process(source string) (fileResult, error) {
	start := time.Now()

	content, err := r.fileSys.ReadFile(source)
	if err != nil {
		return fileResult{}, fmt.Errorf("failed to read %s: %w", source, err)
	}

	result := fileResult{source: source}
	signature := CalculateSignature(r.options(), content)

	var code string

	entry, hit := r.lookup(source, signature)
	if hit {
		code, result.stats, result.cached = entry.Content, entry.Stats, true
	} else {
		code, result.stats, err = r.generate(source, string(content))
		if err != nil {
			return fileResult{}, err
		}

		r.store(source, CacheEntry{Signature: signature, Content: code, Stats: result.stats})
	}

	r.logger.Debug("processed file",
		"file", source,
		"cached", result.cached,
		"locators", result.stats.Locators,
		"elapsed", time.Since(start))

	switch {
	case r.args.Stdout:
		_, _ = fmt.Fprint(r.stdout, code)
	case r.args.Diff:
		_, _ = fmt.Fprint(r.stdout, output.Diff(source, string(content), code))
	default:
		result.output, err = r.write(source, code, hit)
		if err != nil {
			return fileResult{}, err
		}
	}

	return result, nil
}

func (r *runner) generate(source, content string) (string, FileStats, error) {
	file, err := parse.File(source, content)
	if err != nil {
		return "", FileStats{}, err
	}

	out, reports, err := generate.File(file, r.cfg.Runtime)
	if err != nil {
		return "", FileStats{}, err
	}

	var stats FileStats

	for _, report := range reports {
		stats.Add(report)

		if report.Kind == generate.KindPassThrough {
			continue
		}

		r.logger.Debug("generated declaration",
			"file", source,
			"name", report.Name,
			"kind", report.Kind.String(),
			"span", report.Span.String(),
			"locators", report.Locators,
			"items", report.Items)
	}

	return syntax.PrintFile(out), stats, nil
}

// write stores code in the generated file. A cache hit whose generated file is already up to date is left alone.
func (r *runner) write(source, code string, hit bool) (string, error) {
	filename := output.Filename(source)

	if hit {
		existing, err := r.fileSys.ReadFile(filename)
		if err == nil && bytes.Equal(existing, []byte(code)) {
			_, _ = fmt.Fprintf(r.stdout, "%s unchanged (cached).\n", filename)
			return filename, nil
		}
	}

	return output.WriteGeneratedCode(code, source, r.fileSys, r.stdout)
}

// options are the settings that change generated code; they are part of the cache signature.
func (r *runner) options() []string {
	return []string{cacheFormat, fmt.Sprintf("%+v", r.cfg.Runtime)}
}

func (r *runner) loadCache() {
	if !r.cfg.CacheEnabled || r.args.NoCache {
		return
	}

	path, err := CachePath(r.cfg.CacheDir, r.fileSys)
	if err != nil {
		r.logger.Warn("cache disabled", "error", err)
		return
	}

	data := LoadDiskCache(path, r.fileSys)
	r.cache, r.cachePath = &data, path

	r.logger.Debug("loaded cache", "path", path, "entries", len(data.Entries))
}

func (r *runner) lookup(source, signature string) (CacheEntry, bool) {
	if r.cache == nil {
		return CacheEntry{}, false
	}

	entry, ok := r.cache.Entries[source]
	if !ok || entry.Signature != signature {
		return CacheEntry{}, false
	}

	return entry, true
}

func (r *runner) store(source string, entry CacheEntry) {
	if r.cache == nil {
		return
	}

	r.cache.Entries[source] = entry
	r.dirty = true
}

func (r *runner) saveCache() {
	if r.cache == nil || !r.dirty {
		return
	}

	err := SaveDiskCache(r.cachePath, *r.cache, r.fileSys)
	if err != nil {
		r.reporter.ReportWarning(err.Error())
	}
}

// unexported constants.
const (
	cacheFormat = "mrygen-cache-v1"
)

// unexported variables.
var (
	errHelpShown = errors.New("help shown")
)
