package run

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	generate "github.com/yyYank/mry/mrygen/run/5_generate"
)

// FileStats counts what was generated for one source file.
type FileStats struct {
	Records      int `msgpack:"records"`
	MethodBlocks int `msgpack:"method_blocks"`
	Interfaces   int `msgpack:"interfaces"`
	Locators     int `msgpack:"locators"`
}

// Add folds one declaration report into the stats.
func (s *FileStats) Add(report generate.Report) {
	switch report.Kind {
	case generate.KindRecord:
		s.Records++
	case generate.KindMethodBlock:
		s.MethodBlocks++
	case generate.KindInterface:
		s.Interfaces++
	case generate.KindPassThrough:
	}

	s.Locators += report.Locators
}

// fileResult is the outcome of processing one source file.
type fileResult struct {
	source string
	output string
	stats  FileStats
	cached bool
}

// renderSummary renders one row per file, sorted by path, with totals in the footer.
func renderSummary(results []fileResult) string {
	sorted := append([]fileResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].source < sorted[j].source
	})

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"File", "Records", "Method Blocks", "Interfaces", "Locators", "Status"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
	})

	var total FileStats

	for _, result := range sorted {
		status := "generated"
		if result.cached {
			status = "cached"
		}

		table.Append([]string{
			result.source,
			strconv.Itoa(result.stats.Records),
			strconv.Itoa(result.stats.MethodBlocks),
			strconv.Itoa(result.stats.Interfaces),
			strconv.Itoa(result.stats.Locators),
			status,
		})

		total.Records += result.stats.Records
		total.MethodBlocks += result.stats.MethodBlocks
		total.Interfaces += result.stats.Interfaces
		total.Locators += result.stats.Locators
	}

	table.SetFooter([]string{
		"Total Files " + strconv.Itoa(len(sorted)),
		strconv.Itoa(total.Records),
		strconv.Itoa(total.MethodBlocks),
		strconv.Itoa(total.Interfaces),
		strconv.Itoa(total.Locators),
		"",
	})

	table.Render()

	return tableBuffer.String()
}
