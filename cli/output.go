package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeHistogram prints the distribution of timings, in milliseconds, as horizontal bars.
func writeHistogram(w io.Writer, timings []float64, bins int) error {
	if len(timings) == 0 {
		return nil
	}
	const barWidth = 50
	hist := histogram.Hist(bins, timings)
	return histogram.Fprintf(w, hist, histogram.Linear(barWidth), func(v float64) string {
		return fmt.Sprintf("%.2fms", v)
	})
}

// humanKB renders a kilobyte count with binary units.
func humanKB(kb float64) string {
	return units.BytesSize(kb * 1024)
}

// writeSamples prints the successful sessions of results. Failed sessions are only listed in json
// output; their errors are returned by the caller.
func writeSamples[S fmt.Stringer](c *cli.Context, format, title string, results []pidResult[S], columns func(S) []string) error {
	w := c.App.Writer
	succeeded := make([]pidResult[S], 0, len(results))
	for _, res := range results {
		if res.Err == nil {
			succeeded = append(succeeded, res)
		}
	}

	switch format {
	case formatJSON:
		return writeJSON(w, results)
	case formatTable:
		t := table.NewWriter()
		t.SetTitle(title)
		t.AppendHeader(table.Row{"PID", "Average", "Minimum", "Maximum"})
		for _, res := range succeeded {
			row := table.Row{strconv.Itoa(res.PID)}
			for _, col := range columns(res.Stats) {
				row = append(row, col)
			}
			t.AppendRow(row)
		}
		printf(w, "%s", t.Render())
	default:
		if len(results) == 1 && len(succeeded) == 1 {
			printf(w, "%s", succeeded[0].Stats)
			return nil
		}
		for _, res := range succeeded {
			printf(w, "PID %d:\n%s", res.PID, res.Stats)
		}
	}
	return nil
}

func (r *runner) renderSize(c *cli.Context, path string, size int64) error {
	w := c.App.Writer
	switch r.format {
	case formatJSON:
		return writeJSON(w, map[string]interface{}{"path": path, "bytes": size, "human": units.HumanSize(float64(size))})
	case formatTable:
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Path", "Bytes", "Size"})
		t.AppendRow(table.Row{path, size, units.HumanSize(float64(size))})
		printf(w, "%s", t.Render())
	default:
		printf(w, "Size: %d bytes (%s)", size, units.HumanSize(float64(size)))
	}
	return nil
}

func (r *runner) renderLatency(c *cli.Context, report latencyReport) error {
	w := c.App.Writer
	p := report.Profile
	switch r.format {
	case formatJSON:
		return writeJSON(w, report)
	case formatTable:
		t := table.NewWriter()
		t.SetTitle(fmt.Sprintf("Latency over %d trials (ms, %s quantiles)", p.Trials, report.Estimator))
		t.AppendHeader(table.Row{"Mean", "StdDev", "Min", "P50", "P90", "P99", fmt.Sprintf("P%g", report.Percentile*100), "Max"})
		row := table.Row{}
		for _, v := range []float64{p.Mean, p.StdDev, p.Minimum, p.P50, p.P90, p.P99, report.Tail, p.Maximum} {
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		t.AppendRow(row)
		printf(w, "%s", t.Render())
	default:
		printf(w, "Mean latency: %.2fms", p.Mean)
		printf(w, "P%g latency: %.2fms", report.Percentile*100, report.Tail)
	}
	return nil
}

func (r *runner) renderInspectors(c *cli.Context, names []string, selected, platformDefault string) error {
	w := c.App.Writer
	type entry struct {
		Name     string `json:"name"`
		Selected bool   `json:"selected"`
		Default  bool   `json:"default"`
	}
	entries := make([]entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, entry{Name: name, Selected: name == selected, Default: name == platformDefault})
	}
	switch r.format {
	case formatJSON:
		return writeJSON(w, entries)
	case formatTable:
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Inspector", "Selected", "Default"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.Name, e.Selected, e.Default})
		}
		printf(w, "%s", t.Render())
	default:
		for _, e := range entries {
			marker := " "
			if e.Selected {
				marker = "*"
			}
			printf(w, "%s %s", marker, e.Name)
		}
	}
	return nil
}
