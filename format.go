package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tonimelisma/gdrive-go/internal/graph"
)

// Size unit constants for human-readable formatting.
const (
	sizeKB = 1024
	sizeMB = 1024 * 1024
	sizeGB = 1024 * 1024 * 1024
	sizeTB = 1024 * 1024 * 1024 * 1024
)

// formatSize returns a human-readable size string (e.g. "1.2 MB").
func formatSize(bytes int64) string {
	switch {
	case bytes >= sizeTB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(sizeTB))
	case bytes >= sizeGB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(sizeGB))
	case bytes >= sizeMB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(sizeMB))
	case bytes >= sizeKB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(sizeKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatTime returns a compact timestamp for display, relative to now.
func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	if t.Year() == now.Year() {
		return t.Format("Jan _2 15:04")
	}

	return t.Format("Jan _2  2006")
}

// nodeSize is the SIZE column. Folders, shortcuts, and native documents
// have no byte size of their own.
func nodeSize(n *graph.Node) string {
	if n.Kind != graph.KindFile || n.IsNative() {
		return "-"
	}

	return formatSize(n.Size)
}

func nodeDisplayName(n *graph.Node) string {
	if n.IsFolder() {
		return n.Name + "/"
	}

	return n.Name
}

// printNodesTable writes ls output. Flat listings sort folders first;
// recursive listings keep breadth-first order so parents precede children.
func printNodesTable(w io.Writer, nodes []graph.Node, recursive bool) {
	if !recursive {
		sortNodes(nodes)
	}

	now := time.Now()
	rows := make([][]string, 0, len(nodes))

	for i := range nodes {
		n := &nodes[i]
		rows = append(rows, []string{
			nodeDisplayName(n),
			n.Kind.String(),
			nodeSize(n),
			formatTime(n.ModifiedAt, now),
			n.ID,
		})
	}

	printTable(w, []string{"NAME", "KIND", "SIZE", "MODIFIED", "ID"}, rows)
}

// printStat writes stat output as aligned key/value lines.
func printStat(w io.Writer, n *graph.Node) {
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-10s %s\n", k+":", v)
		}
	}

	field("Name", n.Name)
	field("ID", n.ID)
	field("Kind", n.Kind.String())
	field("MIME", n.MimeType)

	if n.Kind == graph.KindFile && !n.IsNative() {
		field("Size", fmt.Sprintf("%s (%d bytes)", formatSize(n.Size), n.Size))
	}

	field("Parents", strings.Join(n.Parents, ", "))
	field("Created", formatRFC3339(n.CreatedAt))
	field("Modified", formatRFC3339(n.ModifiedAt))
	field("Target", n.ShortcutTarget)
	field("Link", n.WebViewLink)
}

// printTable writes aligned columns to the given writer.
// headers and each row must have the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

// printRow writes a single padded row.
func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}

// progressStep is the minimum advance, in percent, between progress lines.
const progressStep = 10

// newProgressPrinter returns a transfer progress callback that writes a
// line to stderr every progressStep percent. It returns nil, disabling
// progress, unless stderr is a terminal and --quiet is off.
func newProgressPrinter(cc *CLIContext, label string) graph.ProgressFunc {
	if cc.Flags.Quiet || !isTerminal(cc.Stderr) {
		return nil
	}

	var (
		mu   sync.Mutex
		last = -progressStep
	)

	return func(done, total int64) {
		if total <= 0 {
			return
		}

		pct := int(done * 100 / total)

		mu.Lock()
		defer mu.Unlock()

		if pct < last+progressStep && done < total {
			return
		}

		last = pct
		cc.Statusf("%s: %3d%% (%s / %s)\n", label, pct, formatSize(done), formatSize(total))
	}
}
