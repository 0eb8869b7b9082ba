package output

import (
	"fmt"
	"os"
	"strconv"

	"github.com/13rac1/nsload/internal/types"
	"github.com/olekukonko/tablewriter"
)

// PrintCandidates formats and prints the candidates of a resolution as an
// ASCII table. When checked is false the Exists column is left blank.
func PrintCandidates(res types.Resolution, checked bool) {
	if !res.NeedsLoad {
		fmt.Printf("%s is outside the namespace prefix; nothing to resolve.\n", res.Name)
		return
	}
	if len(res.Candidates) == 0 {
		fmt.Printf("No candidates for %s.\n", res.Name)
		return
	}

	fmt.Printf("Candidates for %s\n", res.Name)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Root", "Marker", "Path", "Exists")

	for i, c := range res.Candidates {
		exists := ""
		if checked {
			exists = formatExists(c.Exists)
		}
		table.Append(strconv.Itoa(i+1), c.Root, formatMarker(c.Marker), c.Path, exists)
	}

	table.Render()
}

// PrintSourceFiles formats and prints discovered source files as an ASCII table.
func PrintSourceFiles(files []types.SourceFile) {
	if len(files) == 0 {
		fmt.Println("No source files found.")
		return
	}

	fmt.Println("Source Files")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Root", "File", "Marker", "Size")

	for _, f := range files {
		table.Append(f.Root, f.RelPath, formatMarker(f.Marker), formatSize(f.Size))
	}

	table.Render()

	counts := CountByRoot(files)
	for _, root := range orderedRoots(files) {
		fmt.Printf("  %s: %d files\n", root, counts[root])
	}
}

// PrintLoadResult prints a one-line summary of a successful load.
func PrintLoadResult(r *types.LoadResult) {
	fmt.Printf("Loaded %s from %s (%s, %d candidates tried)\n",
		r.Name, r.Path, formatSize(int64(r.Size)), r.Tried)
}

// CountByRoot returns the number of files found under each class root.
func CountByRoot(files []types.SourceFile) map[string]int {
	counts := make(map[string]int)
	for _, f := range files {
		counts[f.Root]++
	}
	return counts
}

// orderedRoots returns roots in order of first appearance.
func orderedRoots(files []types.SourceFile) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, f := range files {
		if !seen[f.Root] {
			seen[f.Root] = true
			roots = append(roots, f.Root)
		}
	}
	return roots
}

// formatMarker formats a marker for display, using "-" for none.
func formatMarker(m types.Marker) string {
	if m == types.MarkerNone {
		return "-"
	}
	return string(m)
}

func formatExists(exists bool) string {
	if exists {
		return "yes"
	}
	return "-"
}

// formatSize formats a byte count in human-readable units.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
