package commands

import (
	"fmt"
	"unicode/utf8"

	"github.com/wonny/aegis-analytics/internal/report"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block of key/value lines
func PrintHeader(title string, rows [][2]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, kv := range rows {
		fmt.Printf("  %-12s: %s\n", kv[0], kv[1])
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintTable prints a metrics table, N/A for undefined values
func PrintTable(t report.Table) {
	columns := append([]string{""}, t.Keys...)
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = max(utf8.RuneCountInString(c), 10)
	}
	for _, row := range t.Rows {
		widths[0] = max(widths[0], utf8.RuneCountInString(row.Label))
	}

	PrintTableHeader(columns, widths)
	for _, row := range t.Rows {
		values := make([]string, 0, len(columns))
		values = append(values, row.Label)
		for _, v := range row.Values {
			values = append(values, report.FormatValue(v))
		}
		PrintTableRow(values, widths)
	}
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row, the label left-aligned and values right-aligned
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		if i == 0 {
			fmt.Printf("%-*s", widths[i], val)
		} else {
			fmt.Printf("%*s", widths[i], val)
		}
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}
