package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// 결과 테이블은 stdout, 안내 메시지는 console(stderr)
// ═══════════════════════════════════════════════════════════

// console receives banners and status lines so stdout stays machine-readable
var console io.Writer = os.Stderr

// PrintHeader prints a formatted header with key/value lines
func PrintHeader(title string, kv ...[2]string) {
	fmt.Fprintln(console)
	PrintDoubleSeparator()
	fmt.Fprintf(console, "  %s\n", title)
	if len(kv) == 0 {
		PrintDoubleSeparator()
		return
	}
	PrintSeparator()

	width := 0
	for _, pair := range kv {
		if len(pair[0]) > width {
			width = len(pair[0])
		}
	}
	for _, pair := range kv {
		fmt.Fprintf(console, "  %-*s : %s\n", width, pair[0], pair[1])
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Fprintln(console, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Fprintln(console, "═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(console, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(console, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(console, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Fprintf(console, "ℹ️  %s\n", message)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(console, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Fprintf(console, "   %-*s : %s\n", keyWidth, key, value)
}

// formatPercent formats an efficiency or share for the console
func formatPercent(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".") + "%"
}
