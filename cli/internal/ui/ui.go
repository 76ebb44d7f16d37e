// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	primary   = lipgloss.Color("#00D9FF")
	success   = lipgloss.Color("#00FF88")
	warning   = lipgloss.Color("#FFB800")
	failure   = lipgloss.Color("#FF4444")
	secondary = lipgloss.Color("#6C757D")

	titleStyle   = lipgloss.NewStyle().Foreground(primary).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(failure).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warning).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(secondary)

	sqlStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1)

	bindingColor = color.New(color.FgYellow)
	labelColor   = color.New(color.FgCyan, color.Bold)
)

// Out is where ui output goes.
var Out io.Writer = os.Stdout

// Header prints a bordered title with an optional subtitle.
func Header(title, subtitle string) {
	body := titleStyle.Render(title)
	if subtitle != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, mutedStyle.Render(subtitle))
	}
	fmt.Fprintln(Out, lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 2).
		Render(body))
}

// Success prints a success line.
func Success(format string, args ...interface{}) {
	fmt.Fprintln(Out, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func Warn(format string, args ...interface{}) {
	fmt.Fprintln(Out, warningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Error prints an error line to stderr.
func Error(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Statement prints one compiled statement and its bindings.
func Statement(dialect, sql string, bindings []interface{}) {
	labelColor.Fprintf(Out, "%s\n", dialect)
	fmt.Fprintln(Out, sqlStyle.Render(sql))
	if len(bindings) == 0 {
		fmt.Fprintln(Out, mutedStyle.Render("  no bindings"))
		return
	}
	for i, b := range bindings {
		fmt.Fprintf(Out, "  %d: ", i+1)
		bindingColor.Fprintf(Out, "%#v\n", b)
	}
}

// Markdown renders markdown for the terminal.
func Markdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Fprint(Out, out)
	return nil
}

// Rows prints result rows as a table. Columns are sorted by name unless
// columns is given.
func Rows(rows []map[string]interface{}, columns ...string) error {
	if len(rows) == 0 {
		fmt.Fprintln(Out, mutedStyle.Render("(no rows)"))
		return nil
	}
	if len(columns) == 0 {
		for c := range rows[0] {
			columns = append(columns, c)
		}
		sort.Strings(columns)
	}

	data := pterm.TableData{columns}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, c := range columns {
			line[i] = Cell(row[c])
		}
		data = append(data, line)
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(Out).WithData(data).Render()
}

// KeyValues prints a two-column table.
func KeyValues(pairs [][2]string) error {
	data := pterm.TableData{{"key", "value"}}
	for _, p := range pairs {
		data = append(data, []string{p[0], p[1]})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(Out).WithData(data).Render()
}

// Cell formats one value for table output.
func Cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case string:
		return strings.ReplaceAll(t, "\n", `\n`)
	default:
		return fmt.Sprint(t)
	}
}
