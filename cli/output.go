package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/razeghi71/esqlchain/table"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The script or data could not be processed
	ExitCommandError = 2 // Command error (bad flags, missing files)
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope of every command.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data wrapped in a Response.
func (f *OutputFormatter) Success(data interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(Response{Status: "ok", Data: data})
}

// Table writes t as aligned text columns.
func (f *OutputFormatter) Table(t *table.Table) {
	printTable(f.Writer, t.Columns, cells(t))
}

func cells(t *table.Table) [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = make([]string, len(t.Columns))
		for j := range t.Columns {
			if j < len(row.Values) {
				out[i][j] = row.Values[j].AsString()
			} else {
				out[i][j] = "null"
			}
		}
	}
	return out
}

func printTable(w io.Writer, header []string, rows [][]string) {
	if len(header) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(header))
	for i, col := range header {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	parts := make([]string, len(header))
	for i, col := range header {
		parts[i] = padRight(col, widths[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " | "), " "))

	for i := range header {
		parts[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, strings.Join(parts, "-+-"))

	for _, row := range rows {
		for i := range header {
			parts[i] = padRight(row[i], widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " | "), " "))
	}
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
