package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// --- Helpers for commands that print one header and one result ---

// PrintCommandHeader prints a styled command header
func PrintCommandHeader(w io.Writer, title, command string, params map[string]string) {
	header := NewHeader(title, command, params)
	header.SetWidth(GetTerminalWidth())
	fmt.Fprintln(w, header.Render())
	fmt.Fprintln(w)
}

// PrintSuccess prints a styled success result
func PrintSuccess(w io.Writer, title string, details map[string]string) {
	printResult(w, NewSuccessResult(title, details))
}

// PrintFailure prints a styled failure result
func PrintFailure(w io.Writer, title string, err error, troubleshooting []string) {
	printResult(w, NewFailureResult(title, err, troubleshooting))
}

// PrintWarning prints a styled warning result
func PrintWarning(w io.Writer, title string, details map[string]string) {
	printResult(w, NewWarningResult(title, details))
}

// PrintResult prints a result built by the caller, e.g. one with a body
func PrintResult(w io.Writer, result *Result) {
	printResult(w, result)
}

func printResult(w io.Writer, result *Result) {
	result.SetWidth(GetTerminalWidth())
	fmt.Fprintln(w)
	fmt.Fprintln(w, result.Render())
}

// PrintPleaseWait prints a styled "please wait" line for blocking operations.
// The duration hint sets expectations, e.g., "up to 15 seconds".
func PrintPleaseWait(w io.Writer, message string, durationHint string) {
	style := lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true).
		PaddingLeft(2)

	hintStyle := lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	line := style.Render(message)
	if durationHint != "" {
		line += " " + hintStyle.Render("("+durationHint+")")
	}
	line += style.Render("...")

	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
}
