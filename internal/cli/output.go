package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tacogips/stackforge/internal/stack"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

// Output formatting helpers

func colored(color, symbol string) string {
	if !colorEnabled() {
		return symbol
	}
	return color + symbol + colorReset
}

// printInfo prints an informational message
func printInfo(msg string) {
	if globalQuiet {
		return
	}
	fmt.Fprintln(stdout, msg)
}

// printSuccess prints a success message
func printSuccess(msg string) {
	if globalQuiet {
		return
	}
	fmt.Fprintf(stdout, "%s %s\n", colored(colorGreen, "✓"), msg)
}

// printWarning prints a warning message
func printWarning(msg string) {
	if globalQuiet {
		return
	}
	fmt.Fprintf(stdout, "%s %s\n", colored(colorYellow, "⚠"), msg)
}

// printProgress prints a progress indicator
func printProgress(msg string) {
	if globalQuiet {
		return
	}
	fmt.Fprintf(stdout, "%s %s\n", colored(colorBlue, "→"), msg)
}

// progressWriter is where copier, patcher and watcher lines go.
func progressWriter() io.Writer {
	if globalQuiet {
		return io.Discard
	}
	return stdout
}

// printServices renders stack services as a table.
func printServices(w io.Writer, services []stack.Service) {
	if len(services) == 0 {
		fmt.Fprintln(w, "No services found")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := func(s string) string {
		if colorEnabled() {
			return text.FgHiCyan.Sprint(s)
		}
		return s
	}
	t.AppendHeader(table.Row{header("NAME"), header("MODE"), header("REPLICAS"), header("IMAGE"), header("PORTS")})
	for _, s := range services {
		t.AppendRow(table.Row{s.Name, s.Mode, s.Replicas, s.Image, s.Ports})
	}
	t.Render()
}
