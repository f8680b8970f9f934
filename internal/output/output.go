// Package output renders results to the terminal: JSON documents, diff
// listings and plain-text tables.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/yzaremba/rt/internal/diff"
)

// WriteJSON writes v followed by a newline. Pretty output indents two
// spaces and sorts object keys; compact output is single-line and keeps
// insertion order.
func WriteJSON(w io.Writer, v any, compact bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("output: encode: %w", err)
	}
	if !compact {
		// Round-trip through plain maps so indenting sorts keys.
		var plain any
		if err := json.Unmarshal(raw, &plain); err != nil {
			return fmt.Errorf("output: encode: %w", err)
		}
		if raw, err = json.MarshalIndent(plain, "", "  "); err != nil {
			return fmt.Errorf("output: encode: %w", err)
		}
	}
	if _, err := w.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("output: write: %w", err)
	}
	return nil
}

// ColorEnabled reports whether w is a terminal worth colorizing.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	addedLine   = color.New(color.FgGreen)
	removedLine = color.New(color.FgRed)
	changedLine = color.New(color.FgYellow)
)

// WriteDiffText renders changes as one +/-/~ line each.
func WriteDiffText(w io.Writer, changes []diff.Change, colorize bool) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "No differences.")
		return err
	}
	for _, change := range changes {
		var line string
		style := changedLine
		switch change.Kind {
		case diff.KindAdded:
			line = fmt.Sprintf("+ %s: %s", change.Path, compactJSON(change.Right))
			style = addedLine
		case diff.KindRemoved:
			line = fmt.Sprintf("- %s: %s", change.Path, compactJSON(change.Left))
			style = removedLine
		case diff.KindTypeChanged:
			line = fmt.Sprintf("~ %s: type %s -> %s (left=%s, right=%s)",
				change.Path, change.LeftType, change.RightType,
				compactJSON(change.Left), compactJSON(change.Right))
		default:
			line = fmt.Sprintf("~ %s: %s -> %s",
				change.Path, compactJSON(change.Left), compactJSON(change.Right))
		}
		if colorize {
			line = style.Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable renders rows as an ASCII table with a header.
func WriteTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

func compactJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
