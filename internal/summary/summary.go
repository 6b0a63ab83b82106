// Package summary renders the final task-result table printed at the end of
// a run, per spec.md §4.7.
package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/runmany/runmany/internal/supervisor"
	"github.com/runmany/runmany/internal/task"
)

var (
	successColor = color.New(color.FgWhite)
	killedColor  = color.New(color.FgHiBlack)
	failureColor = color.New(color.FgRed)
)

var columnHeaders = []string{"Task", "FinalExitCode", "Retries", "Time(s)"}

// Render writes the Task | FinalExitCode | Retries | Time(s) table for
// results to dest. Column widths are the max of header and any cell in that
// column; code 130 renders as "130 (Killed)"; each row is colored by outcome
// (white success, gray killed, red failure) via fatih/color, the same
// cosmetic-coloring library internal/output uses for task labels.
func Render(dest io.Writer, results []task.Result) error {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Name,
			formatCode(r),
			fmt.Sprintf("%d", r.Retries),
			fmt.Sprintf("%.2f", float64(r.DurationMs)/1000),
		}
	}

	widths := make([]int, len(columnHeaders))
	for c, h := range columnHeaders {
		widths[c] = len(h)
	}
	for _, row := range rows {
		for c, cell := range row {
			if len(cell) > widths[c] {
				widths[c] = len(cell)
			}
		}
	}

	if err := writeRow(dest, columnHeaders, widths, nil); err != nil {
		return err
	}
	sep := make([]string, len(widths))
	for c, w := range widths {
		sep[c] = strings.Repeat("-", w)
	}
	if err := writeRow(dest, sep, widths, nil); err != nil {
		return err
	}

	for i, row := range rows {
		if err := writeRow(dest, row, widths, rowColor(results[i])); err != nil {
			return err
		}
	}

	return nil
}

func formatCode(r task.Result) string {
	if !r.CodeIsSet {
		return "undefined"
	}
	if r.Code == supervisor.KilledCode {
		return "130 (Killed)"
	}
	return fmt.Sprintf("%d", r.Code)
}

func rowColor(r task.Result) *color.Color {
	switch {
	case !r.CodeIsSet:
		return killedColor
	case r.Code == supervisor.KilledCode:
		return killedColor
	case r.Code == 0:
		return successColor
	default:
		return failureColor
	}
}

func writeRow(dest io.Writer, cells []string, widths []int, c *color.Color) error {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}
	line := "| " + strings.Join(padded, " | ") + " |"
	if c != nil {
		line = c.Sprint(line)
	}
	_, err := fmt.Fprintln(dest, line)
	return err
}
