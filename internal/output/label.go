// Package output provides the label-prefix transform writer and the
// per-task memory aggregator used to present child process output.
package output

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// LabelWriter prepends "[name] " (padded to the widest name registered with
// the writer) to every line written for a given task, preserving blank lines
// and a final partial line without a trailing newline.
//
// Widths are computed once, from the full task name set, so padding stays
// stable no matter which task writes first.
type LabelWriter struct {
	dest  io.Writer
	width int
	color bool

	mu      sync.Mutex
	buffers map[string]*bytes.Buffer
}

// NewLabelWriter creates a writer that prefixes lines written on behalf of
// any of names with a right-padded "[name]" label. colorize enables
// cosmetic per-task ANSI coloring; it has no effect on line content.
func NewLabelWriter(dest io.Writer, names []string, colorize bool) *LabelWriter {
	width := 0
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}
	return &LabelWriter{
		dest:    dest,
		width:   width,
		color:   colorize,
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Writer returns an io.Writer that labels every line it is given with name.
func (lw *LabelWriter) Writer(name string) io.Writer {
	return &taskWriter{lw: lw, name: name}
}

type taskWriter struct {
	lw   *LabelWriter
	name string
}

func (w *taskWriter) Write(p []byte) (int, error) {
	w.lw.mu.Lock()
	buf, ok := w.lw.buffers[w.name]
	if !ok {
		buf = &bytes.Buffer{}
		w.lw.buffers[w.name] = buf
	}
	buf.Write(p)

	label := w.lw.label(w.name)

	for {
		line, err := buf.ReadString('\n')
		if err == io.EOF {
			// Partial line with no terminator yet; keep it buffered until
			// more data (or Close) arrives.
			buf.WriteString(line)
			break
		}
		if _, werr := fmt.Fprintf(w.lw.dest, "%s%s", label, line); werr != nil {
			w.lw.mu.Unlock()
			return 0, werr
		}
	}
	w.lw.mu.Unlock()
	return len(p), nil
}

// Close flushes any trailing partial line (one with no terminating newline)
// for name.
func (lw *LabelWriter) Close(name string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	buf, ok := lw.buffers[name]
	if !ok || buf.Len() == 0 {
		return nil
	}
	label := lw.label(name)
	_, err := fmt.Fprintf(lw.dest, "%s%s\n", label, buf.String())
	buf.Reset()
	return err
}

func (lw *LabelWriter) label(name string) string {
	padded := fmt.Sprintf("%-*s", lw.width, name)
	text := fmt.Sprintf("[%s] ", padded)
	if !lw.color {
		return text
	}
	c := colorForName(name)
	return c.Sprint(text)
}

var labelPalette = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgMagenta),
	color.New(color.FgYellow),
	color.New(color.FgGreen),
	color.New(color.FgBlue),
	color.New(color.FgRed),
}

// colorForName deterministically assigns one of a small cosmetic palette to
// a task name, so the same name always prints in the same color within a run.
func colorForName(name string) *color.Color {
	var hash int
	for _, r := range name {
		hash = hash*31 + int(r)
	}
	if hash < 0 {
		hash = -hash
	}
	return labelPalette[hash%len(labelPalette)]
}
