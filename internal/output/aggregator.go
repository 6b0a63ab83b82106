package output

import (
	"bytes"
	"io"
	"sync"
)

// Aggregator is a memory-backed sink that captures everything a task writes
// across all of its attempts, in attempt order, and flushes it verbatim to a
// real sink once on task completion. Modeled on the teacher's
// aggregator.DefaultAggregator buffer-then-emit shape, generalized from
// post-hoc benchmark statistics to raw byte capture during execution.
type Aggregator struct {
	mu      sync.Mutex
	buffers map[string]*bytes.Buffer
}

// NewAggregator creates an empty per-task aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{buffers: make(map[string]*bytes.Buffer)}
}

// Writer returns an io.Writer that appends everything written to it into
// name's buffer, preserving the order attempts write in.
func (a *Aggregator) Writer(name string) io.Writer {
	return &aggregatorWriter{a: a, name: name}
}

type aggregatorWriter struct {
	a    *Aggregator
	name string
}

func (w *aggregatorWriter) Write(p []byte) (int, error) {
	w.a.mu.Lock()
	defer w.a.mu.Unlock()

	buf, ok := w.a.buffers[w.name]
	if !ok {
		buf = &bytes.Buffer{}
		w.a.buffers[w.name] = buf
	}
	return buf.Write(p)
}

// Flush writes name's buffered contents verbatim to dest and discards them.
func (a *Aggregator) Flush(name string, dest io.Writer) error {
	a.mu.Lock()
	buf, ok := a.buffers[name]
	if !ok {
		a.mu.Unlock()
		return nil
	}
	data := buf.Bytes()
	delete(a.buffers, name)
	a.mu.Unlock()

	_, err := dest.Write(data)
	return err
}
