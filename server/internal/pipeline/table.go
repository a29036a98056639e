package pipeline

import (
	"log/slog"
	"sort"
	"sync"
)

// Interpretation is the human-facing metadata attached to a cluster label.
type Interpretation struct {
	Label       Label  `json:"label"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Table maps labels to interpretations. It is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[Label]Interpretation
}

// NewTable builds a Table from entries. A later entry with the same label
// replaces an earlier one; config validation rejects duplicates upstream.
func NewTable(entries []Interpretation) *Table {
	t := &Table{}
	t.Replace(entries)
	return t
}

// Replace swaps the whole mapping atomically.
func (t *Table) Replace(entries []Interpretation) {
	m := make(map[Label]Interpretation, len(entries))
	for _, e := range entries {
		m[e.Label] = e
	}
	t.mu.Lock()
	t.entries = m
	t.mu.Unlock()
}

// Interpret looks up label. Labels without an entry are reported as
// *UnknownLabelError and logged; there is no fallback bucket.
func (t *Table) Interpret(label Label) (Interpretation, error) {
	t.mu.RLock()
	e, ok := t.entries[label]
	t.mu.RUnlock()
	if ok {
		return e, nil
	}
	known := t.Labels()
	slog.Warn("pipeline: model emitted a label with no interpretation",
		"label", int(label), "known", known)
	return Interpretation{}, &UnknownLabelError{Label: label, Known: known}
}

// Labels returns the known labels in ascending order.
func (t *Table) Labels() []Label {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Label, 0, len(t.entries))
	for l := range t.entries {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Entries returns all interpretations ordered by label.
func (t *Table) Entries() []Interpretation {
	labels := t.Labels()
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Interpretation, 0, len(labels))
	for _, l := range labels {
		if e, ok := t.entries[l]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of known labels.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Missing returns the labels in emitted that have no entry, in ascending
// order.
func (t *Table) Missing(emitted []Label) []Label {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Label
	for _, l := range emitted {
		if _, ok := t.entries[l]; !ok {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
