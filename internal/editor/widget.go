package editor

import (
	"slices"
	"sync"
)

// Widget is anything attached to a node by name
type Widget interface {
	Name() string
}

// Selection is the value of a combo widget. Single-value combos hold at most
// one element.
type Selection []string

// First returns the first selected value, or ""
func (s Selection) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// ComboWidget holds an insertion-ordered, duplicate-free list of known values
// and the current selection.
type ComboWidget struct {
	name string

	// selecting orders Select calls so callbacks see selections in the order
	// they were stored
	selecting sync.Mutex

	mu     sync.Mutex
	values []string
	value  Selection

	// Callbacks run whenever the selection is changed through Select.
	Callbacks Chain[Selection]
}

// NewComboWidget creates a combo. Duplicate values are dropped.
func NewComboWidget(name string, values []string, initial Selection) *ComboWidget {
	w := &ComboWidget{name: name}
	for _, v := range values {
		w.addLocked(v)
	}
	w.value = slices.Clone(initial)
	return w
}

// Name implements Widget
func (w *ComboWidget) Name() string {
	return w.name
}

// Values returns a copy of the known values
func (w *ComboWidget) Values() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.values)
}

// AddValue appends v unless already present and reports whether it was added
func (w *ComboWidget) AddValue(v string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addLocked(v)
}

func (w *ComboWidget) addLocked(v string) bool {
	if slices.Contains(w.values, v) {
		return false
	}
	w.values = append(w.values, v)
	return true
}

// Value returns a copy of the current selection
func (w *ComboWidget) Value() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.value)
}

// Select stores sel and runs the callback chain, the same path a manual change
// in the editor takes. Concurrent calls are serialized, store and callbacks
// together. Callbacks must not call Select on the same widget.
func (w *ComboWidget) Select(sel Selection) {
	w.selecting.Lock()
	defer w.selecting.Unlock()

	w.mu.Lock()
	w.value = slices.Clone(sel)
	w.mu.Unlock()

	w.Callbacks.Run(slices.Clone(sel))
}

// ButtonWidget is a clickable widget such as the "upload" button
type ButtonWidget struct {
	name string

	mu      sync.Mutex
	onClick func()
}

// NewButtonWidget creates a button with no click handler
func NewButtonWidget(name string) *ButtonWidget {
	return &ButtonWidget{name: name}
}

// Name implements Widget
func (b *ButtonWidget) Name() string {
	return b.name
}

// SetOnClick replaces the click handler
func (b *ButtonWidget) SetOnClick(fn func()) {
	b.mu.Lock()
	b.onClick = fn
	b.mu.Unlock()
}

// Click invokes the click handler, if any
func (b *ButtonWidget) Click() {
	b.mu.Lock()
	fn := b.onClick
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}
