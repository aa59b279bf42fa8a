package editor

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// OutputEntry describes one asset in an execution result or a node preview.
type OutputEntry struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder,omitempty"`
	Type      string `json:"type,omitempty"`
}

// ExecutionResult is the part of a node execution payload this layer reads.
type ExecutionResult struct {
	Downloads []OutputEntry `json:"downloads,omitempty"`
	Images    []OutputEntry `json:"images,omitempty"`
	Gifs      []OutputEntry `json:"gifs,omitempty"`
}

// Output is the display state drawn on a node
type Output struct {
	Images   []OutputEntry `json:"images"`
	Animated []bool        `json:"animated"`
}

// Canvas receives redraw requests
type Canvas interface {
	SetDirty()
}

// DataTransferItem is one item of a drag payload
type DataTransferItem struct {
	Kind string // "file" or "string"
	Type string
}

// DataTransfer is the payload of a drag-over or drop event
type DataTransfer struct {
	Items []DataTransferItem
	Files []File
}

// Node is one node instance in the graph.
type Node struct {
	ID   string
	Type string

	widgets []Widget
	canvas  Canvas

	mu       sync.Mutex
	output   *Output
	dragOver func(DataTransfer) bool
	dragDrop func(DataTransfer) bool
	paste    func([]File) bool

	// Removed runs once when the node leaves the graph.
	Removed Chain[*Node]
}

// NewNode creates a node with a fresh id
func NewNode(nodeType string, canvas Canvas, widgets ...Widget) *Node {
	return &Node{
		ID:      uuid.NewString(),
		Type:    nodeType,
		widgets: widgets,
		canvas:  canvas,
	}
}

// Widget finds a widget by name
func (n *Node) Widget(name string) (Widget, bool) {
	for _, w := range n.widgets {
		if w.Name() == name {
			return w, true
		}
	}
	return nil, false
}

// Combo finds a combo widget by name
func (n *Node) Combo(name string) (*ComboWidget, bool) {
	w, ok := n.Widget(name)
	if !ok {
		return nil, false
	}
	combo, ok := w.(*ComboWidget)
	return combo, ok
}

// Button finds a button widget by name
func (n *Node) Button(name string) (*ButtonWidget, bool) {
	w, ok := n.Widget(name)
	if !ok {
		return nil, false
	}
	button, ok := w.(*ButtonWidget)
	return button, ok
}

// SetOutput replaces the node's display state
func (n *Node) SetOutput(out Output) {
	n.mu.Lock()
	n.output = &Output{
		Images:   slices.Clone(out.Images),
		Animated: slices.Clone(out.Animated),
	}
	n.mu.Unlock()
}

// Output returns the node's display state, if any
func (n *Node) Output() (Output, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.output == nil {
		return Output{}, false
	}
	return Output{
		Images:   slices.Clone(n.output.Images),
		Animated: slices.Clone(n.output.Animated),
	}, true
}

// RequestRedraw marks the canvas dirty
func (n *Node) RequestRedraw() {
	if n.canvas != nil {
		n.canvas.SetDirty()
	}
}

// SetDragHandlers installs the drag-over and drop handlers
func (n *Node) SetDragHandlers(over, drop func(DataTransfer) bool) {
	n.mu.Lock()
	n.dragOver, n.dragDrop = over, drop
	n.mu.Unlock()
}

// SetPasteHandler installs the paste handler
func (n *Node) SetPasteHandler(paste func([]File) bool) {
	n.mu.Lock()
	n.paste = paste
	n.mu.Unlock()
}

// DragOver reports whether the node would accept the dragged payload
func (n *Node) DragOver(dt DataTransfer) bool {
	n.mu.Lock()
	fn := n.dragOver
	n.mu.Unlock()
	return fn != nil && fn(dt)
}

// DragDrop delivers a drop. A false return leaves default handling to the host.
func (n *Node) DragDrop(dt DataTransfer) bool {
	n.mu.Lock()
	fn := n.dragDrop
	n.mu.Unlock()
	return fn != nil && fn(dt)
}

// Paste delivers pasted files. A false return leaves default handling to the host.
func (n *Node) Paste(files []File) bool {
	n.mu.Lock()
	fn := n.paste
	n.mu.Unlock()
	return fn != nil && fn(files)
}
