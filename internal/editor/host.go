package editor

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Option keys the node definitions use on combo inputs.
const (
	OptionImageUpload = "image_upload"
	OptionVideoUpload = "video_upload"
	OptionAllowBatch  = "allow_batch"

	// UploadWidgetName is the button added next to upload-capable combos.
	UploadWidgetName = "upload"
)

// InputSpec is one required input of a node definition
type InputSpec struct {
	Name    string
	Values  []string
	Options map[string]any
}

// BoolOption reads a boolean option, treating anything else as false
func (s InputSpec) BoolOption(key string) bool {
	v, ok := s.Options[key].(bool)
	return ok && v
}

// NodeDef is the server-provided definition of a node type
type NodeDef struct {
	Name     string
	Required []InputSpec
}

// Input finds a required input by name
func (d NodeDef) Input(name string) (InputSpec, bool) {
	for _, in := range d.Required {
		if in.Name == name {
			return in, true
		}
	}
	return InputSpec{}, false
}

// Execution is passed along the Executed chain
type Execution struct {
	Node   *Node
	Result ExecutionResult
}

// NodeType is a registered node definition with its lifecycle chains
type NodeType struct {
	Def NodeDef

	Created  Chain[*Node]
	Executed Chain[Execution]
}

// Extension hooks into node type registration
type Extension interface {
	Name() string
	BeforeRegisterNodeDef(nodeType *NodeType)
}

// Host is a headless stand-in for the editor: it owns node types, node
// instances and the canvas.
type Host struct {
	canvas Canvas

	mu         sync.Mutex
	extensions []Extension
	types      map[string]*NodeType
	nodes      map[string]*Node
}

// NewHost creates an empty host
func NewHost(canvas Canvas) *Host {
	return &Host{
		canvas: canvas,
		types:  make(map[string]*NodeType),
		nodes:  make(map[string]*Node),
	}
}

// RegisterExtension adds ext and applies it to node types already registered.
func (h *Host) RegisterExtension(ext Extension) {
	h.mu.Lock()
	h.extensions = append(h.extensions, ext)
	existing := make([]*NodeType, 0, len(h.types))
	for _, nt := range h.types {
		existing = append(existing, nt)
	}
	h.mu.Unlock()

	logrus.Debugf("Registered extension %s", ext.Name())
	for _, nt := range existing {
		ext.BeforeRegisterNodeDef(nt)
	}
}

// RegisterNodeDef registers a node type, giving every extension a chance to
// hook into it first.
func (h *Host) RegisterNodeDef(def NodeDef) *NodeType {
	nt := &NodeType{Def: def}

	h.mu.Lock()
	exts := append([]Extension(nil), h.extensions...)
	h.mu.Unlock()

	for _, ext := range exts {
		ext.BeforeRegisterNodeDef(nt)
	}

	h.mu.Lock()
	h.types[def.Name] = nt
	h.mu.Unlock()
	return nt
}

// CreateNode instantiates a registered node type. Combo inputs become combo
// widgets selecting their first value; upload-capable combos also get an
// upload button.
func (h *Host) CreateNode(typeName string) (*Node, error) {
	h.mu.Lock()
	nt, ok := h.types[typeName]
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", typeName)
	}

	var widgets []Widget
	for _, in := range nt.Def.Required {
		if in.Values == nil {
			continue
		}
		var initial Selection
		if len(in.Values) > 0 {
			initial = Selection{in.Values[0]}
		}
		widgets = append(widgets, NewComboWidget(in.Name, in.Values, initial))
		if in.BoolOption(OptionImageUpload) || in.BoolOption(OptionVideoUpload) {
			widgets = append(widgets, NewButtonWidget(UploadWidgetName))
		}
	}

	node := NewNode(typeName, h.canvas, widgets...)
	h.mu.Lock()
	h.nodes[node.ID] = node
	h.mu.Unlock()

	nt.Created.Run(node)
	logrus.WithField("node", node.ID).Debugf("Created node %s", typeName)
	return node, nil
}

// Node looks up a live node
func (h *Host) Node(id string) (*Node, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[id]
	return n, ok
}

// RemoveNode drops a node from the graph and runs its Removed chain once.
func (h *Host) RemoveNode(node *Node) {
	h.mu.Lock()
	_, ok := h.nodes[node.ID]
	delete(h.nodes, node.ID)
	h.mu.Unlock()

	if ok {
		node.Removed.Run(node)
	}
}

// NodeExecuted delivers an execution result to the node type's Executed chain.
func (h *Host) NodeExecuted(node *Node, result ExecutionResult) {
	h.mu.Lock()
	nt, ok := h.types[node.Type]
	h.mu.Unlock()
	if !ok {
		return
	}
	nt.Executed.Run(Execution{Node: node, Result: result})
}
