package extension

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/adapters"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/notify"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/preview"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/upload"
)

// UploadExtensionName identifies the upload extension
const UploadExtensionName = "comfy.s3io.upload"

// SelectorFactory creates the file-selection control for one node
type SelectorFactory func(node *editor.Node, target upload.Target) adapters.FileSelector

// Binding is everything attached to one node instance
type Binding struct {
	Node     *editor.Node
	Combo    *editor.ComboWidget
	Pipeline *upload.Pipeline
	Uploads  *adapters.PipelineHandler
	Preview  *preview.Controller
	Picker   *adapters.FilePicker
	DragDrop *adapters.DragDrop
	Paste    *adapters.Paste
}

// Wait blocks until the node's uploads and preview fetches have settled
func (b *Binding) Wait() {
	b.Uploads.Wait()
	if b.Preview != nil {
		b.Preview.Wait()
	}
}

// UploadExtension wires uploads, previews and file interactions into every
// node of a configured kind.
type UploadExtension struct {
	ctx         context.Context
	nodes       map[string]UploadNode
	uploader    upload.Uploader
	fetcher     preview.Fetcher
	notifier    notify.Notifier
	newSelector SelectorFactory

	mu       sync.Mutex
	bindings map[string]*Binding
}

// NewUploadExtension creates the extension. A nil selector factory leaves the
// upload button without a picker.
func NewUploadExtension(ctx context.Context, cfg Config, uploader upload.Uploader, fetcher preview.Fetcher, notifier notify.Notifier, newSelector SelectorFactory) *UploadExtension {
	if ctx == nil {
		ctx = context.Background()
	}
	return &UploadExtension{
		ctx:         ctx,
		nodes:       cfg.Upload,
		uploader:    uploader,
		fetcher:     fetcher,
		notifier:    notifier,
		newSelector: newSelector,
		bindings:    make(map[string]*Binding),
	}
}

// Name implements editor.Extension
func (e *UploadExtension) Name() string {
	return UploadExtensionName
}

// BeforeRegisterNodeDef implements editor.Extension
func (e *UploadExtension) BeforeRegisterNodeDef(nodeType *editor.NodeType) {
	node, ok := e.nodes[nodeType.Def.Name]
	if !ok {
		return
	}
	allowBatch := node.Target.AllowBatch(nodeType.Def)

	nodeType.Created.Append(func(n *editor.Node) *editor.Node {
		e.attach(n, node, allowBatch)
		return n
	})
}

func (e *UploadExtension) attach(n *editor.Node, cfg UploadNode, allowBatch bool) {
	log := logrus.WithFields(logrus.Fields{"node": n.ID, "type": n.Type})

	combo, ok := n.Combo(cfg.Target.InputName)
	if !ok {
		log.Debugf("No %s combo, skipping upload wiring", cfg.Target.InputName)
		return
	}
	button, ok := n.Button(editor.UploadWidgetName)
	if !ok {
		log.Debug("No upload button, skipping upload wiring")
		return
	}

	b := &Binding{Node: n, Combo: combo}

	if cfg.PreviewRoute != "" {
		b.Preview = preview.NewController(e.ctx, cfg.PreviewRoute, e.fetcher, n, e.notifier)
		b.Preview.Attach(combo)
	}

	filter := cfg.Target.Filter()
	b.Pipeline = upload.NewPipeline(cfg.Target, allowBatch, e.uploader, n, combo, e.notifier)
	b.Uploads = adapters.NewPipelineHandler(e.ctx, b.Pipeline)

	if e.newSelector != nil {
		if selector := e.newSelector(n, cfg.Target); selector != nil {
			b.Picker = adapters.NewFilePicker(selector, cfg.Target.Accept, allowBatch, filter, b.Uploads)
			button.SetOnClick(func() {
				if err := b.Picker.OpenFileSelection(); err != nil {
					log.Warnf("Failed to open file selection: %v", err)
				}
			})
		}
	}

	b.DragDrop = adapters.NewDragDrop(filter, b.Uploads)
	n.SetDragHandlers(b.DragDrop.OnDragOver, b.DragDrop.OnDragDrop)

	b.Paste = adapters.NewPaste(filter, allowBatch, b.Uploads)
	n.SetPasteHandler(b.Paste.PasteFiles)

	n.Removed.Append(func(n *editor.Node) *editor.Node {
		if b.Picker != nil {
			b.Picker.Cleanup()
		}
		e.mu.Lock()
		delete(e.bindings, n.ID)
		e.mu.Unlock()
		return n
	})

	e.mu.Lock()
	e.bindings[n.ID] = b
	e.mu.Unlock()

	log.Debugf("Upload wiring attached (batch=%t, preview=%q)", allowBatch, cfg.PreviewRoute)
}

// Binding returns what is attached to a live node
func (e *UploadExtension) Binding(nodeID string) (*Binding, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bindings[nodeID]
	return b, ok
}
