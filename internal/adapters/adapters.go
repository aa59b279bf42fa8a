// Package adapters turns the editor's file interactions (the picker, drag and
// drop, clipboard paste) into upload batches.
package adapters

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/async"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/upload"
)

// ErrReleased is returned when a released picker is asked to open
var ErrReleased = errors.New("file selector released")

// BatchHandler receives filtered, non-empty file batches
type BatchHandler interface {
	HandleUploadBatch(files []editor.File, opts upload.Options)
}

// BatchHandlerFunc adapts a function to BatchHandler
type BatchHandlerFunc func(files []editor.File, opts upload.Options)

func (f BatchHandlerFunc) HandleUploadBatch(files []editor.File, opts upload.Options) {
	f(files, opts)
}

// PipelineHandler runs each batch through a pipeline in a detached task so
// the interaction that produced it returns immediately.
type PipelineHandler struct {
	ctx      context.Context
	pipeline *upload.Pipeline
	tasks    async.Group
}

// NewPipelineHandler creates a handler uploading through pipeline
func NewPipelineHandler(ctx context.Context, pipeline *upload.Pipeline) *PipelineHandler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PipelineHandler{ctx: ctx, pipeline: pipeline}
}

// HandleUploadBatch implements BatchHandler
func (h *PipelineHandler) HandleUploadBatch(files []editor.File, opts upload.Options) {
	h.tasks.Go("upload", func() {
		h.pipeline.UploadBatch(h.ctx, files, opts)
	})
}

// Wait blocks until every started batch has settled
func (h *PipelineHandler) Wait() {
	h.tasks.Wait()
}

// FileSelector is a file-selection control: a native dialog, a terminal
// picker or a test double.
type FileSelector interface {
	SetAccept(accept []string)
	SetMultiple(multiple bool)
	// OnChange installs the handler for a completed selection; nil detaches it.
	OnChange(fn func([]editor.File))
	Open() error
	Release()
}

// FilePicker owns one FileSelector for the lifetime of a node.
type FilePicker struct {
	selector FileSelector
	filter   upload.FileFilter
	handler  BatchHandler

	once     sync.Once
	mu       sync.Mutex
	released bool
}

// NewFilePicker configures selector with the accept list and multiple flag
// and routes its selections to handler.
func NewFilePicker(selector FileSelector, accept []string, multiple bool, filter upload.FileFilter, handler BatchHandler) *FilePicker {
	p := &FilePicker{selector: selector, filter: filter, handler: handler}
	selector.SetAccept(accept)
	selector.SetMultiple(multiple)
	selector.OnChange(p.onChange)
	return p
}

// OpenFileSelection opens the selector
func (p *FilePicker) OpenFileSelection() error {
	p.mu.Lock()
	released := p.released
	p.mu.Unlock()
	if released {
		return ErrReleased
	}
	return p.selector.Open()
}

func (p *FilePicker) onChange(files []editor.File) {
	accepted := p.filter.Apply(files)
	if len(accepted) == 0 {
		logrus.Debugf("Ignoring selection of %d file(s), none accepted", len(files))
		return
	}
	p.handler.HandleUploadBatch(accepted, upload.Options{})
}

// Cleanup detaches the change handler and releases the selector. Calls after
// the first do nothing.
func (p *FilePicker) Cleanup() {
	p.once.Do(func() {
		p.mu.Lock()
		p.released = true
		p.mu.Unlock()

		p.selector.OnChange(nil)
		p.selector.Release()
	})
}

// DragDrop handles files dragged onto a node
type DragDrop struct {
	filter  upload.FileFilter
	handler BatchHandler
}

// NewDragDrop creates a drag-and-drop adapter
func NewDragDrop(filter upload.FileFilter, handler BatchHandler) *DragDrop {
	return &DragDrop{filter: filter, handler: handler}
}

// OnDragOver reports whether the payload carries at least one file
func (d *DragDrop) OnDragOver(dt editor.DataTransfer) bool {
	for _, item := range dt.Items {
		if item.Kind == "file" {
			return true
		}
	}
	return false
}

// OnDragDrop forwards the accepted files and reports whether any were taken
func (d *DragDrop) OnDragDrop(dt editor.DataTransfer) bool {
	accepted := d.filter.Apply(dt.Files)
	if len(accepted) == 0 {
		return false
	}
	d.handler.HandleUploadBatch(accepted, upload.Options{})
	return true
}

// Paste handles files pasted while a node is selected
type Paste struct {
	filter     upload.FileFilter
	allowBatch bool
	handler    BatchHandler
}

// NewPaste creates a paste adapter
func NewPaste(filter upload.FileFilter, allowBatch bool, handler BatchHandler) *Paste {
	return &Paste{filter: filter, allowBatch: allowBatch, handler: handler}
}

// PasteFiles forwards the accepted files as a pasted batch, keeping only the
// first unless batching is on.
func (p *Paste) PasteFiles(files []editor.File) bool {
	accepted := p.filter.Apply(files)
	if len(accepted) == 0 {
		return false
	}
	if !p.allowBatch {
		accepted = accepted[:1]
	}
	p.handler.HandleUploadBatch(accepted, upload.Options{IsPasted: true})
	return true
}
