package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/notify"
)

// Options modifies one upload batch
type Options struct {
	IsPasted bool
}

// Pipeline uploads file batches for one node and commits the results to the
// node's combo widget.
type Pipeline struct {
	target     Target
	allowBatch bool
	uploader   Uploader
	node       *editor.Node
	combo      *editor.ComboWidget
	notifier   notify.Notifier
}

// NewPipeline creates a pipeline bound to node and its combo widget
func NewPipeline(target Target, allowBatch bool, uploader Uploader, node *editor.Node, combo *editor.ComboWidget, notifier notify.Notifier) *Pipeline {
	if notifier == nil {
		notifier = notify.NewToaster(nil)
	}
	return &Pipeline{
		target:     target,
		allowBatch: allowBatch,
		uploader:   uploader,
		node:       node,
		combo:      combo,
		notifier:   notifier,
	}
}

// AllowBatch reports whether the pipeline takes more than one file per batch
func (p *Pipeline) AllowBatch() bool {
	return p.allowBatch
}

// UploadBatch uploads files concurrently and, once all have settled, adds
// every successful path to the combo and selects them. Extra files are
// dropped when batching is off. Failed files are reported and skipped; if none
// succeed the widget is left alone. The committed paths are returned in input
// order.
func (p *Pipeline) UploadBatch(ctx context.Context, files []editor.File, opts Options) []string {
	batch := files
	if !p.allowBatch && len(batch) > 1 {
		batch = batch[:1]
	}
	if len(batch) == 0 {
		return nil
	}

	log := logrus.WithFields(logrus.Fields{"node": p.node.ID, "input": p.target.InputName})
	log.Debugf("Uploading batch of %d file(s), pasted=%t", len(batch), opts.IsPasted)

	paths := make([]string, len(batch))
	var g errgroup.Group
	for i, file := range batch {
		g.Go(func() error {
			paths[i] = p.uploadOne(ctx, file, opts)
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if path != "" {
			valid = append(valid, path)
		}
	}
	if len(valid) == 0 {
		log.Warn("No file in the batch was uploaded")
		return nil
	}

	for _, path := range valid {
		p.combo.AddValue(path)
	}

	selection := editor.Selection(valid)
	if !p.allowBatch {
		selection = selection[:1]
	}
	p.combo.Select(selection)
	p.node.RequestRedraw()

	log.Infof("Committed %d uploaded file(s)", len(valid))
	return valid
}

func (p *Pipeline) uploadOne(ctx context.Context, file editor.File, opts Options) string {
	result, err := p.uploader.Upload(ctx, p.target.Endpoint, p.target.FormField, file, opts)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			p.notifier.Notify("Upload failed", fmt.Sprintf("%s: %s", file.Name, statusErr.Error()), notify.SeverityError)
		} else {
			p.notifier.Notify("Upload failed", fmt.Sprintf("%s: %v", file.Name, err), notify.SeverityError)
		}
		logrus.WithField("file", file.Name).Warnf("Upload failed: %v", err)
		return ""
	}
	return result.RelativePath()
}
