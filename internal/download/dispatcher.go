// Package download turns node execution results into download requests.
package download

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/assets"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/async"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/notify"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/pathsafe"
)

// DefaultType is assumed for entries that carry no type
const DefaultType = "output"

// Request asks for one asset to be fetched and stored under RelativePath
type Request struct {
	URL          string `json:"url"`
	RelativePath string `json:"relativePath"`
}

// Requester performs download requests
type Requester interface {
	RequestDownload(ctx context.Context, req Request) error
}

// RequesterFunc adapts a function to Requester
type RequesterFunc func(ctx context.Context, req Request) error

func (f RequesterFunc) RequestDownload(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Dispatcher issues one download request per unique output of an execution
type Dispatcher struct {
	ctx       context.Context
	origin    string
	requester Requester
	notifier  notify.Notifier

	tasks async.Group
}

// NewDispatcher creates a dispatcher building retrieval URLs against origin.
// A nil requester turns Dispatch into a no-op.
func NewDispatcher(ctx context.Context, origin string, requester Requester, notifier notify.Notifier) *Dispatcher {
	if ctx == nil {
		ctx = context.Background()
	}
	if notifier == nil {
		notifier = notify.NewToaster(nil)
	}
	return &Dispatcher{
		ctx:       ctx,
		origin:    origin,
		requester: requester,
		notifier:  notifier,
	}
}

// Dispatch requests a download for every entry of result. Entries come from
// downloads, images and gifs in that order; an entry with no filename is
// skipped, an unsafe path is reported and skipped, and repeats of the same
// type and path are dropped. It returns the requests it started.
func (d *Dispatcher) Dispatch(result editor.ExecutionResult) []Request {
	if d.requester == nil {
		return nil
	}

	entries := make([]editor.OutputEntry, 0, len(result.Downloads)+len(result.Images)+len(result.Gifs))
	entries = append(entries, result.Downloads...)
	entries = append(entries, result.Images...)
	entries = append(entries, result.Gifs...)

	seen := make(map[string]struct{}, len(entries))
	var started []Request
	for _, entry := range entries {
		if entry.Filename == "" {
			continue
		}

		rel, err := pathsafe.BuildRelativePath(entry.Subfolder, entry.Filename)
		if err != nil {
			logrus.WithField("filename", entry.Filename).Warnf("Skipping download: %v", err)
			d.notifier.Notify("Download skipped", "Invalid output path", notify.SeverityWarn)
			continue
		}

		typ := entry.Type
		if typ == "" {
			typ = DefaultType
		}
		key := typ + ":" + rel
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		req := Request{
			URL:          assets.BuildViewURL(d.origin, entry.Filename, entry.Subfolder, typ),
			RelativePath: rel,
		}
		started = append(started, req)

		filename := entry.Filename
		d.tasks.Go("download", func() {
			if err := d.requester.RequestDownload(d.ctx, req); err != nil {
				if errors.Is(err, context.Canceled) {
					logrus.Debugf("Download of %s cancelled", rel)
					return
				}
				logrus.WithField("path", rel).Warnf("Download failed: %v", err)
				d.notifier.Notify("Download failed", filename, notify.SeverityError)
			}
		})
	}

	logrus.Debugf("Dispatched %d download(s) from %d entries", len(started), len(entries))
	return started
}

// Wait blocks until every started download has finished
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
}
