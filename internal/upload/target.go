// Package upload turns selected, dropped or pasted files into uploads against
// the backend and folds the results into a node's combo widget.
package upload

import (
	"strings"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
)

// Media is the kind of file an upload target takes
type Media string

const (
	MediaImage Media = "image"
	MediaVideo Media = "video"
)

// PastedSubfolder is the subfolder hint sent with pasted files.
const PastedSubfolder = "pasted"

// Target is the static upload description of one node kind.
type Target struct {
	NodeKind            string
	InputName           string
	Accept              []string
	Endpoint            string
	FormField           string
	Media               Media
	AllowBatchFromInput bool
}

// AllowBatch reports whether this node type takes several files at once. Only
// targets that opt in honor the input's allow_batch option.
func (t Target) AllowBatch(def editor.NodeDef) bool {
	if !t.AllowBatchFromInput {
		return false
	}
	in, ok := def.Input(t.InputName)
	return ok && in.BoolOption(editor.OptionAllowBatch)
}

// Filter returns the file filter for the target's media kind. Targets without
// an explicit kind are classified by their endpoint.
func (t Target) Filter() FileFilter {
	switch {
	case t.Media == MediaVideo:
		return VideoFilter
	case t.Media == "" && strings.Contains(t.Endpoint, "/video"):
		return VideoFilter
	default:
		return ImageFilter
	}
}

// FileFilter decides whether a file may be uploaded
type FileFilter func(editor.File) bool

// ImageFilter accepts any image/* file
func ImageFilter(f editor.File) bool {
	return media.IsImageType(f.MediaType)
}

// VideoFilter accepts video/* files and GIFs
func VideoFilter(f editor.File) bool {
	return media.IsVideoType(f.MediaType)
}

// Apply returns the files accepted by the filter, keeping their order. A nil
// filter accepts everything.
func (ff FileFilter) Apply(files []editor.File) []editor.File {
	out := make([]editor.File, 0, len(files))
	for _, f := range files {
		if ff == nil || ff(f) {
			out = append(out, f)
		}
	}
	return out
}
