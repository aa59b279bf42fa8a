package extension

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/download"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
)

// DownloadExtensionName identifies the download extension
const DownloadExtensionName = "comfy.s3io.download"

// DownloadExtension requests downloads for the outputs of configured nodes
type DownloadExtension struct {
	kinds      []string
	dispatcher *download.Dispatcher
}

// NewDownloadExtension creates the extension
func NewDownloadExtension(cfg Config, dispatcher *download.Dispatcher) *DownloadExtension {
	return &DownloadExtension{kinds: cfg.DownloadKinds, dispatcher: dispatcher}
}

// Name implements editor.Extension
func (e *DownloadExtension) Name() string {
	return DownloadExtensionName
}

// BeforeRegisterNodeDef implements editor.Extension
func (e *DownloadExtension) BeforeRegisterNodeDef(nodeType *editor.NodeType) {
	if !slices.Contains(e.kinds, nodeType.Def.Name) {
		return
	}
	nodeType.Executed.Append(func(ex editor.Execution) editor.Execution {
		e.dispatch(ex)
		return ex
	})
}

func (e *DownloadExtension) dispatch(ex editor.Execution) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("Download hook failed: %v", r)
		}
	}()
	e.dispatcher.Dispatch(ex.Result)
}

// Wait blocks until every requested download has finished
func (e *DownloadExtension) Wait() {
	e.dispatcher.Wait()
}
