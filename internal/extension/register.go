package extension

import (
	"context"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/download"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/notify"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/preview"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/upload"
)

// Deps are the collaborators the extensions talk to
type Deps struct {
	Context     context.Context
	Origin      string
	Uploader    upload.Uploader
	Fetcher     preview.Fetcher
	Requester   download.Requester
	Notifier    notify.Notifier
	NewSelector SelectorFactory
}

// Extensions are the registered extensions
type Extensions struct {
	Upload   *UploadExtension
	Download *DownloadExtension
}

// Register creates both extensions and registers them with host
func Register(host *editor.Host, cfg Config, deps Deps) *Extensions {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}

	up := NewUploadExtension(ctx, cfg, deps.Uploader, deps.Fetcher, deps.Notifier, deps.NewSelector)
	down := NewDownloadExtension(cfg, download.NewDispatcher(ctx, deps.Origin, deps.Requester, deps.Notifier))

	host.RegisterExtension(up)
	host.RegisterExtension(down)
	return &Extensions{Upload: up, Download: down}
}
