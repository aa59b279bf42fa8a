package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/config"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/download"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/extension"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/notify"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/preview"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/upload"
)

// session is a headless editor with the extensions registered against the
// configured backend.
type session struct {
	cfg  *config.Config
	host *editor.Host
	exts *extension.Extensions
}

func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: time.Duration(cfg.Server.Timeout) * time.Second}
}

func newNotifier() notify.Notifier {
	if quiet {
		return notify.NewToaster(notify.LogSink{})
	}
	return notify.NewToaster(notify.NewTerminalSink(os.Stderr))
}

func newSession(ctx context.Context, cfg *config.Config, requester download.Requester, newSelector extension.SelectorFactory) *session {
	client := newHTTPClient(cfg)
	host := editor.NewHost(nil)
	exts := extension.Register(host, extension.FromSettings(cfg.Nodes), extension.Deps{
		Context:     ctx,
		Origin:      cfg.Server.BaseURL,
		Uploader:    upload.NewHTTPUploader(client, cfg.Server.BaseURL),
		Fetcher:     preview.NewHTTPFetcher(client, cfg.Server.BaseURL),
		Requester:   requester,
		Notifier:    newNotifier(),
		NewSelector: newSelector,
	})

	for _, n := range cfg.Nodes.Upload {
		host.RegisterNodeDef(uploadNodeDef(n))
	}
	for _, kind := range cfg.Nodes.Download {
		host.RegisterNodeDef(editor.NodeDef{Name: kind})
	}
	return &session{cfg: cfg, host: host, exts: exts}
}

// uploadNodeDef is the definition the backend would send for an upload node:
// one combo input flagged for uploads.
func uploadNodeDef(n config.UploadNodeConfig) editor.NodeDef {
	option := editor.OptionImageUpload
	if n.Media == string(upload.MediaVideo) {
		option = editor.OptionVideoUpload
	}
	options := map[string]any{editor.OptionAllowBatch: n.AllowBatch}
	options[option] = true
	return editor.NodeDef{
		Name: n.Kind,
		Required: []editor.InputSpec{{
			Name:    n.Input,
			Values:  []string{},
			Options: options,
		}},
	}
}

// uploadNode creates a node of an upload kind and returns its binding
func (s *session) uploadNode(kind string) (*editor.Node, *extension.Binding, error) {
	if !slices.ContainsFunc(s.cfg.Nodes.Upload, func(n config.UploadNodeConfig) bool { return n.Kind == kind }) {
		return nil, nil, fmt.Errorf("%s is not a configured upload node", kind)
	}
	node, err := s.host.CreateNode(kind)
	if err != nil {
		return nil, nil, err
	}
	b, ok := s.exts.Upload.Binding(node.ID)
	if !ok {
		return nil, nil, fmt.Errorf("no upload wiring for %s", kind)
	}
	return node, b, nil
}

func defaultUploadKind(cfg *config.Config) string {
	if len(cfg.Nodes.Upload) == 0 {
		return ""
	}
	return cfg.Nodes.Upload[0].Kind
}
