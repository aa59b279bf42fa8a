// Package extension registers the upload and download behaviors with an
// editor host.
package extension

import (
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/config"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/upload"
)

// UploadNode is the upload and preview setup of one node kind
type UploadNode struct {
	Target       upload.Target
	PreviewRoute string
}

// Config maps node kinds to the behaviors attached to them
type Config struct {
	Upload        map[string]UploadNode
	DownloadKinds []string
}

// FromSettings builds the mapping from loaded configuration
func FromSettings(nodes config.NodesConfig) Config {
	cfg := Config{
		Upload:        make(map[string]UploadNode, len(nodes.Upload)),
		DownloadKinds: append([]string(nil), nodes.Download...),
	}
	for _, n := range nodes.Upload {
		cfg.Upload[n.Kind] = UploadNode{
			Target: upload.Target{
				NodeKind:            n.Kind,
				InputName:           n.Input,
				Accept:              append([]string(nil), n.Accept...),
				Endpoint:            n.Endpoint,
				FormField:           n.Field,
				Media:               upload.Media(n.Media),
				AllowBatchFromInput: n.AllowBatch,
			},
			PreviewRoute: n.PreviewRoute,
		}
	}
	return cfg
}

// DefaultConfig is the mapping of the built-in node table
func DefaultConfig() Config {
	return FromSettings(config.NodesConfig{
		Upload:   config.DefaultUploadNodes(),
		Download: []string{"SaveImageS3", "VideoCombineS3"},
	})
}
