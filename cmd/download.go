package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/config"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/download"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/r2"
)

var (
	downloadNode       string
	downloadSink       string
	downloadDir        string
	downloadThumbnails bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [result.json]",
	Short: "Download the outputs of a node execution",
	Long: `Read a node execution result (JSON with downloads, images and gifs lists)
from a file or stdin and download every output once. Outputs are written to a
local directory or copied into the configured bucket.

Examples:
  s3io download result.json                    # Save under download.dir
  s3io download result.json --dir ./out        # Save under ./out
  s3io download result.json --sink bucket      # Copy into the bucket
  cat result.json | s3io download --thumbnails`,
	Args: cobra.MaximumNArgs(1),
	RunE: downloadOutputs,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadNode, "node", "n", "", "output node kind (default is the first configured)")
	downloadCmd.Flags().StringVarP(&downloadSink, "sink", "s", "", "where outputs go: disk, bucket or none (overrides config)")
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "download directory (overrides config)")
	downloadCmd.Flags().BoolVar(&downloadThumbnails, "thumbnails", false, "also write JPEG thumbnails")
}

func downloadOutputs(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// CLI flag > config
	dl := cfg.Download
	if downloadSink != "" {
		dl.Sink = downloadSink
	}
	if downloadDir != "" {
		dl.Dir = downloadDir
	}
	if cmd.Flags().Changed("thumbnails") {
		dl.Thumbnails = downloadThumbnails
	}

	kind := downloadNode
	if kind == "" && len(cfg.Nodes.Download) > 0 {
		kind = cfg.Nodes.Download[0]
	}

	result, err := readExecutionResult(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	sink, err := newSink(cmd.Context(), cfg, dl)
	if err != nil {
		return err
	}

	var (
		mu            sync.Mutex
		saved, failed int
		requester     download.Requester
	)
	if sink != nil {
		requester = download.RequesterFunc(func(ctx context.Context, req download.Request) error {
			err := sink.RequestDownload(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return err
			}
			saved++
			fmt.Fprintln(cmd.OutOrStdout(), req.RelativePath)
			return nil
		})
	}

	s := newSession(cmd.Context(), cfg, requester, nil)
	node, err := s.host.CreateNode(kind)
	if err != nil {
		return err
	}
	s.host.NodeExecuted(node, result)
	s.exts.Download.Wait()

	logrus.Infof("Downloaded %d output(s), %d failed", saved, failed)
	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}

func readExecutionResult(stdin io.Reader, args []string) (editor.ExecutionResult, error) {
	var result editor.ExecutionResult

	in := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return result, fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	if err := json.NewDecoder(in).Decode(&result); err != nil {
		return result, fmt.Errorf("failed to parse execution result: %w", err)
	}
	return result, nil
}

// newSink builds the configured download target; the none sink is nil
func newSink(ctx context.Context, cfg *config.Config, dl config.DownloadConfig) (download.Requester, error) {
	client := newHTTPClient(cfg)

	switch strings.ToLower(dl.Sink) {
	case config.SinkDisk:
		return download.NewDiskSink(client, dl.Dir, dl.Thumbnails), nil
	case config.SinkBucket:
		storage, err := r2.NewClient(ctx, &cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return download.NewBucketSink(client, storage, download.BucketOptions{
			Prefix:      cfg.Storage.OutputPrefix,
			ThumbPrefix: cfg.Storage.ThumbPrefix,
			Thumbnails:  dl.Thumbnails,
		})
	case config.SinkNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid sink: %s (valid: disk, bucket, none)", dl.Sink)
	}
}
