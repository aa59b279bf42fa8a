package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/progress"
)

var (
	uploadNode       string
	uploadPasted     bool
	uploadNoProgress bool
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file-path>...",
	Short: "Upload files to an upload node",
	Long: `Upload local files the way a drop onto the node would: files the node does
not accept are skipped, and nodes without batch support take only the first.
The stored paths are printed one per line.

Examples:
  s3io upload image.jpg                          # Upload to LoadImageS3
  s3io upload *.png                              # Batch upload
  s3io upload clip.mp4 --node LoadVideoUploadS3  # Upload a video
  s3io upload shot.png --pasted                  # Upload as a paste (into pasted/)
  s3io upload big.png --no-progress              # Upload without progress bar`,
	Args: cobra.MinimumNArgs(1),
	RunE: uploadFiles,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadNode, "node", "n", "", "upload node kind (default is the first configured)")
	uploadCmd.Flags().BoolVar(&uploadPasted, "pasted", false, "upload as pasted files")
	uploadCmd.Flags().BoolVar(&uploadNoProgress, "no-progress", false, "disable progress bar")
}

func uploadFiles(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	kind := uploadNode
	if kind == "" {
		kind = defaultUploadKind(cfg)
	}

	files := make([]editor.File, 0, len(args))
	for _, path := range args {
		f, err := editor.FileFromPath(path)
		if err != nil {
			return err
		}
		if !uploadNoProgress && !quiet {
			f = progress.WrapFile(f, os.Stderr)
		}
		files = append(files, f)
	}

	s := newSession(cmd.Context(), cfg, nil, nil)
	node, b, err := s.uploadNode(kind)
	if err != nil {
		return err
	}
	if len(files) > 1 && !b.Pipeline.AllowBatch() {
		logrus.Warnf("%s takes a single file, only %s will be uploaded", kind, files[0].Name)
	}

	var accepted bool
	if uploadPasted {
		accepted = node.Paste(files)
	} else {
		accepted = node.DragDrop(editor.DataTransfer{
			Items: fileItems(files),
			Files: files,
		})
	}
	if !accepted {
		return fmt.Errorf("%s accepts none of the given files", kind)
	}
	b.Wait()

	values := b.Combo.Value()
	if len(values) == 0 {
		return fmt.Errorf("upload failed")
	}
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func fileItems(files []editor.File) []editor.DataTransferItem {
	items := make([]editor.DataTransferItem, len(files))
	for i, f := range files {
		items[i] = editor.DataTransferItem{Kind: "file", Type: f.MediaType}
	}
	return items
}
