package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/assets"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/tui/termimage"
)

var (
	previewNode string
	previewShow bool
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Fetch the preview of an uploaded file",
	Long: `Select an uploaded file on an upload node and print the view URL of the
preview the backend prepares for it.

Examples:
  s3io preview cat.png
  s3io preview cat.png --show                  # Also draw it in the terminal
  s3io preview pasted/clip.mp4 --node LoadVideoUploadS3`,
	Args: cobra.ExactArgs(1),
	RunE: previewFile,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewNode, "node", "n", "", "upload node kind (default is the first configured)")
	previewCmd.Flags().BoolVar(&previewShow, "show", false, "draw image previews in the terminal")
}

func previewFile(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	kind := previewNode
	if kind == "" {
		kind = defaultUploadKind(cfg)
	}

	s := newSession(cmd.Context(), cfg, nil, nil)
	node, b, err := s.uploadNode(kind)
	if err != nil {
		return err
	}
	if b.Preview == nil {
		return fmt.Errorf("%s has no preview route", kind)
	}

	name := args[0]
	b.Combo.AddValue(name)
	b.Combo.Select(editor.Selection{name})
	b.Wait()

	out, ok := node.Output()
	if !ok || len(out.Images) == 0 {
		return fmt.Errorf("no preview available for %s", name)
	}
	renderer := termimage.NewRenderer()
	for _, entry := range out.Images {
		viewURL := assets.BuildViewURL(cfg.Server.BaseURL, entry.Filename, entry.Subfolder, entry.Type)
		fmt.Fprintln(cmd.OutOrStdout(), viewURL)

		if previewShow && media.GetFileCategory(media.TypeForPath(entry.Filename)) == media.CategoryImage {
			if err := showImage(cmd.Context(), newHTTPClient(cfg), viewURL, renderer, cmd.OutOrStdout()); err != nil {
				logrus.Warnf("Failed to show %s: %v", entry.Filename, err)
			}
		}
	}
	return nil
}

func showImage(ctx context.Context, client *http.Client, viewURL string, renderer *termimage.Renderer, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, viewURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	return renderer.Render(out, img)
}
