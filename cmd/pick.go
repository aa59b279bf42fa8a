package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/adapters"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/config"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/tui"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/upload"
)

var (
	pickNode string
	pickDir  string
)

// pickCmd represents the pick command
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick files in a terminal file picker and upload them",
	Long: `Open a terminal file picker for an upload node, as its upload button would,
and upload the chosen files. The picker starts in the directory of the last
pick unless --dir is given.

Examples:
  s3io pick                              # Pick images for LoadImageS3
  s3io pick --node LoadVideoUploadS3     # Pick a video
  s3io pick --dir ~/renders`,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
	addPickFlags(pickCmd)
}

func addPickFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&pickNode, "node", "n", "", "upload node kind (default is the last used)")
	cmd.Flags().StringVarP(&pickDir, "dir", "d", "", "directory to start in")
}

func runPick(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	userData, err := config.LoadUserData()
	if err != nil {
		logrus.Warnf("Failed to load user data: %v", err)
	}

	kind := pickNode
	if kind == "" {
		kind = userData.LastNode
	}
	if kind == "" {
		kind = defaultUploadKind(cfg)
	}
	dir := pickDir
	if dir == "" {
		dir = userData.LastPickDir
	}

	var selector *tui.Selector
	newSelector := func(n *editor.Node, target upload.Target) adapters.FileSelector {
		selector = tui.NewSelector(fmt.Sprintf("Upload to %s", target.NodeKind), dir, tea.WithAltScreen())
		return selector
	}

	s := newSession(cmd.Context(), cfg, nil, newSelector)
	node, b, err := s.uploadNode(kind)
	if err != nil {
		return err
	}
	defer s.host.RemoveNode(node)

	button, ok := node.Button(editor.UploadWidgetName)
	if !ok || selector == nil {
		return fmt.Errorf("%s has no upload button", kind)
	}
	// blocks while the picker is shown
	button.Click()
	b.Wait()

	if err := userData.SetLastPick(selector.Dir(), kind); err != nil {
		logrus.Warnf("Failed to save user data: %v", err)
	}

	for _, v := range b.Combo.Value() {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}
