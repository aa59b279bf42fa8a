package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/devserver"
)

var (
	serveAddr string
	serveRoot string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local development backend",
	Long: `Serve the upload, preview and view routes from a local directory tree with
input, output and temp subdirectories.

Examples:
  s3io serve                              # Serve ./s3io-data on 127.0.0.1:8188
  s3io serve --addr :9000 --root /srv/s3io`,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveRoot, "root", "", "data directory (overrides config)")
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	addr := cfg.DevServer.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	root := cfg.DevServer.Root
	if serveRoot != "" {
		root = serveRoot
	}

	srv, err := devserver.NewServer(devserver.Options{
		Root:          root,
		HashCacheSize: cfg.DevServer.HashCacheSize,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Infof("Serving %s on %s", root, addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
