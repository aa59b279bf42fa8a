// Package devserver is a local-disk backend implementing the upload, preview
// and retrieval routes the extension talks to. It is used for local runs and
// integration tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// Asset types, matching the type field of output entries
const (
	TypeInput  = "input"
	TypeOutput = "output"
	TypeTemp   = "temp"
)

// PreviewDir is where previews are staged under the temp directory
const PreviewDir = "s3-io/preview"

const defaultHashCacheSize = 256

// Options configures a Server
type Options struct {
	Root          string
	HashCacheSize int
}

// Server serves the backend routes from a directory tree with input, output
// and temp subdirectories.
type Server struct {
	dirs   map[string]string
	hashes *lru.Cache[string, string]
	router http.Handler

	// store serializes name resolution and writes of uploaded inputs
	store sync.Mutex
}

// NewServer creates the directory layout under opts.Root and the router
func NewServer(opts Options) (*Server, error) {
	if opts.Root == "" {
		return nil, errors.New("root directory is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	dirs := map[string]string{
		TypeInput:  filepath.Join(root, TypeInput),
		TypeOutput: filepath.Join(root, TypeOutput),
		TypeTemp:   filepath.Join(root, TypeTemp),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	size := opts.HashCacheSize
	if size <= 0 {
		size = defaultHashCacheSize
	}
	hashes, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash cache: %w", err)
	}

	s := &Server{dirs: dirs, hashes: hashes}
	s.router = s.SetupRoutes()
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Dir returns the directory backing an asset type
func (s *Server) Dir(assetType string) string {
	return s.dirs[assetType]
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Dev server listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logrus.Info("Shutting down dev server")
		return srv.Shutdown(shutdownCtx)
	}
}
