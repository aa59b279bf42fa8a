package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/pathsafe"
)

// ThumbDir is the directory under the download root holding thumbnails
const ThumbDir = ".thumbs"

// DiskSink stores downloads under a local directory, keeping the relative
// path of each asset.
type DiskSink struct {
	client     *http.Client
	dir        string
	thumbnails bool

	// serializes name resolution so concurrent downloads never share a path
	mu sync.Mutex
}

// NewDiskSink creates a sink writing under dir
func NewDiskSink(client *http.Client, dir string, thumbnails bool) *DiskSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &DiskSink{client: client, dir: dir, thumbnails: thumbnails}
}

// RequestDownload implements Requester. It returns after the file is written.
func (s *DiskSink) RequestDownload(ctx context.Context, req Request) error {
	_, err := s.Save(ctx, req)
	return err
}

// Save downloads req and returns the local path it was written to
func (s *DiskSink) Save(ctx context.Context, req Request) (string, error) {
	body, _, err := fetch(ctx, s.client, req)
	if err != nil {
		return "", err
	}
	defer body.Close()

	target := filepath.Join(s.dir, filepath.FromSlash(req.RelativePath))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", &SinkError{Operation: "mkdir", Path: req.RelativePath, Err: err}
	}

	file, localPath, err := s.create(target)
	if err != nil {
		return "", &SinkError{Operation: "create", Path: req.RelativePath, Err: err}
	}

	var thumbSrc bytes.Buffer
	var w io.Writer = file
	wantThumb := s.thumbnails && media.IsImageType(media.TypeForPath(localPath))
	if wantThumb {
		w = io.MultiWriter(file, &thumbSrc)
	}

	if _, err := io.Copy(w, body); err != nil {
		file.Close()
		os.Remove(localPath)
		return "", &SinkError{Operation: "write", Path: req.RelativePath, Err: err}
	}
	if err := file.Close(); err != nil {
		return "", &SinkError{Operation: "write", Path: req.RelativePath, Err: err}
	}

	logrus.Infof("File downloaded successfully to: %s", localPath)

	if wantThumb {
		if err := s.writeThumbnail(localPath, &thumbSrc); err != nil {
			// the download itself succeeded
			logrus.Warnf("Failed to create thumbnail for %s: %v", localPath, err)
		}
	}
	return localPath, nil
}

// create opens a new file at target, or at "name (n).ext" when target exists
func (s *DiskSink) create(target string) (*os.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxSuffix; i++ {
		candidate := pathsafe.WithSuffix(target, i)
		file, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s", target)
}

func (s *DiskSink) writeThumbnail(localPath string, src io.Reader) error {
	rel, err := filepath.Rel(s.dir, localPath)
	if err != nil {
		return err
	}
	thumbPath := filepath.Join(s.dir, ThumbDir, media.ThumbnailName(filepath.ToSlash(rel)))
	if err := os.MkdirAll(filepath.Dir(thumbPath), 0755); err != nil {
		return err
	}

	out, err := os.Create(thumbPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return media.WriteThumbnail(out, src)
}
