package editor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
)

// File is a user-supplied file handle: a name, a declared media type and a
// way to read the content.
type File struct {
	Name      string
	MediaType string
	Size      int64
	open      func() (io.ReadCloser, error)
}

// NewFile creates a File backed by open
func NewFile(name, mediaType string, size int64, open func() (io.ReadCloser, error)) File {
	return File{Name: name, MediaType: mediaType, Size: size, open: open}
}

// FileFromBytes creates an in-memory File
func FileFromBytes(name, mediaType string, data []byte) File {
	return NewFile(name, mediaType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FileFromPath creates a File for a local path. The media type is detected
// from the extension or, failing that, from the content.
func FileFromPath(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return File{}, fmt.Errorf("failed to get file info: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	mediaType, err := media.DetectContentType(path, f)
	if err != nil {
		return File{}, fmt.Errorf("failed to detect content type: %w", err)
	}

	return NewFile(filepath.Base(path), mediaType, info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// Open returns a fresh reader over the file content.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s has no content", f.Name)
	}
	return f.open()
}
