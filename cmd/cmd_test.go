package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/config"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/devserver"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/download"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: baseURL, Timeout: 5},
		Nodes: config.NodesConfig{
			Upload:   config.DefaultUploadNodes(),
			Download: []string{"SaveImageS3"},
		},
		Download: config.DownloadConfig{Sink: config.SinkDisk},
	}
}

func TestUploadNodeDef(t *testing.T) {
	nodes := config.DefaultUploadNodes()

	img := uploadNodeDef(nodes[0])
	in, ok := img.Input("image")
	require.True(t, ok)
	assert.True(t, in.BoolOption(editor.OptionImageUpload))
	assert.True(t, in.BoolOption(editor.OptionAllowBatch))
	assert.NotNil(t, in.Values)

	vid := uploadNodeDef(nodes[1])
	in, ok = vid.Input("video")
	require.True(t, ok)
	assert.True(t, in.BoolOption(editor.OptionVideoUpload))
	assert.False(t, in.BoolOption(editor.OptionAllowBatch))
}

func TestReadExecutionResult(t *testing.T) {
	stdin := strings.NewReader(`{"images":[{"filename":"a.png","subfolder":"run","type":"output"}],"gifs":[{"filename":"b.gif"}]}`)
	result, err := readExecutionResult(stdin, nil)
	require.NoError(t, err)
	assert.Equal(t, []editor.OutputEntry{{Filename: "a.png", Subfolder: "run", Type: "output"}}, result.Images)
	assert.Equal(t, []editor.OutputEntry{{Filename: "b.gif"}}, result.Gifs)

	_, err = readExecutionResult(strings.NewReader("not json"), nil)
	assert.Error(t, err)

	_, err = readExecutionResult(nil, []string{filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestNewSink(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8188")

	sink, err := newSink(context.Background(), cfg, config.DownloadConfig{Sink: "disk", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &download.DiskSink{}, sink)

	sink, err = newSink(context.Background(), cfg, config.DownloadConfig{Sink: "none"})
	require.NoError(t, err)
	assert.Nil(t, sink)

	_, err = newSink(context.Background(), cfg, config.DownloadConfig{Sink: "ftp"})
	assert.Error(t, err)
}

func TestSession_UploadPreviewDownload(t *testing.T) {
	srv, err := devserver.NewServer(devserver.Options{Root: t.TempDir()})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := testConfig(ts.URL)
	downloads := t.TempDir()
	s := newSession(context.Background(), cfg, download.NewDiskSink(ts.Client(), downloads, false), nil)

	node, b, err := s.uploadNode("LoadVideoUploadS3")
	require.NoError(t, err)
	files := []editor.File{editor.FileFromBytes("clip.mp4", "video/mp4", []byte("frames"))}
	require.True(t, node.DragDrop(editor.DataTransfer{Items: fileItems(files), Files: files}))
	b.Wait()
	assert.Equal(t, editor.Selection{"clip.mp4"}, b.Combo.Value())

	out, ok := node.Output()
	require.True(t, ok)
	require.Len(t, out.Images, 1)
	assert.Equal(t, "clip.mp4", out.Images[0].Filename)

	save, err := s.host.CreateNode("SaveImageS3")
	require.NoError(t, err)
	s.host.NodeExecuted(save, editor.ExecutionResult{Gifs: out.Images})
	s.exts.Download.Wait()

	data, err := os.ReadFile(filepath.Join(downloads, filepath.FromSlash(out.Images[0].Subfolder), "clip.mp4"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal([]byte("frames"), data))

	_, _, err = s.uploadNode("SaveImageS3")
	assert.Error(t, err)
}
