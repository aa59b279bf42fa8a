package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
)

func TestHTTPUploader_Upload(t *testing.T) {
	var gotSubfolder, gotName, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/s3io/upload/image", r.URL.Path)

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)

		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(data)
		gotSubfolder = r.FormValue("subfolder")

		json.NewEncoder(w).Encode(map[string]string{"name": gotName, "subfolder": gotSubfolder, "type": "input"})
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.Client(), server.URL+"/")
	file := editor.FileFromBytes("cat.png", "image/png", []byte("meow"))

	result, err := uploader.Upload(context.Background(), "/s3io/upload/image", "image", file, Options{IsPasted: true})
	require.NoError(t, err)

	assert.Equal(t, "cat.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "meow", gotBody)
	assert.Equal(t, PastedSubfolder, gotSubfolder)
	assert.Equal(t, "pasted/cat.png", result.RelativePath())

	result, err = uploader.Upload(context.Background(), "/s3io/upload/image", "image", file, Options{})
	require.NoError(t, err)
	assert.Empty(t, gotSubfolder)
	assert.Equal(t, "cat.png", result.RelativePath())
}

func TestHTTPUploader_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.Client(), server.URL)
	_, err := uploader.Upload(context.Background(), "/s3io/upload/image", "image", editor.FileFromBytes("a.png", "image/png", []byte("x")), Options{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "400 - Bad Request", statusErr.Error())
}

func TestHTTPUploader_EmptyName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.Client(), server.URL)
	_, err := uploader.Upload(context.Background(), "/x", "image", editor.FileFromBytes("a.png", "image/png", []byte("x")), Options{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decode response failed")
}

func TestHTTPUploader_OpenFailure(t *testing.T) {
	uploader := NewHTTPUploader(nil, "http://127.0.0.1:0")
	_, err := uploader.Upload(context.Background(), "/x", "image", editor.File{Name: "ghost.png"}, Options{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "open file failed")
}
