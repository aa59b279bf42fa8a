package adapters

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/upload"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, endpoint, formField string, file editor.File, opts upload.Options) (*upload.Result, error) {
	args := m.Called(ctx, endpoint, formField, file, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.Result), args.Error(1)
}

type fakeSelector struct {
	accept   []string
	multiple bool
	onChange func([]editor.File)
	opened   int
	released int
}

func (s *fakeSelector) SetAccept(accept []string) {
	s.accept = accept
}

func (s *fakeSelector) SetMultiple(multiple bool) {
	s.multiple = multiple
}

func (s *fakeSelector) OnChange(fn func([]editor.File)) {
	s.onChange = fn
}

func (s *fakeSelector) Open() error {
	s.opened++
	return nil
}

func (s *fakeSelector) Release() {
	s.released++
}

func (s *fakeSelector) choose(files ...editor.File) {
	s.onChange(files)
}

type recordedBatch struct {
	files []editor.File
	opts  upload.Options
}

type recorder struct {
	mu      sync.Mutex
	batches []recordedBatch
}

func (r *recorder) HandleUploadBatch(files []editor.File, opts upload.Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, recordedBatch{files: files, opts: opts})
}

func names(files []editor.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

var (
	png  = editor.FileFromBytes("a.png", "image/png", []byte("a"))
	jpg  = editor.FileFromBytes("b.jpg", "image/jpeg", []byte("b"))
	mp4  = editor.FileFromBytes("c.mp4", "video/mp4", []byte("c"))
	gif  = editor.FileFromBytes("d.gif", "image/gif", []byte("d"))
	text = editor.FileFromBytes("notes.txt", "text/plain", []byte("e"))
)

func TestFilePicker_ConfiguresAndForwards(t *testing.T) {
	selector := &fakeSelector{}
	rec := &recorder{}
	accept := []string{"image/png", "image/jpeg", "image/webp"}

	picker := NewFilePicker(selector, accept, true, upload.ImageFilter, rec)
	assert.Equal(t, accept, selector.accept)
	assert.True(t, selector.multiple)

	require.NoError(t, picker.OpenFileSelection())
	assert.Equal(t, 1, selector.opened)

	selector.choose(png, text, jpg)
	require.Len(t, rec.batches, 1)
	assert.Equal(t, []string{"a.png", "b.jpg"}, names(rec.batches[0].files))
	assert.False(t, rec.batches[0].opts.IsPasted)

	// nothing accepted, nothing forwarded
	selector.choose(text)
	assert.Len(t, rec.batches, 1)
}

func TestFilePicker_CleanupIsIdempotent(t *testing.T) {
	selector := &fakeSelector{}
	picker := NewFilePicker(selector, nil, false, upload.ImageFilter, &recorder{})

	picker.Cleanup()
	picker.Cleanup()

	assert.Equal(t, 1, selector.released)
	assert.Nil(t, selector.onChange)
	assert.ErrorIs(t, picker.OpenFileSelection(), ErrReleased)
	assert.Equal(t, 0, selector.opened)
}

func TestDragDrop(t *testing.T) {
	rec := &recorder{}
	dd := NewDragDrop(upload.VideoFilter, rec)

	assert.True(t, dd.OnDragOver(editor.DataTransfer{Items: []editor.DataTransferItem{{Kind: "string"}, {Kind: "file", Type: "video/mp4"}}}))
	assert.False(t, dd.OnDragOver(editor.DataTransfer{Items: []editor.DataTransferItem{{Kind: "string", Type: "text/plain"}}}))
	assert.False(t, dd.OnDragOver(editor.DataTransfer{}))

	assert.False(t, dd.OnDragDrop(editor.DataTransfer{Files: []editor.File{png, text}}))
	assert.Empty(t, rec.batches)

	assert.True(t, dd.OnDragDrop(editor.DataTransfer{Files: []editor.File{png, mp4, gif}}))
	require.Len(t, rec.batches, 1)
	assert.Equal(t, []string{"c.mp4", "d.gif"}, names(rec.batches[0].files))
}

func TestPaste(t *testing.T) {
	tests := []struct {
		name       string
		allowBatch bool
		files      []editor.File
		want       []string
		handled    bool
	}{
		{name: "single keeps first accepted", files: []editor.File{text, jpg, png}, want: []string{"b.jpg"}, handled: true},
		{name: "batch keeps all accepted", allowBatch: true, files: []editor.File{png, text, jpg}, want: []string{"a.png", "b.jpg"}, handled: true},
		{name: "nothing accepted", files: []editor.File{text, mp4}},
		{name: "empty", allowBatch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			handled := NewPaste(upload.ImageFilter, tt.allowBatch, rec).PasteFiles(tt.files)

			assert.Equal(t, tt.handled, handled)
			if !tt.handled {
				assert.Empty(t, rec.batches)
				return
			}
			require.Len(t, rec.batches, 1)
			assert.Equal(t, tt.want, names(rec.batches[0].files))
			assert.True(t, rec.batches[0].opts.IsPasted)
		})
	}
}

func TestDropWithoutBatchUploadsOnce(t *testing.T) {
	uploader := &MockUploader{}
	uploader.On("Upload", mock.Anything, "/s3io/upload/image", "image", mock.Anything, upload.Options{}).
		Return(&upload.Result{Name: "a.png"}, nil)

	target := upload.Target{NodeKind: "LoadImageS3", InputName: "image", Endpoint: "/s3io/upload/image", FormField: "image", Media: upload.MediaImage}
	combo := editor.NewComboWidget("image", nil, nil)
	node := editor.NewNode("LoadImageS3", nil, combo)
	pipeline := upload.NewPipeline(target, false, uploader, node, combo, nil)
	handler := NewPipelineHandler(context.Background(), pipeline)

	dropped := []editor.File{
		png,
		editor.FileFromBytes("x.png", "image/png", []byte("x")),
		editor.FileFromBytes("y.png", "image/png", []byte("y")),
	}
	assert.True(t, NewDragDrop(target.Filter(), handler).OnDragDrop(editor.DataTransfer{Files: dropped}))
	handler.Wait()

	uploader.AssertNumberOfCalls(t, "Upload", 1)
	assert.Equal(t, []string{"a.png"}, combo.Values())
	assert.Equal(t, editor.Selection{"a.png"}, combo.Value())
}
