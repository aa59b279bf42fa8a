package download

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/notify"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(summary, detail string, severity notify.Severity) {
	m.Called(summary, detail, severity)
}

type recordingRequester struct {
	mu       sync.Mutex
	requests []Request
	fail     map[string]error
}

func (r *recordingRequester) RequestDownload(ctx context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.fail[req.RelativePath]
}

func TestDispatch_DeduplicatesByTypeAndPath(t *testing.T) {
	requester := &recordingRequester{}
	d := NewDispatcher(context.Background(), "http://comfy.local", requester, &MockNotifier{})

	started := d.Dispatch(editor.ExecutionResult{
		Images: []editor.OutputEntry{
			{Filename: "a.png", Subfolder: "x"},
			{Filename: "a.png", Subfolder: "x", Type: "output"},
		},
	})
	d.Wait()

	require.Len(t, started, 1)
	assert.Len(t, requester.requests, 1)
	assert.Equal(t, "x/a.png", requester.requests[0].RelativePath)
}

func TestDispatch_OrderAndFields(t *testing.T) {
	requester := &recordingRequester{}
	d := NewDispatcher(context.Background(), "http://comfy.local", requester, &MockNotifier{})

	started := d.Dispatch(editor.ExecutionResult{
		Downloads: []editor.OutputEntry{{Filename: "clip.mp4", Subfolder: "videos"}},
		Images: []editor.OutputEntry{
			{Filename: ""},
			{Filename: "a.png", Type: "temp"},
			{Filename: "a.png"},
		},
		Gifs: []editor.OutputEntry{{Filename: "loop.gif", Subfolder: "\\anim\\"}},
	})
	d.Wait()

	require.Len(t, started, 4)
	assert.Equal(t, []string{"videos/clip.mp4", "a.png", "a.png", "anim/loop.gif"},
		[]string{started[0].RelativePath, started[1].RelativePath, started[2].RelativePath, started[3].RelativePath})

	u, err := url.Parse(started[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "/view", u.Path)
	assert.Equal(t, "clip.mp4", u.Query().Get("filename"))
	assert.Equal(t, "videos", u.Query().Get("subfolder"))
	assert.Equal(t, "output", u.Query().Get("type"))

	u, err = url.Parse(started[1].URL)
	require.NoError(t, err)
	assert.Equal(t, "temp", u.Query().Get("type"))
	assert.False(t, u.Query().Has("subfolder"))

	assert.Len(t, requester.requests, 4)
}

func TestDispatch_InvalidPathIsReported(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("Notify", "Download skipped", "Invalid output path", notify.SeverityWarn).Return()
	requester := &recordingRequester{}
	d := NewDispatcher(context.Background(), "http://comfy.local", requester, notifier)

	started := d.Dispatch(editor.ExecutionResult{
		Images: []editor.OutputEntry{
			{Filename: "evil.png", Subfolder: "../etc"},
			{Filename: "ok.png"},
			{Filename: ".."},
		},
	})
	d.Wait()

	assert.Len(t, started, 1)
	assert.Equal(t, "ok.png", requester.requests[0].RelativePath)
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestDispatch_FailureIsReportedPerEntry(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("Notify", "Download failed", "b.png", notify.SeverityError).Return()
	requester := &recordingRequester{fail: map[string]error{"b.png": errors.New("disk full")}}
	d := NewDispatcher(context.Background(), "http://comfy.local", requester, notifier)

	d.Dispatch(editor.ExecutionResult{
		Images: []editor.OutputEntry{{Filename: "a.png"}, {Filename: "b.png"}, {Filename: "c.png"}},
	})
	d.Wait()

	assert.Len(t, requester.requests, 3)
	notifier.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDispatch_NoRequester(t *testing.T) {
	notifier := &MockNotifier{}
	d := NewDispatcher(context.Background(), "http://comfy.local", nil, notifier)

	started := d.Dispatch(editor.ExecutionResult{Images: []editor.OutputEntry{{Filename: "a.png", Subfolder: ".."}}})
	d.Wait()

	assert.Empty(t, started)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_RequesterFunc(t *testing.T) {
	var got []Request
	var mu sync.Mutex
	d := NewDispatcher(context.Background(), "http://comfy.local", RequesterFunc(func(ctx context.Context, req Request) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, req)
		return nil
	}), nil)

	d.Dispatch(editor.ExecutionResult{Gifs: []editor.OutputEntry{{Filename: "loop.gif"}}})
	d.Wait()

	require.Len(t, got, 1)
	assert.Equal(t, "loop.gif", got[0].RelativePath)
}
