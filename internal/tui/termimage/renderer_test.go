package termimage

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want Protocol
	}{
		{"kitty window", map[string]string{"KITTY_WINDOW_ID": "1"}, ProtocolKitty},
		{"kitty term", map[string]string{"TERM": "xterm-kitty"}, ProtocolKitty},
		{"ghostty", map[string]string{"TERM_PROGRAM": "ghostty"}, ProtocolKitty},
		{"iterm", map[string]string{"TERM_PROGRAM": "iTerm.app"}, ProtocolITerm},
		{"wezterm", map[string]string{"TERM_PROGRAM": "WezTerm"}, ProtocolITerm},
		{"sixel", map[string]string{"TERM": "mlterm"}, ProtocolSixel},
		{"plain", map[string]string{"TERM": "xterm-256color"}, ProtocolANSI},
		{"nothing", nil, ProtocolANSI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(env(tt.vars)))
		})
	}
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestHalfBlocks(t *testing.T) {
	out := HalfBlocks(solid(40, 20, color.NRGBA{R: 255, A: 255}), 20, 10)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	// 40x20 fits into 20x20 pixels as 20x10, i.e. 5 rows of cells
	assert.Len(t, lines, 5)
	assert.Equal(t, 20, strings.Count(lines[0], "▀"))
	assert.Contains(t, lines[0], "\x1b[38;2;255;0;0m\x1b[48;2;255;0;0m▀")
	assert.True(t, strings.HasSuffix(lines[0], "\x1b[0m"))
}

func TestRender_ANSI(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{Protocol: ProtocolANSI, Cols: 10, Rows: 5}
	require.NoError(t, r.Render(&buf, solid(10, 10, color.NRGBA{G: 255, A: 255})))
	assert.Contains(t, buf.String(), "▀")
}

func TestRender_Kitty(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{Protocol: ProtocolKitty}
	require.NoError(t, r.Render(&buf, solid(64, 64, color.White)))
	assert.NotEmpty(t, buf.String())
	assert.NotContains(t, buf.String(), "▀")
}

func TestRender_EmptyImage(t *testing.T) {
	r := &Renderer{Protocol: ProtocolANSI}
	err := r.Render(&bytes.Buffer{}, image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ProtocolANSI, renderErr.Protocol)
}
