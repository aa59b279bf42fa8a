package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"
)

func TestFileColor(t *testing.T) {
	assert.Equal(t, ColorFileImage, FileColor(media.CategoryImage))
	assert.Equal(t, ColorFileVideo, FileColor(media.CategoryVideo))
	assert.Equal(t, ColorWhite, FileColor(media.CategoryOther))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, ColorBrightRed, StatusColor(StatusError))
	assert.Equal(t, ColorBrightYellow, StatusColor(StatusWarning))
	assert.Equal(t, ColorBrightCyan, StatusColor(StatusInfo))
}
