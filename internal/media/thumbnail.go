package media

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

// Thumbnail limits
const (
	ThumbMaxSize = 256
	ThumbQuality = 85
)

// WriteThumbnail decodes an image from r and writes a JPEG thumbnail no
// larger than ThumbMaxSize on either side to w. EXIF orientation is applied.
func WriteThumbnail(w io.Writer, r io.Reader) error {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fit(img, ThumbMaxSize, ThumbMaxSize, imaging.Lanczos)
	if err := imaging.Encode(w, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbQuality)); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return nil
}

// ThumbnailName maps a slash-separated asset path to its thumbnail path
func ThumbnailName(p string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ".jpg"
}
