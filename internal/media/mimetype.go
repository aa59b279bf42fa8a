package media

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
)

// Category groups content types the way upload targets filter them
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryAudio Category = "audio"
	CategoryOther Category = "other"
)

// commonTypes covers the media formats the editor nodes load and save. The
// platform mime table is consulted only after these, since it differs between
// hosts (.mkv is missing on most Linux images).
var commonTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".json": "application/json",
	".txt":  "text/plain",
}

// DetectContentType detects the MIME type of a file from its extension, falling
// back to sniffing the first 512 bytes of reader.
func DetectContentType(filePath string, reader io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if contentType, ok := commonTypes[ext]; ok {
		return contentType, nil
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType, nil
	}

	if reader != nil {
		buffer := make([]byte, 512)
		n, err := reader.Read(buffer)
		if err != nil && err != io.EOF {
			return "", err
		}

		contentType := http.DetectContentType(buffer[:n])
		if contentType != "application/octet-stream" {
			return contentType, nil
		}
	}

	return "application/octet-stream", nil
}

// TypeForPath returns the content type implied by the extension alone, or ""
func TypeForPath(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if contentType, ok := commonTypes[ext]; ok {
		return contentType
	}
	return mime.TypeByExtension(ext)
}

// ExtensionsFor returns the sorted file extensions known for contentTypes
func ExtensionsFor(contentTypes []string) []string {
	var exts []string
	for _, contentType := range contentTypes {
		contentType = strings.TrimSpace(contentType)
		for ext, known := range commonTypes {
			if known == contentType {
				exts = append(exts, ext)
			}
		}
	}
	sort.Strings(exts)
	return exts
}

// IsImageType checks if the content type represents an image
func IsImageType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// IsVideoType reports video content. Animated GIFs count as video because the
// video loaders accept them.
func IsVideoType(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") || contentType == "image/gif"
}

// GetFileCategory returns a general category for the content type
func GetFileCategory(contentType string) Category {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return CategoryImage
	case strings.HasPrefix(contentType, "video/"):
		return CategoryVideo
	case strings.HasPrefix(contentType, "audio/"):
		return CategoryAudio
	default:
		return CategoryOther
	}
}
