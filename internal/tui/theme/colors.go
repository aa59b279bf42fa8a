package theme

import "github.com/olduvai-jp/ComfyUI-S3-IO/internal/media"

// Terminal-compatible color constants using ANSI standard colors
const (
	ColorWhite        = "#FFFFFF" // ANSI 15 - primary text
	ColorBrightBlack  = "#808080" // ANSI 8 - secondary text
	ColorBrightBlue   = "#5C7CFA" // ANSI 12 - primary accent
	ColorBrightCyan   = "#51CF66" // ANSI 14 - secondary accent
	ColorBrightYellow = "#FFD43B" // ANSI 11 - warning
	ColorBrightRed    = "#FF6B6B" // ANSI 9 - error

	ColorFileImage = "#74C0FC" // Light blue
	ColorFileVideo = "#FF8787" // Light red
	ColorFileAudio = "#DA77F2" // Purple
)

// FileColor returns the color used for files of a media category
func FileColor(category media.Category) string {
	switch category {
	case media.CategoryImage:
		return ColorFileImage
	case media.CategoryVideo:
		return ColorFileVideo
	case media.CategoryAudio:
		return ColorFileAudio
	default:
		return ColorWhite
	}
}

// Status levels of the picker status line
const (
	StatusInfo = iota
	StatusWarning
	StatusError
)

// StatusColor returns the color for a status level
func StatusColor(level int) string {
	switch level {
	case StatusError:
		return ColorBrightRed
	case StatusWarning:
		return ColorBrightYellow
	default:
		return ColorBrightCyan
	}
}
