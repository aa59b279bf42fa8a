// Package termimage draws preview images inside a terminal, using a graphics
// protocol when the terminal has one and colored half blocks otherwise.
package termimage

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"io"
	"os"
	"strings"

	"github.com/BourgeoisBear/rasterm"
	"github.com/disintegration/imaging"
)

// Protocol is a terminal graphics protocol
type Protocol string

const (
	ProtocolKitty Protocol = "kitty"
	ProtocolITerm Protocol = "iterm"
	ProtocolSixel Protocol = "sixel"
	ProtocolANSI  Protocol = "ansi"
)

const (
	DefaultCols = 60
	DefaultRows = 20

	// approximate pixel size of one terminal cell
	cellWidth  = 8
	cellHeight = 16
)

var sixelTerms = []string{"xterm-sixel", "mlterm", "yaft"}

// Detect picks a protocol from the terminal environment. getenv is usually
// os.Getenv.
func Detect(getenv func(string) string) Protocol {
	term := strings.ToLower(getenv("TERM"))
	termProgram := strings.ToLower(getenv("TERM_PROGRAM"))

	switch {
	case getenv("KITTY_WINDOW_ID") != "" || strings.Contains(term, "kitty"):
		return ProtocolKitty
	case getenv("GHOSTTY") != "" || termProgram == "ghostty" || strings.Contains(term, "ghostty"):
		return ProtocolKitty
	case termProgram == "iterm.app" || termProgram == "wezterm":
		return ProtocolITerm
	}
	for _, t := range sixelTerms {
		if strings.Contains(term, t) {
			return ProtocolSixel
		}
	}
	return ProtocolANSI
}

// Renderer writes images sized to a cell box
type Renderer struct {
	Protocol Protocol
	Cols     int
	Rows     int
}

// NewRenderer creates a renderer for the current terminal
func NewRenderer() *Renderer {
	return &Renderer{Protocol: Detect(os.Getenv), Cols: DefaultCols, Rows: DefaultRows}
}

// RenderError wraps a failure of one protocol
type RenderError struct {
	Protocol Protocol
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed (%s): %v", e.Protocol, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Render writes img to w
func (r *Renderer) Render(w io.Writer, img image.Image) error {
	cols, rows := r.box()
	if img.Bounds().Empty() {
		return &RenderError{Protocol: r.Protocol, Err: fmt.Errorf("empty image")}
	}

	var err error
	switch r.Protocol {
	case ProtocolKitty:
		fitted := imaging.Fit(img, cols*cellWidth, rows*cellHeight, imaging.Lanczos)
		c, rw := cells(fitted.Bounds().Dx(), fitted.Bounds().Dy())
		err = rasterm.KittyWriteImage(w, fitted, rasterm.KittyImgOpts{DstCols: c, DstRows: rw})
	case ProtocolITerm:
		err = rasterm.ItermWriteImage(w, imaging.Fit(img, cols*cellWidth, rows*cellHeight, imaging.Lanczos))
	case ProtocolSixel:
		fitted := imaging.Fit(img, cols*cellWidth, rows*cellHeight, imaging.Lanczos)
		paletted := image.NewPaletted(fitted.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, fitted.Bounds(), fitted, image.Point{})
		err = rasterm.SixelWriteImage(w, paletted)
	default:
		_, err = io.WriteString(w, HalfBlocks(img, cols, rows))
	}
	if err != nil {
		return &RenderError{Protocol: r.Protocol, Err: err}
	}
	_, err = fmt.Fprintln(w)
	return err
}

func (r *Renderer) box() (int, int) {
	cols, rows := r.Cols, r.Rows
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	return cols, rows
}

func cells(width, height int) (uint32, uint32) {
	return uint32(max(1, (width+cellWidth-1)/cellWidth)), uint32(max(1, (height+cellHeight-1)/cellHeight))
}

// HalfBlocks renders img as rows of "▀" with 24-bit colors, two pixels per
// cell, fitted into cols x rows while keeping the aspect ratio.
func HalfBlocks(img image.Image, cols, rows int) string {
	fitted := imaging.Fit(img, cols, rows*2, imaging.Box)
	b := fitted.Bounds()

	var out strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := fitted.NRGBAAt(x, y)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = fitted.NRGBAAt(x, y+1)
			}
			fmt.Fprintf(&out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		out.WriteString("\x1b[0m\n")
	}
	return out.String()
}
