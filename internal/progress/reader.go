// Package progress draws a single-line transfer bar for terminal runs.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
)

const (
	barWidth       = 40
	redrawInterval = 200 * time.Millisecond

	// MinSize is the smallest file worth drawing a bar for
	MinSize = 100 * 1024
)

// Reader wraps an io.Reader and redraws a progress line as it is consumed
type Reader struct {
	reader      io.Reader
	out         io.Writer
	total       int64
	description string

	mu          sync.Mutex
	read        int64
	startTime   time.Time
	lastPrint   time.Time
	finished    bool
	lastLineLen int
	now         func() time.Time
}

// NewReader creates a Reader drawing to out
func NewReader(reader io.Reader, out io.Writer, total int64, description string) *Reader {
	now := time.Now()
	return &Reader{
		reader:      reader,
		out:         out,
		total:       total,
		description: description,
		startTime:   now,
		lastPrint:   now,
		now:         time.Now,
	}
}

// Read implements io.Reader
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)

	r.mu.Lock()
	defer r.mu.Unlock()
	if n > 0 {
		r.read += int64(n)
		if now := r.now(); now.Sub(r.lastPrint) > redrawInterval || err != nil {
			r.draw()
			r.lastPrint = now
		}
	}
	if err == io.EOF && !r.finished {
		r.finished = true
		r.draw()
		fmt.Fprintln(r.out)
	}
	return n, err
}

// Close finishes the line if the reader was not drained
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finished {
		r.finished = true
		r.draw()
		fmt.Fprintln(r.out)
	}
	if c, ok := r.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Line renders the current progress line
func (r *Reader) Line() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.line()
}

func (r *Reader) line() string {
	percentage := float64(r.read) / float64(r.total) * 100

	var speed string
	if elapsed := r.now().Sub(r.startTime); elapsed.Seconds() > 0.1 {
		speed = fmt.Sprintf(" %s/s", humanize.IBytes(uint64(float64(r.read)/elapsed.Seconds())))
	}

	filled := min(int(percentage*barWidth/100), barWidth)
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled) + "]"

	return fmt.Sprintf("%s %s %.1f%% (%s/%s)%s",
		r.description, bar, percentage,
		humanize.IBytes(uint64(r.read)), humanize.IBytes(uint64(r.total)), speed)
}

func (r *Reader) draw() {
	if r.total <= 0 {
		return
	}
	line := r.line()
	// clear leftovers of a longer previous line
	if r.lastLineLen > len(line) {
		fmt.Fprintf(r.out, "\r%s\r", strings.Repeat(" ", r.lastLineLen))
	}
	fmt.Fprintf(r.out, "\r%s", line)
	r.lastLineLen = len(line)
}

// WrapFile returns f with every opened reader drawing progress to out. Files
// smaller than MinSize or of unknown size are returned unchanged.
func WrapFile(f editor.File, out io.Writer) editor.File {
	if f.Size < MinSize {
		return f
	}
	return editor.NewFile(f.Name, f.MediaType, f.Size, func() (io.ReadCloser, error) {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		return NewReader(rc, out, f.Size, "Uploading "+f.Name), nil
	})
}
