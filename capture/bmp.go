package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"

	"pipelined.dev/wvr/frame"
)

// BMPWriter writes every frame into a numbered BMP file named by zero
// padded frame index.
type BMPWriter struct {
	dir string
}

// NewBMPWriter returns writer into directory.
func NewBMPWriter(dir string) *BMPWriter {
	return &BMPWriter{dir: dir}
}

// FileName returns the name of frame file.
func FileName(index int64) string {
	return fmt.Sprintf("%012d.bmp", index)
}

// Write encodes the frame.
func (w *BMPWriter) Write(f Frame) error {
	file, err := os.Create(filepath.Join(w.dir, FileName(f.Index)))
	if err != nil {
		return err
	}
	if err := bmp.Encode(file, frame.RGB{Pix: f.RGB, Width: f.Width, Height: f.Height}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Flush does nothing, every frame is a separate file.
func (w *BMPWriter) Flush() error {
	return nil
}
