package input

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"pipelined.dev/wvr/frame"
)

// SequenceFPS is the rate of image sequence clips.
const SequenceFPS = 30

var sequenceExtensions = map[string]struct{}{
	".bmp":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// Sequence is a clip made of numbered still images in a directory, as
// written by the capture sink. Frames are decoded by a goroutine one frame
// ahead of the playhead. Frame returns the previous frame while the
// requested one is not decoded yet, so only the very first frame is decoded
// by the caller.
type Sequence struct {
	files  []string
	width  int
	height int

	requests chan int
	ready    atomic.Pointer[decoded]
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once

	// accessed by the caller only.
	current *decoded
	pending int
}

type decoded struct {
	index int
	buf   *frame.Buffer
	err   error
}

// OpenSequence lists image files of the directory in lexical order and
// starts the decoder.
func OpenSequence(dir string, width, height int) (FrameSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open sequence: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := sequenceExtensions[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.New("open sequence: no images in " + dir)
	}
	sort.Strings(files)
	s := &Sequence{
		files:    files,
		width:    width,
		height:   height,
		requests: make(chan int, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		pending:  -1,
	}
	go s.run()
	return s, nil
}

func (s *Sequence) run() {
	defer close(s.done)
	for {
		select {
		case i := <-s.requests:
			s.ready.Store(s.decode(i))
		case <-s.stop:
			return
		}
	}
}

func (s *Sequence) decode(i int) *decoded {
	buf, err := LoadImage(s.files[i], s.width, s.height)
	return &decoded{index: i, buf: buf, err: err}
}

// request replaces pending request with frame i.
func (s *Sequence) request(i int) {
	if s.pending == i {
		return
	}
	select {
	case <-s.requests:
	default:
	}
	s.requests <- i
	s.pending = i
}

// Len returns number of frames.
func (s *Sequence) Len() int {
	return len(s.files)
}

// FPS returns SequenceFPS.
func (s *Sequence) FPS() float64 {
	return SequenceFPS
}

// Frame returns frame at index if it's decoded, the previous frame
// otherwise. Decode error of the requested frame is returned once it's
// ready.
func (s *Sequence) Frame(i int) (*frame.Buffer, error) {
	if i < 0 || i >= len(s.files) {
		return nil, fmt.Errorf("frame %d out of range", i)
	}
	if d := s.ready.Load(); d != nil && d.index == i && d != s.current {
		s.pending = -1
		if d.err != nil {
			return nil, d.err
		}
		s.current = d
	}
	switch {
	case s.current == nil:
		s.current = s.decode(i)
		if s.current.err != nil {
			err := s.current.err
			s.current = nil
			return nil, err
		}
	case s.current.index != i:
		s.request(i)
		return s.current.buf, nil
	}
	s.prefetch((i + 1) % len(s.files))
	return s.current.buf, nil
}

// prefetch requests frame i unless it's current or already decoded.
func (s *Sequence) prefetch(i int) {
	if i == s.current.index {
		return
	}
	if d := s.ready.Load(); d != nil && d.index == i {
		return
	}
	s.request(i)
}

// Close stops the decoder.
func (s *Sequence) Close() error {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}
