// Package capture provides a media.Player that decodes a video file with OpenCV
package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/teslashibe/go-marker/pkg/debug"
	"github.com/teslashibe/go-marker/pkg/media"
	"gocv.io/x/gocv"
)

// defaultFPS is used when the container doesn't report a frame rate.
const defaultFPS = 30.0

// Player decodes frames from a file at the file's native frame rate.
type Player struct {
	path string
	fps  float64

	mu       sync.Mutex // Protects cap and everything below
	cap      *gocv.VideoCapture
	frames   float64
	playing  bool
	frame    gocv.Mat
	latest   image.Image
	closed   bool
	watchers map[int]func()
	nextID   int

	done chan struct{}
	wg   sync.WaitGroup
}

// Open opens path and starts the decode loop paused at the first frame.
func Open(path string) (*Player, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open video: %s not readable", path)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = defaultFPS
	}

	p := &Player{
		path:     path,
		fps:      fps,
		cap:      vc,
		frames:   vc.Get(gocv.VideoCaptureFrameCount),
		frame:    gocv.NewMat(),
		watchers: make(map[int]func()),
		done:     make(chan struct{}),
	}

	p.wg.Add(1)
	go p.decodeLoop()
	return p, nil
}

// Factory adapts Open to media.Factory.
func Factory(path string) (media.Player, error) {
	return Open(path)
}

func (p *Player) decodeLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / p.fps))
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.step()
		}
	}
}

// step decodes one frame if playing and fires end observers on EOF.
func (p *Player) step() {
	p.mu.Lock()
	if !p.playing || p.closed {
		p.mu.Unlock()
		return
	}

	if ok := p.cap.Read(&p.frame); !ok || p.frame.Empty() {
		p.playing = false
		fns := make([]func(), 0, len(p.watchers))
		for _, fn := range p.watchers {
			fns = append(fns, fn)
		}
		p.mu.Unlock()

		debug.Log("video reached end", "path", p.path)
		for _, fn := range fns {
			fn()
		}
		return
	}

	img, err := p.frame.ToImage()
	if err == nil {
		p.latest = img
	}
	p.mu.Unlock()
}

// Play resumes decoding.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.playing = true
	}
}

// Pause stops decoding at the current frame.
func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

// Seek moves to the frame nearest pos.
func (p *Player) Seek(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	frame := pos.Seconds() * p.fps
	if frame < 0 {
		frame = 0
	}
	if p.frames > 0 && frame > p.frames {
		frame = p.frames
	}
	p.cap.Set(gocv.VideoCapturePosFrames, frame)
}

// Playing reports whether frames are being decoded.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Position returns the playhead derived from the decoder's frame index.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	idx := p.cap.Get(gocv.VideoCapturePosFrames)
	return time.Duration(idx / p.fps * float64(time.Second))
}

// Duration returns the file length, or zero for streams without a frame count.
func (p *Player) Duration() time.Duration {
	if p.frames <= 0 {
		return 0
	}
	return time.Duration(p.frames / p.fps * float64(time.Second))
}

// Frame returns the last decoded frame.
func (p *Player) Frame() (image.Image, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.latest != nil
}

// OnEnd registers an end-of-file observer.
func (p *Player) OnEnd(fn func()) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}
}

// Close stops the decode loop and releases the capture.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.playing = false
	p.watchers = make(map[int]func())
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame.Close()
	return p.cap.Close()
}

var (
	_ media.Player      = (*Player)(nil)
	_ media.FrameSource = (*Player)(nil)
)
