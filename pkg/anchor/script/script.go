// Package script replays a YAML timeline of anchor events as an anchor.Source.
//
// A script looks like:
//
//	marker:
//	  name: poster
//	  width: 0.2
//	  height: 0.15
//	resources:
//	  overlay: 3s
//	steps:
//	  - event: created
//	    anchor: a1
//	  - after: 1s
//	    event: updated
//	    anchor: a1
//	    tracked: false
//	  - after: 5s
//	    event: updated
//	    anchor: a1
//	    tracked: true
//	    repeat: 30
//	    every: 33ms
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/debug"
	"gopkg.in/yaml.v3"
)

// Step event names.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventWait    = "wait"
)

// ErrInvalidScript is returned for scripts that fail validation.
var ErrInvalidScript = errors.New("invalid anchor script")

// Marker is the reference image declared by a script.
type Marker struct {
	Name   string  `yaml:"name"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Step is one timeline entry.
type Step struct {
	After   time.Duration `yaml:"after"`
	Event   string        `yaml:"event"`
	Anchor  string        `yaml:"anchor"`
	Kind    string        `yaml:"kind"`
	Tracked bool          `yaml:"tracked"`
	Repeat  int           `yaml:"repeat"`
	Every   time.Duration `yaml:"every"`
}

// Script is a parsed timeline.
type Script struct {
	Marker    Marker                   `yaml:"marker"`
	Resources map[string]time.Duration `yaml:"resources"`
	Steps     []Step                   `yaml:"steps"`
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Validate checks every step is well formed.
func (s *Script) Validate() error {
	if s.Marker.Width <= 0 || s.Marker.Height <= 0 {
		return fmt.Errorf("%w: marker size must be positive", ErrInvalidScript)
	}
	for i, st := range s.Steps {
		if st.After < 0 || st.Every < 0 || st.Repeat < 0 {
			return fmt.Errorf("%w: step %d has negative timing", ErrInvalidScript, i)
		}
		switch st.Event {
		case EventCreated, EventUpdated:
			if st.Anchor == "" {
				return fmt.Errorf("%w: step %d (%s) needs an anchor", ErrInvalidScript, i, st.Event)
			}
			if _, err := st.kind(); err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i, err)
			}
		case EventWait:
		default:
			return fmt.Errorf("%w: step %d has unknown event %q", ErrInvalidScript, i, st.Event)
		}
	}
	return nil
}

// Reference returns the script's marker as a reference image.
func (s *Script) Reference() anchor.ReferenceImage {
	return anchor.ReferenceImage{
		Name:         s.Marker.Name,
		PhysicalSize: anchor.Size{Width: s.Marker.Width, Height: s.Marker.Height},
	}
}

// Length is the total scheduled time of the script.
func (s *Script) Length() time.Duration {
	var total time.Duration
	for _, st := range s.Steps {
		total += st.After
		if st.Repeat > 1 {
			total += time.Duration(st.Repeat-1) * st.Every
		}
	}
	return total
}

func (st Step) kind() (anchor.Kind, error) {
	if st.Kind == "" {
		return anchor.KindImage, nil
	}
	return anchor.ParseKind(st.Kind)
}

// Source replays a Script.
type Source struct {
	script *Script
}

// NewSource creates a source for s.
func NewSource(s *Script) *Source {
	return &Source{script: s}
}

// Run delivers the steps to h in order and returns nil when the script ends.
func (src *Source) Run(ctx context.Context, cfg anchor.Config, h anchor.Handler) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	size := cfg.ReferenceImages[0].PhysicalSize

	for i, st := range src.script.Steps {
		if err := sleep(ctx, st.After); err != nil {
			return err
		}
		if st.Event == EventWait {
			continue
		}

		kind, _ := st.kind()
		a := anchor.Anchor{ID: st.Anchor, Kind: kind}
		if kind == anchor.KindImage {
			a.PhysicalSize = size
		}

		n := st.Repeat
		if n < 1 {
			n = 1
		}
		for j := 0; j < n; j++ {
			if j > 0 {
				if err := sleep(ctx, st.Every); err != nil {
					return err
				}
			}
			if err := deliver(ctx, h, st, a); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	}
	return nil
}

func deliver(ctx context.Context, h anchor.Handler, st Step, a anchor.Anchor) error {
	switch st.Event {
	case EventCreated:
		surface, err := h.AnchorCreated(ctx, a)
		if err != nil {
			return err
		}
		if surface != nil {
			debug.Log("surface attached", "anchor", a.ID, "size", surface.SurfaceSize().String())
		}
		return nil
	case EventUpdated:
		return h.AnchorUpdated(ctx, a, st.Tracked)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
