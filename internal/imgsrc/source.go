// Package imgsrc is the image-source collaborator: it decodes files and
// archive entries into frame sources the session can browse. The engine
// never branches on which decoder produced a source; it only sees the
// Source interface.
package imgsrc

import (
	"image"
	"image/color"

	"piew/internal/anim"
)

// Orientation is an optional hint from the decoder about how the image
// should be presented.
type Orientation int

const (
	OrientationUnknown Orientation = iota
	OrientationNormal
)

// Source is one decoded image: a static frame or an animated timeline.
// The decoder chooses the concrete variant.
type Source interface {
	// Bounds returns the pixel dimensions of the canvas.
	Bounds() (w, h int)
	// IsAnimated reports whether there is more than one frame.
	IsAnimated() bool
	// Autoplay reports whether the source wants playback to start
	// immediately after loading.
	Autoplay() bool
	// Timeline returns the frame duration sequence.
	Timeline() anim.Timeline
	// Frame returns the composited pixels of one frame.
	Frame(i int) image.Image
	// Orientation returns the decoder's presentation hint.
	Orientation() Orientation
}

// StaticImage is a single-frame source.
type StaticImage struct {
	img image.Image
}

// NewStatic wraps a decoded image as a single-frame source.
func NewStatic(img image.Image) *StaticImage {
	return &StaticImage{img: img}
}

func (s *StaticImage) Bounds() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *StaticImage) IsAnimated() bool        { return false }
func (s *StaticImage) Autoplay() bool          { return false }
func (s *StaticImage) Timeline() anim.Timeline { return anim.Timeline{} }
func (s *StaticImage) Frame(int) image.Image   { return s.img }
func (s *StaticImage) Orientation() Orientation {
	return OrientationUnknown
}

// AnimatedImage is a multi-frame source with per-frame durations.
type AnimatedImage struct {
	frames   []image.Image
	timeline anim.Timeline
	w, h     int
}

// NewAnimated builds an animated source from pre-composited frames.
// frames and timeline must have the same length.
func NewAnimated(frames []image.Image, timeline anim.Timeline) *AnimatedImage {
	var w, h int
	if len(frames) > 0 {
		b := frames[0].Bounds()
		w, h = b.Dx(), b.Dy()
	}
	return &AnimatedImage{frames: frames, timeline: timeline, w: w, h: h}
}

func (a *AnimatedImage) Bounds() (int, int)      { return a.w, a.h }
func (a *AnimatedImage) IsAnimated() bool        { return len(a.frames) > 1 }
func (a *AnimatedImage) Autoplay() bool          { return len(a.frames) > 1 }
func (a *AnimatedImage) Timeline() anim.Timeline { return a.timeline }

func (a *AnimatedImage) Frame(i int) image.Image {
	if i < 0 || i >= len(a.frames) {
		i = 0
	}
	return a.frames[i]
}

func (a *AnimatedImage) Orientation() Orientation { return OrientationUnknown }

// Placeholder returns the 1x1 source substituted for files that fail to
// decode. The file stays in the list; only its content is replaced.
func Placeholder() Source {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.Black)
	return NewStatic(img)
}

// PixelRGBA reads the channel bytes of one pixel for cursor inspection.
func PixelRGBA(img image.Image, x, y int) (r, g, b, a uint8) {
	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	return c.R, c.G, c.B, c.A
}
