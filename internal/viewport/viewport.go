// Package viewport implements the pure geometry layer of the image browser:
// which part of the image is visible at what zoom, how pan bounds follow the
// zoom factor, and point-centered zooming. It has no rendering or toolkit
// dependency; the viewer feeds it window/image sizes and reads back a crop
// rectangle.
package viewport

import (
	"errors"
	"math"
)

// Zoom factors outside this open interval are rejected.
const (
	MinZoom = 0.001
	MaxZoom = 1000
)

// ErrInvalidZoom is returned by SetZoom for factors outside (MinZoom, MaxZoom).
var ErrInvalidZoom = errors.New("viewport: invalid zoom factor")

// Pivot is a window-space point expressed as an offset from the window
// center. It marks the screen position that stays visually fixed while the
// zoom changes.
type Pivot struct {
	X, Y float64
}

// Crop describes what the renderer should sample and where: a source
// rectangle in image pixels and a destination size in window pixels.
type Crop struct {
	SrcX, SrcY int
	SrcW, SrcH int
	DstW, DstH int
}

// Controller owns the zoom factor and the pan position. The pan position is
// the image-pixel coordinate displayed at the window center; after every
// mutation it is clamped back into the valid pan envelope.
type Controller struct {
	zoom             float64
	centerX, centerY float64
	windowW, windowH int
	imageW, imageH   int
}

// NewController returns a controller for the given window size, showing a
// 1x1 placeholder image at zoom 1.
func NewController(windowW, windowH int) *Controller {
	c := &Controller{
		zoom:    1,
		windowW: windowW,
		windowH: windowH,
		imageW:  1,
		imageH:  1,
	}
	c.Move(0, 0, false)
	return c
}

// Zoom returns the current zoom factor.
func (c *Controller) Zoom() float64 { return c.zoom }

// Center returns the image-pixel coordinate shown at the window center.
func (c *Controller) Center() (x, y float64) { return c.centerX, c.centerY }

// WindowSize returns the current window dimensions.
func (c *Controller) WindowSize() (w, h int) { return c.windowW, c.windowH }

// ImageSize returns the current image dimensions.
func (c *Controller) ImageSize() (w, h int) { return c.imageW, c.imageH }

// ResizeWindow updates the window dimensions. It does not move the image;
// the caller must re-clamp with Move because the pan envelope depends on
// the window size.
func (c *Controller) ResizeWindow(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c.windowW, c.windowH = w, h
}

// LoadImage resets the image dimensions and centers the pan position.
// Callers normally follow up with ZoomAdjust to fit the new image.
func (c *Controller) LoadImage(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c.imageW, c.imageH = w, h
	c.centerX = float64(w) / 2
	c.centerY = float64(h) / 2
}

// Move sets the pan position and clamps it. Coordinates are image pixels;
// with relative set they are deltas from the current center. Clamping works
// per axis in source space (window size divided by zoom): when the image
// fits the axis it is centered, otherwise the visible window is kept fully
// inside the image.
func (c *Controller) Move(x, y float64, relative bool) {
	if relative {
		x += c.centerX
		y += c.centerY
	}
	c.centerX = clampAxis(x, c.imageW, c.windowW, c.zoom)
	c.centerY = clampAxis(y, c.imageH, c.windowH, c.zoom)
}

// clampAxis applies the pan envelope for one axis. dest is the window
// extent converted to image pixels; using it instead of raw window pixels
// makes the bounds zoom-independent in image coordinates, which is what
// keeps edge panning stable at high zoom.
func clampAxis(cand float64, imageSize, windowSize int, zoom float64) float64 {
	img := float64(imageSize)
	dest := float64(windowSize) / zoom
	if img <= dest {
		return img / 2
	}
	if cand < dest/2 {
		return dest / 2
	}
	return math.Min(cand, img-dest/2-1)
}

// SetZoom changes the zoom factor, keeping the image point under pivot
// fixed on screen. A nil pivot zooms around the window center. With
// relative set, z is added to the current factor. Factors outside
// (MinZoom, MaxZoom) are rejected with ErrInvalidZoom and the state is
// left untouched.
func (c *Controller) SetZoom(z float64, pivot *Pivot, relative bool) error {
	if relative {
		z += c.zoom
	}
	if z <= MinZoom || z >= MaxZoom {
		return ErrInvalidZoom
	}

	var px, py float64
	if pivot != nil {
		px, py = pivot.X, pivot.Y
	}

	// The image point under the pivot is center + pivot/zoom; solving for
	// the new center that keeps it in place gives center' = center +
	// pivot*(1/old - 1/new).
	zk := 1/c.zoom - 1/z
	x := c.centerX + px*zk
	y := c.centerY + py*zk

	c.zoom = z
	c.Move(x, y, false)
	return nil
}

// ZoomIn raises the zoom to the next table step. No-op at the top of the
// table.
func (c *Controller) ZoomIn(pivot *Pivot) {
	if z, ok := StepAbove(c.zoom); ok {
		c.SetZoom(z, pivot, false) //nolint:errcheck // table steps are always valid
	}
}

// ZoomOut lowers the zoom to the previous table step. No-op at the bottom
// of the table.
func (c *Controller) ZoomOut(pivot *Pivot) {
	if z, ok := StepBelow(c.zoom); ok {
		c.SetZoom(z, pivot, false) //nolint:errcheck // table steps are always valid
	}
}

// ZoomAdjust sets the zoom so the whole image is visible, shrinking to fit
// but never enlarging past 1:1.
func (c *Controller) ZoomAdjust() {
	z := math.Min(1, math.Min(
		float64(c.windowW)/float64(c.imageW),
		float64(c.windowH)/float64(c.imageH)))
	if z <= MinZoom {
		z = MinZoom * 2
	}
	c.SetZoom(z, nil, false) //nolint:errcheck // z is clamped into range above
}

// IsAdjusted reports whether the whole image is visible at the current
// zoom.
func (c *Controller) IsAdjusted() bool {
	return float64(c.windowW) >= float64(c.imageW)*c.zoom &&
		float64(c.windowH) >= float64(c.imageH)*c.zoom
}

// ComputeCrop returns the source rectangle to sample and the destination
// size to scale it to for the current state. The crop extent is the window
// size in source space, rounded up and clamped to the image; its origin is
// derived from the pan center and clamped so the rectangle stays inside
// the image.
func (c *Controller) ComputeCrop() Crop {
	srcW := cropExtent(c.windowW, c.imageW, c.zoom)
	srcH := cropExtent(c.windowH, c.imageH, c.zoom)

	srcX := cropOrigin(c.centerX, srcW, c.imageW)
	srcY := cropOrigin(c.centerY, srcH, c.imageH)

	dstW := int(math.Ceil(float64(srcW) * c.zoom))
	if dstW > c.windowW {
		dstW = c.windowW
	}
	dstH := int(math.Ceil(float64(srcH) * c.zoom))
	if dstH > c.windowH {
		dstH = c.windowH
	}

	return Crop{SrcX: srcX, SrcY: srcY, SrcW: srcW, SrcH: srcH, DstW: dstW, DstH: dstH}
}

func cropExtent(windowSize, imageSize int, zoom float64) int {
	n := int(math.Ceil(float64(windowSize) / zoom))
	if n > imageSize {
		n = imageSize
	}
	if n < 1 {
		n = 1
	}
	return n
}

func cropOrigin(center float64, extent, imageSize int) int {
	o := int(center - float64(extent)/2)
	if o < 0 {
		o = 0
	}
	if o > imageSize-extent {
		o = imageSize - extent
	}
	return o
}
