package viewport

import "math"

// WindowToImage inverse-maps a window-space point through the current
// transform to an integer image pixel, for cursor pixel inspection. ok is
// false when the point falls outside the image. Reading the channel bytes
// at the returned coordinate is the pixel-buffer collaborator's job.
func (c *Controller) WindowToImage(wx, wy float64) (ix, iy int, ok bool) {
	fx := (wx-float64(c.windowW)/2)/c.zoom + c.centerX
	fy := (wy-float64(c.windowH)/2)/c.zoom + c.centerY

	ix = int(math.Round(fx))
	iy = int(math.Round(fy))
	if ix < 0 || ix >= c.imageW || iy < 0 || iy >= c.imageH {
		return 0, 0, false
	}
	return ix, iy, true
}
