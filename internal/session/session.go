// Package session ties the viewport, animation player, file navigator
// and image loader together behind a single event-driven object. All
// mutations happen on one logical thread; deferred work (redraw, frame
// timers) goes through the scheduler as at-most-one-pending tasks.
package session

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/spf13/afero"

	"piew/internal/anim"
	"piew/internal/config"
	"piew/internal/filelist"
	"piew/internal/imgsrc"
	"piew/internal/sched"
	"piew/internal/viewport"
)

// ErrUnsupportedRotation is returned for rotation angles that are not a
// multiple of 90 degrees.
var ErrUnsupportedRotation = errors.New("session: rotation must be a multiple of 90 degrees")

// Session owns the browsing state for one viewer window.
type Session struct {
	fs  afero.Fs
	sch sched.Scheduler

	vp     *viewport.Controller
	player *anim.Player
	nav    *filelist.Navigator
	loader *imgsrc.Loader

	moveSteps config.StepTable
	fileSteps config.StepTable

	source   imgsrc.Source
	frame    int
	rotation int
	invalid  map[string]bool

	sources []string

	redraw    sched.Handle
	onRedraw  func()
	onMessage func(string)
}

// New builds a session over the given filesystem and scheduler. Window
// geometry, step tables and the animation delay substitute come from the
// config.
func New(fsys afero.Fs, scheduler sched.Scheduler, cfg config.Config) *Session {
	s := &Session{
		fs:        fsys,
		sch:       scheduler,
		vp:        viewport.NewController(cfg.WindowWidth, cfg.WindowHeight),
		nav:       filelist.NewNavigator(fsys, nil, filelist.GetSortStrategy(cfg.SortMethod)),
		loader:    imgsrc.NewLoader(fsys, cfg.CacheSize),
		moveSteps: cfg.MoveSteps,
		fileSteps: cfg.FileSteps,
		invalid:   make(map[string]bool),
	}
	s.player = anim.NewPlayer(scheduler, s.onFrame)
	s.player.SetInfiniteSubstitute(time.Duration(cfg.InfiniteFrameDelayMs) * time.Millisecond)
	return s
}

// OnRedraw installs the callback invoked when a coalesced redraw runs.
func (s *Session) OnRedraw(fn func()) { s.onRedraw = fn }

// OnMessage installs the callback for user-visible status messages.
func (s *Session) OnMessage(fn func(string)) { s.onMessage = fn }

// Open builds the file list from the given sources and loads the first
// entry.
func (s *Session) Open(sources []string) {
	s.sources = sources
	s.nav.Rebuild(sources)
	s.loadCurrent()
}

// Refresh rescans the opened sources. The current file is kept when it
// still exists; otherwise the list falls back and the new current entry
// is loaded.
func (s *Session) Refresh() {
	before, hadFile := s.nav.Current()
	s.nav.Rebuild(s.sources)
	after, hasFile := s.nav.Current()
	if hadFile == hasFile && before == after {
		s.requestRedraw()
		return
	}
	s.loadCurrent()
}

// Crop returns the source rectangle and destination size the renderer
// should draw for the current state.
func (s *Session) Crop() viewport.Crop { return s.vp.ComputeCrop() }

// Zoom returns the current zoom factor.
func (s *Session) Zoom() float64 { return s.vp.Zoom() }

// Rotation returns the display rotation in degrees (0, 90, 180, 270).
func (s *Session) Rotation() int { return s.rotation }

// AnimationState reports the player state for the current image.
func (s *Session) AnimationState() anim.State { return s.player.State() }

// FrameImage returns the pixels of the currently displayed frame, or nil
// when no file is loaded.
func (s *Session) FrameImage() image.Image {
	if s.source == nil {
		return nil
	}
	return s.source.Frame(s.frame)
}

// Position reports the 1-based index of the current file and the list
// length. Index is 0 when the list is empty.
func (s *Session) Position() (index, count int) {
	return s.nav.Index() + 1, s.nav.Len()
}

// CurrentPath returns the display path of the current file.
func (s *Session) CurrentPath() (string, bool) {
	item, ok := s.nav.Current()
	return item.Path, ok
}

// IsInvalid reports whether the current file failed to decode and is
// showing the placeholder.
func (s *Session) IsInvalid() bool {
	item, ok := s.nav.Current()
	return ok && s.invalid[item.Path]
}

// Resize propagates a window size change to the viewport. The pan is
// re-clamped because its bounds depend on the window size.
func (s *Session) Resize(w, h int) {
	s.vp.ResizeWindow(w, h)
	s.vp.Move(0, 0, true)
	s.requestRedraw()
}

// Pan shifts the view by raw pixel deltas, used for pointer drags.
func (s *Session) Pan(dx, dy float64) {
	s.vp.Move(dx, dy, true)
	s.requestRedraw()
}

// MoveStep pans by dx/dy units of the configured step for the held
// modifiers.
func (s *Session) MoveStep(dx, dy int, modifiers string) {
	step := s.moveSteps.Lookup(modifiers)
	s.vp.Move(float64(dx*step), float64(dy*step), true)
	s.requestRedraw()
}

// HorizontalStep handles the left/right arrows: when the whole image is
// visible there is nothing to pan, so the arrows change files instead.
func (s *Session) HorizontalStep(dir int, modifiers string) {
	if s.vp.IsAdjusted() {
		s.ChangeFileStep(dir, modifiers)
		return
	}
	s.MoveStep(dir, 0, modifiers)
}

// ChangeFile moves through the file list with wraparound and loads the
// new current entry.
func (s *Session) ChangeFile(n int, relative bool) {
	if err := s.nav.Move(n, relative); err != nil {
		s.message("no files to show")
		return
	}
	s.loadCurrent()
}

// ChangeFileStep moves dir steps of the configured file step size.
func (s *Session) ChangeFileStep(dir int, modifiers string) {
	s.ChangeFile(dir*s.fileSteps.Lookup(modifiers), true)
}

// ZoomIn zooms to the next table step, keeping the pivot point fixed.
func (s *Session) ZoomIn(pivot *viewport.Pivot) {
	s.vp.ZoomIn(pivot)
	s.requestRedraw()
}

// ZoomOut zooms to the previous table step.
func (s *Session) ZoomOut(pivot *viewport.Pivot) {
	s.vp.ZoomOut(pivot)
	s.requestRedraw()
}

// ZoomAdjust fits the whole image into the window.
func (s *Session) ZoomAdjust() {
	s.vp.ZoomAdjust()
	s.requestRedraw()
}

// SetZoom sets an absolute zoom factor. An out-of-range factor leaves
// the state unchanged and surfaces a message.
func (s *Session) SetZoom(z float64, pivot *viewport.Pivot) {
	if err := s.vp.SetZoom(z, pivot, false); err != nil {
		s.message(fmt.Sprintf("zoom %.3f out of range", z))
		return
	}
	s.requestRedraw()
}

// Rotate turns the display by the given angle. Only multiples of 90 are
// accepted; anything else is rejected with the state unchanged.
func (s *Session) Rotate(degrees int) error {
	if degrees%90 != 0 {
		return ErrUnsupportedRotation
	}
	if s.source == nil {
		return nil
	}
	s.rotation = wrapDegrees(s.rotation + degrees)
	w, h := s.source.Bounds()
	if s.rotation == 90 || s.rotation == 270 {
		w, h = h, w
	}
	s.vp.LoadImage(w, h)
	s.vp.ZoomAdjust()
	s.requestRedraw()
	return nil
}

// ToggleAnimation flips between playing and paused.
func (s *Session) ToggleAnimation() { s.player.Toggle() }

// StepFrame advances the animation by one frame manually.
func (s *Session) StepFrame() { s.player.Step() }

// InspectPixel reports the color under a window coordinate, or that the
// point falls outside the image.
func (s *Session) InspectPixel(wx, wy float64) {
	img := s.FrameImage()
	if img == nil {
		s.message("no image loaded")
		return
	}
	ix, iy, ok := s.vp.WindowToImage(wx, wy)
	if !ok {
		s.message("pixel: outside image")
		return
	}
	sx, sy := s.sourcePoint(ix, iy)
	r, g, b, a := imgsrc.PixelRGBA(img, sx, sy)
	s.message(fmt.Sprintf("pixel (%d,%d): R=%d G=%d B=%d A=%d", ix, iy, r, g, b, a))
}

// RemoveCurrent deletes the current file from disk and drops it from the
// list. A failed delete leaves both the filesystem and the list
// untouched.
func (s *Session) RemoveCurrent() {
	item, ok := s.nav.Current()
	if !ok {
		s.message("no file to remove")
		return
	}
	if item.ArchivePath != "" {
		s.message("cannot remove an archive entry")
		return
	}
	if err := s.fs.Remove(item.Path); err != nil {
		s.message(fmt.Sprintf("failed to remove %s: %v", item.Path, err))
		return
	}
	s.loader.Evict(item.Path)
	delete(s.invalid, item.Path)
	s.nav.Remove(item.Path)
	s.message(fmt.Sprintf("removed %s", item.Path))
	s.loadCurrent()
}

// loadCurrent decodes the navigator's current entry and resets the
// viewport and player for it. A decode failure keeps the file in the
// list, marks it invalid and shows the placeholder.
func (s *Session) loadCurrent() {
	item, ok := s.nav.Current()
	if !ok {
		s.source = nil
		s.frame = 0
		s.rotation = 0
		s.player.Load(anim.Timeline{}, false)
		s.requestRedraw()
		return
	}

	src, err := s.loader.Get(item)
	if err != nil {
		log.Printf("Error: Failed to load image %s: %v", item.Path, err)
		s.invalid[item.Path] = true
		src = imgsrc.Placeholder()
	} else {
		delete(s.invalid, item.Path)
	}

	s.source = src
	s.frame = 0
	s.rotation = 0
	w, h := src.Bounds()
	s.vp.LoadImage(w, h)
	s.vp.ZoomAdjust()
	s.player.Load(src.Timeline(), src.Autoplay())
	s.requestRedraw()
}

// onFrame is the player's frame-change callback.
func (s *Session) onFrame(index int) {
	s.frame = index
	s.requestRedraw()
}

// requestRedraw enqueues one idle redraw. Requests arriving while one is
// pending are absorbed; the handle is cleared when the redraw executes,
// so each burst of mutations produces at most one extra redraw.
func (s *Session) requestRedraw() {
	if s.redraw != sched.None {
		return
	}
	s.redraw = s.sch.ScheduleIdle(func() {
		s.redraw = sched.None
		if s.onRedraw != nil {
			s.onRedraw()
		}
	})
}

func (s *Session) message(msg string) {
	if s.onMessage != nil {
		s.onMessage(msg)
		return
	}
	log.Printf("%s", msg)
}

// sourcePoint maps a displayed-image coordinate back to the unrotated
// frame, inverting the display rotation.
func (s *Session) sourcePoint(ix, iy int) (int, int) {
	if s.source == nil || s.rotation == 0 {
		return ix, iy
	}
	w, h := s.source.Bounds()
	switch s.rotation {
	case 90:
		return iy, h - 1 - ix
	case 180:
		return w - 1 - ix, h - 1 - iy
	case 270:
		return w - 1 - iy, ix
	}
	return ix, iy
}

func wrapDegrees(d int) int {
	d %= 360
	if d < 0 {
		d += 360
	}
	return d
}
