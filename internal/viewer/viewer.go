// Package viewer is the ebiten adapter: it translates keyboard and
// mouse events into session commands, drives the scheduler from the
// frame loop, and draws the crop the session computes. No browsing
// logic lives here.
package viewer

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"piew/internal/anim"
	"piew/internal/config"
	"piew/internal/sched"
	"piew/internal/session"
	"piew/internal/viewport"
)

const (
	overlayMessageDuration = 3 * time.Second
	infoFontSize           = 16.0
	infoBarHeight          = 28.0
	dragThreshold          = 5
)

// Viewer implements ebiten.Game over one session.
type Viewer struct {
	session *session.Session
	sch     *sched.StepScheduler
	cfg     config.Config
	keys    *KeybindingManager

	winW, winH int
	fullscreen bool
	savedWinW  int
	savedWinH  int

	showInfo    bool
	message     string
	messageTime time.Time

	commandMode   bool
	commandBuffer string
	skipTextInput bool

	pressed  bool
	dragging bool
	pressX   int
	pressY   int
	lastX    int
	lastY    int

	lastTick time.Time

	texFrame    image.Image
	texRotation int
	tex         *ebiten.Image
}

// New wires a viewer to the session and installs the session callbacks.
func New(s *session.Session, scheduler *sched.StepScheduler, cfg config.Config) *Viewer {
	v := &Viewer{
		session:    s,
		sch:        scheduler,
		cfg:        cfg,
		keys:       NewKeybindingManager(cfg.Keybindings),
		winW:       cfg.WindowWidth,
		winH:       cfg.WindowHeight,
		fullscreen: cfg.Fullscreen,
	}
	s.OnRedraw(v.refreshTitle)
	s.OnMessage(v.showMessage)
	return v
}

// CurrentConfig returns the config with the live window geometry, for
// persisting on exit.
func (v *Viewer) CurrentConfig() config.Config {
	cfg := v.cfg
	if v.fullscreen {
		if v.savedWinW > 0 && v.savedWinH > 0 {
			cfg.WindowWidth, cfg.WindowHeight = v.savedWinW, v.savedWinH
		}
	} else if w, h := ebiten.WindowSize(); w > 0 && h > 0 {
		cfg.WindowWidth, cfg.WindowHeight = w, h
	}
	cfg.Fullscreen = v.fullscreen
	return cfg
}

func (v *Viewer) Update() error {
	now := time.Now()
	if !v.lastTick.IsZero() {
		v.sch.Advance(now.Sub(v.lastTick))
	}
	v.lastTick = now

	var err error
	if v.commandMode {
		v.updateCommandInput()
	} else {
		err = v.handleKeys()
		v.handleMouse()
	}

	// Flush the coalesced redraw queue after this frame's mutations.
	v.sch.RunIdle()
	return err
}

func (v *Viewer) handleKeys() error {
	if v.keys.CheckAction("quit") {
		config.Save(v.CurrentConfig())
		return ebiten.Termination
	}
	if v.keys.CheckAction("fullscreen") {
		v.toggleFullscreen()
	}
	if v.keys.CheckAction("toggle_info") {
		v.showInfo = !v.showInfo
	}
	if v.keys.CheckAction("command_prompt") {
		v.commandMode = true
		v.commandBuffer = ""
		// The activating keypress produces a char in the same frame.
		v.skipTextInput = true
		return nil
	}

	mods := HeldModifiers()
	if v.keys.CheckActionWithModifiers("move_up") {
		v.session.MoveStep(0, -1, mods)
	}
	if v.keys.CheckActionWithModifiers("move_down") {
		v.session.MoveStep(0, 1, mods)
	}
	if v.keys.CheckActionWithModifiers("move_left") {
		v.session.HorizontalStep(-1, mods)
	}
	if v.keys.CheckActionWithModifiers("move_right") {
		v.session.HorizontalStep(1, mods)
	}
	if v.keys.CheckActionWithModifiers("next_file") {
		v.session.ChangeFileStep(1, mods)
	}
	if v.keys.CheckActionWithModifiers("prev_file") {
		v.session.ChangeFileStep(-1, mods)
	}

	if v.keys.CheckActionWithModifiers("zoom_in") {
		v.session.ZoomIn(nil)
	}
	if v.keys.CheckActionWithModifiers("zoom_out") {
		v.session.ZoomOut(nil)
	}
	if v.keys.CheckAction("zoom_adjust") {
		v.session.ZoomAdjust()
	}
	if v.keys.CheckAction("zoom_reset") {
		v.session.SetZoom(1, nil)
	}
	if v.keys.CheckAction("rotate_cw") {
		if err := v.session.Rotate(90); err != nil {
			v.showMessage(err.Error())
		}
	}
	if v.keys.CheckAction("toggle_animation") {
		v.session.ToggleAnimation()
	}
	if v.keys.CheckAction("step_frame") {
		v.session.StepFrame()
	}
	if v.keys.CheckAction("remove_file") {
		v.session.RemoveCurrent()
	}
	if v.keys.CheckAction("refresh_list") {
		v.session.Refresh()
	}
	return nil
}

// updateCommandInput handles the prompt for textual commands, entered
// one keypress at a time.
func (v *Viewer) updateCommandInput() {
	if v.skipTextInput {
		v.skipTextInput = false
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		v.commandMode = false
		v.commandBuffer = ""
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		line := v.commandBuffer
		v.commandMode = false
		v.commandBuffer = ""
		v.session.Execute(line)
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(v.commandBuffer) > 0 {
		v.commandBuffer = v.commandBuffer[:len(v.commandBuffer)-1]
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r >= 0x20 && r != 0x7f {
			v.commandBuffer += string(r)
		}
	}
}

func (v *Viewer) handleMouse() {
	cx, cy := ebiten.CursorPosition()
	mods := HeldModifiers()

	if _, wy := ebiten.Wheel(); wy != 0 {
		pivot := v.cursorPivot(cx, cy)
		if wy > 0 {
			v.session.ZoomIn(pivot)
		} else {
			v.session.ZoomOut(pivot)
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		v.pressed = true
		v.dragging = false
		v.pressX, v.pressY = cx, cy
		v.lastX, v.lastY = cx, cy
	}
	if v.pressed && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !v.dragging && (abs(cx-v.pressX) > dragThreshold || abs(cy-v.pressY) > dragThreshold) {
			v.dragging = true
		}
		if v.dragging && (cx != v.lastX || cy != v.lastY) {
			v.session.Pan(float64(v.lastX-cx), float64(v.lastY-cy))
		}
		v.lastX, v.lastY = cx, cy
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		wasDrag := v.dragging
		v.pressed = false
		v.dragging = false
		if !wasDrag {
			if ebiten.IsKeyPressed(ebiten.KeyControl) {
				v.session.InspectPixel(float64(cx), float64(cy))
			} else {
				v.session.ChangeFileStep(-1, mods)
			}
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		v.session.ChangeFileStep(1, mods)
	}
}

func (v *Viewer) cursorPivot(cx, cy int) *viewport.Pivot {
	return &viewport.Pivot{
		X: float64(cx) - float64(v.winW)/2,
		Y: float64(cy) - float64(v.winH)/2,
	}
}

func (v *Viewer) toggleFullscreen() {
	v.fullscreen = !v.fullscreen
	if v.fullscreen {
		v.savedWinW, v.savedWinH = ebiten.WindowSize()
		ebiten.SetFullscreen(true)
	} else {
		ebiten.SetFullscreen(false)
		if v.savedWinW > 0 && v.savedWinH > 0 {
			ebiten.SetWindowSize(v.savedWinW, v.savedWinH)
		}
	}
}

func (v *Viewer) refreshTitle() {
	if path, ok := v.session.CurrentPath(); ok {
		index, count := v.session.Position()
		ebiten.SetWindowTitle(fmt.Sprintf("piew - %s [%d/%d]", filepath.Base(path), index, count))
	} else {
		ebiten.SetWindowTitle("piew")
	}
}

func (v *Viewer) showMessage(msg string) {
	v.message = msg
	v.messageTime = time.Now()
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if frame := v.session.FrameImage(); frame != nil {
		v.drawFrame(screen, frame)
	}
	if v.showInfo {
		v.drawInfo(screen)
	}
	if v.commandMode {
		v.drawCommandPrompt(screen)
	}
	if v.message != "" && time.Since(v.messageTime) < overlayMessageDuration {
		v.drawMessage(screen)
	}
}

func (v *Viewer) drawFrame(screen *ebiten.Image, frame image.Image) {
	crop := v.session.Crop()
	if crop.SrcW <= 0 || crop.SrcH <= 0 {
		return
	}
	tex := v.texture(frame, v.session.Rotation())
	sub := tex.SubImage(image.Rect(crop.SrcX, crop.SrcY, crop.SrcX+crop.SrcW, crop.SrcY+crop.SrcH)).(*ebiten.Image)

	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterLinear
	op.GeoM.Scale(float64(crop.DstW)/float64(crop.SrcW), float64(crop.DstH)/float64(crop.SrcH))
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	op.GeoM.Translate(float64(w)/2-float64(crop.DstW)/2, float64(h)/2-float64(crop.DstH)/2)
	screen.DrawImage(sub, op)
}

// texture converts the current frame to a GPU image, applying the
// display rotation. The conversion is cached per frame and rotation.
func (v *Viewer) texture(frame image.Image, rotation int) *ebiten.Image {
	if v.tex != nil && frame == v.texFrame && rotation == v.texRotation {
		return v.tex
	}
	tex := ebiten.NewImageFromImage(frame)
	if rotation != 0 {
		tex = rotateTexture(tex, rotation)
	}
	v.texFrame = frame
	v.texRotation = rotation
	v.tex = tex
	return tex
}

func rotateTexture(src *ebiten.Image, rotation int) *ebiten.Image {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dw, dh := w, h
	if rotation == 90 || rotation == 270 {
		dw, dh = h, w
	}
	dst := ebiten.NewImage(dw, dh)
	op := &ebiten.DrawImageOptions{}
	switch rotation {
	case 90:
		op.GeoM.Rotate(math.Pi / 2)
		op.GeoM.Translate(float64(h), 0)
	case 180:
		op.GeoM.Rotate(math.Pi)
		op.GeoM.Translate(float64(w), float64(h))
	case 270:
		op.GeoM.Rotate(3 * math.Pi / 2)
		op.GeoM.Translate(0, float64(w))
	}
	dst.DrawImage(src, op)
	return dst
}

func (v *Viewer) drawInfo(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	font := &text.GoTextFace{Source: fontSource, Size: infoFontSize}

	name := "(no file)"
	if path, ok := v.session.CurrentPath(); ok {
		name = filepath.Base(path)
	}
	index, count := v.session.Position()
	line := fmt.Sprintf("%s  [%d/%d]  %d%%", name, index, count, int(v.session.Zoom()*100+0.5))
	if st := v.session.AnimationState(); st != anim.NoAnimation {
		line += "  " + st.String()
	}
	if v.session.IsInvalid() {
		line += "  [decode error]"
	}

	DrawFilledRect(screen, 0, float64(h)-infoBarHeight, float64(w), infoBarHeight, bgColorMedium)
	DrawText(screen, line, font, 8, float64(h)-infoBarHeight+4, colorWhite)
}

func (v *Viewer) drawCommandPrompt(screen *ebiten.Image) {
	w := screen.Bounds().Dx()
	font := &text.GoTextFace{Source: fontSource, Size: infoFontSize}
	DrawFilledRect(screen, 0, 0, float64(w), infoBarHeight, bgColorMedium)
	DrawText(screen, ":"+v.commandBuffer+"_", font, 8, 4, colorYellow)
}

func (v *Viewer) drawMessage(screen *ebiten.Image) {
	font := &text.GoTextFace{Source: fontSource, Size: infoFontSize}
	width, height := text.Measure(v.message, font, 0)
	DrawFilledRect(screen, 8, float64(infoBarHeight)+8, width+16, height+8, bgColorMedium)
	DrawText(screen, v.message, font, 16, float64(infoBarHeight)+12, colorWhite)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != v.winW || outsideHeight != v.winH {
		v.winW, v.winH = outsideWidth, outsideHeight
		v.session.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
