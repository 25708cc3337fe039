package imgsrc

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"piew/internal/anim"
	"piew/internal/filelist"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Load decodes one list item, reading either a plain file or an archive
// entry. The caller decides what to do with a decode failure; Load never
// substitutes a placeholder itself.
func Load(fsys afero.Fs, item filelist.ImagePath) (Source, error) {
	var (
		data []byte
		err  error
		name string
	)
	if item.ArchivePath != "" {
		data, err = readArchiveEntry(item.ArchivePath, item.EntryPath)
		name = item.EntryPath
	} else {
		data, err = afero.ReadFile(fsys, item.Path)
		name = item.Path
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", item.Path, err)
	}
	return DecodeBytes(data, name)
}

// DecodeBytes decodes image data. GIF data goes through the animation
// path so multi-frame files keep their timeline; everything else becomes
// a static source.
func DecodeBytes(data []byte, name string) (Source, error) {
	if strings.EqualFold(filepath.Ext(name), ".gif") {
		return decodeGIF(bytes.NewReader(data), name)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return NewStatic(img), nil
}

func decodeGIF(r io.Reader, name string) (Source, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("failed to decode %s: no frames", name)
	}
	if len(g.Image) == 1 {
		return NewStatic(g.Image[0]), nil
	}
	frames := compositeFrames(g)
	return NewAnimated(frames, anim.Timeline{Durations: frameDurations(g)}), nil
}

// compositeFrames flattens the GIF's partial frames onto a shared canvas,
// honoring each frame's disposal method, so every returned frame is a
// full-size image.
func compositeFrames(g *gif.GIF) []image.Image {
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Dx(), b.Dy()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	frames := make([]image.Image, len(g.Image))
	for i, frame := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(canvas.Bounds())
			draw.Draw(previous, canvas.Bounds(), canvas, image.Point{}, draw.Src)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snapshot := image.NewRGBA(canvas.Bounds())
		draw.Draw(snapshot, canvas.Bounds(), canvas, image.Point{}, draw.Src)
		frames[i] = snapshot

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return frames
}

// frameDurations converts GIF delays (centiseconds) to the timeline
// format. Zero and implausibly small delays are normalized to 100ms,
// which is what most browsers render them as.
func frameDurations(g *gif.GIF) []time.Duration {
	durations := make([]time.Duration, len(g.Image))
	for i := range durations {
		var d int
		if i < len(g.Delay) {
			d = g.Delay[i]
		}
		if d < 2 {
			durations[i] = 100 * time.Millisecond
		} else {
			durations[i] = time.Duration(d) * 10 * time.Millisecond
		}
	}
	return durations
}
