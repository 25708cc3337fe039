package imgsrc

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piew/internal/filelist"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeGIF(t *testing.T, delays []int) []byte {
	t.Helper()
	palette := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for i, d := range delays {
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				frame.SetColorIndex(x, y, uint8(i%2))
			}
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, d)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func TestDecodeStaticPNG(t *testing.T) {
	src, err := DecodeBytes(encodePNG(t, 8, 6, color.White), "a.png")
	require.NoError(t, err)

	w, h := src.Bounds()
	assert.Equal(t, 8, w)
	assert.Equal(t, 6, h)
	assert.False(t, src.IsAnimated())
	assert.False(t, src.Autoplay())
	assert.Equal(t, 0, src.Timeline().FrameCount())
}

func TestDecodeAnimatedGIF(t *testing.T) {
	src, err := DecodeBytes(encodeGIF(t, []int{10, 20, 5}), "a.gif")
	require.NoError(t, err)

	assert.True(t, src.IsAnimated())
	assert.True(t, src.Autoplay())

	tl := src.Timeline()
	require.Equal(t, 3, tl.FrameCount())
	assert.Equal(t, 100*time.Millisecond, tl.Durations[0])
	assert.Equal(t, 200*time.Millisecond, tl.Durations[1])
	assert.Equal(t, 50*time.Millisecond, tl.Durations[2])

	w, h := src.Bounds()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
}

func TestDecodeGIFNormalizesTinyDelays(t *testing.T) {
	src, err := DecodeBytes(encodeGIF(t, []int{0, 1, 2}), "fast.gif")
	require.NoError(t, err)

	tl := src.Timeline()
	require.Equal(t, 3, tl.FrameCount())
	assert.Equal(t, 100*time.Millisecond, tl.Durations[0])
	assert.Equal(t, 100*time.Millisecond, tl.Durations[1])
	assert.Equal(t, 20*time.Millisecond, tl.Durations[2])
}

func TestDecodeSingleFrameGIFIsStatic(t *testing.T) {
	src, err := DecodeBytes(encodeGIF(t, []int{10}), "one.gif")
	require.NoError(t, err)
	assert.False(t, src.IsAnimated())
	assert.False(t, src.Autoplay())
}

func TestDecodeGarbageFails(t *testing.T) {
	_, err := DecodeBytes([]byte("not an image"), "broken.png")
	assert.Error(t, err)
}

func TestCompositeFramesFullSize(t *testing.T) {
	// Second frame only covers a corner of the canvas; compositing must
	// still produce a full-size frame with the first frame showing
	// through the uncovered area.
	palette := color.Palette{color.Black, color.White}
	base := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			base.SetColorIndex(x, y, 1)
		}
	}
	corner := image.NewPaletted(image.Rect(0, 0, 2, 2), palette)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			corner.SetColorIndex(x, y, 0)
		}
	}
	g := &gif.GIF{
		Image:    []*image.Paletted{base, corner},
		Delay:    []int{10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone},
		Config:   image.Config{Width: 4, Height: 4},
	}

	frames := compositeFrames(g)
	require.Len(t, frames, 2)

	b := frames[1].Bounds()
	assert.Equal(t, 4, b.Dx())
	assert.Equal(t, 4, b.Dy())

	r, _, _, _ := PixelRGBA(frames[1], 0, 0)
	assert.Equal(t, uint8(0), r, "corner overlay should be black")
	r, _, _, _ = PixelRGBA(frames[1], 3, 3)
	assert.Equal(t, uint8(255), r, "uncovered area keeps the base frame")
}

func TestPlaceholder(t *testing.T) {
	src := Placeholder()
	w, h := src.Bounds()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.False(t, src.IsAnimated())
}

func TestLoaderCachesByPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pics/a.png", encodePNG(t, 2, 2, color.White), 0o644))

	loader := NewLoader(fs, 4)
	item := filelist.ImagePath{Path: "/pics/a.png"}

	first, err := loader.Get(item)
	require.NoError(t, err)
	second, err := loader.Get(item)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.Len())
}

func TestLoaderDoesNotCacheFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pics/bad.png", []byte("junk"), 0o644))

	loader := NewLoader(fs, 4)
	item := filelist.ImagePath{Path: "/pics/bad.png"}

	_, err := loader.Get(item)
	require.Error(t, err)
	assert.Equal(t, 0, loader.Len())

	// Fixing the file makes the next load succeed.
	require.NoError(t, afero.WriteFile(fs, "/pics/bad.png", encodePNG(t, 2, 2, color.Black), 0o644))
	src, err := loader.Get(item)
	require.NoError(t, err)
	assert.NotNil(t, src)
}

func TestLoaderEvict(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pics/a.png", encodePNG(t, 2, 2, color.White), 0o644))

	loader := NewLoader(fs, 4)
	_, err := loader.Get(filelist.ImagePath{Path: "/pics/a.png"})
	require.NoError(t, err)
	loader.Evict("/pics/a.png")
	assert.Equal(t, 0, loader.Len())
}

func TestLoadZipEntry(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "pics.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("inner/a.png")
	require.NoError(t, err)
	_, err = w.Write(encodePNG(t, 3, 3, color.White))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0o644))

	src, err := Load(afero.NewOsFs(), filelist.ImagePath{
		Path:        archive + ":inner/a.png",
		ArchivePath: archive,
		EntryPath:   "inner/a.png",
	})
	require.NoError(t, err)

	width, height := src.Bounds()
	assert.Equal(t, 3, width)
	assert.Equal(t, 3, height)
}

func TestPixelRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 0, B: 0, A: 0})

	r, g, b, a := PixelRGBA(img, 0, 0)
	assert.Equal(t, []uint8{10, 20, 30, 255}, []uint8{r, g, b, a})

	_, _, _, a = PixelRGBA(img, 1, 0)
	assert.Equal(t, uint8(0), a)
}
