package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/contrast"
	"github.com/ByLCY/quotura/layout"
	"github.com/ByLCY/quotura/markup"
	"github.com/ByLCY/quotura/renderer"
)

func testFrame(t *testing.T, cache *FontCache, text string, bg background.Spec) *renderer.Frame {
	t.Helper()
	res, err := layout.Layout(markup.Tokenize(text), layout.Options{Metrics: Metrics{Fonts: cache}, FontFamily: "Go", FontSizePx: 28})
	if err != nil {
		t.Fatalf("Layout 失败: %v", err)
	}
	resolved, err := background.Resolve(bg, nil, 800, 400)
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	return &renderer.Frame{Layout: res, Background: resolved, Contrast: contrast.Select(resolved, nil, contrast.DefaultThresholds())}
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PNG 解码失败: %v", err)
	}
	return img
}

func TestRenderPNGSize(t *testing.T) {
	cache := NewFontCache()
	frame := testFrame(t, cache, "Stay <i>hungry</i>, stay <u>foolish</u>", background.FromPreset("Pink Yellow"))
	out, err := NewRenderer(cache, Options{}).Render(frame)
	if err != nil {
		t.Fatalf("Render 失败: %v", err)
	}
	img := decodePNG(t, out)
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 400 {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestSolidBackgroundAndText(t *testing.T) {
	cache := NewFontCache()
	frame := testFrame(t, cache, "WWWW", background.Solid("#ffffff"))
	img, err := NewRenderer(cache, Options{}).Image(frame)
	if err != nil {
		t.Fatalf("Image 失败: %v", err)
	}
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 != 0xff || g>>8 != 0xff || b>>8 != 0xff {
		t.Fatalf("corner should be background white, got %v", img.At(5, 5))
	}
	// 白底配黑字：文本行所在区域必须出现深色像素
	y := int(frame.Layout.LineY(0))
	x0 := int(frame.Layout.LineX(0))
	dark := false
	for x := x0; x < x0+int(frame.Layout.Lines[0].Width) && !dark; x++ {
		for dy := -10; dy <= 10; dy++ {
			if r, _, _, _ := img.At(x, y+dy).RGBA(); r>>8 < 0x80 {
				dark = true
				break
			}
		}
	}
	if !dark {
		t.Fatalf("no text pixels found on line 0")
	}
}

func bottomRightDiffers(a, b image.Image) bool {
	for y := 340; y < 400; y++ {
		for x := 560; x < 800; x++ {
			if a.At(x, y) != b.At(x, y) {
				return true
			}
		}
	}
	return false
}

func TestWatermarkPixelsOnlyWhenRequested(t *testing.T) {
	cache := NewFontCache()
	r := NewRenderer(cache, Options{})
	frame := testFrame(t, cache, "Hi", background.Solid("#ffffff"))
	plain, err := r.Image(frame)
	if err != nil {
		t.Fatalf("Image 失败: %v", err)
	}
	// 无水印时右下角与背景一致
	for y := 340; y < 400; y++ {
		for x := 560; x < 800; x++ {
			if c := color.RGBAModel.Convert(plain.At(x, y)).(color.RGBA); c != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
				t.Fatalf("unexpected pixel %v at (%d,%d)", c, x, y)
			}
		}
	}
	wm := frame.Layout.WatermarkPlacement("made with Quotura")
	frame.Watermark = &wm
	marked, err := r.Image(frame)
	if err != nil {
		t.Fatalf("Image 失败: %v", err)
	}
	if !bottomRightDiffers(plain, marked) {
		t.Fatalf("watermark did not change any pixel")
	}
}

func TestImageBackgroundCover(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 400; x++ {
			src.Set(x, y, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	cache := NewFontCache()
	frame := testFrame(t, cache, "x", background.FromImage(buf.Bytes()))
	img, err := NewRenderer(cache, Options{}).Image(frame)
	if err != nil {
		t.Fatalf("Image 失败: %v", err)
	}
	// cover 缩放后整幅画布都被图片覆盖
	for _, p := range []image.Point{{2, 2}, {797, 2}, {2, 397}, {797, 397}} {
		c := color.RGBAModel.Convert(img.At(p.X, p.Y)).(color.RGBA)
		if c.R > 0x20 || c.B < 0x20 {
			t.Fatalf("pixel at %v not covered by image: %v", p, c)
		}
	}
	if frame.Contrast.Foreground != contrast.Light {
		t.Fatalf("dark image should select light text")
	}
}

func TestEInkOutputIsGray(t *testing.T) {
	cache := NewFontCache()
	frame := testFrame(t, cache, "Ink", background.FromPreset("Green Teal"))
	out, err := NewRenderer(cache, Options{EInk: 2}).Render(frame)
	if err != nil {
		t.Fatalf("Render 失败: %v", err)
	}
	img := decodePNG(t, out)
	seen := map[uint32]bool{}
	for y := 0; y < 400; y += 7 {
		for x := 0; x < 800; x += 7 {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) not gray", x, y)
			}
			seen[r>>8] = true
		}
	}
	if len(seen) > 4 {
		t.Fatalf("2-bit output should use at most 4 levels, got %d", len(seen))
	}
}

func TestJPEGEncoding(t *testing.T) {
	cache := NewFontCache()
	frame := testFrame(t, cache, "jpeg", background.Solid("#336699"))
	out, err := NewRenderer(cache, Options{Format: FormatJPEG, Quality: 80}).Render(frame)
	if err != nil {
		t.Fatalf("Render 失败: %v", err)
	}
	if len(out) < 3 || out[0] != 0xff || out[1] != 0xd8 {
		t.Fatalf("output is not a JPEG")
	}
}

func TestMetrics(t *testing.T) {
	m := Metrics{Fonts: NewFontCache()}
	w, err := m.Measure("Hello", "Go", 28, layout.Style{})
	if err != nil || w <= 0 {
		t.Fatalf("Measure = %g, %v", w, err)
	}
	again, _ := m.Measure("Hello", "Go", 28, layout.Style{})
	if again != w {
		t.Fatalf("measure not deterministic: %g vs %g", w, again)
	}
	if _, err := (Metrics{}).Measure("Hello", "Go", 28, layout.Style{}); err == nil {
		t.Fatalf("nil cache should fail")
	}
}

func TestGrayscalePalette(t *testing.T) {
	p := grayscalePalette(1)
	if len(p) != 2 || p[0] != (color.Gray{Y: 0}) || p[1] != (color.Gray{Y: 255}) {
		t.Fatalf("1-bit palette = %v", p)
	}
	if len(grayscalePalette(12)) != 256 {
		t.Fatalf("bit depth should clamp to 8")
	}
}

func TestRenderRejectsEmptyFrame(t *testing.T) {
	if _, err := NewRenderer(nil, Options{}).Render(nil); err == nil {
		t.Fatalf("nil frame should fail")
	}
}
