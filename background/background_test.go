package background

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#4facfe")
	if err != nil {
		t.Fatalf("ParseHex 失败: %v", err)
	}
	if c != (color.RGBA{R: 0x4f, G: 0xac, B: 0xfe, A: 0xff}) {
		t.Fatalf("unexpected colour %+v", c)
	}
	short, err := ParseHex("fff")
	if err != nil || short != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Fatalf("short hex mismatch: %+v %v", short, err)
	}
	if got := Hex(c); got != "#4facfe" {
		t.Fatalf("Hex = %s", got)
	}
	for _, bad := range []string{"", "#12", "#gggggg", "red", "#1234567"} {
		if _, err := ParseHex(bad); err == nil {
			t.Fatalf("ParseHex(%q) should fail", bad)
		}
	}
}

func TestPresets(t *testing.T) {
	if len(Presets()) != 8 {
		t.Fatalf("expected 8 presets, got %d", len(Presets()))
	}
	p, ok := PresetByName("green-teal")
	if !ok || p.From != "#43e97b" || p.To != "#38f9d7" {
		t.Fatalf("lookup by normalised name failed: %+v %v", p, ok)
	}
	if _, ok := PresetByName("nope"); ok {
		t.Fatalf("unknown preset should not resolve")
	}
	a := RandomPreset(rand.New(rand.NewPCG(1, 2)))
	b := RandomPreset(rand.New(rand.NewPCG(1, 2)))
	if a != b {
		t.Fatalf("seeded random preset should be stable: %v vs %v", a, b)
	}
}

func TestCoverFitSymmetricCrop(t *testing.T) {
	// 1600x400 源图铺满 800x400：按高度缩放 1.0，左右各裁 400
	fit := CoverFit(1600, 400, 800, 400)
	if fit.Scale != 1 || fit.X != -400 || fit.Y != 0 || fit.W != 1600 || fit.H != 400 {
		t.Fatalf("unexpected fit %+v", fit)
	}
	if fit.Crop != image.Rect(400, 0, 1200, 400) {
		t.Fatalf("unexpected crop %v", fit.Crop)
	}
	// 400x400 源图：按宽度放大 2 倍，上下各裁 100 源像素
	fit = CoverFit(400, 400, 800, 400)
	if fit.Scale != 2 || fit.Y != -200 || fit.Crop != image.Rect(0, 100, 400, 300) {
		t.Fatalf("unexpected fit %+v", fit)
	}
	if (CoverFit(0, 10, 800, 400) != Fit{}) {
		t.Fatalf("degenerate source should yield zero fit")
	}
}

func TestResizeToFillUsesCentre(t *testing.T) {
	// 左右两侧为黑色、中间为白色：cover 裁剪后应只剩白色
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			c := color.RGBA{A: 0xff}
			if x >= 100 && x < 200 {
				c = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
			}
			src.SetRGBA(x, y, c)
		}
	}
	out := ResizeToFill(src, 50, 50)
	if got := out.RGBAAt(25, 25); got.R < 250 {
		t.Fatalf("centre should stay white, got %+v", got)
	}
	if lum := (GridSampler{}).AverageLuminance(src, 50, 50, 4); lum < 250 {
		t.Fatalf("sampled luminance = %v, want ~255", lum)
	}
}

func TestLuminance(t *testing.T) {
	if got := Luminance(color.RGBA{R: 255, G: 255, B: 255, A: 255}); got != 255 {
		t.Fatalf("white luminance = %v", got)
	}
	if got := Luminance(color.RGBA{R: 255, A: 255}); math.Abs(got-76.245) > 1e-9 {
		t.Fatalf("red luminance = %v", got)
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode 失败: %v", err)
	}
	return buf.Bytes()
}

func TestResolveImageAndFallback(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 50))
	res, err := Resolve(FromImage(encodePNG(t, img)), ImageDecoder{}, 800, 400)
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if res.Kind != KindImage || res.Fit.Scale != 8 {
		t.Fatalf("unexpected resolved image %+v", res.Fit)
	}

	res, err = Resolve(FromImage([]byte("definitely not an image")), ImageDecoder{}, 800, 400)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if res.Kind != KindGradient || res.Preset != DefaultPreset {
		t.Fatalf("decode failure should fall back to default preset, got %+v", res)
	}

	if _, err := (ImageDecoder{MaxPixels: 100}).Decode(encodePNG(t, img)); !errors.Is(err, ErrDecode) {
		t.Fatalf("oversized image should be rejected, got %v", err)
	}
}

func TestResolveDefaultsAndErrors(t *testing.T) {
	res, err := Resolve(Spec{}, nil, 800, 400)
	if err != nil || res.Kind != KindGradient || res.Preset != DefaultPreset {
		t.Fatalf("empty spec should resolve to default preset: %+v %v", res, err)
	}
	if _, err := Resolve(Solid("#zzzzzz"), nil, 800, 400); err == nil {
		t.Fatalf("invalid solid colour should fail")
	}
	if _, err := Resolve(FromPreset("Nope"), nil, 800, 400); err == nil {
		t.Fatalf("unknown preset should fail")
	}
}

func TestSpecJSONInfersKind(t *testing.T) {
	var s Spec
	if err := json.Unmarshal([]byte(`{"color":"#000"}`), &s); err != nil {
		t.Fatalf("Unmarshal 失败: %v", err)
	}
	if s.Kind != KindSolid || s.Validate() != nil {
		t.Fatalf("expected valid solid spec, got %+v", s)
	}
	if err := (Spec{Kind: KindSolid, Color: "#000", From: "#fff"}).Validate(); err == nil {
		t.Fatalf("mixed union should be rejected")
	}
}

func TestPatternBuckets(t *testing.T) {
	bright := NewPattern(800, 400, true)
	dark := NewPattern(800, 400, false)
	if bright.Color != (color.RGBA{A: 0xff}) || dark.Color.R != 0xff {
		t.Fatalf("pattern colours: bright=%+v dark=%+v", bright.Color, dark.Color)
	}
	if bright.Dots[0].Alpha != 0.12 || dark.Dots[0].Alpha != 0.15 {
		t.Fatalf("pattern opacity mismatch")
	}
	// x: 60..760 共 8 列，y: 60..360 共 4 行，每格两个点
	if len(dark.Dots) != 8*4*2 {
		t.Fatalf("dots = %d", len(dark.Dots))
	}
	if len(dark.Arcs) != 4 {
		t.Fatalf("arcs = %d", len(dark.Arcs))
	}
	x1, y1, x2, y2 := dark.Arcs[0].Endpoints()
	if math.Abs(x1-80) > 1e-9 || math.Abs(y1) > 1e-9 || math.Abs(x2) > 1e-9 || math.Abs(y2-80) > 1e-9 {
		t.Fatalf("arc endpoints = %v,%v %v,%v", x1, y1, x2, y2)
	}
}

func TestSpecUnmarshalYAMLReplacesValue(t *testing.T) {
	s := FromPreset("Blue")
	if err := yaml.Unmarshal([]byte("color: \"#112233\"\n"), &s); err != nil {
		t.Fatalf("yaml.Unmarshal 失败: %v", err)
	}
	if s.Kind != KindSolid || s.Preset != "" || s.Color != "#112233" {
		t.Fatalf("spec not replaced: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate 失败: %v", err)
	}

	if err := yaml.Unmarshal([]byte("from: \"#000\"\nto: \"#fff\"\n"), &s); err != nil {
		t.Fatalf("yaml.Unmarshal 失败: %v", err)
	}
	if s.Kind != KindGradient || s.Color != "" || s.From != "#000" {
		t.Fatalf("gradient not inferred: %+v", s)
	}
}
