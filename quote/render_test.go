package quote

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/contrast"
	"github.com/ByLCY/quotura/layout"
)

// perRune 为每个字符返回固定宽度，用于构造确定的折行。
func perRune(w float64) layout.MetricsFunc {
	return func(text, family string, sizePx float64, st layout.Style) (float64, error) {
		return float64(utf8.RuneCountInString(text)) * w, nil
	}
}

func render(t *testing.T, r *Renderer, text string, s Settings) *Output {
	t.Helper()
	out, err := r.Render(text, s)
	if err != nil {
		t.Fatalf("Render 失败: %v", err)
	}
	return out
}

type svgLine struct {
	Y     string `xml:"y,attr"`
	Spans []struct {
		X    string `xml:"x,attr"`
		Text string `xml:",chardata"`
	} `xml:"tspan"`
}

type svgDoc struct {
	Groups []struct {
		Class string    `xml:"class,attr"`
		Fill  string    `xml:"fill,attr"`
		Lines []svgLine `xml:"text"`
	} `xml:"g"`
	Texts []struct {
		Class string `xml:"class,attr"`
	} `xml:"text"`
}

func parseSVG(t *testing.T, data []byte) svgDoc {
	t.Helper()
	var doc svgDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("SVG 无法解析: %v", err)
	}
	return doc
}

func svgLines(t *testing.T, doc svgDoc) ([]string, string) {
	t.Helper()
	for _, g := range doc.Groups {
		if g.Class != "quote" {
			continue
		}
		out := make([]string, len(g.Lines))
		for i, ln := range g.Lines {
			var b strings.Builder
			for _, sp := range ln.Spans {
				b.WriteString(sp.Text)
			}
			out[i] = b.String()
		}
		return out, g.Fill
	}
	t.Fatalf("quote group missing")
	return nil, ""
}

func TestQuickBrownFoxScenario(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(17)))
	s := DefaultSettings()
	s.FontFamily = "Arial"
	out := render(t, r, "The quick  brown fox\tjumps over the lazy dog", s)
	texts := out.Layout.Texts()
	if len(texts) != 2 {
		t.Fatalf("expected 2 lines, got %q", texts)
	}
	if got := strings.Join(texts, " "); got != "The quick brown fox jumps over the lazy dog" {
		t.Fatalf("collapsed text mismatch: %q", got)
	}
	lines, _ := svgLines(t, parseSVG(t, out.SVG))
	if !reflect.DeepEqual(lines, texts) {
		t.Fatalf("svg lines %q differ from layout %q", lines, texts)
	}
}

func TestBlankLinePreservedInAllOutputs(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	out := render(t, r, "A\n\nB", DefaultSettings())
	want := []string{"A", "", "B"}
	if got := out.Layout.Texts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("layout lines = %q", got)
	}
	lines, _ := svgLines(t, parseSVG(t, out.SVG))
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("svg lines = %q", lines)
	}
}

func TestContrastScenarios(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	cases := []struct {
		from, to string
		want     contrast.Foreground
		fill     string
	}{
		{"#000000", "#000000", contrast.Light, "#ffffff"},
		{"#ffffff", "#ffffff", contrast.Dark, "#000000"},
	}
	for _, c := range cases {
		s := DefaultSettings()
		s.Background = background.Gradient(c.from, c.to)
		out := render(t, r, "contrast", s)
		if out.Contrast.Foreground != c.want {
			t.Fatalf("%s..%s foreground = %s, want %s", c.from, c.to, out.Contrast.Foreground, c.want)
		}
		if _, fill := svgLines(t, parseSVG(t, out.SVG)); fill != c.fill {
			t.Fatalf("%s..%s svg fill = %s, want %s", c.from, c.to, fill, c.fill)
		}
	}
}

func TestFontSizeBounds(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	for _, size := range []int{5, 11, 61, 100, -28} {
		s := DefaultSettings()
		s.FontSizePx = size
		if _, err := r.Render("x", s); !errors.Is(err, ErrInvalidFontSize) {
			t.Fatalf("size %v: expected ErrInvalidFontSize, got %v", size, err)
		}
	}
	for _, size := range []int{12, 60} {
		s := DefaultSettings()
		s.FontSizePx = size
		if _, err := r.Render("x", s); err != nil {
			t.Fatalf("size %v should be accepted: %v", size, err)
		}
	}
}

func TestFontSizeIsWholePixels(t *testing.T) {
	var s Settings
	if err := json.Unmarshal([]byte(`{"fontSize": 12.5}`), &s); err == nil {
		t.Fatalf("fractional font size should be rejected, got %d", s.FontSizePx)
	}
	cases := map[string]int{"28": 28, "28px": 28, "21pt": 28, "12.4px": 12, "59.5": 60}
	for raw, want := range cases {
		got, err := ParseFontSize(raw)
		if err != nil {
			t.Fatalf("ParseFontSize(%q) 失败: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseFontSize(%q) = %d, want %d", raw, got, want)
		}
	}
	if _, err := ParseFontSize("big"); !errors.Is(err, ErrInvalidFontSize) {
		t.Fatalf("expected ErrInvalidFontSize, got %v", err)
	}
}

func TestInvalidSettings(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	cases := map[string]func(*Settings){
		"inset":      func(s *Settings) { s.Inset = 400 },
		"text color": func(s *Settings) { s.TextColor = "red" },
		"solid":      func(s *Settings) { s.Background = background.Solid("#12") },
		"preset":     func(s *Settings) { s.Background = background.FromPreset("Nope") },
		"format":     func(s *Settings) { s.Outputs.RasterFormat = "gif" },
	}
	for name, mutate := range cases {
		s := DefaultSettings()
		mutate(&s)
		if _, err := r.Render("x", s); !errors.Is(err, ErrInvalidSettings) {
			t.Fatalf("%s: expected ErrInvalidSettings, got %v", name, err)
		}
	}
}

func TestImageDecodeFallsBackToPreset(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	s := DefaultSettings()
	s.Background = background.FromImage([]byte("definitely not an image"))
	out := render(t, r, "fallback", s)
	if len(out.Warnings) != 1 || !errors.Is(out.Warnings[0], ErrImageDecodeFailed) {
		t.Fatalf("expected decode warning, got %v", out.Warnings)
	}
	if out.Background != background.KindGradient {
		t.Fatalf("background should fall back to gradient, got %s", out.Background)
	}
	if !bytes.Contains(out.SVG, []byte("#4facfe")) {
		t.Fatalf("svg should use the default preset")
	}
}

func TestMetricsFailureIsWarning(t *testing.T) {
	failing := layout.MetricsFunc(func(string, string, float64, layout.Style) (float64, error) {
		return 0, errors.New("no font")
	})
	out := render(t, NewRenderer(WithMetrics(failing)), "still renders", DefaultSettings())
	if len(out.Warnings) != 1 || !errors.Is(out.Warnings[0], ErrMetricsUnavailable) {
		t.Fatalf("expected metrics warning, got %v", out.Warnings)
	}
	if len(out.Raster) == 0 || len(out.SVG) == 0 {
		t.Fatalf("outputs must still be produced")
	}
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PNG 解码失败: %v", err)
	}
	return img
}

func TestNoWatermarkScenario(t *testing.T) {
	r := NewRenderer()
	s := DefaultSettings()
	s.Background = background.Solid("#ffffff")
	s.IncludeWatermark = false
	out := render(t, r, "Hello", s)
	doc := parseSVG(t, out.SVG)
	for _, txt := range doc.Texts {
		if txt.Class == "watermark" {
			t.Fatalf("svg must not contain a watermark node")
		}
	}
	img := decodePNG(t, out.Raster)
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	for y := 340; y < 400; y++ {
		for x := 560; x < 800; x++ {
			if c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA); c != white {
				t.Fatalf("watermark corner pixel (%d,%d) = %v", x, y, c)
			}
		}
	}

	s.IncludeWatermark = true
	out = render(t, r, "Hello", s)
	if !bytes.Contains(out.SVG, []byte(DefaultWatermarkText)) {
		t.Fatalf("watermark text missing from svg")
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := NewRenderer()
	s := DefaultSettings()
	s.Pattern = true
	text := "<b>Stay</b> hungry, <i>stay</i> <u>foolish</u>"
	a := render(t, r, text, s)
	b := render(t, r, text, s)
	if !bytes.Equal(a.SVG, b.SVG) || !bytes.Equal(a.Raster, b.Raster) {
		t.Fatalf("outputs differ between identical calls")
	}
	if !reflect.DeepEqual(a.Layout, b.Layout) || a.Contrast != b.Contrast {
		t.Fatalf("layout or contrast differ between identical calls")
	}
}

func TestOutputsOptional(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	s := DefaultSettings()
	s.Outputs = Outputs{RasterFormat: "jpeg", JPEGQuality: 70, PDF: true, MinifySVG: true}
	out := render(t, r, "formats", s)
	if out.RasterFormat != "jpeg" || out.Raster[0] != 0xff || out.Raster[1] != 0xd8 {
		t.Fatalf("raster should be jpeg")
	}
	if !bytes.HasPrefix(out.PDF, []byte("%PDF-")) {
		t.Fatalf("pdf missing")
	}
	s.Outputs = Outputs{}
	if out := render(t, r, "formats", s); out.PDF != nil || out.RasterFormat != "png" {
		t.Fatalf("pdf should be opt-in and png the default")
	}
}

func TestDataInterpolationIsEscaped(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	s := DefaultSettings()
	s.Data = map[string]any{"author": "<b>Ada</b>"}
	out := render(t, r, "— ${author}", s)
	if got := out.Layout.Texts(); len(got) != 1 || got[0] != "— <b>Ada</b>" {
		t.Fatalf("data must not inject markup, got %q", got)
	}
	for _, run := range out.Layout.Lines[0].Runs {
		if run.Bold {
			t.Fatalf("injected tag should not apply bold")
		}
	}
	s.PlainText = true
	out = render(t, r, "<b>${author}</b>", s)
	if got := out.Layout.Texts()[0]; got != "<b><b>Ada</b></b>" {
		t.Fatalf("plain text mode should keep tags literally, got %q", got)
	}
}

func TestTextColorOverride(t *testing.T) {
	r := NewRenderer(WithMetrics(perRune(10)))
	s := DefaultSettings()
	s.TextColor = "#ff0000"
	out := render(t, r, "red", s)
	if _, fill := svgLines(t, parseSVG(t, out.SVG)); fill != "#ff0000" {
		t.Fatalf("text colour override ignored: %s", fill)
	}
}

// inkSpan 返回明显深于背景的像素在水平方向上的范围。
func inkSpan(img image.Image) (minX, maxX int, ok bool) {
	b := img.Bounds()
	minX, maxX = b.Max.X, b.Min.X-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if c.Y < 128 {
				minX = min(minX, x)
				maxX = max(maxX, x)
			}
		}
	}
	return minX, maxX, maxX >= minX
}

// TestDefaultMetricsMatchDrawnGlyphs 默认度量与光栅绘制使用同一字体，墨迹必须落在排版给出的行框内并居中。
func TestDefaultMetricsMatchDrawnGlyphs(t *testing.T) {
	s := DefaultSettings()
	s.Background = background.Solid("#ffffff")
	s.IncludeWatermark = false
	out := render(t, NewRenderer(), "The quick brown fox jumps", s)
	if len(out.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", out.Warnings)
	}
	res := out.Layout
	if len(res.Lines) != 1 {
		t.Fatalf("expected one line, got %q", res.Texts())
	}
	width := res.Lines[0].Width
	if width < 300 || width > 380 {
		t.Fatalf("line width %g does not look like real glyph advances", width)
	}
	minX, maxX, ok := inkSpan(decodePNG(t, out.Raster))
	if !ok {
		t.Fatalf("no ink drawn")
	}
	left, right := res.LineX(0), res.LineX(0)+width
	const slack = 4.0
	if float64(minX) < left-slack || float64(minX) > left+slack || float64(maxX) > right+slack || float64(maxX) < right-2*slack {
		t.Fatalf("ink %d..%d outside layout box %.1f..%.1f", minX, maxX, left, right)
	}
	if centre := float64(minX+maxX) / 2; math.Abs(centre-400) > slack {
		t.Fatalf("ink centred at %.1f, want 400", centre)
	}
}
