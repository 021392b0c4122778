package quote

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/binding"
	"github.com/ByLCY/quotura/contrast"
	"github.com/ByLCY/quotura/layout"
	"github.com/ByLCY/quotura/markup"
	"github.com/ByLCY/quotura/renderer"
	canvasrenderer "github.com/ByLCY/quotura/renderer/canvas"
	"github.com/ByLCY/quotura/renderer/raster"
	"github.com/ByLCY/quotura/renderer/svg"
)

// Output 是一次渲染的全部产物。光栅、SVG 与 PDF 共用同一份排版与配色结论。
type Output struct {
	// Raster 为 PNG（默认）或 JPEG 字节，RasterFormat 标明格式。
	Raster       []byte            `json:"raster"`
	RasterFormat raster.Format     `json:"rasterFormat"`
	SVG          []byte            `json:"svg"`
	PDF          []byte            `json:"pdf,omitempty"`
	Layout       *layout.Result    `json:"layout"`
	Contrast     contrast.Decision `json:"contrast"`
	Background   background.Kind   `json:"background"`
	// Warnings 记录已恢复的问题：背景图片解码失败、字体度量退回估算。
	Warnings []error `json:"-"`
}

// WarningMessages returns the warnings as plain strings.
func (o *Output) WarningMessages() []string {
	out := make([]string, len(o.Warnings))
	for i, w := range o.Warnings {
		out[i] = w.Error()
	}
	return out
}

// Renderer 串联分词、排版、配色与各输出渲染器。
// 仅持有只读的字体缓存，可被多个 goroutine 同时使用。
type Renderer struct {
	metrics layout.MetricsProvider
	fonts   *raster.FontCache
	pdf     *canvasrenderer.Renderer
	decoder background.Decoder
	sampler background.Sampler
	logger  *slog.Logger
}

// Option 配置 Renderer。
type Option func(*Renderer)

// WithMetrics 替换字体度量后端，默认使用绘制光栅图的 gg 字体缓存度量。
func WithMetrics(m layout.MetricsProvider) Option {
	return func(r *Renderer) { r.metrics = m }
}

// WithDecoder replaces the background image decoder.
func WithDecoder(d background.Decoder) Option {
	return func(r *Renderer) { r.decoder = d }
}

// WithSampler replaces the image luminance sampler.
func WithSampler(s background.Sampler) Option {
	return func(r *Renderer) { r.sampler = s }
}

// WithLogger 为该实例设置日志，未设置时使用包级 Logger()。
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer creates a pipeline with shared font caches.
func NewRenderer(opts ...Option) *Renderer {
	cache := raster.NewFontCache()
	r := &Renderer{
		metrics: raster.Metrics{Fonts: cache},
		fonts:   cache,
		pdf:     canvasrenderer.NewRenderer(),
		decoder: background.ImageDecoder{},
		sampler: background.GridSampler{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = NewRenderer()

// Render 使用包级默认实例渲染。
func Render(text string, s Settings) (*Output, error) {
	return defaultRenderer.Render(text, s)
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// Render 生成引用图片。排版与配色各计算一次，随后光栅、SVG、PDF 独立绘制。
func (r *Renderer) Render(text string, s Settings) (*Output, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := &Output{}
	frame, err := r.Frame(text, s, out)
	if err != nil {
		return nil, err
	}

	format := raster.FormatPNG
	if f := strings.ToLower(s.Outputs.RasterFormat); f == "jpeg" || f == "jpg" {
		format = raster.FormatJPEG
	}
	if s.Outputs.EInk > 0 {
		format = raster.FormatPNG
	}
	out.RasterFormat = format
	rr := raster.NewRenderer(r.fonts, raster.Options{Format: format, Quality: s.Outputs.JPEGQuality, EInk: s.Outputs.EInk})
	if out.Raster, err = r.encode(rr, frame, "raster"); err != nil {
		return nil, err
	}
	if out.SVG, err = r.encode(svg.NewRenderer(svg.Options{Minify: s.Outputs.MinifySVG}), frame, "svg"); err != nil {
		return nil, err
	}
	if s.Outputs.PDF {
		if out.PDF, err = r.encode(r.pdf, frame, "pdf"); err != nil {
			return nil, err
		}
	}
	r.log().Debug("quote rendered",
		"lines", len(frame.Layout.Lines),
		"foreground", frame.Contrast.Foreground,
		"luminance", frame.Contrast.Luminance,
		"warnings", len(out.Warnings))
	return out, nil
}

// Frame 完成排版与配色，返回可交给任意渲染器的帧；恢复的问题追加到 out.Warnings。
func (r *Renderer) Frame(text string, s Settings, out *Output) (*renderer.Frame, error) {
	if out == nil {
		out = &Output{}
	}
	res, err := r.layout(text, s)
	if err != nil {
		return nil, err
	}
	out.Layout = res
	if res.Fallbacks > 0 {
		warn := fmt.Errorf("%w: %d 段文本按字符宽度估算", ErrMetricsUnavailable, res.Fallbacks)
		out.Warnings = append(out.Warnings, warn)
		r.log().Warn("metrics fallback", "count", res.Fallbacks, "font", res.FontFamily)
	}

	g := res.Geometry
	bg, err := background.Resolve(s.Background, r.decoder, g.Width, g.Height)
	if err != nil {
		if !errors.Is(err, background.ErrDecode) {
			return nil, fmt.Errorf("%w: 背景: %v", ErrInvalidSettings, err)
		}
		warn := fmt.Errorf("%w: %v", ErrImageDecodeFailed, err)
		out.Warnings = append(out.Warnings, warn)
		r.log().Warn("background image decode failed, using default preset", "error", err)
	}
	out.Background = bg.Kind

	dec := contrast.Select(bg, r.sampler, s.thresholds())
	out.Contrast = dec

	frame := &renderer.Frame{Layout: res, Background: bg, Contrast: dec}
	if s.Pattern {
		p := background.NewPattern(g.Width, g.Height, dec.Bright)
		frame.Pattern = &p
	}
	if s.IncludeWatermark {
		wm := res.WatermarkPlacement(s.watermarkText())
		frame.Watermark = &wm
	}
	if s.TextColor != "" {
		c, err := background.ParseHex(s.TextColor)
		if err != nil {
			return nil, fmt.Errorf("%w: 文字颜色: %v", ErrInvalidSettings, err)
		}
		frame.TextColor = &c
	}
	return frame, nil
}

func (r *Renderer) layout(text string, s Settings) (*layout.Result, error) {
	var segs []markup.Segment
	if s.PlainText {
		segs = markup.Plain(binding.InterpolatePlain(text, dataOrNil(s.Data)))
	} else {
		segs = markup.Tokenize(binding.Interpolate(text, dataOrNil(s.Data)))
	}
	res, err := layout.Layout(segs, layout.Options{
		Metrics:    r.metrics,
		FontFamily: s.FontFamily,
		FontSizePx: float64(s.FontSizePx),
		Geometry:   s.geometry(),
		Align:      layout.NormalizeAlign(string(s.Align)),
		BaseBold:   s.BaseBold,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return res, nil
}

func (r *Renderer) encode(rd renderer.Renderer, frame *renderer.Frame, name string) ([]byte, error) {
	data, err := rd.Render(frame)
	if err != nil {
		r.log().Error("encode failed", "output", name, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrEncodeFailed, name, err)
	}
	return data, nil
}

// dataOrNil 避免 nil map 装箱成非 nil 的 any。
func dataOrNil(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}
