package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/layout"
	"github.com/ByLCY/quotura/renderer"
)

// Format 光栅输出编码格式。
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Options configures the raster renderer.
type Options struct {
	Format  Format
	Quality int // JPEG 质量 1-100，默认 92
	// EInk 大于 0 时按该位深输出 Floyd–Steinberg 抖动灰度 PNG。
	EInk int
}

// Renderer draws frames on a gogpu/gg software context.
type Renderer struct {
	fonts *FontCache
	opts  Options
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates a raster renderer; cache may be shared with other renderers.
func NewRenderer(cache *FontCache, opts Options) *Renderer {
	if cache == nil {
		cache = NewFontCache()
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 92
	}
	return &Renderer{fonts: cache, opts: opts}
}

// Render 绘制并编码一帧。
func (r *Renderer) Render(frame *renderer.Frame) ([]byte, error) {
	img, err := r.Image(frame)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", renderer.ErrEncode, r.opts.Format, err)
	}
	return buf.Bytes(), nil
}

// Image 绘制一帧并返回位图：背景、装饰图案、正文、下划线、水印依次叠加。
func (r *Renderer) Image(frame *renderer.Frame) (image.Image, error) {
	if err := frame.Check(); err != nil {
		return nil, err
	}
	g := frame.Layout.Geometry
	dc := gg.NewContext(g.Width, g.Height)
	defer dc.Close()

	if err := drawBackground(dc, frame.Background, g); err != nil {
		return nil, err
	}
	if frame.Pattern != nil {
		if err := drawPattern(dc, frame.Pattern); err != nil {
			return nil, err
		}
	}
	if err := r.drawText(dc, frame); err != nil {
		return nil, err
	}
	if frame.Watermark != nil {
		if err := r.drawWatermark(dc, frame); err != nil {
			return nil, err
		}
	}
	return cloneImage(dc.Image()), nil
}

// BackgroundImage 只绘制背景与装饰图案，供矢量输出嵌入使用。
func BackgroundImage(frame *renderer.Frame) (image.Image, error) {
	if err := frame.Check(); err != nil {
		return nil, err
	}
	g := frame.Layout.Geometry
	dc := gg.NewContext(g.Width, g.Height)
	defer dc.Close()
	if err := drawBackground(dc, frame.Background, g); err != nil {
		return nil, err
	}
	if frame.Pattern != nil {
		if err := drawPattern(dc, frame.Pattern); err != nil {
			return nil, err
		}
	}
	return cloneImage(dc.Image()), nil
}

func drawBackground(dc *gg.Context, bg background.Resolved, g layout.Geometry) error {
	w, h := float64(g.Width), float64(g.Height)
	switch bg.Kind {
	case background.KindSolid:
		dc.ClearWithColor(background.ToGG(bg.Solid))
		return nil
	case background.KindImage:
		// 透明区域按白底合成，与亮度采样一致
		dc.ClearWithColor(gg.RGBA2(1, 1, 1, 1))
		if bg.Image == nil || bg.Fit.Crop.Empty() {
			return nil
		}
		src := bg.Fit.Crop.Add(bg.Image.Bounds().Min)
		dc.DrawImageEx(gg.ImageBufFromImage(bg.Image), gg.DrawImageOptions{
			X:             0,
			Y:             0,
			DstWidth:      w,
			DstHeight:     h,
			SrcRect:       &src,
			Interpolation: gg.InterpBilinear,
			Opacity:       1,
			BlendMode:     gg.BlendNormal,
		})
		return nil
	default:
		grad := gg.NewLinearGradientBrush(0, 0, w, h).
			AddColorStop(0, background.ToGG(bg.From)).
			AddColorStop(1, background.ToGG(bg.To))
		dc.SetFillBrush(grad)
		dc.DrawRectangle(0, 0, w, h)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("绘制渐变背景失败: %w", err)
		}
		return nil
	}
}

func drawPattern(dc *gg.Context, p *background.Pattern) error {
	c := background.ToGG(p.Color)
	for _, d := range p.Dots {
		dc.SetRGBA(c.R, c.G, c.B, d.Alpha)
		dc.DrawCircle(d.X, d.Y, d.R)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("绘制装饰圆点失败: %w", err)
		}
	}
	for _, s := range p.Lines {
		dc.SetRGBA(c.R, c.G, c.B, s.Alpha)
		dc.SetLineWidth(s.Width)
		dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("绘制装饰线条失败: %w", err)
		}
	}
	for _, a := range p.Arcs {
		dc.SetRGBA(c.R, c.G, c.B, a.Alpha)
		dc.SetLineWidth(a.Width)
		dc.ClearPath()
		dc.DrawArc(a.CX, a.CY, a.R, a.Start, a.End)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("绘制装饰弧线失败: %w", err)
		}
	}
	return nil
}

func (r *Renderer) drawText(dc *gg.Context, frame *renderer.Frame) error {
	res := frame.Layout
	fg := frame.Foreground()
	thickness := res.UnderlineThickness()
	for i, ln := range res.Lines {
		xs := res.RunXs(i)
		baseline := res.Baseline(i)
		for j, run := range ln.Runs {
			face, err := r.fonts.Face(res.FontFamily, run.Style(), res.FontSizePx)
			if err != nil {
				return err
			}
			dc.SetFont(face)
			dc.SetColor(fg)
			dc.DrawString(run.Text, xs[j], baseline)
			if run.Underline && run.Width > 0 {
				dc.SetColor(fg)
				dc.DrawRectangle(xs[j], res.UnderlineY(i)-thickness/2, run.Width, thickness)
				if err := dc.Fill(); err != nil {
					return fmt.Errorf("绘制下划线失败: %w", err)
				}
			}
		}
	}
	return nil
}

func (r *Renderer) drawWatermark(dc *gg.Context, frame *renderer.Frame) error {
	wm := frame.Watermark
	face, err := r.fonts.Face(frame.Layout.FontFamily, layout.Style{Bold: true}, wm.SizePx)
	if err != nil {
		return err
	}
	dc.SetFont(face)
	dc.SetColor(frame.Contrast.WatermarkColor())
	dc.DrawString(wm.Text, wm.X-face.Advance(wm.Text), wm.Y)
	return nil
}

func (r *Renderer) encode(buf *bytes.Buffer, img image.Image) error {
	if r.opts.EInk > 0 {
		dithered := DitherFloydSteinberg(img, r.opts.EInk)
		if dithered == nil {
			return fmt.Errorf("抖动处理失败")
		}
		return png.Encode(buf, dithered)
	}
	switch r.opts.Format {
	case FormatJPEG:
		return encodeJPEG(buf, img, r.opts.Quality)
	default:
		return png.Encode(buf, img)
	}
}

// cloneImage 复制像素，使结果不依赖已关闭的绘图上下文。
func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}
