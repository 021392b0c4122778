package canvasrenderer

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/image/font/sfnt"

	"github.com/ByLCY/quotura/fonts"
	"github.com/ByLCY/quotura/layout"
	"github.com/ByLCY/quotura/renderer"
	"github.com/ByLCY/quotura/renderer/raster"
)

// Renderer 基于 github.com/tdewolff/canvas 把渲染帧写成 PDF。
// 正文以字形轮廓路径绘制，推进宽度与 gg 光栅输出一致，同时也可作为度量后端。
type Renderer struct {
	fontMu sync.Mutex
	fonts  map[string]outlineFont
}

var (
	_ renderer.Renderer      = (*Renderer)(nil)
	_ layout.MetricsProvider = (*Renderer)(nil)
)

// NewRenderer creates a canvas-based renderer with an empty font cache.
func NewRenderer() *Renderer {
	return &Renderer{fonts: map[string]outlineFont{}}
}

// Measure 返回文本在给定像素字号下的宽度（画布单位，1 单位 = 1px = 1pt）。
func (r *Renderer) Measure(text, family string, sizePx float64, st layout.Style) (float64, error) {
	f, err := r.font(family, st)
	if err != nil {
		return 0, err
	}
	var buf sfnt.Buffer
	return f.advance(&buf, text, sizePx)
}

// Render 将渲染帧输出为单页 PDF。背景与装饰图案先栅格化再嵌入，正文保持矢量。
func (r *Renderer) Render(frame *renderer.Frame) ([]byte, error) {
	if err := frame.Check(); err != nil {
		return nil, err
	}
	g := frame.Layout.Geometry
	pageW, pageH := toMm(float64(g.Width)), toMm(float64(g.Height))

	var buf bytes.Buffer
	writer := pdf.New(&buf, pageW, pageH, nil)
	writer.SetInfo("Quote", "", "", "", "quotura")

	c := canvas.New(pageW, pageH)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点

	bg, err := raster.BackgroundImage(frame)
	if err != nil {
		return nil, err
	}
	dpmm := float64(g.Width) / pageW
	ctx.DrawImage(0, 0, bg, canvas.DPMM(dpmm))

	if err := r.drawText(ctx, frame); err != nil {
		return nil, err
	}
	if frame.Watermark != nil {
		if err := r.drawWatermark(ctx, frame); err != nil {
			return nil, err
		}
	}

	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", renderer.ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawText(ctx *canvas.Context, frame *renderer.Frame) error {
	res := frame.Layout
	fg := frame.Foreground()
	thickness := toMm(res.UnderlineThickness())
	var buf sfnt.Buffer
	ctx.SetFillColor(fg)
	ctx.SetStrokeColor(canvas.Transparent)
	for i, ln := range res.Lines {
		xs := res.RunXs(i)
		baseline := toMm(res.Baseline(i))
		for j, run := range ln.Runs {
			f, err := r.font(res.FontFamily, run.Style())
			if err != nil {
				return err
			}
			glyphs, _, err := f.path(&buf, run.Text, res.FontSizePx)
			if err != nil {
				return err
			}
			x := toMm(xs[j])
			if !glyphs.Empty() {
				ctx.DrawPath(x, baseline, glyphs)
			}
			if run.Underline && run.Width > 0 {
				ctx.DrawPath(x, toMm(res.UnderlineY(i))-thickness/2, canvas.Rectangle(toMm(run.Width), thickness))
			}
		}
	}
	return nil
}

func (r *Renderer) drawWatermark(ctx *canvas.Context, frame *renderer.Frame) error {
	wm := frame.Watermark
	f, err := r.font(frame.Layout.FontFamily, layout.Style{Bold: true})
	if err != nil {
		return err
	}
	var buf sfnt.Buffer
	glyphs, width, err := f.path(&buf, wm.Text, wm.SizePx)
	if err != nil {
		return err
	}
	if glyphs.Empty() {
		return nil
	}
	ctx.SetFillColor(frame.Contrast.WatermarkColor())
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(toMm(wm.X-width), toMm(wm.Y), glyphs)
	return nil
}

// font 每种字形变体单独解析并缓存，字体数据只解析一次。
func (r *Renderer) font(family string, st layout.Style) (outlineFont, error) {
	name := fonts.Resolve(family)
	v := fonts.Variant{Bold: st.Bold, Italic: st.Italic}
	key := name + "|" + v.String()

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if f, ok := r.fonts[key]; ok {
		return f, nil
	}
	data, err := fonts.Load(name, v)
	if err != nil {
		return outlineFont{}, err
	}
	f, err := parseOutlineFont(data)
	if err != nil {
		return outlineFont{}, fmt.Errorf("加载字体 %s 失败: %w", key, err)
	}
	r.fonts[key] = f
	return f, nil
}

// toMm 把画布单位（pt）换算为 canvas 使用的毫米。
func toMm(pt float64) float64 { return layout.CanvasToMm(pt) }
