package svg

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/tdewolff/minify/v2"
	minsvg "github.com/tdewolff/minify/v2/svg"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/fonts"
	"github.com/ByLCY/quotura/layout"
	"github.com/ByLCY/quotura/renderer"
)

const mediaType = "image/svg+xml"

// Options configures the SVG renderer.
type Options struct {
	// Minify 输出前使用 tdewolff/minify 压缩文档。
	Minify bool
}

// Renderer 将渲染帧序列化为 SVG 文档，坐标与光栅输出完全一致。
type Renderer struct {
	opts Options
	min  *minify.M
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer creates an SVG renderer.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{opts: opts}
	if opts.Minify {
		r.min = minify.New()
		r.min.AddFunc(mediaType, minsvg.Minify)
	}
	return r
}

// Render 输出完整 SVG 文档。
func (r *Renderer) Render(frame *renderer.Frame) ([]byte, error) {
	if err := frame.Check(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	g := frame.Layout.Geometry
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		g.Width, g.Height, g.Width, g.Height)
	if err := writeBackground(&buf, frame.Background, g); err != nil {
		return nil, fmt.Errorf("%w: svg: %v", renderer.ErrEncode, err)
	}
	if frame.Pattern != nil {
		writePattern(&buf, frame.Pattern)
	}
	writeText(&buf, frame)
	if frame.Watermark != nil {
		writeWatermark(&buf, frame)
	}
	buf.WriteString("</svg>\n")

	if r.min == nil {
		return buf.Bytes(), nil
	}
	out, err := r.min.Bytes(mediaType, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: svg 压缩: %v", renderer.ErrEncode, err)
	}
	return out, nil
}

func writeBackground(buf *bytes.Buffer, bg background.Resolved, g layout.Geometry) error {
	switch bg.Kind {
	case background.KindSolid:
		fmt.Fprintf(buf, `<rect class="background" x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n", g.Width, g.Height, background.Hex(bg.Solid))
	case background.KindImage:
		fmt.Fprintf(buf, `<rect class="background" x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`+"\n", g.Width, g.Height)
		if bg.Image == nil {
			return nil
		}
		// 与光栅输出相同的裁剪区域，预先缩放到画布尺寸，文档大小与源图无关
		fitted := background.ResizeToFill(bg.Image, g.Width, g.Height)
		var img bytes.Buffer
		if err := png.Encode(&img, fitted); err != nil {
			return fmt.Errorf("编码背景图片失败: %w", err)
		}
		fmt.Fprintf(buf, `<image class="background" x="0" y="0" width="%d" height="%d" preserveAspectRatio="none" xlink:href="data:image/png;base64,%s"/>`+"\n",
			g.Width, g.Height, base64.StdEncoding.EncodeToString(img.Bytes()))
	default:
		fmt.Fprintf(buf, `<defs><linearGradient id="bg" gradientUnits="userSpaceOnUse" x1="0" y1="0" x2="%d" y2="%d">`, g.Width, g.Height)
		fmt.Fprintf(buf, `<stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/>`, background.Hex(bg.From), background.Hex(bg.To))
		buf.WriteString("</linearGradient></defs>\n")
		fmt.Fprintf(buf, `<rect class="background" x="0" y="0" width="%d" height="%d" fill="url(#bg)"/>`+"\n", g.Width, g.Height)
	}
	return nil
}

func writePattern(buf *bytes.Buffer, p *background.Pattern) {
	c := background.Hex(p.Color)
	fmt.Fprintf(buf, `<g class="pattern" fill="%s" stroke="%s">`+"\n", c, c)
	for _, d := range p.Dots {
		fmt.Fprintf(buf, `<circle cx="%s" cy="%s" r="%s" stroke="none" fill-opacity="%s"/>`+"\n", num(d.X), num(d.Y), num(d.R), num(d.Alpha))
	}
	for _, s := range p.Lines {
		fmt.Fprintf(buf, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke-width="%s" stroke-opacity="%s"/>`+"\n",
			num(s.X1), num(s.Y1), num(s.X2), num(s.Y2), num(s.Width), num(s.Alpha))
	}
	for _, a := range p.Arcs {
		x1, y1, x2, y2 := a.Endpoints()
		large := 0
		if math.Abs(a.End-a.Start) > math.Pi {
			large = 1
		}
		fmt.Fprintf(buf, `<path d="M%s %s A%s %s 0 %d 1 %s %s" fill="none" stroke-width="%s" stroke-opacity="%s"/>`+"\n",
			num(x1), num(y1), num(a.R), num(a.R), large, num(x2), num(y2), num(a.Width), num(a.Alpha))
	}
	buf.WriteString("</g>\n")
}

func writeText(buf *bytes.Buffer, frame *renderer.Frame) {
	res := frame.Layout
	fmt.Fprintf(buf, `<g class="quote" font-family="%s" font-size="%s" fill="%s">`+"\n",
		attr(fontStack(res.FontFamily)), num(res.FontSizePx), background.Hex(frame.Foreground()))
	for i, ln := range res.Lines {
		xs := res.RunXs(i)
		fmt.Fprintf(buf, `<text x="%s" y="%s" xml:space="preserve">`, num(res.LineX(i)), num(res.Baseline(i)))
		for j, run := range ln.Runs {
			fmt.Fprintf(buf, `<tspan x="%s"%s>`, num(xs[j]), styleAttrs(run))
			xml.EscapeText(buf, []byte(run.Text))
			buf.WriteString("</tspan>")
		}
		buf.WriteString("</text>\n")
	}
	buf.WriteString("</g>\n")
}

func writeWatermark(buf *bytes.Buffer, frame *renderer.Frame) {
	wm := frame.Watermark
	c := frame.Contrast.WatermarkColor()
	fmt.Fprintf(buf, `<text class="watermark" x="%s" y="%s" text-anchor="end" font-family="%s" font-size="%s" font-weight="bold" fill="%s" fill-opacity="%s">`,
		num(wm.X), num(wm.Y), attr(fontStack(frame.Layout.FontFamily)), num(wm.SizePx),
		background.Hex(color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}), num(math.Round(float64(c.A)/255*100)/100))
	xml.EscapeText(buf, []byte(wm.Text))
	buf.WriteString("</text>\n")
}

func styleAttrs(run layout.StyledRun) string {
	var b strings.Builder
	if run.Bold {
		b.WriteString(` font-weight="bold"`)
	}
	if run.Italic {
		b.WriteString(` font-style="italic"`)
	}
	if run.Underline {
		b.WriteString(` text-decoration="underline"`)
	}
	return b.String()
}

// fontStack 把实际排版所用字体放在首位，再附上用户字体与通用族。
func fontStack(family string) string {
	resolved := fonts.Resolve(family)
	generic := "sans-serif"
	if resolved == fonts.Mono {
		generic = "monospace"
	}
	parts := []string{quoteFamily(resolved)}
	if f := strings.TrimSpace(family); f != "" && !strings.EqualFold(f, resolved) {
		parts = append(parts, f)
	}
	return strings.Join(append(parts, generic), ", ")
}

func quoteFamily(name string) string {
	if strings.ContainsAny(name, " ,") {
		return "'" + name + "'"
	}
	return name
}

func attr(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// num 保留两位小数并去掉多余的零。
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
