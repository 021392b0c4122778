package layout

import "math"

// 以下定位函数由光栅、SVG 与 PDF 渲染器共用，保证各输出坐标一致。

// baselineShift 将行的垂直中线换算为字母基线。
const baselineShift = 0.35

// LineX returns the left edge of line i according to the alignment.
func (r *Result) LineX(i int) float64 {
	w := r.Lines[i].Width
	g := r.Geometry
	switch r.Align {
	case AlignLeft:
		return float64(g.Inset)
	case AlignRight:
		return float64(g.Width-g.Inset) - w
	default:
		return float64(g.Width)/2 - w/2
	}
}

// LineY returns the vertical middle of line i.
func (r *Result) LineY(i int) float64 {
	return r.StartY + float64(i)*r.LineHeight
}

// Baseline returns the alphabetic baseline of line i.
func (r *Result) Baseline(i int) float64 {
	return r.LineY(i) + baselineShift*r.FontSizePx
}

// RunXs 返回第 i 行每个片段的起始横坐标，笔位按片段宽度推进。
func (r *Result) RunXs(i int) []float64 {
	ln := r.Lines[i]
	xs := make([]float64, len(ln.Runs))
	x := r.LineX(i)
	for j, run := range ln.Runs {
		xs[j] = x
		x += run.Width
	}
	return xs
}

// UnderlineThickness 下划线粗细，至少 1px。
func (r *Result) UnderlineThickness() float64 {
	return math.Max(1, math.Round(r.FontSizePx/16))
}

// UnderlineY returns the centre of the underline stroke for line i.
func (r *Result) UnderlineY(i int) float64 {
	return r.Baseline(i) + 2*r.UnderlineThickness()
}

// Watermark 描述右下角水印的字号与位置，X 为右边缘，Y 为基线。
type Watermark struct {
	Text   string  `json:"text"`
	SizePx float64 `json:"sizePx"`
	Inset  float64 `json:"inset"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// WatermarkPlacement 按正文字号分档确定水印大小与边距。
func (r *Result) WatermarkPlacement(text string) Watermark {
	size, inset := 18.0, 18.0
	switch {
	case r.FontSizePx <= 24:
		size, inset = 14, 12
	case r.FontSizePx <= 40:
		size, inset = 16, 15
	}
	g := r.Geometry
	return Watermark{
		Text:   text,
		SizePx: size,
		Inset:  inset,
		X:      float64(g.Width) - inset,
		// 文本底部贴齐边距，下伸部分约 0.2em
		Y: float64(g.Height) - inset - math.Round(0.2*size),
	}
}
