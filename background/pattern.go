package background

import (
	"image/color"
	"math"
)

// Pattern 是叠加在背景上的装饰图案：圆点、斜线与角落弧线。
// 所有渲染器按同一组图元绘制，Alpha 已包含整体不透明度。
type Pattern struct {
	Color color.RGBA `json:"color"`
	Dots  []Dot      `json:"dots"`
	Lines []Stroke   `json:"lines"`
	Arcs  []Arc      `json:"arcs"`
}

// Dot is a filled circle.
type Dot struct {
	X, Y, R, Alpha float64
}

// Stroke is a straight stroked segment.
type Stroke struct {
	X1, Y1, X2, Y2 float64
	Width, Alpha   float64
}

// Arc is a stroked circular arc; angles are radians, clockwise on screen.
type Arc struct {
	CX, CY, R    float64
	Start, End   float64
	Width, Alpha float64
}

// Endpoints returns the start and end points of the arc.
func (a Arc) Endpoints() (x1, y1, x2, y2 float64) {
	return a.CX + a.R*math.Cos(a.Start), a.CY + a.R*math.Sin(a.Start),
		a.CX + a.R*math.Cos(a.End), a.CY + a.R*math.Sin(a.End)
}

// NewPattern 生成 width x height 画布上的装饰图案。bright 表示背景较亮，
// 此时使用黑色、较低不透明度；否则使用白色。
func NewPattern(width, height int, bright bool) Pattern {
	opacity := 0.15
	col := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if bright {
		opacity = 0.12
		col = color.RGBA{A: 0xff}
	}
	w, h := float64(width), float64(height)
	p := Pattern{Color: col}

	for x := 60.0; x < w; x += 100 {
		for y := 60.0; y < h; y += 100 {
			p.Dots = append(p.Dots,
				Dot{X: x, Y: y, R: 3, Alpha: opacity},
				Dot{X: x + 25, Y: y + 25, R: 1.5, Alpha: opacity},
			)
		}
	}

	for i := 0.0; i < w+h; i += 150 {
		p.Lines = append(p.Lines,
			Stroke{X1: i, Y1: 0, X2: i - h, Y2: h, Width: 1, Alpha: opacity * 0.6},
			Stroke{X1: i + 75, Y1: 0, X2: i + 75 + h, Y2: h, Width: 1, Alpha: opacity * 0.3},
		)
	}

	for _, r := range []float64{80, 120} {
		p.Arcs = append(p.Arcs, Arc{CX: 0, CY: 0, R: r, Start: 0, End: math.Pi / 2, Width: 2, Alpha: opacity * 0.8})
	}
	for _, r := range []float64{80, 120} {
		p.Arcs = append(p.Arcs, Arc{CX: w, CY: h, R: r, Start: math.Pi, End: 3 * math.Pi / 2, Width: 2, Alpha: opacity * 0.8})
	}
	return p
}
