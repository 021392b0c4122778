package canvasrenderer

import (
	"errors"
	"fmt"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// outlineFont 用 x/image/font/sfnt 解析字体。前进宽度按整像素取整且不做字距调整，
// 与 gg 光栅输出的字形推进逐字一致。
type outlineFont struct {
	f *sfnt.Font
}

func parseOutlineFont(data []byte) (outlineFont, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return outlineFont{}, err
	}
	return outlineFont{f: f}, nil
}

func ppem(sizePx float64) fixed.Int26_6 { return fixed.Int26_6(sizePx * 64) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

// skipRune 控制字符不占宽度也不绘制。
func skipRune(r rune) bool { return r < 0x20 }

// advance 返回文本在 sizePx 下的像素宽度。
func (o outlineFont) advance(buf *sfnt.Buffer, s string, sizePx float64) (float64, error) {
	total := 0.0
	for _, r := range s {
		if skipRune(r) {
			continue
		}
		adv, err := o.glyphAdvance(buf, r, sizePx)
		if err != nil {
			return 0, err
		}
		total += adv
	}
	return total, nil
}

func (o outlineFont) glyphAdvance(buf *sfnt.Buffer, r rune, sizePx float64) (float64, error) {
	idx, err := o.f.GlyphIndex(buf, r)
	if err != nil {
		return 0, fmt.Errorf("查找字形 %q 失败: %w", r, err)
	}
	adv, err := o.f.GlyphAdvance(buf, idx, ppem(sizePx), font.HintingFull)
	if err != nil {
		return 0, fmt.Errorf("读取字形 %q 宽度失败: %w", r, err)
	}
	return fromFixed(adv), nil
}

// path 返回整段文本的字形轮廓，单位为 mm，原点位于基线起点，y 轴向下。
// 第二个返回值为文本的像素宽度。
func (o outlineFont) path(buf *sfnt.Buffer, s string, sizePx float64) (*canvas.Path, float64, error) {
	p := &canvas.Path{}
	pen := 0.0
	for _, r := range s {
		if skipRune(r) {
			continue
		}
		idx, err := o.f.GlyphIndex(buf, r)
		if err != nil {
			return nil, 0, fmt.Errorf("查找字形 %q 失败: %w", r, err)
		}
		segs, err := o.f.LoadGlyph(buf, idx, ppem(sizePx), nil)
		if err != nil && !errors.Is(err, sfnt.ErrColoredGlyph) {
			return nil, 0, fmt.Errorf("读取字形 %q 轮廓失败: %w", r, err)
		}
		appendSegments(p, segs, pen)
		adv, err := o.glyphAdvance(buf, r, sizePx)
		if err != nil {
			return nil, 0, err
		}
		pen += adv
	}
	return p, pen, nil
}

// appendSegments 把字形轮廓平移 dx 像素后追加到 p，每个轮廓单独闭合。
func appendSegments(p *canvas.Path, segs sfnt.Segments, dx float64) {
	pt := func(v fixed.Point26_6) (float64, float64) {
		return toMm(dx + fromFixed(v.X)), toMm(fromFixed(v.Y))
	}
	open := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				p.Close()
			}
			x, y := pt(seg.Args[0])
			p.MoveTo(x, y)
			open = true
		case sfnt.SegmentOpLineTo:
			x, y := pt(seg.Args[0])
			p.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			cx, cy := pt(seg.Args[0])
			x, y := pt(seg.Args[1])
			p.QuadTo(cx, cy, x, y)
		case sfnt.SegmentOpCubeTo:
			c1x, c1y := pt(seg.Args[0])
			c2x, c2y := pt(seg.Args[1])
			x, y := pt(seg.Args[2])
			p.CubeTo(c1x, c1y, c2x, c2y, x, y)
		}
	}
	if open {
		p.Close()
	}
}
