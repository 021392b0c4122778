package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ByLCY/quotura/markup"
)

// ErrInvalidOptions 表示字号或画布尺寸不可用于排版。
var ErrInvalidOptions = errors.New("layout: 排版参数无效")

// piece 是单词内部的一个样式片段。
type piece struct {
	text  string
	style markup.Style
}

// word 是不含空白的最小折行单元，可能由多个样式片段组成。
// gap 记录其前方空白的样式，段首单词没有前导空白。
type word struct {
	pieces []piece
	gap    markup.Style
	hasGap bool
}

// Layout 将分段文本按贪心算法折行，产出供所有渲染器共用的排版结果。
func Layout(segs []markup.Segment, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	size := opts.FontSizePx
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("%w: 字号 %v", ErrInvalidOptions, size)
	}
	geo := opts.Geometry
	maxWidth := geo.MaxTextWidth()
	if geo.Width <= 0 || geo.Height <= 0 || maxWidth <= 0 {
		return nil, fmt.Errorf("%w: 画布 %dx%d 内边距 %d", ErrInvalidOptions, geo.Width, geo.Height, geo.Inset)
	}

	m := newMeasurer(opts.Metrics, opts.FontFamily, size)
	b := &lineBreaker{m: m, maxWidth: maxWidth, baseBold: opts.BaseBold}
	for _, para := range splitParagraphs(segs) {
		b.paragraph(para)
	}

	lineHeight := math.Round(size * opts.LineHeightFactor)
	n := len(b.lines)
	return &Result{
		Lines:      b.lines,
		LineHeight: lineHeight,
		StartY:     float64(geo.Height)/2 - float64(n-1)*lineHeight/2,
		FontFamily: opts.FontFamily,
		FontSizePx: size,
		MaxWidth:   maxWidth,
		Geometry:   geo,
		Align:      opts.Align,
		Fallbacks:  m.fallbacks,
	}, nil
}

// splitParagraphs 按硬换行与块级边界切分段落，每个段落再拆成单词。
// 硬换行总会结束段落（空段落即空行）；块级边界在段落为空时折叠，
// 紧随块级边界的第一个硬换行也不再额外产生空行。
func splitParagraphs(segs []markup.Segment) [][]word {
	var (
		out        [][]word
		cur        []markup.Segment
		lastHard   bool
		afterBlock bool
	)
	for _, s := range segs {
		switch s.Break {
		case markup.HardBreak:
			words := splitWords(cur)
			cur = nil
			if len(words) == 0 && afterBlock {
				afterBlock = false
				lastHard = false
				continue
			}
			out = append(out, words)
			lastHard = true
			afterBlock = false
		case markup.BlockBreak:
			words := splitWords(cur)
			cur = nil
			if len(words) > 0 {
				out = append(out, words)
				afterBlock = true
			}
			lastHard = false
		default:
			cur = append(cur, s)
		}
	}
	words := splitWords(cur)
	if len(words) > 0 || lastHard || len(out) == 0 {
		out = append(out, words)
	}
	return out
}

// splitWords 以空白为界拆分单词，连续空白折叠为一个间隔。
func splitWords(segs []markup.Segment) []word {
	var (
		words   []word
		cur     word
		pending bool
		gap     markup.Style
	)
	flush := func() {
		if len(cur.pieces) == 0 {
			return
		}
		words = append(words, cur)
		cur = word{}
	}
	for _, s := range segs {
		var sb strings.Builder
		for _, r := range s.Text {
			if unicode.IsSpace(r) {
				if sb.Len() > 0 {
					cur.pieces = append(cur.pieces, piece{text: sb.String(), style: s.Style})
					sb.Reset()
				}
				flush()
				if !pending {
					pending = true
					gap = s.Style
				}
				continue
			}
			if pending {
				flush()
				pending = false
				if len(words) > 0 {
					cur.hasGap = true
					cur.gap = gap
				}
			}
			sb.WriteRune(r)
		}
		if sb.Len() > 0 {
			cur.pieces = append(cur.pieces, piece{text: sb.String(), style: s.Style})
		}
	}
	flush()
	return words
}

type lineBreaker struct {
	m        *measurer
	maxWidth float64
	baseBold bool
	lines    []Line
}

func (b *lineBreaker) run(text string, st markup.Style) StyledRun {
	r := StyledRun{Text: text, Bold: st.Bold || b.baseBold, Italic: st.Italic, Underline: st.Underline}
	r.Width = b.m.width(text, r.Style())
	return r
}

func (b *lineBreaker) paragraph(words []word) {
	var (
		runs  []StyledRun
		width float64
	)
	emit := func() {
		b.lines = append(b.lines, Line{Runs: mergeRuns(runs), Width: width})
		runs, width = nil, 0
	}
	for _, w := range words {
		wordRuns := make([]StyledRun, 0, len(w.pieces))
		var ww float64
		for _, p := range w.pieces {
			r := b.run(p.text, p.style)
			wordRuns = append(wordRuns, r)
			ww += r.Width
		}
		if len(runs) == 0 {
			runs = append(runs, wordRuns...)
			width = ww
			continue
		}
		gapStyle := w.gap
		if !w.hasGap {
			gapStyle = w.pieces[0].style
		}
		space := b.run(" ", gapStyle)
		if width+space.Width+ww > b.maxWidth {
			emit()
			runs = append(runs, wordRuns...)
			width = ww
			continue
		}
		runs = append(runs, space)
		runs = append(runs, wordRuns...)
		width += space.Width + ww
	}
	emit()
}

// mergeRuns 合并相邻且样式相同的片段，宽度直接累加以保持与折行判断一致。
func mergeRuns(runs []StyledRun) []StyledRun {
	if len(runs) == 0 {
		return nil
	}
	out := make([]StyledRun, 0, len(runs))
	for _, r := range runs {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Bold == r.Bold && last.Italic == r.Italic && last.Underline == r.Underline {
				last.Text += r.Text
				last.Width += r.Width
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
