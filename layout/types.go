package layout

import "strings"

// 该文件定义排版结果，供光栅、矢量渲染与调试 JSON 共用。

// StyledRun 是同一样式的一段连续文本，Width 为排版时测得的像素宽度。
type StyledRun struct {
	Text      string  `json:"text"`
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline bool    `json:"underline,omitempty"`
	Width     float64 `json:"width"`
}

// Style returns the measurement style of the run.
func (r StyledRun) Style() Style {
	return Style{Bold: r.Bold, Italic: r.Italic}
}

// Line 表示排版后的一行，Runs 按从左到右的绘制顺序排列。
type Line struct {
	Runs  []StyledRun `json:"runs"`
	Width float64     `json:"width"`
}

// Text returns the concatenated text of all runs.
func (l Line) Text() string {
	var b strings.Builder
	for _, r := range l.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Align 文本水平对齐方式。
type Align string

const (
	AlignCenter Align = "center"
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
)

// NormalizeAlign maps free-form input to a supported alignment, center by default.
func NormalizeAlign(v string) Align {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return AlignLeft
	case "right", "end":
		return AlignRight
	default:
		return AlignCenter
	}
}

// Geometry 描述画布尺寸与左右内边距（像素）。
type Geometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Inset  int `json:"inset"`
}

// DefaultGeometry 800x400，左右各 40px，正文最大宽度 720px。
func DefaultGeometry() Geometry {
	return Geometry{Width: 800, Height: 400, Inset: 40}
}

// MaxTextWidth returns the usable text width between both insets.
func (g Geometry) MaxTextWidth() float64 {
	return float64(g.Width - 2*g.Inset)
}

// Result 保存一次渲染的完整排版结果，光栅与矢量输出共用同一份。
type Result struct {
	Lines      []Line   `json:"lines"`
	LineHeight float64  `json:"lineHeight"`
	StartY     float64  `json:"startY"`
	FontFamily string   `json:"fontFamily"`
	FontSizePx float64  `json:"fontSizePx"`
	MaxWidth   float64  `json:"maxWidth"`
	Geometry   Geometry `json:"geometry"`
	Align      Align    `json:"align"`
	// Fallbacks 记录测量失败后退回字符宽度估算的次数。
	Fallbacks int `json:"fallbacks,omitempty"`
}

// Texts returns the text of every line, top to bottom.
func (r *Result) Texts() []string {
	out := make([]string, len(r.Lines))
	for i, ln := range r.Lines {
		out[i] = ln.Text()
	}
	return out
}
