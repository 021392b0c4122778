package renderer

import (
	"errors"
	"image/color"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/contrast"
	"github.com/ByLCY/quotura/layout"
)

var (
	// ErrEmptyFrame 表示缺少排版结果，无法渲染。
	ErrEmptyFrame = errors.New("renderer: 渲染帧为空")
	// ErrEncode 表示绘制或编码输出失败。
	ErrEncode = errors.New("renderer: 编码输出失败")
)

// Frame 汇集一次渲染所需的全部输入。排版与配色在进入渲染器前已经确定，
// 各渲染器只负责绘制，不做任何重新计算。
type Frame struct {
	Layout     *layout.Result
	Background background.Resolved
	Contrast   contrast.Decision
	// Pattern 为 nil 时不绘制装饰图案。
	Pattern *background.Pattern
	// Watermark 为 nil 时不绘制水印。
	Watermark *layout.Watermark
	// TextColor 非空时覆盖配色结论中的文字颜色。
	TextColor *color.RGBA
}

// Renderer 将渲染帧输出为最终文件，例如 PNG、SVG 或 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(frame *Frame) ([]byte, error)
}

// Foreground returns the fill colour for body text.
func (f *Frame) Foreground() color.RGBA {
	if f.TextColor != nil {
		return *f.TextColor
	}
	return f.Contrast.TextColor()
}

// Check 校验帧是否可渲染。
func (f *Frame) Check() error {
	if f == nil || f.Layout == nil {
		return ErrEmptyFrame
	}
	g := f.Layout.Geometry
	if g.Width <= 0 || g.Height <= 0 {
		return ErrEmptyFrame
	}
	return nil
}
