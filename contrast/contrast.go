package contrast

import (
	"image/color"

	"github.com/ByLCY/quotura/background"
)

// 前景色与水印色只依据背景亮度决定，与文本内容无关。

// Foreground 前景文字配色。
type Foreground string

const (
	// Dark 深色文字，用于亮背景。
	Dark Foreground = "dark"
	// Light 浅色文字，用于暗背景。
	Light Foreground = "light"
)

// 水印颜色，带 0.6 不透明度。
const (
	WatermarkDim   = "rgba(0,0,0,0.6)"
	WatermarkLight = "rgba(255,255,255,0.6)"
)

// Thresholds 亮度阈值，均为严格大于比较。
type Thresholds struct {
	Foreground float64 `json:"foreground" yaml:"foreground"`
	Watermark  float64 `json:"watermark" yaml:"watermark"`
}

// DefaultThresholds 前景 200，水印 150。
func DefaultThresholds() Thresholds {
	return Thresholds{Foreground: 200, Watermark: 150}
}

// Decision 是一次渲染的配色结论，各渲染器共享。
type Decision struct {
	Foreground    Foreground `json:"foreground"`
	WatermarkRGBA string     `json:"watermarkRgba"`
	Luminance     float64    `json:"luminance"`
	// Bright 表示亮度超过水印阈值，装饰图案据此选择黑色。
	Bright bool `json:"bright"`
}

// Luminance 感知亮度 0.299R + 0.587G + 0.114B。
func Luminance(c color.RGBA) float64 {
	return background.Luminance(c)
}

// Select 计算背景亮度并应用阈值。渐变取两端亮度均值，
// 图片取 cover 缩放后 8x8 网格的平均亮度。
func Select(bg background.Resolved, sampler background.Sampler, th Thresholds) Decision {
	return Decide(BackgroundLuminance(bg, sampler), th)
}

// BackgroundLuminance returns the representative luminance of a resolved background.
func BackgroundLuminance(bg background.Resolved, sampler background.Sampler) float64 {
	switch bg.Kind {
	case background.KindSolid:
		return Luminance(bg.Solid)
	case background.KindImage:
		if sampler == nil {
			sampler = background.GridSampler{}
		}
		return sampler.AverageLuminance(bg.Image, bg.Width, bg.Height, background.DefaultGrid)
	default:
		return (Luminance(bg.From) + Luminance(bg.To)) / 2
	}
}

// Decide 将亮度映射为配色，阈值上的值归为浅色/白色水印一侧。
func Decide(lum float64, th Thresholds) Decision {
	d := Decision{Foreground: Light, WatermarkRGBA: WatermarkLight, Luminance: lum}
	if lum > th.Foreground {
		d.Foreground = Dark
	}
	if lum > th.Watermark {
		d.WatermarkRGBA = WatermarkDim
		d.Bright = true
	}
	return d
}

// TextColor returns the concrete fill colour for the foreground.
func (d Decision) TextColor() color.RGBA {
	if d.Foreground == Dark {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

// WatermarkColor returns the watermark fill as non-premultiplied RGBA.
func (d Decision) WatermarkColor() color.NRGBA {
	if d.Bright {
		return color.NRGBA{A: 153}
	}
	return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 153}
}
