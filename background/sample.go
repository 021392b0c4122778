package background

import (
	"image"
	"image/color"
)

// DefaultGrid 亮度采样网格 8x8。
const DefaultGrid = 8

// Luminance 感知亮度 0.299R + 0.587G + 0.114B，取值 0..255。
func Luminance(c color.RGBA) float64 {
	return (float64(c.R)*299 + float64(c.G)*587 + float64(c.B)*114) / 1000
}

// Sampler 估算位图在画布上（cover 缩放后）的平均亮度。
type Sampler interface {
	AverageLuminance(img image.Image, w, h, grid int) float64
}

// GridSampler 在缩放后的位图上按网格中心点采样；透明像素按白底合成。
type GridSampler struct{}

func (GridSampler) AverageLuminance(img image.Image, w, h, grid int) float64 {
	if img == nil || w <= 0 || h <= 0 {
		return 255
	}
	if grid <= 0 {
		grid = DefaultGrid
	}
	scaled := ResizeToFill(img, w, h)
	var sum float64
	for gy := 0; gy < grid; gy++ {
		y := int((float64(gy) + 0.5) * float64(h) / float64(grid))
		for gx := 0; gx < grid; gx++ {
			x := int((float64(gx) + 0.5) * float64(w) / float64(grid))
			sum += overWhite(scaled.RGBAAt(x, y))
		}
	}
	return sum / float64(grid*grid)
}

// overWhite 将预乘 alpha 的像素合成到白底后求亮度。
func overWhite(c color.RGBA) float64 {
	inv := 255 - c.A
	return Luminance(color.RGBA{R: c.R + inv, G: c.G + inv, B: c.B + inv, A: 0xff})
}
