package raster

import (
	"image"
	"image/color"
	"image/jpeg"
	"io"

	"github.com/makeworld-the-better-one/dither/v2"
)

// DitherFloydSteinberg 将图片抖动为 bitDepth 位灰度，适合墨水屏显示。
func DitherFloydSteinberg(img image.Image, bitDepth int) image.Image {
	if img == nil {
		return nil
	}
	d := dither.NewDitherer(grayscalePalette(bitDepth))
	d.Matrix = dither.FloydSteinberg
	return d.Dither(img)
}

// grayscalePalette 生成均匀分布的灰阶调色板，位深限制在 1..8。
func grayscalePalette(bitDepth int) []color.Color {
	if bitDepth < 1 {
		bitDepth = 1
	}
	if bitDepth > 8 {
		bitDepth = 8
	}
	levels := 1 << bitDepth
	palette := make([]color.Color, levels)
	for i := 0; i < levels; i++ {
		palette[i] = color.Gray{Y: uint8(i * 255 / (levels - 1))}
	}
	return palette
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
