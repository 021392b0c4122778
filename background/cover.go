package background

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Fit 描述源图以 cover 方式铺满目标区域时的几何关系。
// X/Y/W/H 是缩放后整图在画布上的位置（可能为负，即溢出部分被裁掉），
// Crop 是源图中实际可见的区域，左右/上下对称裁剪。
type Fit struct {
	Scale float64         `json:"scale"`
	X     float64         `json:"x"`
	Y     float64         `json:"y"`
	W     float64         `json:"w"`
	H     float64         `json:"h"`
	Crop  image.Rectangle `json:"crop"`
}

// CoverFit 计算 scale = max(dw/sw, dh/sh)，并将缩放结果居中。
func CoverFit(sw, sh, dw, dh int) Fit {
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return Fit{}
	}
	scale := math.Max(float64(dw)/float64(sw), float64(dh)/float64(sh))
	w := float64(sw) * scale
	h := float64(sh) * scale
	cw := float64(dw) / scale
	ch := float64(dh) / scale
	cx := (float64(sw) - cw) / 2
	cy := (float64(sh) - ch) / 2
	crop := image.Rect(
		int(math.Round(cx)), int(math.Round(cy)),
		int(math.Round(cx+cw)), int(math.Round(cy+ch)),
	).Intersect(image.Rect(0, 0, sw, sh))
	return Fit{
		Scale: scale,
		X:     (float64(dw) - w) / 2,
		Y:     (float64(dh) - h) / 2,
		W:     w,
		H:     h,
		Crop:  crop,
	}
}

// ResizeToFill 将图片缩放并居中裁剪为 width x height，几何与 CoverFit 一致。
func ResizeToFill(img image.Image, width, height int) *image.RGBA {
	if img == nil || width <= 0 || height <= 0 {
		return nil
	}
	b := img.Bounds()
	fit := CoverFit(b.Dx(), b.Dy(), width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if fit.Crop.Empty() {
		return dst
	}
	src := fit.Crop.Add(b.Min)
	// BiLinear 在质量与速度之间较为均衡
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
	return dst
}
