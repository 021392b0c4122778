package background

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode 表示背景图片无法解码；调用方可据此退回默认渐变。
var ErrDecode = errors.New("background: 图片解码失败")

// DefaultMaxPixels 限制解码尺寸，避免超大图片耗尽内存。
const DefaultMaxPixels = 40_000_000

// Decoder 将编码后的图片字节解码为位图。
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// ImageDecoder 使用标准 image 注册表解码 PNG/JPEG/GIF/WebP/BMP。
type ImageDecoder struct {
	MaxPixels int
}

// Decode 先读取尺寸做限制检查，再完整解码。
func (d ImageDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: 数据为空", ErrDecode)
	}
	limit := d.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > limit {
		return nil, fmt.Errorf("%w: %s 尺寸 %dx%d 超出限制", ErrDecode, format, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	return img, nil
}
