package background

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Resolved 是解析完成、可直接绘制的背景。Image 背景附带 cover 几何。
type Resolved struct {
	Kind   Kind
	Solid  color.RGBA
	From   color.RGBA
	To     color.RGBA
	Preset string
	Image  image.Image
	Fit    Fit
	Width  int
	Height int
}

// Resolve 解析颜色、查找预设并解码图片。图片解码失败时返回默认预设渐变，
// 同时返回包装了 ErrDecode 的错误，由调用方决定是否视为警告。
func Resolve(spec Spec, dec Decoder, width, height int) (Resolved, error) {
	if spec.Kind == "" {
		spec.Kind = spec.inferKind()
	}
	if spec.Kind == KindGradient && spec.Preset == "" && spec.From == "" && spec.To == "" {
		spec.Preset = DefaultPreset
	}
	out := Resolved{Kind: spec.Kind, Width: width, Height: height}
	switch spec.Kind {
	case KindSolid:
		c, err := ParseHex(spec.Color)
		if err != nil {
			return Resolved{}, err
		}
		out.Solid = c
		return out, nil
	case KindGradient:
		return resolveGradient(spec, width, height)
	case KindImage:
		if dec == nil {
			dec = ImageDecoder{}
		}
		img, err := dec.Decode(spec.Image)
		if err != nil {
			fallback, ferr := resolveGradient(FromPreset(DefaultPreset), width, height)
			if ferr != nil {
				return Resolved{}, ferr
			}
			if !errors.Is(err, ErrDecode) {
				err = fmt.Errorf("%w: %v", ErrDecode, err)
			}
			return fallback, err
		}
		b := img.Bounds()
		out.Image = img
		out.Fit = CoverFit(b.Dx(), b.Dy(), width, height)
		return out, nil
	default:
		return Resolved{}, fmt.Errorf("未知的背景类型 %q", spec.Kind)
	}
}

func resolveGradient(spec Spec, width, height int) (Resolved, error) {
	from, to := spec.From, spec.To
	name := ""
	if spec.Preset != "" {
		p, ok := PresetByName(spec.Preset)
		if !ok {
			return Resolved{}, fmt.Errorf("未知的预设渐变 %q", spec.Preset)
		}
		from, to, name = p.From, p.To, p.Name
	}
	f, err := ParseHex(from)
	if err != nil {
		return Resolved{}, fmt.Errorf("渐变起始色: %w", err)
	}
	t, err := ParseHex(to)
	if err != nil {
		return Resolved{}, fmt.Errorf("渐变结束色: %w", err)
	}
	return Resolved{Kind: KindGradient, From: f, To: t, Preset: name, Width: width, Height: height}, nil
}
