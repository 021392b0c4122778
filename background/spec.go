package background

import (
	"encoding/json"
	"fmt"
	"image/color"
	"regexp"
	"strings"

	"github.com/gogpu/gg"
	"gopkg.in/yaml.v3"
)

// Kind 背景类型，三者互斥。
type Kind string

const (
	KindSolid    Kind = "solid"
	KindGradient Kind = "gradient"
	KindImage    Kind = "image"
)

// Spec 是背景的标签联合：Kind 决定哪个字段生效。
type Spec struct {
	Kind  Kind   `json:"kind" yaml:"kind"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	From  string `json:"from,omitempty" yaml:"from,omitempty"`
	To    string `json:"to,omitempty" yaml:"to,omitempty"`
	// Preset 指定预设渐变名，优先于 From/To。
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty"`
	// Image 为原始编码字节（PNG/JPEG/GIF/WebP/BMP），JSON 中以 base64 传输。
	Image []byte `json:"image,omitempty" yaml:"-"`
}

// Solid returns a solid-colour background.
func Solid(hex string) Spec { return Spec{Kind: KindSolid, Color: hex} }

// Gradient returns a two-stop gradient background.
func Gradient(from, to string) Spec { return Spec{Kind: KindGradient, From: from, To: to} }

// FromPreset returns a gradient background referring to a named preset.
func FromPreset(name string) Spec { return Spec{Kind: KindGradient, Preset: name} }

// FromImage returns a bitmap background from encoded image bytes.
func FromImage(data []byte) Spec { return Spec{Kind: KindImage, Image: data} }

// Validate 检查联合体只激活一种背景且颜色合法。
func (s Spec) Validate() error {
	switch s.Kind {
	case KindSolid:
		if s.From != "" || s.To != "" || s.Preset != "" || len(s.Image) > 0 {
			return fmt.Errorf("纯色背景不能同时指定渐变或图片")
		}
		_, err := ParseHex(s.Color)
		return err
	case KindGradient:
		if s.Color != "" || len(s.Image) > 0 {
			return fmt.Errorf("渐变背景不能同时指定纯色或图片")
		}
		if s.Preset != "" {
			if _, ok := PresetByName(s.Preset); !ok {
				return fmt.Errorf("未知的预设渐变 %q", s.Preset)
			}
			return nil
		}
		if _, err := ParseHex(s.From); err != nil {
			return err
		}
		_, err := ParseHex(s.To)
		return err
	case KindImage:
		if s.Color != "" || s.From != "" || s.To != "" || s.Preset != "" {
			return fmt.Errorf("图片背景不能同时指定颜色")
		}
		if len(s.Image) == 0 {
			return fmt.Errorf("图片背景缺少图片数据")
		}
		return nil
	default:
		return fmt.Errorf("未知的背景类型 %q", s.Kind)
	}
}

// UnmarshalJSON 允许省略 kind：按出现的字段推断。
func (s *Spec) UnmarshalJSON(data []byte) error {
	type raw Spec
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*s = Spec(r)
	if s.Kind == "" {
		s.Kind = s.inferKind()
	}
	return nil
}

// UnmarshalYAML 与 UnmarshalJSON 相同：整体替换原值并推断 kind。
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	type raw Spec
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = Spec(r)
	if s.Kind == "" {
		s.Kind = s.inferKind()
	}
	return nil
}

func (s Spec) inferKind() Kind {
	switch {
	case len(s.Image) > 0:
		return KindImage
	case s.Color != "":
		return KindSolid
	default:
		return KindGradient
	}
}

var hexPattern = regexp.MustCompile(`^#?(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// ParseHex 解析 "#rgb" 或 "#rrggbb" 颜色，结果总是不透明。
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !hexPattern.MatchString(s) {
		return color.RGBA{}, fmt.Errorf("无效的颜色值 %q", s)
	}
	c := gg.Hex(s)
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 0xff}, nil
}

// Hex formats an opaque colour as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ToGG converts a colour to gg's float representation.
func ToGG(c color.RGBA) gg.RGBA {
	return gg.FromColor(c)
}

func to8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xff
	default:
		return uint8(v*255 + 0.5)
	}
}
