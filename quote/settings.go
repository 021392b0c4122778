package quote

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/contrast"
	"github.com/ByLCY/quotura/layout"
)

// 字号范围（像素）。
const (
	MinFontSizePx = 12
	MaxFontSizePx = 60
)

// DefaultWatermarkText 默认水印文字。
const DefaultWatermarkText = "made with Quotura"

// Settings 描述一次渲染的全部参数。每次调用使用各自的副本，渲染过程中不会被修改。
type Settings struct {
	FontFamily       string          `json:"fontFamily" yaml:"fontFamily"`
	FontSizePx       int             `json:"fontSize" yaml:"fontSize" validate:"min=12,max=60"`
	IncludeWatermark bool            `json:"includeWatermark" yaml:"includeWatermark"`
	WatermarkText    string          `json:"watermarkText,omitempty" yaml:"watermarkText,omitempty"`
	Background       background.Spec `json:"background" yaml:"background"`

	// 画布尺寸，0 表示默认 800x400、边距 40。
	CanvasWidth  int `json:"canvasWidth,omitempty" yaml:"canvasWidth,omitempty" validate:"gte=0,lte=8192"`
	CanvasHeight int `json:"canvasHeight,omitempty" yaml:"canvasHeight,omitempty" validate:"gte=0,lte=8192"`
	Inset        int `json:"inset,omitempty" yaml:"inset,omitempty" validate:"gte=0"`

	Align    layout.Align `json:"align,omitempty" yaml:"align,omitempty"`
	BaseBold bool         `json:"baseBold,omitempty" yaml:"baseBold,omitempty"`
	// TextColor 非空时覆盖自动配色，格式为 #rgb 或 #rrggbb。
	TextColor string `json:"textColor,omitempty" yaml:"textColor,omitempty"`
	// Pattern 叠加装饰图案（圆点、斜线与角落弧线）。
	Pattern bool `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// PlainText 为 true 时不解析 <b>/<i>/<u> 等标记。
	PlainText bool `json:"plainText,omitempty" yaml:"plainText,omitempty"`
	// Data 用于填充文本中的 ${path} 占位符。
	Data       map[string]any      `json:"data,omitempty" yaml:"data,omitempty"`
	Thresholds contrast.Thresholds `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	Outputs Outputs `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Outputs 选择要生成的文件格式。光栅与 SVG 总是生成。
type Outputs struct {
	// RasterFormat 为 png（默认）或 jpeg。
	RasterFormat string `json:"rasterFormat,omitempty" yaml:"rasterFormat,omitempty" validate:"omitempty,oneof=png jpeg jpg"`
	JPEGQuality  int    `json:"jpegQuality,omitempty" yaml:"jpegQuality,omitempty" validate:"gte=0,lte=100"`
	// EInk 大于 0 时输出该位深的抖动灰度 PNG。
	EInk      int  `json:"eink,omitempty" yaml:"eink,omitempty" validate:"gte=0,lte=8"`
	MinifySVG bool `json:"minifySvg,omitempty" yaml:"minifySvg,omitempty"`
	PDF       bool `json:"pdf,omitempty" yaml:"pdf,omitempty"`
}

// DefaultSettings 28px 字号、带水印、默认预设渐变。
func DefaultSettings() Settings {
	return Settings{
		FontFamily:       "Arial, sans-serif",
		FontSizePx:       28,
		IncludeWatermark: true,
		WatermarkText:    DefaultWatermarkText,
		Background:       background.FromPreset(background.DefaultPreset),
		Align:            layout.AlignCenter,
		Thresholds:       contrast.DefaultThresholds(),
	}
}

var validate = validator.New()

// ParseFontSize 解析 "28"、"28px"、"21pt" 等写法并四舍五入到整像素。
// 只做单位换算，范围由 Validate 检查。
func ParseFontSize(raw string) (int, error) {
	l, err := layout.ParseLength(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFontSize, err)
	}
	px := l.Px()
	if math.IsNaN(px) || math.IsInf(px, 0) || math.Abs(px) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFontSize, raw)
	}
	return int(math.Round(px)), nil
}

// Validate 校验参数。字号越界返回 ErrInvalidFontSize，其余问题返回 ErrInvalidSettings。
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return validationError(err, s)
	}
	g := s.geometry()
	if 2*g.Inset >= g.Width {
		return fmt.Errorf("%w: 边距 %d 超出画布宽度 %d", ErrInvalidSettings, g.Inset, g.Width)
	}
	if s.TextColor != "" {
		if _, err := background.ParseHex(s.TextColor); err != nil {
			return fmt.Errorf("%w: 文字颜色: %v", ErrInvalidSettings, err)
		}
	}
	if needsValidation(s.Background) {
		if err := s.Background.Validate(); err != nil {
			return fmt.Errorf("%w: 背景: %v", ErrInvalidSettings, err)
		}
	}
	return nil
}

// needsValidation 图片背景的问题在解码阶段以警告形式恢复，空渐变使用默认预设，二者都不在此拒绝。
func needsValidation(bg background.Spec) bool {
	switch bg.Kind {
	case background.KindSolid:
		return true
	case background.KindGradient:
		return bg.Preset != "" || bg.From != "" || bg.To != ""
	default:
		return false
	}
}

func validationError(err error, s Settings) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			if ve.Field() == "FontSizePx" {
				return fmt.Errorf("%w: %d 不在 %d..%d 之间", ErrInvalidFontSize, s.FontSizePx, MinFontSizePx, MaxFontSizePx)
			}
		}
		ve := verrs[0]
		return fmt.Errorf("%w: 字段 %s 不满足 %s", ErrInvalidSettings, ve.Namespace(), ve.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
}

func (s Settings) geometry() layout.Geometry {
	g := layout.DefaultGeometry()
	if s.CanvasWidth > 0 {
		g.Width = s.CanvasWidth
	}
	if s.CanvasHeight > 0 {
		g.Height = s.CanvasHeight
	}
	if s.Inset > 0 {
		g.Inset = s.Inset
	}
	return g
}

func (s Settings) thresholds() contrast.Thresholds {
	if s.Thresholds == (contrast.Thresholds{}) {
		return contrast.DefaultThresholds()
	}
	return s.Thresholds
}

func (s Settings) watermarkText() string {
	if s.WatermarkText == "" {
		return DefaultWatermarkText
	}
	return s.WatermarkText
}
