package layout

// Options 配置排版阶段所需的依赖与参数，例如字体度量后端。
type Options struct {
	Metrics    MetricsProvider
	FontFamily string
	FontSizePx float64
	Geometry   Geometry
	Align      Align
	// BaseBold 对所有文本叠加粗体，标记中的 <b> 不会因此失效。
	BaseBold bool
	// LineHeightFactor 行高倍数，0 表示使用默认 1.3。
	LineHeightFactor float64
}

// DefaultLineHeightFactor 行高 = round(字号 * 1.3)。
const DefaultLineHeightFactor = 1.3

// Style 是测量所需的字重与字形；下划线不影响宽度。
type Style struct {
	Bold   bool
	Italic bool
}

// MetricsProvider 测量给定字体、字号与样式下一段文本的像素宽度。
// 实现必须是确定性的：相同输入返回相同结果。
type MetricsProvider interface {
	Measure(text, family string, sizePx float64, style Style) (float64, error)
}

// MetricsFunc adapts a plain function to MetricsProvider.
type MetricsFunc func(text, family string, sizePx float64, style Style) (float64, error)

func (f MetricsFunc) Measure(text, family string, sizePx float64, style Style) (float64, error) {
	return f(text, family, sizePx, style)
}

func (o Options) withDefaults() Options {
	if o.Geometry == (Geometry{}) {
		o.Geometry = DefaultGeometry()
	}
	if o.Align == "" {
		o.Align = AlignCenter
	}
	if o.LineHeightFactor <= 0 {
		o.LineHeightFactor = DefaultLineHeightFactor
	}
	return o
}
