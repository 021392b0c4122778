package layout

import (
	"math"
	"unicode/utf8"
)

// fallbackAdvance 每个字符按 0.55 倍字号估算宽度。
const fallbackAdvance = 0.55

// EstimateWidth 在无法获得真实字形度量时估算文本宽度。
func EstimateWidth(text string, sizePx float64) float64 {
	return float64(utf8.RuneCountInString(text)) * sizePx * fallbackAdvance
}

type measureKey struct {
	text  string
	style Style
}

// measurer 在一次排版内缓存测量结果，并统计退回估算的次数。
type measurer struct {
	provider  MetricsProvider
	family    string
	sizePx    float64
	cache     map[measureKey]float64
	fallbacks int
}

func newMeasurer(p MetricsProvider, family string, sizePx float64) *measurer {
	return &measurer{provider: p, family: family, sizePx: sizePx, cache: map[measureKey]float64{}}
}

func (m *measurer) width(text string, st Style) float64 {
	if text == "" {
		return 0
	}
	key := measureKey{text: text, style: st}
	if w, ok := m.cache[key]; ok {
		return w
	}
	w, ok := m.measure(text, st)
	if !ok {
		m.fallbacks++
		w = EstimateWidth(text, m.sizePx)
	}
	m.cache[key] = w
	return w
}

func (m *measurer) measure(text string, st Style) (float64, bool) {
	if m.provider == nil {
		return 0, false
	}
	w, err := m.provider.Measure(text, m.family, m.sizePx, st)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0, false
	}
	// 非空文本测得 0 宽通常意味着字体缺字或后端异常
	if w == 0 {
		return 0, false
	}
	return w, true
}
