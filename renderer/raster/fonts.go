package raster

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"

	"github.com/ByLCY/quotura/fonts"
	"github.com/ByLCY/quotura/layout"
)

type sourceKey struct {
	family  string
	variant fonts.Variant
}

// FontCache 缓存解析后的字体源；字体源不可变，可在并发渲染间共享。
type FontCache struct {
	mu      sync.Mutex
	sources map[sourceKey]*text.FontSource
}

// NewFontCache creates an empty cache.
func NewFontCache() *FontCache {
	return &FontCache{sources: map[sourceKey]*text.FontSource{}}
}

// Face 返回指定字体族、样式与像素字号的字形面。
func (c *FontCache) Face(family string, st layout.Style, sizePx float64) (text.Face, error) {
	src, err := c.source(family, fonts.Variant{Bold: st.Bold, Italic: st.Italic})
	if err != nil {
		return nil, err
	}
	return src.Face(sizePx), nil
}

func (c *FontCache) source(family string, v fonts.Variant) (*text.FontSource, error) {
	key := sourceKey{family: fonts.Resolve(family), variant: v}
	c.mu.Lock()
	defer c.mu.Unlock()
	if src, ok := c.sources[key]; ok {
		return src, nil
	}
	data, err := fonts.Load(key.family, v)
	if err != nil {
		return nil, err
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s (%s) 失败: %w", key.family, v, err)
	}
	c.sources[key] = src
	return src, nil
}

// Metrics 以 gg 字形前进宽度实现 layout.MetricsProvider。
type Metrics struct {
	Fonts *FontCache
}

var _ layout.MetricsProvider = Metrics{}

func (m Metrics) Measure(s, family string, sizePx float64, st layout.Style) (float64, error) {
	cache := m.Fonts
	if cache == nil {
		return 0, fmt.Errorf("raster: 未配置字体缓存")
	}
	face, err := cache.Face(family, st, sizePx)
	if err != nil {
		return 0, err
	}
	return face.Advance(s), nil
}
