package quote

import "errors"

var (
	// ErrInvalidFontSize 字号不在 12..60 像素之间，渲染被拒绝。
	ErrInvalidFontSize = errors.New("quote: 字号超出范围")
	// ErrInvalidSettings 其他参数无效（画布尺寸、颜色、背景等）。
	ErrInvalidSettings = errors.New("quote: 渲染参数无效")
	// ErrImageDecodeFailed 背景图片无法解码；渲染会退回默认预设渐变并记为警告。
	ErrImageDecodeFailed = errors.New("quote: 背景图片解码失败")
	// ErrMetricsUnavailable 字体度量不可用；排版退回按字符估算并记为警告。
	ErrMetricsUnavailable = errors.New("quote: 字体度量不可用")
	// ErrEncodeFailed 输出编码失败，渲染终止。
	ErrEncodeFailed = errors.New("quote: 输出编码失败")
)
