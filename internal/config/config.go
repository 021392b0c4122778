package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/fonts"
	"github.com/ByLCY/quotura/quote"
)

// 环境变量名。每个变量也支持 <NAME>_FILE 形式从文件读取。
const (
	EnvConfig     = "QUOTURA_CONFIG"
	EnvAddr       = "QUOTURA_ADDR"
	EnvLogLevel   = "QUOTURA_LOG_LEVEL"
	EnvNoColor    = "QUOTURA_NO_COLOR"
	EnvFont       = "QUOTURA_FONT"
	EnvFontSize   = "QUOTURA_FONT_SIZE"
	EnvWatermark  = "QUOTURA_WATERMARK"
	EnvPreset     = "QUOTURA_PRESET"
	EnvRateLimit  = "QUOTURA_RATE_LIMIT"
	EnvRateBurst  = "QUOTURA_RATE_BURST"
	EnvMaxBody    = "QUOTURA_MAX_BODY_BYTES"
	EnvTimeout    = "QUOTURA_RENDER_TIMEOUT"
	EnvCORSOrigin = "QUOTURA_CORS_ORIGINS"
	EnvGinMode    = "GIN_MODE"
)

// Server 描述 HTTP 渲染服务的参数。
type Server struct {
	Addr string `yaml:"addr" validate:"required"`
	// RateLimit 每个客户端 IP 每秒允许的渲染请求数，0 表示不限流。
	RateLimit float64 `yaml:"rateLimit" validate:"gte=0"`
	RateBurst int     `yaml:"rateBurst" validate:"gte=0"`
	// MaxBodyBytes 请求体上限，包含 base64 编码的背景图片。
	MaxBodyBytes  int64         `yaml:"maxBodyBytes" validate:"gt=0"`
	RenderTimeout time.Duration `yaml:"renderTimeout"`
	CORSOrigins   []string      `yaml:"corsOrigins"`
	GinMode       string        `yaml:"ginMode" validate:"omitempty,oneof=debug release test"`
}

// Log 日志参数。
type Log struct {
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	NoColor bool   `yaml:"noColor"`
}

// FontFile 描述一个需要注册的外部 TTF/OTF 字体文件。
type FontFile struct {
	Family string `yaml:"family" validate:"required"`
	Path   string `yaml:"path" validate:"required"`
	Bold   bool   `yaml:"bold"`
	Italic bool   `yaml:"italic"`
}

// File 是 YAML 配置文件的结构，Render 为渲染默认值。
type File struct {
	Server Server         `yaml:"server"`
	Log    Log            `yaml:"log"`
	Fonts  []FontFile     `yaml:"fonts" validate:"dive"`
	Render quote.Settings `yaml:"render"`
}

// Default 返回内置默认配置。
func Default() File {
	return File{
		Server: Server{
			Addr:          ":8080",
			RateLimit:     5,
			RateBurst:     10,
			MaxBodyBytes:  16 << 20,
			RenderTimeout: 30 * time.Second,
		},
		Log:    Log{Level: "info"},
		Render: quote.DefaultSettings(),
	}
}

var validate = validator.New()

// Load 依次叠加：内置默认值、.env、YAML 文件（path 为空时读取 QUOTURA_CONFIG）、环境变量。
func Load(path string) (File, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return File{}, fmt.Errorf("读取 .env 失败: %w", err)
	}
	cfg := Default()
	env := newEnvSource()
	if path == "" {
		env.String(EnvConfig, &path)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return File{}, err
		}
	}
	if err := cfg.applyEnv(env); err != nil {
		return File{}, err
	}
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// LoadFile 读取 YAML 配置文件，未出现的字段保留默认值。
func LoadFile(path string) (File, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return File{}, err
	}
	return cfg, nil
}

func (f *File) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return nil
}

// applyEnv 用环境变量覆盖配置；任何变量格式错误都会导致加载失败。
func (f *File) applyEnv(env *envSource) error {
	env.String(EnvAddr, &f.Server.Addr)
	env.Rate(EnvRateLimit, &f.Server.RateLimit)
	env.Int(EnvRateBurst, &f.Server.RateBurst)
	env.Bytes(EnvMaxBody, &f.Server.MaxBodyBytes)
	env.Duration(EnvTimeout, &f.Server.RenderTimeout)
	env.String(EnvGinMode, &f.Server.GinMode)
	env.List(EnvCORSOrigin, &f.Server.CORSOrigins)
	env.String(EnvLogLevel, &f.Log.Level)
	env.Bool(EnvNoColor, &f.Log.NoColor)

	env.String(EnvFont, &f.Render.FontFamily)
	env.FontSize(EnvFontSize, &f.Render.FontSizePx)
	env.Bool(EnvWatermark, &f.Render.IncludeWatermark)
	var preset string
	env.String(EnvPreset, &preset)
	if preset != "" {
		f.Render.Background = background.FromPreset(preset)
	}
	if err := env.Err(); err != nil {
		return fmt.Errorf("环境变量无效: %w", err)
	}
	return nil
}

// Validate 校验服务参数与渲染默认值。
func (f File) Validate() error {
	if err := validate.Struct(f.Server); err != nil {
		return fmt.Errorf("服务配置无效: %w", err)
	}
	if err := validate.Struct(f.Log); err != nil {
		return fmt.Errorf("日志配置无效: %w", err)
	}
	if err := validate.Var(f.Fonts, "dive"); err != nil {
		return fmt.Errorf("字体配置无效: %w", err)
	}
	if err := f.Render.Validate(); err != nil {
		return fmt.Errorf("渲染默认值无效: %w", err)
	}
	return nil
}

// RegisterFonts 读取配置中的字体文件并注册到字体表，供度量与各渲染器使用。
func (f File) RegisterFonts() error {
	for _, ff := range f.Fonts {
		data, err := os.ReadFile(ff.Path)
		if err != nil {
			return fmt.Errorf("读取字体文件 %s 失败: %w", ff.Path, err)
		}
		if err := fonts.Register(ff.Family, fonts.Variant{Bold: ff.Bold, Italic: ff.Italic}, data); err != nil {
			return err
		}
	}
	return nil
}
