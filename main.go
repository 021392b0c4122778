package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/binding"
	"github.com/ByLCY/quotura/internal/config"
	"github.com/ByLCY/quotura/internal/logging"
	"github.com/ByLCY/quotura/internal/server"
	"github.com/ByLCY/quotura/layout"
	"github.com/ByLCY/quotura/quote"
)

type options struct {
	text, in                   string
	outRaster, outSVG, outPDF  string
	debug                      string
	configPath                 string
	data                       string
	font, size, align          string
	preset, gradient, solid    string
	image                      string
	textColor, watermarkText   string
	format                     string
	randomPreset               bool
	seed                       uint64
	noWatermark, bold, pattern bool
	plain, minify, serve       bool
	eink, quality              int
	width, height, inset       int
	logLevel                   string
}

func main() {
	var o options
	flag.StringVar(&o.text, "text", "", "引用文本，支持 <b>/<i>/<u>/<br> 标记")
	flag.StringVar(&o.in, "in", "", "从文件读取引用文本（- 表示标准输入）")
	flag.StringVar(&o.outRaster, "out-png", "output/quote.png", "光栅图输出路径（-format jpeg 时为 JPEG）")
	flag.StringVar(&o.outSVG, "out-svg", "output/quote.svg", "SVG 输出路径，留空则不写")
	flag.StringVar(&o.outPDF, "out-pdf", "", "PDF 输出路径，留空则不生成")
	flag.StringVar(&o.debug, "debug", "", "排版调试 JSON 输出路径")
	flag.StringVar(&o.configPath, "config", "", "YAML 配置文件路径")
	flag.StringVar(&o.data, "data", "", "填充 ${path} 占位符的 JSON 数据")
	flag.StringVar(&o.font, "font", "", "字体族，例如 \"Arial, sans-serif\"")
	flag.StringVar(&o.size, "size", "", "字号，例如 28、28px、21pt")
	flag.StringVar(&o.align, "align", "", "对齐方式 left|center|right")
	flag.StringVar(&o.preset, "preset", "", "预设渐变名称")
	flag.BoolVar(&o.randomPreset, "random-preset", false, "随机选择预设渐变")
	flag.Uint64Var(&o.seed, "seed", 0, "随机预设的种子，0 表示不固定")
	flag.StringVar(&o.gradient, "gradient", "", "自定义渐变 \"#from,#to\"")
	flag.StringVar(&o.solid, "solid", "", "纯色背景 #rrggbb")
	flag.StringVar(&o.image, "image", "", "背景图片路径")
	flag.StringVar(&o.textColor, "text-color", "", "覆盖自动配色的文字颜色")
	flag.StringVar(&o.watermarkText, "watermark-text", "", "水印文字")
	flag.BoolVar(&o.noWatermark, "no-watermark", false, "不绘制水印")
	flag.BoolVar(&o.bold, "bold", false, "正文整体加粗")
	flag.BoolVar(&o.pattern, "pattern", false, "叠加装饰图案")
	flag.BoolVar(&o.plain, "plain", false, "按纯文本处理，不解析标记")
	flag.StringVar(&o.format, "format", "", "光栅格式 png|jpeg")
	flag.IntVar(&o.quality, "quality", 0, "JPEG 质量 1-100")
	flag.IntVar(&o.eink, "eink", 0, "输出指定位深的抖动灰度 PNG（1-8）")
	flag.BoolVar(&o.minify, "minify", false, "压缩 SVG 输出")
	flag.IntVar(&o.width, "width", 0, "画布宽度")
	flag.IntVar(&o.height, "height", 0, "画布高度")
	flag.IntVar(&o.inset, "inset", 0, "左右边距")
	flag.BoolVar(&o.serve, "serve", false, "启动 HTTP 渲染服务")
	flag.StringVar(&o.logLevel, "log-level", "", "日志级别 debug|info|warn|error")
	flag.Parse()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		logging.Setup(os.Stderr, "info", false)
		logging.ErrorWithComponent(logging.ComponentConfig, "加载配置失败", "error", err)
		os.Exit(1)
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logging.Setup(os.Stderr, level, cfg.Log.NoColor)
	quote.SetLogger(logging.Component(logging.ComponentRender))
	if err := cfg.RegisterFonts(); err != nil {
		logging.ErrorWithComponent(logging.ComponentConfig, "注册字体失败", "error", err)
		os.Exit(1)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	settings, err := applyFlags(cfg.Render, o, set)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentCLI, "参数无效", "error", err)
		os.Exit(1)
	}

	if o.serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(cfg.Server, settings, quote.NewRenderer())
		if err := srv.Run(ctx); err != nil {
			logging.ErrorWithComponent(logging.ComponentServer, "服务异常退出", "error", err)
			os.Exit(1)
		}
		return
	}

	text, err := readText(o)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentCLI, "读取引用文本失败", "error", err)
		os.Exit(1)
	}
	if err := run(text, settings, o, quote.NewRenderer()); err != nil {
		logging.ErrorWithComponent(logging.ComponentCLI, "生成引用图片失败", "error", err)
		os.Exit(1)
	}
}

// applyFlags 只覆盖命令行上显式给出的参数，其余沿用配置文件与环境变量。
func applyFlags(s quote.Settings, o options, set map[string]bool) (quote.Settings, error) {
	if set["font"] {
		s.FontFamily = o.font
	}
	if set["size"] {
		px, err := quote.ParseFontSize(o.size)
		if err != nil {
			return s, err
		}
		s.FontSizePx = px
	}
	if set["align"] {
		s.Align = layout.NormalizeAlign(o.align)
	}
	if set["bold"] {
		s.BaseBold = o.bold
	}
	if set["pattern"] {
		s.Pattern = o.pattern
	}
	if set["plain"] {
		s.PlainText = o.plain
	}
	if set["no-watermark"] {
		s.IncludeWatermark = !o.noWatermark
	}
	if set["watermark-text"] {
		s.WatermarkText = o.watermarkText
	}
	if set["text-color"] {
		s.TextColor = o.textColor
	}
	if set["width"] {
		s.CanvasWidth = o.width
	}
	if set["height"] {
		s.CanvasHeight = o.height
	}
	if set["inset"] {
		s.Inset = o.inset
	}
	if set["format"] {
		s.Outputs.RasterFormat = o.format
	}
	if set["quality"] {
		s.Outputs.JPEGQuality = o.quality
	}
	if set["eink"] {
		s.Outputs.EInk = o.eink
	}
	if set["minify"] {
		s.Outputs.MinifySVG = o.minify
	}
	s.Outputs.PDF = s.Outputs.PDF || o.outPDF != ""

	bg, err := backgroundFromFlags(o)
	if err != nil {
		return s, err
	}
	if bg != nil {
		s.Background = *bg
	}
	if o.data != "" {
		data, err := binding.ParseJSON([]byte(o.data))
		if err != nil {
			return s, err
		}
		s.Data = data
	}
	return s, nil
}

func backgroundFromFlags(o options) (*background.Spec, error) {
	var picked []string
	var spec background.Spec
	if o.preset != "" {
		picked = append(picked, "-preset")
		spec = background.FromPreset(o.preset)
	}
	if o.randomPreset {
		picked = append(picked, "-random-preset")
		var rng *rand.Rand
		if o.seed != 0 {
			rng = rand.New(rand.NewPCG(o.seed, o.seed))
		}
		spec = background.RandomPreset(rng).Spec()
	}
	if o.gradient != "" {
		picked = append(picked, "-gradient")
		from, to, ok := strings.Cut(o.gradient, ",")
		if !ok {
			return nil, fmt.Errorf("渐变格式应为 \"#from,#to\"，得到 %q", o.gradient)
		}
		spec = background.Gradient(strings.TrimSpace(from), strings.TrimSpace(to))
	}
	if o.solid != "" {
		picked = append(picked, "-solid")
		spec = background.Solid(o.solid)
	}
	if o.image != "" {
		picked = append(picked, "-image")
		data, err := os.ReadFile(o.image)
		if err != nil {
			return nil, fmt.Errorf("读取背景图片 %s 失败: %w", o.image, err)
		}
		spec = background.FromImage(data)
	}
	switch len(picked) {
	case 0:
		return nil, nil
	case 1:
		return &spec, nil
	default:
		return nil, fmt.Errorf("背景参数互斥，只能指定一个: %s", strings.Join(picked, " "))
	}
}

func readText(o options) (string, error) {
	switch {
	case o.text != "" && o.in != "":
		return "", fmt.Errorf("-text 与 -in 只能指定一个")
	case o.text != "":
		return o.text, nil
	case o.in == "-":
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	case o.in != "":
		data, err := os.ReadFile(o.in)
		if err != nil {
			return "", fmt.Errorf("无法打开文本文件 %s: %w", o.in, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("需要 -text 或 -in")
	}
}

// run 渲染并写出各输出文件。
func run(text string, s quote.Settings, o options, r *quote.Renderer) error {
	out, err := r.Render(text, s)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	for _, w := range out.Warnings {
		logging.WarnWithComponent(logging.ComponentRender, "已恢复的问题", "warning", w)
	}

	if o.debug != "" {
		if err := writeDebug(out.Layout, o.debug); err != nil {
			return err
		}
	}
	files := []struct {
		path string
		data []byte
	}{
		{o.outRaster, out.Raster},
		{o.outSVG, out.SVG},
		{o.outPDF, out.PDF},
	}
	for _, f := range files {
		if f.path == "" || f.data == nil {
			continue
		}
		if err := writeFile(f.path, f.data); err != nil {
			return err
		}
		logging.InfoWithComponent(logging.ComponentCLI, "已生成文件", "path", f.path, "bytes", len(f.data))
	}
	logging.InfoWithComponent(logging.ComponentCLI, "渲染完成",
		"lines", len(out.Layout.Lines),
		"foreground", out.Contrast.Foreground,
		"luminance", fmt.Sprintf("%.1f", out.Contrast.Luminance))
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
