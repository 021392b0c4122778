package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ByLCY/quotura/quote"
)

// envSource 读取 QUOTURA_* 环境变量。NAME 为空时再看 NAME_FILE 指向的文件
// （容器 secret 挂载），文件内容去掉首尾空白后使用。
// 格式错误的值不会静默回退到默认值，而是累积起来由 Err 一并返回。
type envSource struct {
	lookup func(string) (string, bool)
	errs   []error
}

func newEnvSource() *envSource {
	return &envSource{lookup: os.LookupEnv}
}

func (e *envSource) raw(key string) (string, bool) {
	if v, ok := e.lookup(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	path, ok := e.lookup(key + "_FILE")
	if !ok || strings.TrimSpace(path) == "" {
		return "", false
	}
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		e.fail(key+"_FILE", err)
		return "", false
	}
	v := strings.TrimSpace(string(data))
	return v, v != ""
}

func (e *envSource) fail(key string, err error) {
	e.errs = append(e.errs, fmt.Errorf("环境变量 %s: %w", key, err))
}

// Err 返回所有解析失败的变量。
func (e *envSource) Err() error {
	return errors.Join(e.errs...)
}

func (e *envSource) String(key string, dst *string) {
	if v, ok := e.raw(key); ok {
		*dst = v
	}
}

func (e *envSource) Int(key string, dst *int) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = n
}

func (e *envSource) Bool(key string, dst *bool) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "t", "true", "y", "yes", "on":
		*dst = true
	case "0", "f", "false", "n", "no", "off":
		*dst = false
	default:
		e.fail(key, fmt.Errorf("无法识别的布尔值 %q", v))
	}
}

// List 按逗号拆分，忽略空项。
func (e *envSource) List(key string, dst *[]string) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// Rate 解析每秒请求数，可写作 "5"、"5/s"、"120/m" 或 "1000/h"。
func (e *envSource) Rate(key string, dst *float64) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	r, err := parseRate(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = r
}

func parseRate(v string) (float64, error) {
	num, per, hasPer := strings.Cut(strings.ToLower(strings.ReplaceAll(v, " ", "")), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n < 0 || math.IsInf(n, 0) {
		return 0, fmt.Errorf("无效的速率 %q", v)
	}
	if !hasPer {
		return n, nil
	}
	switch per {
	case "s", "sec", "second":
		return n, nil
	case "m", "min", "minute":
		return n / 60, nil
	case "h", "hour":
		return n / 3600, nil
	default:
		return 0, fmt.Errorf("无效的速率单位 %q", per)
	}
}

// Duration 接受 time.ParseDuration 的写法；不带单位的数字按秒计。
func (e *envSource) Duration(key string, dst *time.Duration) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = d
}

// Bytes 解析 "16MiB"、"512 kB"、"1048576" 等请求体大小。
func (e *envSource) Bytes(key string, dst *int64) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	if n > math.MaxInt64 {
		e.fail(key, fmt.Errorf("%s 超出范围", v))
		return
	}
	*dst = int64(n)
}

// FontSize 解析 "28"、"28px"、"21pt" 并换算为整像素。
func (e *envSource) FontSize(key string, dst *int) {
	v, ok := e.raw(key)
	if !ok {
		return
	}
	px, err := quote.ParseFontSize(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = px
}
