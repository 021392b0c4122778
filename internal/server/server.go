package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ByLCY/quotura/background"
	"github.com/ByLCY/quotura/contrast"
	"github.com/ByLCY/quotura/fonts"
	"github.com/ByLCY/quotura/internal/config"
	"github.com/ByLCY/quotura/internal/logging"
	"github.com/ByLCY/quotura/layout"
	"github.com/ByLCY/quotura/quote"
)

// Server 通过 HTTP 暴露渲染流水线。
type Server struct {
	cfg      config.Server
	defaults quote.Settings
	renderer *quote.Renderer
	router   *gin.Engine
}

// New builds the gin router. defaults are the settings every request starts from.
func New(cfg config.Server, defaults quote.Settings, r *quote.Renderer) *Server {
	if r == nil {
		r = quote.NewRenderer()
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{cfg: cfg, defaults: defaults, renderer: r}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader, warningsHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", s.health)

	api := router.Group("/api")
	api.GET("/presets", s.presets)
	api.GET("/fonts", s.fonts)

	render := api.Group("")
	if cfg.MaxBodyBytes > 0 {
		render.Use(bodyLimit(cfg.MaxBodyBytes))
	}
	if cfg.RateLimit > 0 {
		render.Use(newIPLimiter(cfg.RateLimit, cfg.RateBurst).middleware())
	}
	render.POST("/render", s.renderJSON)
	render.POST("/render.png", s.renderRaster)
	render.POST("/render.svg", s.renderSVG)

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动 HTTP 服务，ctx 取消后优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.InfoWithComponent(logging.ComponentServer, "listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("启动 HTTP 服务失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭 HTTP 服务失败: %w", err)
	}
	logging.InfoWithComponent(logging.ComponentServer, "stopped")
	return nil
}

const warningsHeader = "X-Quotura-Warnings"

// RenderRequest 是渲染接口的请求体；Settings 中缺省的字段沿用服务端默认值。
type RenderRequest struct {
	Text     string         `json:"text" binding:"required"`
	Settings quote.Settings `json:"settings"`
}

// RenderResponse 是 /api/render 的 JSON 响应。
type RenderResponse struct {
	ID           string            `json:"id"`
	Lines        []string          `json:"lines"`
	Layout       *layout.Result    `json:"layout"`
	Contrast     contrast.Decision `json:"contrast"`
	Background   background.Kind   `json:"background"`
	RasterFormat string            `json:"rasterFormat"`
	Raster       string            `json:"raster"`
	SVG          string            `json:"svg"`
	PDF          string            `json:"pdf,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"default": background.DefaultPreset, "presets": background.Presets()})
}

func (s *Server) fonts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"default": fonts.Resolve(s.defaults.FontFamily), "families": fonts.Families()})
}

func (s *Server) renderJSON(c *gin.Context) {
	out, ok := s.render(c)
	if !ok {
		return
	}
	resp := RenderResponse{
		ID:           c.GetString(requestIDKey),
		Lines:        out.Layout.Texts(),
		Layout:       out.Layout,
		Contrast:     out.Contrast,
		Background:   out.Background,
		RasterFormat: string(out.RasterFormat),
		Raster:       base64.StdEncoding.EncodeToString(out.Raster),
		SVG:          string(out.SVG),
		Warnings:     out.WarningMessages(),
	}
	if out.PDF != nil {
		resp.PDF = base64.StdEncoding.EncodeToString(out.PDF)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) renderRaster(c *gin.Context) {
	out, ok := s.render(c)
	if !ok {
		return
	}
	contentType := "image/png"
	if out.RasterFormat == "jpeg" {
		contentType = "image/jpeg"
	}
	c.Data(http.StatusOK, contentType, out.Raster)
}

func (s *Server) renderSVG(c *gin.Context) {
	out, ok := s.render(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", out.SVG)
}

type renderResult struct {
	out *quote.Output
	err error
}

// render 解析请求并执行渲染，失败时已写入错误响应。
func (s *Server) render(c *gin.Context) (*quote.Output, bool) {
	req := RenderRequest{Settings: s.defaults}
	// JSON 会合并进已有 map，先复制以免修改共享默认值
	req.Settings.Data = maps.Clone(s.defaults.Data)
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return nil, false
	}

	ctx := c.Request.Context()
	if s.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RenderTimeout)
		defer cancel()
	}
	done := make(chan renderResult, 1)
	go func() {
		out, err := s.renderer.Render(req.Text, req.Settings)
		done <- renderResult{out: out, err: err}
	}()

	var res renderResult
	select {
	case res = <-done:
	case <-ctx.Done():
		logging.WarnWithComponent(logging.ComponentServer, "render timed out", requestIDKey, c.GetString(requestIDKey))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "render timed out"})
		return nil, false
	}
	if res.err != nil {
		status := statusFor(res.err)
		if status >= http.StatusInternalServerError {
			logging.ErrorWithComponent(logging.ComponentRender, "render failed", "error", res.err, requestIDKey, c.GetString(requestIDKey))
		}
		c.JSON(status, gin.H{"error": res.err.Error()})
		return nil, false
	}
	if msgs := res.out.WarningMessages(); len(msgs) > 0 {
		for _, m := range msgs {
			logging.WarnWithComponent(logging.ComponentRender, "render warning", "warning", m, requestIDKey, c.GetString(requestIDKey))
		}
		c.Header(warningsHeader, fmt.Sprint(len(msgs)))
	}
	return res.out, true
}

// statusFor 将渲染错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, quote.ErrInvalidFontSize), errors.Is(err, quote.ErrInvalidSettings):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
