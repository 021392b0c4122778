package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ByLCY/quotura/internal/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID 为每个请求分配 ID，客户端提供的合法 UUID 会被沿用。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog 以结构化日志记录每个请求。
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Component(logging.ComponentServer).Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
			requestIDKey, c.GetString(requestIDKey))
	}
}

// bodyLimit 限制请求体大小；超出部分在读取时报错。
func bodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large", "maxBytes": max})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

// ipLimiter 按客户端 IP 限流。
type ipLimiter struct {
	limit    rate.Limit
	burst    int
	limiters sync.Map
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ipLimiter{limit: rate.Limit(perSecond), burst: burst}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	if val, ok := l.limiters.Load(ip); ok {
		return val.(*rate.Limiter)
	}
	val, _ := l.limiters.LoadOrStore(ip, rate.NewLimiter(l.limit, l.burst))
	return val.(*rate.Limiter)
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.get(ip).Allow() {
			logging.WarnWithComponent(logging.ComponentServer, "rate limit exceeded", "ip", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many render requests"})
			return
		}
		c.Next()
	}
}
