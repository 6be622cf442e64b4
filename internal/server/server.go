package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/spracknow-droid/Excel-to-DB/internal/api"
	"github.com/spracknow-droid/Excel-to-DB/internal/config"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

//go:embed web
var staticFiles embed.FS

// devFrontendOrigin 开发模式下前端开发服务器地址
const devFrontendOrigin = "http://localhost:5173"

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *api.Handler
	cfg    *config.AppConfig
	logger *slog.Logger
	http   *http.Server
}

// NewServer 创建服务器；store 的生命周期由调用方管理
func NewServer(cfg *config.AppConfig, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(st, api.Options{
		Rules:      cfg.Rules,
		TopLimit:   cfg.Reconcile.TopLimit,
		CommonKeys: cfg.Reconcile.CommonKeys,
		ExportDir:  config.GetDataPath(cfg, "exports", ""),
	}, logger)

	s := &Server{
		router: gin.New(),
		store:  st,
		api:    handler,
		cfg:    cfg,
		logger: logger,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes(cfg.Server.DevMode)

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	if devMode {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:  []string{devFrontendOrigin},
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}))
	}

	apiGroup := s.router.Group("/api")
	s.api.RegisterRoutes(apiGroup)

	sub, _ := fs.Sub(staticFiles, "web")
	s.router.GET("/", func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// requestLogger 使用 slog 记录请求
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Addr 监听地址（默认仅本机）
func (s *Server) Addr() string {
	host := s.cfg.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(s.cfg.Server.Port))
}

// URL 浏览器访问地址
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.cfg.Server.Port)
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run() error {
	s.http = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Handler 路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
