// Package api 本地操作界面使用的 HTTP 接口（仅绑定本机，单操作者，无鉴权）。
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spracknow-droid/Excel-to-DB/internal/exporter"
	"github.com/spracknow-droid/Excel-to-DB/internal/importer"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/service/report"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

// Options 处理器依赖的配置
type Options struct {
	Rules      model.Rules
	TopLimit   int
	CommonKeys []string
	ExportDir  string // 导出临时文件目录，为空时使用系统临时目录
}

// Handler API 处理器
type Handler struct {
	store       *store.Store
	coordinator *importer.Coordinator
	report      *report.Service
	exporter    *exporter.Exporter
	downloads   *exportDownloadStore
	opts        Options
	logger      *slog.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	rs := report.NewService(st, opts.Rules, logger)
	return &Handler{
		store:       st,
		coordinator: importer.NewCoordinator(st, opts.Rules, logger),
		report:      rs,
		exporter:    exporter.NewExporter(st, rs),
		downloads:   newExportDownloadStore(),
		opts:        opts,
		logger:      logger,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/batches", h.ListBatches)

	// 数据导入
	router.POST("/import", h.Import)

	// 分区数据
	router.GET("/partitions/:name", h.GetPartition)
	router.POST("/reset", h.Reset)

	// 汇总视图
	router.GET("/reconciliation", h.GetReconciliation)
	router.GET("/reconciliation/top", h.GetTopCounterparties)
	router.GET("/unified", h.GetUnified)

	// 数据导出
	router.POST("/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}

func errorJSON(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func internalError(c *gin.Context, message string, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message + ": " + err.Error()})
}
