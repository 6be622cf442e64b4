package api

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spracknow-droid/Excel-to-DB/internal/exporter"
)

const (
	contentTypeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeSQLite = "application/vnd.sqlite3"
	downloadTTL       = 10 * time.Minute
)

// ExportRequest 导出请求
type ExportRequest struct {
	Format       string `json:"format"`       // xlsx（默认）/ db
	IncludeViews bool   `json:"includeViews"` // xlsx 附带汇总 sheet
}

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Export 导出快照（SSE 进度 + 完成后提供一次性下载地址）
// POST /api/export
func (h *Handler) Export(c *gin.Context) {
	var req ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "无效的请求参数")
			return
		}
	}
	if req.Format == "" {
		req.Format = "xlsx"
	}
	if req.Format != "xlsx" && req.Format != "db" {
		errorJSON(c, http.StatusBadRequest, "不支持的导出格式: "+req.Format)
		return
	}

	send, ok := startSSE(c)
	if !ok {
		return
	}
	event := func(typ, msg string, data any) {
		send(exportProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()})
	}

	event("start", "开始导出", map[string]any{"format": req.Format})

	stamp := time.Now().Format("20060102_150405")
	dir := h.opts.ExportDir
	if dir == "" {
		dir = os.TempDir()
	}
	tempPath := filepath.Join(dir, fmt.Sprintf("exceltodb_export_%d_%d.%s", time.Now().UnixNano(), os.Getpid(), req.Format))

	item := exportDownload{filePath: tempPath}
	switch req.Format {
	case "db":
		item.filename = "sales_data_" + stamp + ".db"
		item.contentType = contentTypeSQLite
		event("progress", "导出数据库", map[string]any{"percent": 50})
		if err := h.exporter.Dump(tempPath); err != nil {
			event("error", "导出失败: "+err.Error(), map[string]any{})
			_ = os.Remove(tempPath)
			return
		}
	default:
		item.filename = "sales_data_" + stamp + ".xlsx"
		item.contentType = contentTypeXLSX

		lastPercent := -1
		progressFn := func(p exporter.ProgressEvent) {
			if p.Percent == lastPercent {
				return
			}
			lastPercent = p.Percent
			event("progress", p.Stage, map[string]any{"percent": p.Percent})
		}

		file, err := h.exporter.Export(exporter.ExportOptions{IncludeViews: req.IncludeViews}, progressFn)
		if err != nil {
			event("error", "导出失败: "+err.Error(), map[string]any{})
			return
		}
		err = file.SaveAs(tempPath)
		_ = file.Close()
		if err != nil {
			event("error", "写入导出文件失败: "+err.Error(), map[string]any{})
			_ = os.Remove(tempPath)
			return
		}
	}

	token := h.downloads.put(item, downloadTTL)
	event("done", "导出完成", map[string]any{
		"percent":     100,
		"filename":    item.filename,
		"downloadUrl": "/api/export/download/" + token,
	})
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		errorJSON(c, http.StatusBadRequest, "缺少 token")
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		errorJSON(c, http.StatusNotFound, "下载链接已失效")
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		errorJSON(c, http.StatusNotFound, "导出文件不存在")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": item.filename}))
	c.Header("Content-Type", item.contentType)
	c.File(item.filePath)
}
