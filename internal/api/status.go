package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized bool                  `json:"initialized"` // 是否已有数据
	Persistent  bool                  `json:"persistent"`  // false 表示内存库，退出即丢弃
	Partitions  []store.PartitionStat `json:"partitions"`
	LastBatch   *store.BatchLog       `json:"lastBatch,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	stats, err := h.store.PartitionStats()
	if err != nil {
		internalError(c, "读取分区状态失败", err)
		return
	}

	resp := StatusResponse{
		Persistent: h.store.Path() != store.MemoryPath,
		Partitions: stats,
	}
	for _, s := range stats {
		if s.Rows > 0 {
			resp.Initialized = true
		}
	}
	if logs, err := h.store.ListBatchLogs(1); err == nil && len(logs) > 0 {
		resp.LastBatch = &logs[0]
	}

	c.JSON(http.StatusOK, resp)
}

// ListBatches 批次导入日志
// GET /api/batches?limit=50
func (h *Handler) ListBatches(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.store.ListBatchLogs(limit)
	if err != nil {
		internalError(c, "读取批次日志失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}
