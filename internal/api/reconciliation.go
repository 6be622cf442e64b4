package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetReconciliation 计划对比实绩
// GET /api/reconciliation?period=2024-01
func (h *Handler) GetReconciliation(c *gin.Context) {
	rows, err := h.report.Reconciliation()
	if err != nil {
		internalError(c, "构建视图失败", err)
		return
	}

	if period := strings.TrimSpace(c.Query("period")); period != "" {
		filtered := rows[:0:0]
		for _, r := range rows {
			if r.Period == period {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// GetTopCounterparties 매출처 排名
// GET /api/reconciliation/top?limit=20
func (h *Handler) GetTopCounterparties(c *gin.Context) {
	limit := h.opts.TopLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "无效的 limit")
			return
		}
		limit = n
	}

	items, err := h.report.TopCounterparties(limit)
	if err != nil {
		internalError(c, "构建排名失败", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetUnified 计划与实绩统合表
// GET /api/unified?offset=0&limit=500
func (h *Handler) GetUnified(c *gin.Context) {
	frame, err := h.report.Unified(h.opts.CommonKeys)
	if err != nil {
		internalError(c, "构建统合表失败", err)
		return
	}
	offset, limit := pageParams(c)
	c.JSON(http.StatusOK, frameResponse(frame, offset, limit))
}
