package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// FrameResponse 表格数据
type FrameResponse struct {
	Columns []string       `json:"columns"`
	Rows    []model.Record `json:"rows"`
	Total   int            `json:"total"`
}

func frameResponse(f *model.Frame, offset, limit int) FrameResponse {
	resp := FrameResponse{Columns: []string{}, Rows: []model.Record{}}
	if f == nil {
		return resp
	}
	resp.Columns = f.Columns
	resp.Total = f.Len()

	end := f.Len()
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	for i := offset; i < end; i++ {
		resp.Rows = append(resp.Rows, f.Record(i))
	}
	return resp
}

func pageParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "500"))
	return max(offset, 0), limit
}

// GetPartition 分区数据预览
// GET /api/partitions/:name?offset=0&limit=500
func (h *Handler) GetPartition(c *gin.Context) {
	p, err := model.ParsePartition(c.Param("name"))
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}

	frame, err := h.store.LoadPartition(p)
	if err != nil {
		if errors.Is(err, model.ErrUnknownPartition) {
			errorJSON(c, http.StatusNotFound, err.Error())
			return
		}
		internalError(c, "读取分区失败", err)
		return
	}

	offset, limit := pageParams(c)
	c.JSON(http.StatusOK, gin.H{
		"partition": p,
		"label":     p.Label(),
		"data":      frameResponse(frame, offset, limit),
	})
}

// Reset 清空全部分区
// POST /api/reset
func (h *Handler) Reset(c *gin.Context) {
	if err := h.store.Reset(); err != nil {
		internalError(c, "清空失败", err)
		return
	}
	h.logger.Info("partitions reset")
	c.JSON(http.StatusOK, gin.H{"reset": true})
}
