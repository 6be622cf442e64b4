package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spracknow-droid/Excel-to-DB/internal/importer"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// Import 导入一个或多个文件 (SSE 流式响应)
// POST /api/import  multipart: file (可多个), hint=plan|actual|inferred (可选), allSheets, policy
func (h *Handler) Import(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "无效的表单数据")
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		errorJSON(c, http.StatusBadRequest, "未找到上传文件")
		return
	}

	var hint model.Hint
	if v := c.PostForm("hint"); v != "" {
		if hint, err = model.ParseHint(v); err != nil {
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	policy := model.MergePolicy(c.PostForm("policy"))
	switch policy {
	case "", model.MergeAppend, model.MergeReplace:
	default:
		errorJSON(c, http.StatusBadRequest, "无效的合并策略: "+string(policy))
		return
	}

	sources := make([]importer.Source, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "读取上传文件失败: "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "读取上传文件失败: "+fh.Filename)
			return
		}
		sources = append(sources, importer.Source{Name: fh.Filename, Data: data, Hint: hint})
	}

	send, ok := startSSE(c)
	if !ok {
		return
	}

	progressChan := h.coordinator.Import(importer.ImportOptions{
		Sources:   sources,
		AllSheets: c.PostForm("allSheets") == "true",
		Policy:    policy,
	})
	for event := range progressChan {
		send(event)
	}
}
