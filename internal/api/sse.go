package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// startSSE 设置 SSE 响应头，返回发送函数
func startSSE(c *gin.Context) (func(v any), bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errorJSON(c, http.StatusInternalServerError, "不支持流式响应")
		return nil, false
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	return func(v any) {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}, true
}
