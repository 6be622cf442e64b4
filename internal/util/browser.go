// Package util 命令行启动相关的小工具。
package util

import (
	"net"
	"os/exec"
	"runtime"
	"strconv"
)

// browserCommand 各平台打开 URL 的命令
func browserCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		// rundll32 比 cmd /c start 更稳定，且无需转义 &
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// OpenBrowser 打开默认浏览器
func OpenBrowser(url string) error {
	return browserCommand(url).Start()
}

// OpenBrowserWithFallback 主方式失败时依次尝试备选浏览器
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}

	var fallbacks []string
	switch runtime.GOOS {
	case "windows":
		fallbacks = []string{"explorer"}
	case "linux":
		fallbacks = []string{"sensible-browser", "firefox", "google-chrome", "chromium-browser"}
	}
	for _, name := range fallbacks {
		if e := exec.Command(name, url).Start(); e == nil {
			return nil
		}
	}
	return err
}

// FindAvailablePort 从 startPort 开始在 host 上寻找可监听的端口，最多尝试 limit 个
// 全部被占用时返回 startPort
func FindAvailablePort(host string, startPort, limit int) int {
	for p := startPort; p < startPort+limit && p <= 65535; p++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		ln.Close()
		return p
	}
	return startPort
}
