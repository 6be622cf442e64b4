package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UnnamedColumn 清洗后为空的列名替换值
const UnnamedColumn = "unnamed"

var (
	disallowedCharRe = regexp.MustCompile(`[^a-zA-Z0-9가-힣]`)
	placeholderRunRe = regexp.MustCompile(`_+`)
)

// CleanColumnName 规范化列名
// 去首尾空白，NFC 合成韩文字母，非 [字母/数字/한글] 字符替换为 "_" 并合并，首尾 "_" 去除
func CleanColumnName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = disallowedCharRe.ReplaceAllString(name, "_")
	name = placeholderRunRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return UnnamedColumn
	}
	return name
}

// CleanColumnNames 批量规范化
func CleanColumnNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = CleanColumnName(n)
	}
	return out
}

// containsFold 大小写不敏感的子串匹配（文件名提示用）
func containsFold(text string, keywords []string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(upper, strings.ToUpper(kw)) {
			return true
		}
	}
	return false
}

func stringSet(items []string, clean bool) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		if clean {
			it = CleanColumnName(it)
		}
		set[it] = true
	}
	return set
}
