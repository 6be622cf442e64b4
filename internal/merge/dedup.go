package merge

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// RowKey 整行同一性键：非空单元格的 (列名, 规范文本) 排序后拼接
// 空值与空串等价，补列不会改变已有行的键
func RowKey(columns []string, cells []model.Value) string {
	pairs := make([]string, 0, len(columns))
	for i, c := range columns {
		if i >= len(cells) {
			break
		}
		text := cells[i].Text()
		if text == "" {
			continue
		}
		pairs = append(pairs, c+"\x1f"+strconv.Quote(text))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\x1e")
}

// Fingerprint RowKey 的 64 位摘要，存储层用它定位已落库的行
func Fingerprint(columns []string, cells []model.Value) string {
	digest := xxhash.New()
	_, _ = digest.WriteString(RowKey(columns, cells))
	return hex.EncodeToString(digest.Sum(nil))
}

// DropDuplicates 移除整行重复，保留第一次出现的行
func DropDuplicates(frame *model.Frame) (*model.Frame, int) {
	seen := make(map[string]bool, frame.Len())
	keep := make([]int, 0, frame.Len())
	for i, row := range frame.Rows {
		key := RowKey(frame.Columns, row.Cells)
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}
	removed := frame.Len() - len(keep)
	if removed == 0 {
		return frame, 0
	}
	return frame.Subset(keep), removed
}

// CollapseByKey 按自然键折叠，每组只保留最后出现的行（位置不变）
// 任一键列为空白的行不参与折叠
func CollapseByKey(frame *model.Frame, keys []string) (*model.Frame, int) {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		i := frame.ColumnIndex(k)
		if i < 0 {
			return frame, 0
		}
		idx = append(idx, i)
	}

	last := make(map[string]int, frame.Len())
	rowKeys := make([]string, frame.Len())
	for ri, row := range frame.Rows {
		key, ok := naturalKey(row.Cells, idx)
		if !ok {
			continue
		}
		rowKeys[ri] = key
		last[key] = ri
	}

	keep := make([]int, 0, frame.Len())
	for ri := range frame.Rows {
		if k := rowKeys[ri]; k != "" && last[k] != ri {
			continue
		}
		keep = append(keep, ri)
	}
	removed := frame.Len() - len(keep)
	if removed == 0 {
		return frame, 0
	}
	return frame.Subset(keep), removed
}

func naturalKey(cells []model.Value, idx []int) (string, bool) {
	parts := make([]string, len(idx))
	for i, ci := range idx {
		if ci >= len(cells) || cells[ci].IsBlank() {
			return "", false
		}
		parts[i] = strings.TrimSpace(cells[ci].Text())
	}
	return strings.Join(parts, "\x1f"), true
}
