// Package merge 合并批次到分区累计数据：列并集、同名列消解、整行去重与自然键“后者优先”折叠。
package merge

import (
	"strings"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// Options 合并选项
type Options struct {
	// NaturalKey 非空时在整行去重之后再按自然键折叠，保留最后出现的行
	NaturalKey []string
}

// Result 合并结果
type Result struct {
	Frame      *model.Frame
	Existing   int // 合并前分区行数
	Incoming   int // 批次行数
	Duplicates int // 整行重复被移除的行数
	Superseded int // 因自然键被更新行取代的行数
	Added      int // 分区中新增的行数
}

// Merge 将 incoming 合并进 existing，返回去重后的完整分区
// existing 为 nil 时直接以 incoming 新建分区
func Merge(existing, incoming *model.Frame, opts Options) Result {
	if incoming == nil {
		incoming = model.NewFrame(nil)
	}
	res := Result{Existing: existing.Len(), Incoming: incoming.Len()}

	var combined *model.Frame
	if existing == nil || len(existing.Columns) == 0 {
		combined = ResolveCollisions(incoming)
	} else {
		combined = Concat(ResolveCollisions(existing), ResolveCollisions(incoming))
	}
	combined = ResolveCollisions(combined)

	combined, res.Duplicates = DropDuplicates(combined)
	if len(opts.NaturalKey) > 0 {
		combined, res.Superseded = CollapseByKey(combined, opts.NaturalKey)
	}
	res.Frame = combined
	res.Added = countNew(existing, combined)
	return res
}

// UnionColumns 以 base 的列序为准，追加 extra 中首次出现的新列
// 仅大小写不同的列名视为同一列，沿用先出现的写法
func UnionColumns(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, c := range base {
		out = append(out, c)
		seen[foldName(c)] = true
	}
	for _, c := range extra {
		if !seen[foldName(c)] {
			out = append(out, c)
			seen[foldName(c)] = true
		}
	}
	return out
}

// foldName 列名的同一性口径：SQLite 标识符大小写不敏感
func foldName(name string) string {
	return strings.ToLower(name)
}

// Concat 按列并集拼接，incoming 的行追加在 existing 之后，缺失列补空值
// 两个输入都应已消解同名列
func Concat(existing, incoming *model.Frame) *model.Frame {
	columns := UnionColumns(existing.Columns, incoming.Columns)
	out := model.NewFrame(columns)
	out.Rows = make([]model.Row, 0, existing.Len()+incoming.Len())
	appendAligned(out, existing)
	appendAligned(out, incoming)
	return out
}

func appendAligned(dst, src *model.Frame) {
	index := make(map[string]int, len(dst.Columns))
	for i, c := range dst.Columns {
		if _, ok := index[foldName(c)]; !ok {
			index[foldName(c)] = i
		}
	}
	pos := make([]int, len(src.Columns))
	for i, c := range src.Columns {
		pos[i] = -1
		if j, ok := index[foldName(c)]; ok {
			pos[i] = j
		}
	}
	for _, row := range src.Rows {
		cells := make([]model.Value, len(dst.Columns))
		for i, v := range row.Cells {
			if i < len(pos) && pos[i] >= 0 {
				cells[pos[i]] = v
			}
		}
		dst.Rows = append(dst.Rows, model.Row{BatchID: row.BatchID, Cells: cells})
	}
}

func countNew(existing, merged *model.Frame) int {
	known := make(map[string]bool, existing.Len())
	if existing != nil {
		for _, row := range existing.Rows {
			known[RowKey(existing.Columns, row.Cells)] = true
		}
	}
	added := 0
	for _, row := range merged.Rows {
		if !known[RowKey(merged.Columns, row.Cells)] {
			added++
		}
	}
	return added
}
