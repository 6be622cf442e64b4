package merge

import "github.com/spracknow-droid/Excel-to-DB/internal/model"

// ResolveCollisions 消解同名列（大小写不敏感）
// 同名列合并为一列，保留第一次出现的位置与写法；每行取从左到右第一个非空白值
func ResolveCollisions(frame *model.Frame) *model.Frame {
	groups := make(map[string][]int)
	order := make([]string, 0, len(frame.Columns))
	for i, c := range frame.Columns {
		key := foldName(c)
		if _, ok := groups[key]; !ok {
			order = append(order, c)
		}
		groups[key] = append(groups[key], i)
	}
	if len(order) == len(frame.Columns) {
		return frame
	}

	out := model.NewFrame(order)
	out.Rows = make([]model.Row, len(frame.Rows))
	for ri, row := range frame.Rows {
		cells := make([]model.Value, len(order))
		for ci, name := range order {
			cells[ci] = firstNonBlank(row.Cells, groups[foldName(name)])
		}
		out.Rows[ri] = model.Row{BatchID: row.BatchID, Cells: cells}
	}
	return out
}

// firstNonBlank 全部为空白时返回第一个非 null 值（保留空串），否则为空值
func firstNonBlank(cells []model.Value, idx []int) model.Value {
	fallback := model.Null()
	for _, i := range idx {
		if i >= len(cells) {
			continue
		}
		v := cells[i]
		if !v.IsBlank() {
			return v
		}
		if fallback.IsNull() && !v.IsNull() {
			fallback = v
		}
	}
	return fallback
}
