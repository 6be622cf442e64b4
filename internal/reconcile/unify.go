package reconcile

import (
	"sort"
	"strings"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/parser"
)

const (
	// PlanPrefix 统合表中计划侧列前缀
	PlanPrefix = "계획_"
	// ActualPrefix 统合表中实绩侧列前缀
	ActualPrefix = "실적_"
)

// DefaultCommonKeys 统合表的公共连接键
var DefaultCommonKeys = []string{"매출처", "품목", "품목명"}

// Unify 将计划与实绩行级全外连接为一张宽表
// 公共键保持原名，其余列加 계획_/실적_ 前缀；同键多行按笛卡尔积展开
func Unify(plan, actual *model.Frame, commonKeys []string) *model.Frame {
	if len(commonKeys) == 0 {
		commonKeys = DefaultCommonKeys
	}
	keys := make([]string, 0, len(commonKeys))
	for _, k := range commonKeys {
		keys = append(keys, parser.CleanColumnName(k))
	}
	if plan == nil {
		plan = model.NewFrame(nil)
	}
	if actual == nil {
		actual = model.NewFrame(nil)
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	planCols := payloadColumns(plan, isKey)
	actualCols := payloadColumns(actual, isKey)

	columns := append([]string{}, keys...)
	for _, c := range planCols {
		columns = append(columns, PlanPrefix+c)
	}
	for _, c := range actualCols {
		columns = append(columns, ActualPrefix+c)
	}
	out := model.NewFrame(columns)

	planGroups, planOrder := groupRows(plan, keys)
	actualGroups, actualOrder := groupRows(actual, keys)

	order := append([]string{}, planOrder...)
	for _, k := range actualOrder {
		if _, ok := planGroups[k]; !ok {
			order = append(order, k)
		}
	}
	sort.Strings(order)

	for _, k := range order {
		pRows, aRows := planGroups[k], actualGroups[k]
		if len(pRows) == 0 {
			pRows = []int{-1}
		}
		if len(aRows) == 0 {
			aRows = []int{-1}
		}
		for _, pi := range pRows {
			for _, ai := range aRows {
				cells := make([]model.Value, 0, len(columns))
				for _, key := range keys {
					cells = append(cells, keyValue(plan, pi, actual, ai, key))
				}
				cells = appendSide(cells, plan, pi, planCols)
				cells = appendSide(cells, actual, ai, actualCols)
				out.Append("", cells...)
			}
		}
	}
	return out
}

func payloadColumns(f *model.Frame, isKey map[string]bool) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, c := range f.Columns {
		if isKey[c] || seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return cols
}

func groupRows(f *model.Frame, keys []string) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i := range f.Rows {
		parts := make([]string, len(keys))
		for j, k := range keys {
			parts[j] = text(f.Value(i, k))
		}
		id := strings.Join(parts, "\x1f")
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}
	return groups, order
}

func keyValue(plan *model.Frame, pi int, actual *model.Frame, ai int, key string) model.Value {
	if pi >= 0 {
		if v := plan.Value(pi, key); !v.IsNull() {
			return v
		}
	}
	if ai >= 0 {
		return actual.Value(ai, key)
	}
	return model.Null()
}

func appendSide(cells []model.Value, f *model.Frame, row int, cols []string) []model.Value {
	for _, c := range cols {
		if row < 0 {
			cells = append(cells, model.Null())
			continue
		}
		cells = append(cells, f.Value(row, c))
	}
	return cells
}
