package parser

import (
	"strings"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// nullTokens 表示空值的占位文本（来自上游导出工具的序列化残留）
var nullTokens = map[string]bool{
	"nan":   true,
	"NaN":   true,
	"None":  true,
	"nan.0": true,
	"NaT":   true,
}

// Normalizer 列结构规范化器（纯函数，不修改输入）
type Normalizer struct {
	renames    map[string]string
	stringCols map[string]bool
	dateCols   map[string]bool
}

// NewNormalizer 创建规范化器；规则中的列名同样经过清洗，保证与数据列名口径一致
func NewNormalizer(rules model.Rules) *Normalizer {
	renames := make(map[string]string, len(rules.PlanRenameMap))
	for from, to := range rules.PlanRenameMap {
		renames[CleanColumnName(from)] = CleanColumnName(to)
	}
	return &Normalizer{
		renames:    renames,
		stringCols: stringSet(rules.StringColumns, true),
		dateCols:   stringSet(rules.DateColumns, true),
	}
}

// Normalize 规范化批次的表结构与值
// hint 为 plan 时应用计划列重命名表
func (n *Normalizer) Normalize(frame *model.Frame, hint model.Hint) *model.Frame {
	if frame == nil {
		return nil
	}
	out := frame.Clone()

	out.Columns = CleanColumnNames(out.Columns)
	if hint == model.HintPlan {
		n.renamePlanColumns(out)
	}

	for ci, col := range out.Columns {
		isString := n.stringCols[col]
		isDate := n.dateCols[col]
		for ri := range out.Rows {
			cells := out.Rows[ri].Cells
			if ci >= len(cells) {
				continue
			}
			v := trimValue(cells[ci])
			switch {
			case isString:
				v = ToCodeString(v)
			case isDate:
				v = FormatDate(v)
			}
			cells[ci] = v
		}
	}
	return out
}

// renamePlanColumns 就地应用计划列重命名表（幂等）
func (n *Normalizer) renamePlanColumns(frame *model.Frame) {
	for i, col := range frame.Columns {
		if to, ok := n.renames[col]; ok {
			frame.Columns[i] = to
		}
	}
}

// ToCodeString 代码类列转字符串
// 数值去掉 ".0" 尾巴，nan/None 等占位文本与空值转为空串
func ToCodeString(v model.Value) model.Value {
	if v.IsNull() {
		return model.String("")
	}
	s := strings.TrimSpace(v.Text())
	if nullTokens[s] {
		return model.String("")
	}
	if head, ok := strings.CutSuffix(s, ".0"); ok && isIntegerText(head) {
		s = head
	}
	return model.String(s)
}

func trimValue(v model.Value) model.Value {
	if v.Kind() == model.KindString {
		return model.String(strings.TrimSpace(v.Text()))
	}
	return v
}

func isIntegerText(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
