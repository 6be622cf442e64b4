// Package classifier 将规范化后的批次拆分为计划行与实绩行，并剔除合计行。
package classifier

import (
	"strings"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/parser"
)

// Classifier 行分类器
type Classifier struct {
	discriminator string
	summaryColumn string
	summaryMarker string
	summaryMatch  model.MatchMode
}

// Result 分类结果；两个子表保持输入行序，可能为空
type Result struct {
	Plan           *model.Frame
	Actual         *model.Frame
	DroppedSummary int
}

// New 创建分类器
func New(rules model.Rules) *Classifier {
	match := rules.SummaryMatch
	if match == "" {
		match = model.MatchContains
	}
	return &Classifier{
		discriminator: parser.CleanColumnName(rules.DiscriminatorField),
		summaryColumn: parser.CleanColumnName(rules.SummaryColumn),
		summaryMarker: rules.SummaryMarker,
		summaryMatch:  match,
	}
}

// Classify 按提示拆分批次
// plan/actual 提示整体归类；inferred 由判别字段逐行决定。实绩部分剔除合计行。
func (c *Classifier) Classify(frame *model.Frame, hint model.Hint) Result {
	if frame == nil {
		return Result{}
	}

	var planRows, actualRows []int
	switch hint {
	case model.HintPlan:
		planRows = allRows(frame)
	case model.HintActual:
		actualRows = allRows(frame)
	default:
		planRows, actualRows = c.split(frame)
	}

	actual, dropped := c.DropSummaryRows(frame.Subset(actualRows))
	return Result{
		Plan:           frame.Subset(planRows),
		Actual:         actual,
		DroppedSummary: dropped,
	}
}

// split 判别字段缺失时全部为实绩；存在时非空白即为计划
func (c *Classifier) split(frame *model.Frame) (plan, actual []int) {
	idx := -1
	if c.discriminator != "" {
		idx = frame.ColumnIndex(c.discriminator)
	}
	if idx < 0 {
		return nil, allRows(frame)
	}
	for i, row := range frame.Rows {
		if idx < len(row.Cells) && IsPlanValue(row.Cells[idx]) {
			plan = append(plan, i)
		} else {
			actual = append(actual, i)
		}
	}
	return plan, actual
}

// IsPlanValue 判别字段值非空且去空白后非空串
func IsPlanValue(v model.Value) bool {
	return !v.IsBlank()
}

// DropSummaryRows 剔除合计行，返回保留后的表与剔除行数
func (c *Classifier) DropSummaryRows(frame *model.Frame) (*model.Frame, int) {
	if frame == nil || c.summaryMarker == "" {
		return frame, 0
	}
	idx := frame.ColumnIndex(c.summaryColumn)
	if idx < 0 {
		return frame, 0
	}

	keep := make([]int, 0, frame.Len())
	for i, row := range frame.Rows {
		if idx < len(row.Cells) && c.isSummary(row.Cells[idx]) {
			continue
		}
		keep = append(keep, i)
	}
	dropped := frame.Len() - len(keep)
	if dropped == 0 {
		return frame, 0
	}
	return frame.Subset(keep), dropped
}

func (c *Classifier) isSummary(v model.Value) bool {
	text := strings.TrimSpace(v.Text())
	if text == "" {
		return false
	}
	if c.summaryMatch == model.MatchExact {
		return text == c.summaryMarker
	}
	return strings.Contains(text, c.summaryMarker)
}

func allRows(frame *model.Frame) []int {
	rows := make([]int, frame.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}
