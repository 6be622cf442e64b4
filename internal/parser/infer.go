package parser

import (
	"regexp"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

var numericTextRe = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// buildFrame 由纯文本表构建 Frame，并按列推断数值类型
// 一列中所有非空值都是数值文本（且无前导零代码）时才转为数值，否则保持字符串
func buildFrame(header []string, body [][]string) *model.Frame {
	width := len(header)
	for _, r := range body {
		if len(r) > width {
			width = len(r)
		}
	}
	cols := make([]string, width)
	copy(cols, header)

	numeric := make([]bool, width)
	for ci := 0; ci < width; ci++ {
		numeric[ci] = isNumericColumn(body, ci)
	}

	f := model.NewFrame(cols)
	for _, r := range body {
		cells := make([]model.Value, width)
		for ci := 0; ci < width; ci++ {
			if ci >= len(r) || r[ci] == "" {
				continue
			}
			if numeric[ci] {
				n, _ := model.ParseNumber(r[ci])
				cells[ci] = model.Number(n)
				continue
			}
			cells[ci] = model.String(r[ci])
		}
		f.Rows = append(f.Rows, model.Row{Cells: cells})
	}
	return f
}

func isNumericColumn(body [][]string, ci int) bool {
	seen := false
	for _, r := range body {
		if ci >= len(r) || r[ci] == "" {
			continue
		}
		s := r[ci]
		if !numericTextRe.MatchString(s) || hasLeadingZero(s) {
			return false
		}
		seen = true
	}
	return seen
}

// hasLeadingZero "007" 这类代码不能当数值处理
func hasLeadingZero(s string) bool {
	if s != "" && s[0] == '-' {
		s = s[1:]
	}
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

// splitHeader 第一行非空行为表头，之后为数据行；全空行跳过
func splitHeader(rows [][]string) (header []string, body [][]string) {
	start := -1
	for i, r := range rows {
		if !isEmptyRow(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil
	}
	header = rows[start]
	for _, r := range rows[start+1:] {
		if isEmptyRow(r) {
			continue
		}
		body = append(body, r)
	}
	return header, body
}

func isEmptyRow(r []string) bool {
	for _, c := range r {
		if c != "" {
			return false
		}
	}
	return true
}
