package parser

import (
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// DateLayout 规范日期格式
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006.01.02",
	"2006.01.02 15:04:05",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"20060102",
	"2006년 01월 02일",
	"2006년 1월 2일",
	"2006년01월02일",
	"2006-01",
	"2006/01",
	"2006.01",
	"2006-1",
	"200601",
	"2006년 01월",
	"2006년 1월",
	"2006년01월",
}

// ParseDate 解析日期类单元格
// 字符串按常见格式尝试；数值支持 YYYYMMDD、YYYYMM 与 Excel 序列日期
func ParseDate(v model.Value) (time.Time, bool) {
	switch v.Kind() {
	case model.KindString:
		return parseDateText(v.Text())
	case model.KindNumber:
		f, _ := v.Float()
		return parseDateNumber(f)
	}
	return time.Time{}, false
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDateNumber(f float64) (time.Time, bool) {
	if f <= 0 || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f == math.Trunc(f) {
		n := int(f)
		switch {
		case n >= 19000101 && n <= 29991231:
			if t, err := time.Parse("20060102", model.FormatNumber(f)); err == nil {
				return t, true
			}
		case n >= 190001 && n <= 299912 && n%100 >= 1 && n%100 <= 12:
			if t, err := time.Parse("200601", model.FormatNumber(f)); err == nil {
				return t, true
			}
		}
	}
	// Excel 序列日期上限 9999-12-31
	if f < 2958466 {
		t, err := excelize.ExcelDateToTime(f, false)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate 单元格转规范日期文本；无法解析时原样返回
func FormatDate(v model.Value) model.Value {
	if v.IsNull() {
		return v
	}
	if t, ok := ParseDate(v); ok {
		return model.String(t.Format(DateLayout))
	}
	return v
}

// MonthKey 年月键（YYYY-MM）；空值返回 ""，无法解析返回去空白后的原文
func MonthKey(v model.Value) string {
	if v.IsBlank() {
		return ""
	}
	if t, ok := ParseDate(v); ok {
		return t.Format("2006-01")
	}
	return strings.TrimSpace(v.Text())
}
