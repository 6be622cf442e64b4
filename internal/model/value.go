package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind 单元格值类型
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

// Value 单元格标量值（空 / 字符串 / 数值）
//
// 日期类值在读入时即被格式化为字符串，规范化阶段再统一为 YYYY-MM-DD。
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Null 空值
func Null() Value { return Value{} }

// String 字符串值
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number 数值；NaN 视为空值
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// FromInterface 从数据库/JSON 读出的原始值构造 Value
func FromInterface(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case string:
		return String(v)
	case []byte:
		return String(string(v))
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case bool:
		if v {
			return Number(1)
		}
		return Number(0)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return String(v.Format("2006-01-02"))
		}
		return String(v.Format("2006-01-02 15:04:05"))
	default:
		return Null()
	}
}

// Kind 返回值类型
func (v Value) Kind() Kind { return v.kind }

// IsNull 是否为空值
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank 空值或去除空白后为空串
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	default:
		return false
	}
}

// Text 规范文本形式：空值为 ""，数值不带多余小数位
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	default:
		return ""
	}
}

// Float 数值形式；字符串会去掉千分位后尝试解析
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return ParseNumber(v.str)
	default:
		return 0, false
	}
}

// Interface 供 database/sql 写入使用
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// Equal 按规范文本比较（空值与空值相等）
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == o.kind
	}
	return v.Text() == o.Text()
}

func (v Value) String() string { return v.Text() }

// MarshalJSON 空值输出 null，数值输出 number
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON 接受 null / string / number
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromInterface(raw)
	return nil
}

// FormatNumber 数值转文本（整数不带 ".0"）
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseNumber 解析数值文本，支持千分位与首尾空白
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
