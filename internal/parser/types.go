package parser

import (
	"errors"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// SourceFormat 来源文件格式
type SourceFormat string

const (
	FormatXLSX    SourceFormat = "xlsx"
	FormatXLS     SourceFormat = "xls"
	FormatCSV     SourceFormat = "csv"
	FormatUnknown SourceFormat = "unknown"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoData            = errors.New("no tabular data found")
)

// Table 从来源文件读出的一张原始表
type Table struct {
	Sheet string       `json:"sheet"`
	Frame *model.Frame `json:"-"`
}

// ReadOptions 读取选项
type ReadOptions struct {
	AllSheets bool // 读取全部 sheet；默认仅第一个非空 sheet
}

// Recognition 来源识别结果
type Recognition struct {
	Source     string     `json:"source"`
	Hint       model.Hint `json:"hint"`
	Confidence float64    `json:"confidence"` // 置信度 0-1
	Reason     string     `json:"reason"`
}
