package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFormat 先看扩展名，再看文件头
func DetectFormat(name string, data []byte) SourceFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX
	case ".xls":
		if bytes.HasPrefix(data, zipMagic) {
			return FormatXLSX
		}
		return FormatXLS
	case ".csv", ".txt", ".tsv":
		return FormatCSV
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	}
	return FormatUnknown
}

// ReadFile 读取本地文件
func ReadFile(path string, opts ReadOptions) ([]Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ReadBytes(filepath.Base(path), data, opts)
}

// ReadBytes 按格式解析为原始表
func ReadBytes(name string, data []byte, opts ReadOptions) ([]Table, error) {
	switch DetectFormat(name, data) {
	case FormatXLSX:
		return readXLSX(data, opts)
	case FormatXLS:
		return readXLS(data, opts)
	case FormatCSV:
		return readCSV(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

func readXLSX(data []byte, opts ReadOptions) ([]Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	var tables []Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		frame := xlsxFrame(f, sheet, rows)
		if frame == nil {
			continue
		}
		tables = append(tables, Table{Sheet: sheet, Frame: frame})
		if !opts.AllSheets {
			break
		}
	}
	if len(tables) == 0 {
		return nil, ErrNoData
	}
	return tables, nil
}

// xlsxFrame 保留单元格原始类型：文本单元格为字符串，其余能解析的为数值
func xlsxFrame(f *excelize.File, sheet string, rows [][]string) *model.Frame {
	headerIdx := -1
	for i, r := range rows {
		if !isEmptyRow(r) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	width := len(rows[headerIdx])
	for _, r := range rows[headerIdx+1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	copy(header, rows[headerIdx])

	frame := model.NewFrame(header)
	for ri := headerIdx + 1; ri < len(rows); ri++ {
		r := rows[ri]
		if isEmptyRow(r) {
			continue
		}
		cells := make([]model.Value, width)
		for ci, raw := range r {
			if raw == "" {
				continue
			}
			cells[ci] = xlsxCell(f, sheet, ci+1, ri+1, raw)
		}
		frame.Rows = append(frame.Rows, model.Row{Cells: cells})
	}
	return frame
}

func xlsxCell(f *excelize.File, sheet string, col, row int, raw string) model.Value {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err == nil {
		if typ, err := f.GetCellType(sheet, axis); err == nil {
			switch typ {
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
				return model.String(raw)
			}
		}
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return model.Number(n)
	}
	return model.String(raw)
}

func readXLS(data []byte, opts ReadOptions) ([]Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	var tables []Table
	for _, sheet := range wb.GetSheets() {
		var rows [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, col := range row.GetCols() {
				if col == nil {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, col.GetString())
			}
			rows = append(rows, cells)
		}
		header, body := splitHeader(rows)
		if header == nil {
			continue
		}
		tables = append(tables, Table{Sheet: sheet.GetName(), Frame: buildFrame(header, body)})
		if !opts.AllSheets {
			break
		}
	}
	if len(tables) == 0 {
		return nil, ErrNoData
	}
	return tables, nil
}

// readCSV UTF-8（可带 BOM）优先，非法 UTF-8 时按 CP949/EUC-KR 解码
func readCSV(data []byte) ([]Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var r io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		r = transform.NewReader(r, korean.EUCKR.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	header, body := splitHeader(records)
	if header == nil {
		return nil, ErrNoData
	}
	return []Table{{Sheet: "", Frame: buildFrame(header, body)}}, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
