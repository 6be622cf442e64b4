package model

import "sort"

// Record 列名 → 值 的单行映射
type Record map[string]Value

// Row 物理行，BatchID 记录来源批次（不参与去重）
type Row struct {
	BatchID string
	Cells   []Value
}

// Frame 有序列的二维表；允许出现同名列（合并阶段再消解）
type Frame struct {
	Columns []string
	Rows    []Row
}

// NewFrame 创建空表
func NewFrame(columns []string) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{Columns: cols}
}

// FromRecords 由记录列表构建表
// columns 为空时按列名排序，保证结果稳定
func FromRecords(columns []string, records []Record) *Frame {
	if len(columns) == 0 {
		seen := make(map[string]bool)
		for _, r := range records {
			for k := range r {
				if !seen[k] {
					seen[k] = true
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}

	f := NewFrame(columns)
	for _, r := range records {
		cells := make([]Value, len(columns))
		for i, c := range columns {
			cells[i] = r[c]
		}
		f.Rows = append(f.Rows, Row{Cells: cells})
	}
	return f
}

// Len 行数
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty 无行或无列
func (f *Frame) Empty() bool {
	return f == nil || len(f.Rows) == 0 || len(f.Columns) == 0
}

// ColumnIndex 返回第一个同名列的位置，不存在返回 -1
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn 是否包含列
func (f *Frame) HasColumn(name string) bool {
	return f.ColumnIndex(name) >= 0
}

// AddColumn 追加列并以 fill 填充；已存在时返回原位置
func (f *Frame) AddColumn(name string, fill Value) int {
	if idx := f.ColumnIndex(name); idx >= 0 {
		return idx
	}
	f.Columns = append(f.Columns, name)
	for i := range f.Rows {
		f.Rows[i].Cells = append(f.Rows[i].Cells, fill)
	}
	return len(f.Columns) - 1
}

// Append 追加一行，单元格不足时补空值
func (f *Frame) Append(batchID string, cells ...Value) {
	row := make([]Value, len(f.Columns))
	copy(row, cells)
	f.Rows = append(f.Rows, Row{BatchID: batchID, Cells: row})
}

// Value 读取单元格；列不存在返回空值
func (f *Frame) Value(row int, column string) Value {
	idx := f.ColumnIndex(column)
	if idx < 0 || idx >= len(f.Rows[row].Cells) {
		return Null()
	}
	return f.Rows[row].Cells[idx]
}

// Record 以映射形式返回一行（同名列取第一个）
func (f *Frame) Record(row int) Record {
	rec := make(Record, len(f.Columns))
	for i := len(f.Columns) - 1; i >= 0; i-- {
		if i < len(f.Rows[row].Cells) {
			rec[f.Columns[i]] = f.Rows[row].Cells[i]
		}
	}
	return rec
}

// Records 全部行的映射形式
func (f *Frame) Records() []Record {
	out := make([]Record, f.Len())
	for i := range out {
		out[i] = f.Record(i)
	}
	return out
}

// Subset 按行下标抽取子表（共享列定义的拷贝）
func (f *Frame) Subset(rows []int) *Frame {
	out := NewFrame(f.Columns)
	out.Rows = make([]Row, 0, len(rows))
	for _, i := range rows {
		out.Rows = append(out.Rows, f.Rows[i].clone())
	}
	return out
}

// Clone 深拷贝
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := NewFrame(f.Columns)
	out.Rows = make([]Row, len(f.Rows))
	for i, r := range f.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

func (r Row) clone() Row {
	cells := make([]Value, len(r.Cells))
	copy(cells, r.Cells)
	return Row{BatchID: r.BatchID, Cells: cells}
}
