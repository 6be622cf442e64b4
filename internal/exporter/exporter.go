package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/service/report"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

// 导出工作簿的 sheet 名
const (
	SheetPlan           = "판매계획"
	SheetActual         = "매출리스트"
	SheetReconciliation = "계획대비실적"
	SheetRanking        = "매출처순위"
)

// Exporter 分区快照导出器
type Exporter struct {
	store  *store.Store
	report *report.Service
}

type sheetWriter struct {
	name  string
	write func(sw *excelize.StreamWriter) error
}

// NewExporter 创建导出器
func NewExporter(st *store.Store, rs *report.Service) *Exporter {
	return &Exporter{store: st, report: rs}
}

// ExportOptions 导出选项
type ExportOptions struct {
	IncludeViews bool // 附带 계획대비실적 / 매출처순위 两张汇总表
}

// Export 导出多 sheet 工作簿
func (e *Exporter) Export(opts ExportOptions, progress func(ProgressEvent)) (*excelize.File, error) {
	reportProgress(progress, 0, "读取分区")
	plan, actual, err := e.report.Partitions()
	if err != nil {
		return nil, fmt.Errorf("读取分区失败: %w", err)
	}

	f := excelize.NewFile()
	header, err := headerStyle(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	sheets := []sheetWriter{
		{SheetPlan, func(sw *excelize.StreamWriter) error { return writeFrame(sw, plan, header) }},
		{SheetActual, func(sw *excelize.StreamWriter) error { return writeFrame(sw, actual, header) }},
	}
	if opts.IncludeViews {
		rows, err := e.report.Reconciliation()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("构建计划对比实绩失败: %w", err)
		}
		ranking, err := e.report.TopCounterparties(0)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("构建매출처排名失败: %w", err)
		}
		sheets = append(sheets,
			sheetWriter{SheetReconciliation, func(sw *excelize.StreamWriter) error {
				return writeRows(sw, model.ReconciliationHeaders, len(rows), func(i int) []model.Value { return rows[i].Cells() }, header)
			}},
			sheetWriter{SheetRanking, func(sw *excelize.StreamWriter) error {
				return writeRows(sw, model.CounterpartyRankingHeaders, len(ranking), func(i int) []model.Value { return ranking[i].Cells() }, header)
			}},
		)
	}

	for i, sh := range sheets {
		reportProgress(progress, 10+80*i/len(sheets), "写入 "+sh.name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			_ = f.Close()
			return nil, err
		}

		sw, err := f.NewStreamWriter(sh.name)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := sh.write(sw); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("写入 %s 失败: %w", sh.name, err)
		}
		if err := sw.Flush(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	reportProgress(progress, 100, "完成")
	return f, nil
}

// ExportFile 导出并保存到 path
func (e *Exporter) ExportFile(path string, opts ExportOptions) error {
	f, err := e.Export(opts, nil)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存工作簿失败: %w", err)
	}
	return nil
}

// Dump 导出 SQLite 数据库文件
func (e *Exporter) Dump(path string) error {
	return e.store.Snapshot(path)
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
}

func writeFrame(sw *excelize.StreamWriter, frame *model.Frame, header int) error {
	if frame == nil || len(frame.Columns) == 0 {
		return nil
	}
	return writeRows(sw, frame.Columns, frame.Len(), func(i int) []model.Value { return frame.Rows[i].Cells }, header)
}

func writeRows(sw *excelize.StreamWriter, headers []string, n int, row func(int) []model.Value, header int) error {
	if len(headers) > 0 {
		if err := sw.SetColWidth(1, len(headers), 14); err != nil {
			return err
		}
	}

	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = excelize.Cell{StyleID: header, Value: h}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return err
	}

	for r := 0; r < n; r++ {
		values := row(r)
		out := make([]interface{}, len(headers))
		for c := range headers {
			if c < len(values) {
				out[c] = values[c].Interface()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, out); err != nil {
			return err
		}
	}
	return nil
}
