package importer

import (
	"time"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

// 批次处理状态
const (
	StatusImported = "imported"
	StatusEmpty    = "empty"
	StatusFailed   = "failed"
)

// FileResult 单个批次（文件或其中一张 sheet）的处理结果
type FileResult struct {
	Source         string        `json:"source"`
	Sheet          string        `json:"sheet,omitempty"`
	BatchID        string        `json:"batchId,omitempty"`
	Hint           model.Hint    `json:"hint,omitempty"`
	Confidence     float64       `json:"confidence"`
	Detected       string        `json:"detected,omitempty"` // plan_data / actual_data / mixed
	Status         string        `json:"status"`
	TotalRows      int           `json:"totalRows"`
	PlanRows       int           `json:"planRows"`
	ActualRows     int           `json:"actualRows"`
	DroppedSummary int           `json:"droppedSummary"`
	Duplicates     int           `json:"duplicates"`
	Superseded     int           `json:"superseded"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// Label 用于进度消息的名称
func (r FileResult) Label() string {
	if r.Sheet != "" {
		return r.Source + "/" + r.Sheet
	}
	return r.Source
}

func (r FileResult) batchLog() store.BatchLog {
	msg := ""
	if len(r.Errors) > 0 {
		msg = r.Errors[0]
	}
	status := store.BatchSuccess
	switch r.Status {
	case StatusFailed:
		status = store.BatchFailed
	case StatusEmpty:
		status = store.BatchEmpty
	}
	return store.BatchLog{
		ID:             r.BatchID,
		Detected:       r.Detected,
		Status:         status,
		TotalRows:      r.TotalRows,
		PlanRows:       r.PlanRows,
		ActualRows:     r.ActualRows,
		DroppedSummary: r.DroppedSummary,
		Duplicates:     r.Duplicates,
		Superseded:     r.Superseded,
		ErrorMessage:   msg,
	}
}

// ImportReport 一次导入请求的汇总
type ImportReport struct {
	TotalFiles    int                   `json:"totalFiles"`
	ImportedFiles int                   `json:"importedFiles"`
	EmptyFiles    int                   `json:"emptyFiles"`
	FailedFiles   int                   `json:"failedFiles"`
	PlanRows      int                   `json:"planRows"`
	ActualRows    int                   `json:"actualRows"`
	Files         []FileResult          `json:"files"`
	Partitions    []store.PartitionStat `json:"partitions"`
	Duration      time.Duration         `json:"duration"`
}

// record 记录批次结果
func (r *ImportReport) record(res FileResult) {
	r.Files = append(r.Files, res)
	switch res.Status {
	case StatusImported:
		r.ImportedFiles++
		r.PlanRows += res.PlanRows
		r.ActualRows += res.ActualRows
	case StatusEmpty:
		r.EmptyFiles++
	default:
		r.FailedFiles++
	}
}

// Failed 是否有批次失败
func (r *ImportReport) Failed() bool {
	return r.FailedFiles > 0
}
