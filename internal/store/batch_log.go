package store

import (
	"fmt"
	"time"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// BatchStatus 批次状态
const (
	BatchProcessing = "processing"
	BatchSuccess    = "success"
	BatchFailed     = "failed"
	BatchEmpty      = "empty"
)

// BatchLog 批次导入日志
type BatchLog struct {
	ID             string     `db:"id" json:"id"`
	Source         string     `db:"source" json:"source"`
	Hint           string     `db:"hint" json:"hint"`
	Detected       string     `db:"detected" json:"detected"`
	Status         string     `db:"status" json:"status"`
	TotalRows      int        `db:"total_rows" json:"totalRows"`
	PlanRows       int        `db:"plan_rows" json:"planRows"`
	ActualRows     int        `db:"actual_rows" json:"actualRows"`
	DroppedSummary int        `db:"dropped_summary" json:"droppedSummary"`
	Duplicates     int        `db:"duplicates" json:"duplicates"`
	Superseded     int        `db:"superseded" json:"superseded"`
	ErrorMessage   string     `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	CompletedAt    *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// CreateBatchLog 创建批次日志
func (s *Store) CreateBatchLog(id, source string, hint model.Hint) error {
	_, err := s.db.Exec(`
		INSERT INTO batch_logs (id, source, hint, status)
		VALUES (?, ?, ?, ?)
	`, id, source, string(hint), BatchProcessing)
	if err != nil {
		return fmt.Errorf("failed to create batch log: %w", err)
	}
	return nil
}

// FinishBatchLog 完成批次日志更新
func (s *Store) FinishBatchLog(log BatchLog) error {
	_, err := s.db.NamedExec(`
		UPDATE batch_logs SET
			detected = :detected,
			status = :status,
			total_rows = :total_rows,
			plan_rows = :plan_rows,
			actual_rows = :actual_rows,
			dropped_summary = :dropped_summary,
			duplicates = :duplicates,
			superseded = :superseded,
			error_message = :error_message,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = :id
	`, log)
	if err != nil {
		return fmt.Errorf("failed to update batch log: %w", err)
	}
	return nil
}

// ListBatchLogs 最近的批次日志（新的在前）
func (s *Store) ListBatchLogs(limit int) ([]BatchLog, error) {
	if limit <= 0 {
		limit = 50
	}
	logs := []BatchLog{}
	err := s.db.Select(&logs, `
		SELECT id, source, hint, detected, status, total_rows, plan_rows, actual_rows,
			dropped_summary, duplicates, superseded, error_message, created_at, completed_at
		FROM batch_logs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch logs: %w", err)
	}
	return logs, nil
}
