package store

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

const (
	metaViewBuiltAt  = "reconciliation_view.built_at"
	metaPartitionGen = "partitions.generation"
)

// ErrStaleView 视图构建期间分区已被修改，结果不再写入缓存
var ErrStaleView = errors.New("partitions changed while the view was built")

// Generation 分区版本号；每次分区写入或重置时递增
func (s *Store) Generation() (int64, error) {
	return readGeneration(s.db)
}

func readGeneration(q queryer) (int64, error) {
	var gen int64
	err := q.Get(&gen, `SELECT CAST(value AS INTEGER) FROM store_meta WHERE key = ?`, metaPartitionGen)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read partition generation: %w", err)
	}
	return gen, nil
}

// SaveView 缓存计划对比实绩视图（整体替换）
// generation 为构建视图前读取的分区版本号，与当前版本不一致时返回 ErrStaleView
func (s *Store) SaveView(generation int64, rows []model.ReconciliationRow) error {
	return s.withTx(func(tx *sqlx.Tx) error {
		current, err := readGeneration(tx)
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStaleView
		}
		if err := clearView(tx); err != nil {
			return err
		}
		for i, r := range rows {
			_, err := tx.Exec(`
				INSERT INTO reconciliation_view (seq, period, counterparty, counterparty_name, item, item_name,
					plan_quantity, actual_quantity, quantity_delta, plan_amount, actual_amount, amount_delta, achievement_ratio)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, i, r.Period, r.Counterparty, r.CounterpartyName, r.Item, r.ItemName,
				r.PlanQuantity, r.ActualQuantity, r.QuantityDelta, r.PlanAmount, r.ActualAmount, r.AmountDelta, r.AchievementRatio)
			if err != nil {
				return fmt.Errorf("failed to cache view row: %w", err)
			}
		}
		_, err = tx.Exec(`
			INSERT INTO store_meta (key, value, updated_at) VALUES (?, datetime('now'), CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, metaViewBuiltAt)
		return err
	})
}

// LoadView 读取视图缓存；ok 为 false 表示缓存已失效
func (s *Store) LoadView() (rows []model.ReconciliationRow, ok bool, err error) {
	var builtAt string
	if err := s.db.Get(&builtAt, `SELECT value FROM store_meta WHERE key = ?`, metaViewBuiltAt); err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read view state: %w", err)
	}

	rows = []model.ReconciliationRow{}
	err = s.db.Select(&rows, `
		SELECT period, counterparty, counterparty_name, item, item_name,
			plan_quantity, actual_quantity, quantity_delta, plan_amount, actual_amount, amount_delta, achievement_ratio
		FROM reconciliation_view
		ORDER BY seq
	`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load view: %w", err)
	}
	return rows, true, nil
}

// invalidateView 分区写入时调用：清空缓存并递增分区版本号
func invalidateView(tx *sqlx.Tx) error {
	if err := clearView(tx); err != nil {
		return err
	}
	_, err := tx.Exec(`
		INSERT INTO store_meta (key, value, updated_at) VALUES (?, '1', CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = CAST(value AS INTEGER) + 1, updated_at = excluded.updated_at
	`, metaPartitionGen)
	if err != nil {
		return fmt.Errorf("failed to bump partition generation: %w", err)
	}
	return nil
}

func clearView(tx *sqlx.Tx) error {
	if _, err := tx.Exec(`DELETE FROM reconciliation_view`); err != nil {
		return fmt.Errorf("failed to clear view cache: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM store_meta WHERE key = ?`, metaViewBuiltAt); err != nil {
		return fmt.Errorf("failed to clear view state: %w", err)
	}
	return nil
}
