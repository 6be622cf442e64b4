package store

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/spracknow-droid/Excel-to-DB/internal/merge"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// 分区表的隐藏列
const (
	colRowID   = "__row_id"
	colRowHash = "__row_hash"
	colBatchID = "__batch_id"
)

var columnNameRe = regexp.MustCompile(`^[A-Za-z0-9가-힣_]+$`)

var reservedColumns = map[string]bool{"rowid": true, "oid": true, "_rowid_": true}

// InvalidColumnsError 列名不能安全地作为标识符使用
type InvalidColumnsError struct {
	Partition model.Partition
	Columns   []string
}

func (e *InvalidColumnsError) Error() string {
	return fmt.Sprintf("partition %s: invalid column names %q", e.Partition, e.Columns)
}

// ValidateColumns 校验分区列名：只允许字母数字、韩文与下划线，不得与隐藏列冲突或重复
func ValidateColumns(p model.Partition, columns []string) error {
	var bad []string
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		lower := strings.ToLower(c)
		switch {
		case !columnNameRe.MatchString(c),
			strings.HasPrefix(c, "__"),
			reservedColumns[lower],
			seen[lower]:
			bad = append(bad, c)
		}
		seen[lower] = true
	}
	if len(bad) > 0 {
		return &InvalidColumnsError{Partition: p, Columns: bad}
	}
	return nil
}

// PartitionStat 分区统计
type PartitionStat struct {
	Partition model.Partition `json:"partition"`
	Label     string          `json:"label"`
	Rows      int             `json:"rows"`
	Columns   []string        `json:"columns"`
}

func checkPartition(p model.Partition) error {
	for _, known := range model.Partitions {
		if p == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", model.ErrUnknownPartition, p)
}

type queryer interface {
	sqlx.Queryer
	Get(dest interface{}, query string, args ...interface{}) error
}

func tableExists(q queryer, name string) (bool, error) {
	var n int
	if err := q.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return n > 0, nil
}

// tableColumns 按定义顺序返回用户列（不含隐藏列）
func tableColumns(q queryer, name string) ([]string, error) {
	rows, err := q.Queryx(`SELECT name FROM pragma_table_info(?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		if strings.HasPrefix(c, "__") {
			continue
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// LoadPartition 读取分区全部行；分区表不存在时返回 nil
func (s *Store) LoadPartition(p model.Partition) (*model.Frame, error) {
	if err := checkPartition(p); err != nil {
		return nil, err
	}
	return loadPartition(s.db, p)
}

func loadPartition(q queryer, p model.Partition) (*model.Frame, error) {
	table := string(p)
	exists, err := tableExists(q, table)
	if err != nil || !exists {
		return nil, err
	}
	cols, err := tableColumns(q, table)
	if err != nil {
		return nil, err
	}

	selectCols := make([]string, 0, len(cols)+1)
	selectCols = append(selectCols, quoteIdent(colBatchID))
	for _, c := range cols {
		selectCols = append(selectCols, quoteIdent(c))
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(selectCols, ", "), quoteIdent(table), quoteIdent(colRowID))

	rows, err := q.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	frame := model.NewFrame(cols)
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		cells := make([]model.Value, len(cols))
		for i := range cols {
			cells[i] = model.FromInterface(raw[i+1])
		}
		frame.Append(model.FromInterface(raw[0]).Text(), cells...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frame, nil
}

// WritePartitions 在同一事务中写入分区的完整逻辑内容
// append：补齐新增列，删除不再出现的行，插入新行；replace：整表重建
// 两种策略写入后的逻辑内容一致
func (s *Store) WritePartitions(policy model.MergePolicy, frames map[model.Partition]*model.Frame) error {
	for _, p := range model.Partitions {
		f, ok := frames[p]
		if !ok || f == nil {
			continue
		}
		if err := ValidateColumns(p, f.Columns); err != nil {
			return err
		}
	}
	for p := range frames {
		if err := checkPartition(p); err != nil {
			return err
		}
	}

	return s.withTx(func(tx *sqlx.Tx) error {
		for _, p := range model.Partitions {
			f, ok := frames[p]
			if !ok || f == nil {
				continue
			}
			var err error
			if policy == model.MergeReplace {
				err = replacePartition(tx, p, f)
			} else {
				err = appendPartition(tx, p, f)
			}
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", p, err)
			}
		}
		return invalidateView(tx)
	})
}

func createPartitionTable(tx *sqlx.Tx, table string, columns []string) error {
	defs := []string{
		quoteIdent(colRowID) + " INTEGER PRIMARY KEY AUTOINCREMENT",
		quoteIdent(colRowHash) + " TEXT NOT NULL",
		quoteIdent(colBatchID) + " TEXT NOT NULL DEFAULT ''",
	}
	for _, c := range columns {
		// 不声明类型，保留原始存储类别（编码类文本不被转成数值）
		defs = append(defs, quoteIdent(c))
	}
	_, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", ")))
	return err
}

func replacePartition(tx *sqlx.Tx, p model.Partition, f *model.Frame) error {
	table := string(p)
	if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); err != nil {
		return err
	}
	if len(f.Columns) == 0 {
		return nil
	}
	if err := createPartitionTable(tx, table, f.Columns); err != nil {
		return err
	}
	return insertRows(tx, table, f, allRows(f))
}

func appendPartition(tx *sqlx.Tx, p model.Partition, f *model.Frame) error {
	table := string(p)
	exists, err := tableExists(tx, table)
	if err != nil {
		return err
	}
	if !exists {
		if len(f.Columns) == 0 {
			return nil
		}
		if err := createPartitionTable(tx, table, f.Columns); err != nil {
			return err
		}
		return insertRows(tx, table, f, allRows(f))
	}

	current, err := tableColumns(tx, table)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(current))
	for _, c := range current {
		have[c] = true
	}
	for _, c := range f.Columns {
		if have[c] {
			continue
		}
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table), quoteIdent(c))); err != nil {
			return err
		}
		have[c] = true
	}

	// 以摘要计数对齐：每个摘要保留的已存行数不超过目标内容中的行数
	wanted := make(map[string]int, f.Len())
	hashes := make([]string, f.Len())
	for i, row := range f.Rows {
		hashes[i] = merge.Fingerprint(f.Columns, row.Cells)
		wanted[hashes[i]]++
	}

	type stored struct {
		ID   int64  `db:"__row_id"`
		Hash string `db:"__row_hash"`
	}
	var existing []stored
	if err := tx.Select(&existing, fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s",
		quoteIdent(colRowID), quoteIdent(colRowHash), quoteIdent(table), quoteIdent(colRowID))); err != nil {
		return err
	}

	kept := make(map[string]int, len(existing))
	var stale []int64
	for _, r := range existing {
		if kept[r.Hash] >= wanted[r.Hash] {
			stale = append(stale, r.ID)
			continue
		}
		kept[r.Hash]++
	}
	if len(stale) > 0 {
		query, args, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE %s IN (?)", quoteIdent(table), quoteIdent(colRowID)), stale)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
	}

	var fresh []int
	for i, h := range hashes {
		if kept[h] > 0 {
			kept[h]--
			continue
		}
		fresh = append(fresh, i)
	}
	return insertRows(tx, table, f, fresh)
}

func allRows(f *model.Frame) []int {
	idx := make([]int, f.Len())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func insertRows(tx *sqlx.Tx, table string, f *model.Frame, rows []int) error {
	if len(rows) == 0 {
		return nil
	}
	cols := []string{quoteIdent(colRowHash), quoteIdent(colBatchID)}
	for _, c := range f.Columns {
		cols = append(cols, quoteIdent(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(cols))
	for _, i := range rows {
		row := f.Rows[i]
		args[0] = merge.Fingerprint(f.Columns, row.Cells)
		args[1] = row.BatchID
		for j := range f.Columns {
			v := model.Null()
			if j < len(row.Cells) {
				v = row.Cells[j]
			}
			args[j+2] = v.Interface()
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

// PartitionStats 各分区行数与列
func (s *Store) PartitionStats() ([]PartitionStat, error) {
	stats := make([]PartitionStat, 0, len(model.Partitions))
	for _, p := range model.Partitions {
		stat := PartitionStat{Partition: p, Label: p.Label(), Columns: []string{}}
		exists, err := tableExists(s.db, string(p))
		if err != nil {
			return nil, err
		}
		if exists {
			cols, err := tableColumns(s.db, string(p))
			if err != nil {
				return nil, err
			}
			stat.Columns = cols
			if err := s.db.Get(&stat.Rows, "SELECT COUNT(*) FROM "+quoteIdent(string(p))); err != nil {
				return nil, fmt.Errorf("failed to count %s: %w", p, err)
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// Reset 删除全部分区、视图缓存与批次日志
func (s *Store) Reset() error {
	return s.withTx(func(tx *sqlx.Tx) error {
		for _, p := range model.Partitions {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(string(p))); err != nil {
				return fmt.Errorf("failed to drop %s: %w", p, err)
			}
		}
		if _, err := tx.Exec("DELETE FROM batch_logs"); err != nil {
			return fmt.Errorf("failed to clear batch logs: %w", err)
		}
		return invalidateView(tx)
	})
}

// Snapshot 将当前数据库导出为独立的 .db 文件
func (s *Store) Snapshot(path string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
