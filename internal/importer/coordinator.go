package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spracknow-droid/Excel-to-DB/internal/calculator"
	"github.com/spracknow-droid/Excel-to-DB/internal/classifier"
	"github.com/spracknow-droid/Excel-to-DB/internal/merge"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/parser"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

// Coordinator 导入协调器：读取 → 识别 → 规范化 → 分类 → 衍生字段 → 合并 → 持久化
type Coordinator struct {
	store      *store.Store
	rules      model.Rules
	recognizer *parser.Recognizer
	normalizer *parser.Normalizer
	classifier *classifier.Classifier
	calculator *calculator.Calculator
	logger     *slog.Logger

	// 分区写入为 读-合并-写，同一时刻只允许一个批次进行
	mu sync.Mutex
}

// NewCoordinator 创建导入协调器
func NewCoordinator(st *store.Store, rules model.Rules, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:      st,
		rules:      rules,
		recognizer: parser.NewRecognizer(rules),
		normalizer: parser.NewNormalizer(rules),
		classifier: classifier.New(rules),
		calculator: calculator.NewCalculator(rules),
		logger:     logger,
	}
}

// Source 一个待导入的来源文件
type Source struct {
	Name string
	Data []byte
	// Hint 为空时自动识别
	Hint model.Hint
}

// LoadSource 从磁盘读取来源文件
func LoadSource(path string, hint model.Hint) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Source{Name: filepath.Base(path), Data: data, Hint: hint}, nil
}

// ImportOptions 导入选项
type ImportOptions struct {
	Sources   []Source
	AllSheets bool              // 读取工作簿的全部 sheet
	Policy    model.MergePolicy // 为空时使用规则中的策略
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/file_start/info/warning/file_done/error/done
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// Import 执行导入，返回进度通道；调用方须读到通道关闭
func (c *Coordinator) Import(opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.ImportSources(opts, forwardProgress(progressChan))
	}()

	return progressChan
}

// forwardProgress 通道已满时丢弃过程事件；error 与 done 必须送达，阻塞等待消费方
func forwardProgress(ch chan<- ProgressEvent) func(ProgressEvent) {
	return func(evt ProgressEvent) {
		switch evt.Type {
		case "error", "done":
			ch <- evt
			return
		}
		select {
		case ch <- evt:
		default:
		}
	}
}

// ImportSources 同步导入；progress 可为 nil
// 单个文件失败只记录在报告中，不影响其他文件
func (c *Coordinator) ImportSources(opts ImportOptions, progress func(ProgressEvent)) *ImportReport {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}
	emit := func(typ, msg string, data interface{}) {
		progress(ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()})
	}

	startTime := time.Now()
	report := &ImportReport{TotalFiles: len(opts.Sources), Files: []FileResult{}}

	emit("start", fmt.Sprintf("开始导入 %d 个文件", len(opts.Sources)), map[string]int{"total_files": len(opts.Sources)})

	for _, src := range opts.Sources {
		emit("file_start", fmt.Sprintf("正在处理: %s", src.Name), map[string]string{"filename": src.Name})

		results := c.importSource(src, opts, emit)
		for _, r := range results {
			report.record(r)
			switch r.Status {
			case StatusImported:
				emit("file_done", fmt.Sprintf("%s 导入成功: 计划 %d 行, 实绩 %d 行", r.Label(), r.PlanRows, r.ActualRows), r)
			case StatusEmpty:
				emit("warning", fmt.Sprintf("%s 没有可导入的数据行", r.Label()), r)
			default:
				emit("error", fmt.Sprintf("%s 导入失败: %v", r.Label(), r.Errors), r)
			}
		}
	}

	if stats, err := c.store.PartitionStats(); err == nil {
		report.Partitions = stats
	} else {
		c.logger.Warn("partition stats unavailable", "error", err)
	}
	report.Duration = time.Since(startTime)

	c.logger.Info("import finished",
		"files", report.TotalFiles,
		"imported", report.ImportedFiles,
		"failed", report.FailedFiles,
		"duration", report.Duration)

	emit("done", "导入完成", report)
	return report
}

// importSource 读取一个来源文件，每张表作为一个批次
func (c *Coordinator) importSource(src Source, opts ImportOptions, emit func(string, string, interface{})) []FileResult {
	started := time.Now()

	tables, err := parser.ReadBytes(src.Name, src.Data, parser.ReadOptions{AllSheets: opts.AllSheets})
	if err != nil {
		c.logger.Warn("source unreadable", "source", src.Name, "error", err)
		status := StatusFailed
		if errors.Is(err, parser.ErrNoData) {
			status = StatusEmpty
		}
		return []FileResult{{
			Source:   src.Name,
			Status:   status,
			Errors:   []string{err.Error()},
			Duration: time.Since(started),
		}}
	}

	results := make([]FileResult, 0, len(tables))
	for _, tbl := range tables {
		hint := src.Hint
		recognition := parser.Recognition{Source: src.Name, Hint: hint, Confidence: 1, Reason: "explicit"}
		if hint == "" {
			recognition = c.recognizer.Recognize(src.Name, tbl.Frame.Columns)
			hint = recognition.Hint
		}
		emit("info", fmt.Sprintf("%s 识别为: %s (置信度: %.2f, 依据: %s)", src.Name, hint, recognition.Confidence, recognition.Reason),
			map[string]interface{}{
				"filename":   src.Name,
				"sheet":      tbl.Sheet,
				"hint":       hint,
				"confidence": recognition.Confidence,
				"reason":     recognition.Reason,
			})

		batch := model.NewBatch(src.Name, hint, tbl.Frame)
		res := c.ingest(batch, opts.Policy)
		res.Sheet = tbl.Sheet
		res.Confidence = recognition.Confidence
		res.Duration = time.Since(started)
		results = append(results, res)
	}
	return results
}

// IngestBatch 将单个批次合并进分区（不经过文件读取）
func (c *Coordinator) IngestBatch(batch *model.Batch) FileResult {
	return c.ingest(batch, "")
}

func (c *Coordinator) ingest(batch *model.Batch, policy model.MergePolicy) FileResult {
	res := FileResult{
		Source:    batch.Source,
		BatchID:   batch.ID,
		Hint:      batch.Hint,
		TotalRows: batch.Frame.Len(),
	}
	if policy == "" {
		policy = c.rules.MergePolicy
	}

	if err := c.store.CreateBatchLog(batch.ID, batch.Source, batch.Hint); err != nil {
		c.logger.Warn("batch log unavailable", "batch", batch.ID, "error", err)
	}

	err := c.mergeBatch(batch, policy, &res)
	switch {
	case err != nil:
		res.Status = StatusFailed
		res.Errors = append(res.Errors, err.Error())
		c.logger.Error("batch rejected", "source", batch.Source, "batch", batch.ID, "error", err)
	case res.PlanRows+res.ActualRows == 0:
		res.Status = StatusEmpty
	default:
		res.Status = StatusImported
		c.logger.Info("batch merged",
			"source", batch.Source,
			"batch", batch.ID,
			"hint", batch.Hint,
			"plan_rows", res.PlanRows,
			"actual_rows", res.ActualRows,
			"dropped_summary", res.DroppedSummary,
			"duplicates", res.Duplicates)
	}

	if err := c.store.FinishBatchLog(res.batchLog()); err != nil {
		c.logger.Warn("batch log update failed", "batch", batch.ID, "error", err)
	}
	return res
}

// mergeBatch 规范化、分类、计算后与已有分区合并，并在同一事务中写回
func (c *Coordinator) mergeBatch(batch *model.Batch, policy model.MergePolicy, res *FileResult) error {
	normalized := c.normalizer.Normalize(batch.Frame, batch.Hint)
	classified := c.classifier.Classify(normalized, batch.Hint)
	res.DroppedSummary = classified.DroppedSummary

	incoming := map[model.Partition]*model.Frame{
		model.PartitionPlan:   classified.Plan,
		model.PartitionActual: classified.Actual,
	}
	if !classified.Plan.Empty() {
		incoming[model.PartitionPlan] = c.calculator.Apply(classified.Plan)
	}
	res.Detected = detected(classified)

	c.mu.Lock()
	defer c.mu.Unlock()

	frames := make(map[model.Partition]*model.Frame, len(incoming))
	for _, p := range model.Partitions {
		in := incoming[p]
		if in.Empty() {
			continue
		}
		existing, err := c.store.LoadPartition(p)
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		merged := merge.Merge(existing, in, merge.Options{
			NaturalKey: parser.CleanColumnNames(c.rules.NaturalKey(p)),
		})
		frames[p] = merged.Frame

		res.Duplicates += merged.Duplicates
		res.Superseded += merged.Superseded
		switch p {
		case model.PartitionPlan:
			res.PlanRows = in.Len()
		case model.PartitionActual:
			res.ActualRows = in.Len()
		}
	}
	if len(frames) == 0 {
		return nil
	}
	return c.store.WritePartitions(policy, frames)
}

func detected(r classifier.Result) string {
	switch {
	case !r.Plan.Empty() && !r.Actual.Empty():
		return "mixed"
	case !r.Plan.Empty():
		return string(model.PartitionPlan)
	case !r.Actual.Empty():
		return string(model.PartitionActual)
	}
	return ""
}
