package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Partition 持久化分区
type Partition string

const (
	PartitionPlan   Partition = "plan_data"   // 판매계획
	PartitionActual Partition = "actual_data" // 판매실적
)

// Partitions 全部分区（固定顺序）
var Partitions = []Partition{PartitionPlan, PartitionActual}

var ErrUnknownPartition = errors.New("unknown partition")

// ParsePartition 解析分区名，兼容 plan / actual / result 等别名
func ParsePartition(s string) (Partition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plan", "plan_data", "판매계획":
		return PartitionPlan, nil
	case "actual", "actual_data", "result", "판매실적":
		return PartitionActual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPartition, s)
}

// Label 分区的业务名称（导出 sheet 名、界面标签）
func (p Partition) Label() string {
	switch p {
	case PartitionPlan:
		return "판매계획"
	case PartitionActual:
		return "판매실적"
	}
	return string(p)
}

// Hint 批次的分类提示
type Hint string

const (
	HintPlan     Hint = "plan"     // 整个文件为计划
	HintActual   Hint = "actual"   // 整个文件为实绩
	HintInferred Hint = "inferred" // 由判别字段逐行决定
)

// ParseHint 解析分类提示，空串视为 inferred
func ParseHint(s string) (Hint, error) {
	switch Hint(strings.ToLower(strings.TrimSpace(s))) {
	case HintPlan:
		return HintPlan, nil
	case HintActual:
		return HintActual, nil
	case HintInferred, "":
		return HintInferred, nil
	}
	return "", fmt.Errorf("unknown hint: %q", s)
}

// Batch 单个上传来源的数据（分类后合并即丢弃）
type Batch struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Hint   Hint   `json:"hint"`
	Frame  *Frame `json:"-"`
}

// NewBatch 创建批次并给每一行打上批次 ID
func NewBatch(source string, hint Hint, frame *Frame) *Batch {
	b := &Batch{
		ID:     uuid.New().String(),
		Source: source,
		Hint:   hint,
		Frame:  frame,
	}
	if frame != nil {
		for i := range frame.Rows {
			frame.Rows[i].BatchID = b.ID
		}
	}
	return b
}
