package model

import (
	"fmt"
)

// MatchMode 合计行标记的匹配方式
type MatchMode string

const (
	MatchContains MatchMode = "contains"
	MatchExact    MatchMode = "exact"
)

// MergePolicy 分区写入策略
type MergePolicy string

const (
	MergeAppend  MergePolicy = "append"  // 增量写入，保留已有行
	MergeReplace MergePolicy = "replace" // 整表重写
)

// DerivedFields 计划数据衍生字段所用的列名
type DerivedFields struct {
	Quantity      string `toml:"quantity" json:"quantity"`
	UnitPrice     string `toml:"unit_price" json:"unitPrice"`
	SalesAmount   string `toml:"sales_amount" json:"salesAmount"`
	BookAmount    string `toml:"book_amount" json:"bookAmount"`
	BookUnitPrice string `toml:"book_unit_price" json:"bookUnitPrice"`
}

// ViewColumns 计划对比实绩视图所用的列名
type ViewColumns struct {
	PlanPeriod       string `toml:"plan_period" json:"planPeriod"`
	ActualPeriod     string `toml:"actual_period" json:"actualPeriod"`
	Counterparty     string `toml:"counterparty" json:"counterparty"`
	CounterpartyName string `toml:"counterparty_name" json:"counterpartyName"`
	Item             string `toml:"item" json:"item"`
	ItemName         string `toml:"item_name" json:"itemName"`
	Quantity         string `toml:"quantity" json:"quantity"`
	PlanAmount       string `toml:"plan_amount" json:"planAmount"`
	ActualAmount     string `toml:"actual_amount" json:"actualAmount"`
}

// Rules 规范化 / 分类 / 合并规则（由外部配置提供）
type Rules struct {
	PlanRenameMap      map[string]string   `toml:"plan_rename_map" json:"planRenameMap"`
	StringColumns      []string            `toml:"string_columns" json:"stringColumns"`
	DateColumns        []string            `toml:"date_columns" json:"dateColumns"`
	DiscriminatorField string              `toml:"discriminator_field" json:"discriminatorField"`
	SummaryColumn      string              `toml:"summary_column" json:"summaryColumn"`
	SummaryMarker      string              `toml:"summary_marker" json:"summaryMarker"`
	SummaryMatch       MatchMode           `toml:"summary_match" json:"summaryMatch"`
	NaturalKeys        map[string][]string `toml:"natural_keys" json:"naturalKeys"`
	MergePolicy        MergePolicy         `toml:"merge_policy" json:"mergePolicy"`
	PlanFileHints      []string            `toml:"plan_file_hints" json:"planFileHints"`
	ActualFileHints    []string            `toml:"actual_file_hints" json:"actualFileHints"`
	Derived            DerivedFields       `toml:"derived" json:"derived"`
	View               ViewColumns         `toml:"view" json:"view"`
}

// DefaultRules ERP(SLSSPN / BILBIV) 导出文件的默认规则
func DefaultRules() Rules {
	return Rules{
		PlanRenameMap: map[string]string{
			"품목코드": "품목",
			"판매수량": "수량",
			"품명":   "품목명",
			"판매금액": "장부금액",
		},
		StringColumns:      []string{"매출처", "수금처", "납품처", "품목", "품목명", "품번"},
		DateColumns:        []string{"계획년월", "매출일", "수금예정일", "출고일"},
		DiscriminatorField: "수익성계획전표번호",
		SummaryColumn:      "매출번호",
		SummaryMarker:      "합계",
		SummaryMatch:       MatchContains,
		NaturalKeys:        map[string][]string{},
		MergePolicy:        MergeAppend,
		PlanFileHints:      []string{"SLSSPN"},
		ActualFileHints:    []string{"BILBIV"},
		Derived: DerivedFields{
			Quantity:      "수량",
			UnitPrice:     "판매단가",
			SalesAmount:   "판매금액",
			BookAmount:    "장부금액",
			BookUnitPrice: "장부단가",
		},
		View: ViewColumns{
			PlanPeriod:       "계획년월",
			ActualPeriod:     "매출일",
			Counterparty:     "매출처",
			CounterpartyName: "매출처명",
			Item:             "품목",
			ItemName:         "품목명",
			Quantity:         "수량",
			PlanAmount:       "판매금액",
			ActualAmount:     "장부금액",
		},
	}
}

// NaturalKey 分区的自然键；未配置返回 nil
func (r Rules) NaturalKey(p Partition) []string {
	if r.NaturalKeys == nil {
		return nil
	}
	if keys, ok := r.NaturalKeys[string(p)]; ok && len(keys) > 0 {
		return keys
	}
	// 兼容 plan / actual 简写
	short := "plan"
	if p == PartitionActual {
		short = "actual"
	}
	return r.NaturalKeys[short]
}

// Validate 校验枚举类配置
func (r Rules) Validate() error {
	switch r.SummaryMatch {
	case MatchContains, MatchExact, "":
	default:
		return fmt.Errorf("invalid summary_match: %q", r.SummaryMatch)
	}
	switch r.MergePolicy {
	case MergeAppend, MergeReplace, "":
	default:
		return fmt.Errorf("invalid merge_policy: %q", r.MergePolicy)
	}
	for name := range r.NaturalKeys {
		switch name {
		case "plan", "actual", string(PartitionPlan), string(PartitionActual):
		default:
			return fmt.Errorf("natural_keys: unknown partition %q", name)
		}
	}
	return nil
}
