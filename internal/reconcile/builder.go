// Package reconcile 由计划与实绩两个分区按 (分析月, 매출처, 품목) 汇总并全外连接，生成差异视图。
package reconcile

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spracknow-droid/Excel-to-DB/internal/calculator"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/parser"
)

// Key 汇总键
type Key struct {
	Period       string
	Counterparty string
	Item         string
}

type aggregate struct {
	quantity         decimal.Decimal
	amount           decimal.Decimal
	counterpartyName string
	itemName         string
}

// Builder 计划对比实绩视图构建器
type Builder struct {
	cols model.ViewColumns
}

// NewBuilder 创建构建器；列名按规范化口径清洗
func NewBuilder(cols model.ViewColumns) *Builder {
	return &Builder{cols: model.ViewColumns{
		PlanPeriod:       parser.CleanColumnName(cols.PlanPeriod),
		ActualPeriod:     parser.CleanColumnName(cols.ActualPeriod),
		Counterparty:     parser.CleanColumnName(cols.Counterparty),
		CounterpartyName: parser.CleanColumnName(cols.CounterpartyName),
		Item:             parser.CleanColumnName(cols.Item),
		ItemName:         parser.CleanColumnName(cols.ItemName),
		Quantity:         parser.CleanColumnName(cols.Quantity),
		PlanAmount:       parser.CleanColumnName(cols.PlanAmount),
		ActualAmount:     parser.CleanColumnName(cols.ActualAmount),
	}}
}

// Build 生成视图；结果是分区状态的纯函数
// 计划金额取计算出的 판매금액，实绩金额取 장부금액，两侧均为账面口径
func (b *Builder) Build(plan, actual *model.Frame) []model.ReconciliationRow {
	planAgg := b.aggregate(plan, b.cols.PlanPeriod, b.cols.PlanAmount)
	actualAgg := b.aggregate(actual, b.cols.ActualPeriod, b.cols.ActualAmount)

	keys := make([]Key, 0, len(planAgg)+len(actualAgg))
	for k := range planAgg {
		keys = append(keys, k)
	}
	for k := range actualAgg {
		if _, ok := planAgg[k]; !ok {
			keys = append(keys, k)
		}
	}
	SortKeys(keys)

	out := make([]model.ReconciliationRow, 0, len(keys))
	for _, k := range keys {
		p, a := planAgg[k], actualAgg[k]
		out = append(out, newRow(k, p, a))
	}
	return out
}

func newRow(k Key, p, a *aggregate) model.ReconciliationRow {
	planQty, planAmt := decimal.Zero, decimal.Zero
	actualQty, actualAmt := decimal.Zero, decimal.Zero
	var cpName, itemName string
	if p != nil {
		planQty, planAmt = p.quantity, p.amount
		cpName, itemName = p.counterpartyName, p.itemName
	}
	if a != nil {
		actualQty, actualAmt = a.quantity, a.amount
		if cpName == "" {
			cpName = a.counterpartyName
		}
		if itemName == "" {
			itemName = a.itemName
		}
	}

	return model.ReconciliationRow{
		Period:           k.Period,
		Counterparty:     k.Counterparty,
		CounterpartyName: cpName,
		Item:             k.Item,
		ItemName:         itemName,
		PlanQuantity:     planQty.InexactFloat64(),
		ActualQuantity:   actualQty.InexactFloat64(),
		QuantityDelta:    actualQty.Sub(planQty).InexactFloat64(),
		PlanAmount:       planAmt.InexactFloat64(),
		ActualAmount:     actualAmt.InexactFloat64(),
		AmountDelta:      actualAmt.Sub(planAmt).InexactFloat64(),
		AchievementRatio: AchievementRatio(actualAmt, planAmt).InexactFloat64(),
	}
}

// AchievementRatio 计划金额为 0 时为 0，否则 round(实绩/计划×100, 1)
func AchievementRatio(actual, plan decimal.Decimal) decimal.Decimal {
	if plan.IsZero() {
		return decimal.Zero
	}
	return actual.Div(plan).Mul(decimal.NewFromInt(100)).Round(1)
}

func (b *Builder) aggregate(frame *model.Frame, periodCol, amountCol string) map[Key]*aggregate {
	out := make(map[Key]*aggregate)
	if frame == nil {
		return out
	}
	for i := range frame.Rows {
		k := Key{
			Period:       parser.MonthKey(frame.Value(i, periodCol)),
			Counterparty: text(frame.Value(i, b.cols.Counterparty)),
			Item:         text(frame.Value(i, b.cols.Item)),
		}
		agg, ok := out[k]
		if !ok {
			agg = &aggregate{}
			out[k] = agg
		}
		agg.quantity = agg.quantity.Add(calculator.ToDecimal(frame.Value(i, b.cols.Quantity)))
		agg.amount = agg.amount.Add(calculator.ToDecimal(frame.Value(i, amountCol)))
		if agg.counterpartyName == "" {
			agg.counterpartyName = text(frame.Value(i, b.cols.CounterpartyName))
		}
		if agg.itemName == "" {
			agg.itemName = text(frame.Value(i, b.cols.ItemName))
		}
	}
	return out
}

// SortKeys 分析月倒序，其余升序，保证输出稳定
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Period != b.Period {
			return a.Period > b.Period
		}
		if a.Counterparty != b.Counterparty {
			return a.Counterparty < b.Counterparty
		}
		return a.Item < b.Item
	})
}

func text(v model.Value) string {
	return strings.TrimSpace(v.Text())
}
