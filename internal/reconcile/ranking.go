package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/spracknow-droid/Excel-to-DB/internal/calculator"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// TopCounterparties 实绩按 매출처명 汇总：总数量、总金额、经营品目数，按金额倒序
// 缺少名称列时退回按 매출처 代码分组
func (b *Builder) TopCounterparties(actual *model.Frame) []model.CounterpartyRanking {
	if actual.Empty() {
		return []model.CounterpartyRanking{}
	}

	groupCol := b.cols.CounterpartyName
	if !actual.HasColumn(groupCol) {
		groupCol = b.cols.Counterparty
	}
	itemCol := b.cols.ItemName
	if !actual.HasColumn(itemCol) {
		itemCol = b.cols.Item
	}

	type acc struct {
		qty, amount decimal.Decimal
		items       map[string]bool
	}
	groups := make(map[string]*acc)
	for i := range actual.Rows {
		name := text(actual.Value(i, groupCol))
		g, ok := groups[name]
		if !ok {
			g = &acc{items: make(map[string]bool)}
			groups[name] = g
		}
		g.qty = g.qty.Add(calculator.ToDecimal(actual.Value(i, b.cols.Quantity)))
		g.amount = g.amount.Add(calculator.ToDecimal(actual.Value(i, b.cols.ActualAmount)))
		if item := text(actual.Value(i, itemCol)); item != "" {
			g.items[item] = true
		}
	}

	out := make([]model.CounterpartyRanking, 0, len(groups))
	for name, g := range groups {
		out = append(out, model.CounterpartyRanking{
			Counterparty:  name,
			TotalQuantity: g.qty.InexactFloat64(),
			TotalAmount:   g.amount.InexactFloat64(),
			ItemCount:     len(g.items),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Counterparty < out[j].Counterparty
	})
	return out
}
