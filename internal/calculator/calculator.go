package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/parser"
)

// Calculator 计划数据衍生字段计算器
type Calculator struct {
	normalizer    *parser.Normalizer
	quantity      string
	unitPrice     string
	salesAmount   string
	bookAmount    string
	bookUnitPrice string
}

// NewCalculator 创建计算器
func NewCalculator(rules model.Rules) *Calculator {
	d := rules.Derived
	return &Calculator{
		normalizer:    parser.NewNormalizer(rules),
		quantity:      parser.CleanColumnName(d.Quantity),
		unitPrice:     parser.CleanColumnName(d.UnitPrice),
		salesAmount:   parser.CleanColumnName(d.SalesAmount),
		bookAmount:    parser.CleanColumnName(d.BookAmount),
		bookUnitPrice: parser.CleanColumnName(d.BookUnitPrice),
	}
}

// Apply 计算计划批次的衍生字段，返回新表
// 先按计划口径重新规范化（混合文件中的计划行此前未经重命名与编码列转换）
//
//	수량、판매단가 强制为数值（非数值/缺失按 0）
//	판매금액 = 수량 × 판매단가
//	장부단가 = 장부금액 ÷ 수량（仅当存在장부금액列；수량为 0 时为 0）
func (c *Calculator) Apply(frame *model.Frame) *model.Frame {
	if frame == nil {
		return nil
	}
	out := c.normalizer.Normalize(frame, model.HintPlan)

	qtyIdx := out.AddColumn(c.quantity, model.Null())
	priceIdx := out.AddColumn(c.unitPrice, model.Null())
	salesIdx := out.AddColumn(c.salesAmount, model.Null())

	bookIdx := out.ColumnIndex(c.bookAmount)
	bookUnitIdx := -1
	if bookIdx >= 0 {
		bookUnitIdx = out.AddColumn(c.bookUnitPrice, model.Null())
	}

	for i := range out.Rows {
		cells := out.Rows[i].Cells
		qty := ToDecimal(cells[qtyIdx])
		price := ToDecimal(cells[priceIdx])

		cells[qtyIdx] = model.Number(qty.InexactFloat64())
		cells[priceIdx] = model.Number(price.InexactFloat64())
		cells[salesIdx] = model.Number(qty.Mul(price).InexactFloat64())

		if bookUnitIdx >= 0 {
			cells[bookUnitIdx] = model.Number(SafeDiv(ToDecimal(cells[bookIdx]), qty).InexactFloat64())
		}
	}
	return out
}

// ToDecimal 单元格转数值；非数值或空值为 0
func ToDecimal(v model.Value) decimal.Decimal {
	f, ok := v.Float()
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// SafeDiv 除数为 0 时返回 0
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}
