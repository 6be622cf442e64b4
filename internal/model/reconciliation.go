package model

// ReconciliationRow 计划对比实绩的一行（按 分析月 / 매출처 / 품목 汇总）
type ReconciliationRow struct {
	Period           string  `json:"분석월" db:"period"`
	Counterparty     string  `json:"매출처" db:"counterparty"`
	CounterpartyName string  `json:"매출처명" db:"counterparty_name"`
	Item             string  `json:"품목" db:"item"`
	ItemName         string  `json:"품목명" db:"item_name"`
	PlanQuantity     float64 `json:"계획수량" db:"plan_quantity"`
	ActualQuantity   float64 `json:"실적수량" db:"actual_quantity"`
	QuantityDelta    float64 `json:"수량차이" db:"quantity_delta"`
	PlanAmount       float64 `json:"계획금액" db:"plan_amount"`
	ActualAmount     float64 `json:"실적금액" db:"actual_amount"`
	AmountDelta      float64 `json:"금액차이" db:"amount_delta"`
	AchievementRatio float64 `json:"매출달성률" db:"achievement_ratio"`
}

// ReconciliationHeaders 导出时的表头（与 Cells 顺序一致）
var ReconciliationHeaders = []string{
	"분석월", "매출처", "매출처명", "품목", "품목명",
	"계획수량", "실적수량", "수량차이",
	"계획금액", "실적금액", "금액차이", "매출달성률",
}

// Cells 按表头顺序输出
func (r ReconciliationRow) Cells() []Value {
	return []Value{
		String(r.Period), String(r.Counterparty), String(r.CounterpartyName),
		String(r.Item), String(r.ItemName),
		Number(r.PlanQuantity), Number(r.ActualQuantity), Number(r.QuantityDelta),
		Number(r.PlanAmount), Number(r.ActualAmount), Number(r.AmountDelta),
		Number(r.AchievementRatio),
	}
}

// CounterpartyRanking 매출처별 实绩汇总
type CounterpartyRanking struct {
	Counterparty  string  `json:"매출처명"`
	TotalQuantity float64 `json:"총판매수량"`
	TotalAmount   float64 `json:"총판매금액"`
	ItemCount     int     `json:"취급품목수"`
}

// CounterpartyRankingHeaders 导出表头
var CounterpartyRankingHeaders = []string{"매출처명", "총판매수량", "총판매금액", "취급품목수"}

// Cells 按表头顺序输出
func (c CounterpartyRanking) Cells() []Value {
	return []Value{
		String(c.Counterparty), Number(c.TotalQuantity), Number(c.TotalAmount), Number(float64(c.ItemCount)),
	}
}
