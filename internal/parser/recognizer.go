package parser

import (
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

var (
	planKeyFields   = []string{"품목코드", "판매수량", "판매단가", "계획년월", "품명"}
	actualKeyFields = []string{"매출번호", "매출일", "장부금액", "수금예정일", "출고일"}
)

// Recognizer 来源类型识别器（文件名提示优先，其次表头打分）
type Recognizer struct {
	planHints     []string
	actualHints   []string
	discriminator string
}

// NewRecognizer 创建识别器
func NewRecognizer(rules model.Rules) *Recognizer {
	return &Recognizer{
		planHints:     rules.PlanFileHints,
		actualHints:   rules.ActualFileHints,
		discriminator: CleanColumnName(rules.DiscriminatorField),
	}
}

// Recognize 识别来源的分类提示
func (r *Recognizer) Recognize(source string, columnNames []string) Recognition {
	if containsFold(source, r.planHints) {
		return Recognition{Source: source, Hint: model.HintPlan, Confidence: 1, Reason: "filename"}
	}
	if containsFold(source, r.actualHints) {
		return Recognition{Source: source, Hint: model.HintActual, Confidence: 1, Reason: "filename"}
	}

	columns := stringSet(columnNames, true)

	// 混合文件：判别字段逐行决定
	if r.discriminator != "" && columns[r.discriminator] {
		return Recognition{Source: source, Hint: model.HintInferred, Confidence: 0.9, Reason: "discriminator"}
	}

	planScore := score(columns, planKeyFields)
	actualScore := score(columns, actualKeyFields)

	if planScore >= 0.5 && planScore > actualScore {
		return Recognition{Source: source, Hint: model.HintPlan, Confidence: planScore, Reason: "headers"}
	}
	if actualScore >= 0.5 && actualScore >= planScore {
		return Recognition{Source: source, Hint: model.HintActual, Confidence: actualScore, Reason: "headers"}
	}

	// 无法识别：交给判别字段规则（缺失时全部视为实绩）
	return Recognition{Source: source, Hint: model.HintInferred, Confidence: 0, Reason: "fallback"}
}

func score(columns map[string]bool, keyFields []string) float64 {
	matched := 0
	for _, f := range keyFields {
		if columns[f] {
			matched++
		}
	}
	return float64(matched) / float64(len(keyFields))
}
