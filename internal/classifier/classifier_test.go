package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

func mixedFrame() *model.Frame {
	f := model.NewFrame([]string{"수익성계획전표번호", "매출번호", "품목"})
	f.Append("", model.String("P-1"), model.Null(), model.String("A1"))
	f.Append("", model.String("   "), model.String("T1"), model.String("A1"))
	f.Append("", model.Null(), model.String("T2"), model.String("A2"))
	f.Append("", model.Number(42), model.Null(), model.String("A3"))
	f.Append("", model.Null(), model.String("합계"), model.Null())
	return f
}

func TestClassify_DiscriminatorDecidesPerRow(t *testing.T) {
	t.Parallel()

	res := New(model.DefaultRules()).Classify(mixedFrame(), model.HintInferred)

	require.Equal(t, 2, res.Plan.Len())
	assert.Equal(t, "A1", res.Plan.Value(0, "품목").Text())
	assert.Equal(t, "A3", res.Plan.Value(1, "품목").Text())

	require.Equal(t, 2, res.Actual.Len())
	assert.Equal(t, "T1", res.Actual.Value(0, "매출번호").Text())
	assert.Equal(t, "T2", res.Actual.Value(1, "매출번호").Text())
	assert.Equal(t, 1, res.DroppedSummary)
}

func TestClassify_MissingDiscriminatorIsAllActual(t *testing.T) {
	t.Parallel()

	f := model.NewFrame([]string{"매출번호", "품목"})
	for i := 0; i < 5; i++ {
		f.Append("", model.String("T"), model.String("A"))
	}

	res := New(model.DefaultRules()).Classify(f, model.HintInferred)
	assert.Equal(t, 0, res.Plan.Len())
	assert.Equal(t, 5, res.Actual.Len())
}

func TestClassify_ExplicitHints(t *testing.T) {
	t.Parallel()

	c := New(model.DefaultRules())

	res := c.Classify(mixedFrame(), model.HintPlan)
	assert.Equal(t, 5, res.Plan.Len())
	assert.Equal(t, 0, res.Actual.Len())
	assert.Equal(t, 0, res.DroppedSummary)

	res = c.Classify(mixedFrame(), model.HintActual)
	assert.Equal(t, 0, res.Plan.Len())
	assert.Equal(t, 4, res.Actual.Len())
	assert.Equal(t, 1, res.DroppedSummary)
}

func TestDropSummaryRows_ContainsVersusExact(t *testing.T) {
	t.Parallel()

	f := model.NewFrame([]string{"매출번호"})
	f.Append("", model.String("합계"))
	f.Append("", model.String(" 합계 "))
	f.Append("", model.String("소계/합계"))
	f.Append("", model.String("T1"))
	f.Append("", model.Null())

	rules := model.DefaultRules()
	out, dropped := New(rules).DropSummaryRows(f)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, 2, out.Len())

	rules.SummaryMatch = model.MatchExact
	out, dropped = New(rules).DropSummaryRows(f)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "소계/합계", out.Value(0, "매출번호").Text())
}

func TestDropSummaryRows_NoSummaryColumn(t *testing.T) {
	t.Parallel()

	f := model.NewFrame([]string{"품목"})
	f.Append("", model.String("합계"))

	out, dropped := New(model.DefaultRules()).DropSummaryRows(f)
	assert.Equal(t, 0, dropped)
	assert.Same(t, f, out)
}

func TestIsPlanValue(t *testing.T) {
	t.Parallel()

	assert.False(t, IsPlanValue(model.Null()))
	assert.False(t, IsPlanValue(model.String("")))
	assert.False(t, IsPlanValue(model.String(" \t ")))
	assert.True(t, IsPlanValue(model.String("P")))
	assert.True(t, IsPlanValue(model.Number(0)))
}
