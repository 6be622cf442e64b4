package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

func TestUnify(t *testing.T) {
	t.Parallel()

	plan := model.NewFrame([]string{"매출처", "품목", "수량"})
	plan.Append("", model.String("C1"), model.String("A1"), model.Number(10))
	plan.Append("", model.String("C2"), model.String("B1"), model.Number(2))

	actual := model.NewFrame([]string{"매출처", "품목", "수량", "매출번호"})
	actual.Append("", model.String("C1"), model.String("A1"), model.Number(3), model.String("S1"))
	actual.Append("", model.String("C1"), model.String("A1"), model.Number(4), model.String("S2"))
	actual.Append("", model.String("C3"), model.String("Z9"), model.Number(1), model.String("S3"))

	out := Unify(plan, actual, []string{"매출처", "품목"})

	assert.Equal(t, []string{"매출처", "품목", "계획_수량", "실적_수량", "실적_매출번호"}, out.Columns)
	require.Equal(t, 4, out.Len())

	// C1/A1: 1 × 2 笛卡尔积
	assert.Equal(t, "C1", out.Value(0, "매출처").Text())
	assert.Equal(t, "10", out.Value(0, "계획_수량").Text())
	assert.Equal(t, "S1", out.Value(0, "실적_매출번호").Text())
	assert.Equal(t, "10", out.Value(1, "계획_수량").Text())
	assert.Equal(t, "S2", out.Value(1, "실적_매출번호").Text())

	// 仅计划
	assert.Equal(t, "C2", out.Value(2, "매출처").Text())
	assert.True(t, out.Value(2, "실적_수량").IsNull())

	// 仅实绩
	assert.Equal(t, "C3", out.Value(3, "매출처").Text())
	assert.Equal(t, "Z9", out.Value(3, "품목").Text())
	assert.True(t, out.Value(3, "계획_수량").IsNull())
}

func TestUnify_DefaultKeysAndNilInputs(t *testing.T) {
	t.Parallel()

	out := Unify(nil, nil, nil)
	assert.Equal(t, DefaultCommonKeys, out.Columns)
	assert.Equal(t, 0, out.Len())
}
