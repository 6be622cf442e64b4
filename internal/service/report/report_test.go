package report

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spracknow-droid/Excel-to-DB/internal/calculator"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	st, err := store.New(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, model.DefaultRules(), slog.New(slog.NewTextHandler(io.Discard, nil))), st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()

	plan := model.NewFrame([]string{"계획년월", "매출처", "품목", "수량", "판매단가"})
	plan.Append("p", model.String("2024-01-01"), model.String("C1"), model.String("A1"), model.Number(10), model.Number(100))
	plan = calculator.NewCalculator(model.DefaultRules()).Apply(plan)

	actual := model.NewFrame([]string{"매출일", "매출처", "매출처명", "품목", "품목명", "수량", "장부금액"})
	actual.Append("a", model.String("2024-01-10"), model.String("C1"), model.String("가나"), model.String("A1"), model.String("볼트"), model.Number(8), model.Number(750))
	actual.Append("a", model.String("2024-02-10"), model.String("C2"), model.String("다라"), model.String("B1"), model.String("너트"), model.Number(1), model.Number(900))

	require.NoError(t, st.WritePartitions(model.MergeAppend, map[model.Partition]*model.Frame{
		model.PartitionPlan:   plan,
		model.PartitionActual: actual,
	}))
}

func TestReconciliation_EmptyStore(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	rows, err := svc.Reconciliation()
	require.NoError(t, err)
	assert.Empty(t, rows)

	top, err := svc.TopCounterparties(5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestReconciliation_CachedUntilWrite(t *testing.T) {
	t.Parallel()

	svc, st := newTestService(t)
	seed(t, st)

	first, err := svc.Reconciliation()
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "2024-02", first[0].Period)
	assert.Equal(t, 75.0, first[1].AchievementRatio)

	cached, ok, err := st.LoadView()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, cached)

	// 缓存与重新构建的结果完全一致
	rebuilt, err := svc.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, rebuilt, cached)

	merged, err := st.LoadPartition(model.PartitionActual)
	require.NoError(t, err)
	merged.AddColumn("비고", model.Null())
	merged.Rows = append(merged.Rows, model.Row{BatchID: "b", Cells: []model.Value{
		model.String("2024-01-20"), model.String("C1"), model.Null(), model.String("A1"), model.Null(), model.Number(2), model.Number(250), model.Null(),
	}})
	require.NoError(t, st.WritePartitions(model.MergeAppend, map[model.Partition]*model.Frame{model.PartitionActual: merged}))

	_, ok, err = st.LoadView()
	require.NoError(t, err)
	assert.False(t, ok)

	second, err := svc.Reconciliation()
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, 1000.0, second[1].ActualAmount)
	assert.Equal(t, 100.0, second[1].AchievementRatio)
}

func TestTopCounterparties_Limit(t *testing.T) {
	t.Parallel()

	svc, st := newTestService(t)
	seed(t, st)

	top, err := svc.TopCounterparties(1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "다라", top[0].Counterparty)

	all, err := svc.TopCounterparties(0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUnified(t *testing.T) {
	t.Parallel()

	svc, st := newTestService(t)
	seed(t, st)

	f, err := svc.Unified([]string{"매출처", "품목"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.True(t, f.HasColumn("계획_판매금액"))
	assert.True(t, f.HasColumn("실적_장부금액"))
}
