package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/parser"
)

func actualBatch(batchID string) *model.Frame {
	f := model.NewFrame([]string{"매출번호", "품목", "수량", "장부금액"})
	f.Append(batchID, model.String("S1"), model.String("A1"), model.Number(8), model.Number(750))
	f.Append(batchID, model.String("S2"), model.String("B2"), model.Number(3), model.Number(90))
	return f
}

func TestMerge_IntoEmptyPartition(t *testing.T) {
	t.Parallel()

	res := Merge(nil, actualBatch("b1"), Options{})

	require.Equal(t, 2, res.Frame.Len())
	assert.Equal(t, 0, res.Existing)
	assert.Equal(t, 2, res.Incoming)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 0, res.Duplicates)
}

func TestMerge_SameBatchTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	first := Merge(nil, actualBatch("b1"), Options{})
	second := Merge(first.Frame, actualBatch("b2"), Options{})

	assert.Equal(t, first.Frame.Columns, second.Frame.Columns)
	assert.Equal(t, first.Frame.Records(), second.Frame.Records())
	assert.Equal(t, 2, second.Duplicates)
	assert.Equal(t, 0, second.Added)
	// 保留先出现的行，批次号不变
	assert.Equal(t, "b1", second.Frame.Rows[0].BatchID)
}

func TestMerge_ColumnUnionFillsNulls(t *testing.T) {
	t.Parallel()

	existing := Merge(nil, actualBatch("b1"), Options{}).Frame

	incoming := model.NewFrame([]string{"품목", "수량", "비고"})
	incoming.Append("b2", model.String("C3"), model.Number(1), model.String("new"))

	res := Merge(existing, incoming, Options{})

	assert.Equal(t, []string{"매출번호", "품목", "수량", "장부금액", "비고"}, res.Frame.Columns)
	require.Equal(t, 3, res.Frame.Len())
	assert.True(t, res.Frame.Value(0, "비고").IsNull())
	assert.True(t, res.Frame.Value(2, "매출번호").IsNull())
	assert.Equal(t, "new", res.Frame.Value(2, "비고").Text())
	assert.Equal(t, 1, res.Added)
}

func TestMerge_NewColumnKeepsExistingRowsUnique(t *testing.T) {
	t.Parallel()

	existing := Merge(nil, actualBatch("b1"), Options{}).Frame

	// 同样的行加上一个全空的新列，不应被视为新行
	incoming := actualBatch("b2")
	incoming.AddColumn("비고", model.Null())

	res := Merge(existing, incoming, Options{})
	assert.Equal(t, 2, res.Frame.Len())
	assert.Equal(t, 2, res.Duplicates)
}

func TestResolveCollisions_FillForward(t *testing.T) {
	t.Parallel()

	cols := parser.CleanColumnNames([]string{"품목 코드", "품목_코드", "수량"})
	require.Equal(t, []string{"품목_코드", "품목_코드", "수량"}, cols)

	f := model.NewFrame(cols)
	f.Append("", model.String("A1"), model.Null(), model.Number(1))
	f.Append("", model.String(" "), model.String("B2"), model.Number(2))
	f.Append("", model.String(""), model.Null(), model.Number(3))

	out := ResolveCollisions(f)

	assert.Equal(t, []string{"품목_코드", "수량"}, out.Columns)
	assert.Equal(t, "A1", out.Value(0, "품목_코드").Text())
	assert.Equal(t, "B2", out.Value(1, "품목_코드").Text())
	assert.Equal(t, model.KindString, out.Value(2, "품목_코드").Kind())
	assert.Equal(t, "3", out.Value(2, "수량").Text())
}

func TestResolveCollisions_NoDuplicatesReturnsInput(t *testing.T) {
	t.Parallel()

	f := actualBatch("b")
	assert.Same(t, f, ResolveCollisions(f))
}

func TestDropDuplicates_KeepsFirst(t *testing.T) {
	t.Parallel()

	f := model.NewFrame([]string{"품목", "수량"})
	f.Append("b1", model.String("A1"), model.Number(1))
	f.Append("b2", model.String("B2"), model.Number(2))
	f.Append("b3", model.String("A1"), model.Number(1))

	out, removed := DropDuplicates(f)

	assert.Equal(t, 1, removed)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "b1", out.Rows[0].BatchID)
	assert.Equal(t, "B2", out.Value(1, "품목").Text())
}

func TestFingerprint_BlankInsensitive(t *testing.T) {
	t.Parallel()

	a := Fingerprint([]string{"품목", "수량"}, []model.Value{model.String("A1"), model.Number(1)})
	b := Fingerprint([]string{"품목", "비고", "수량"}, []model.Value{model.String("A1"), model.Null(), model.Number(1)})
	c := Fingerprint([]string{"수량", "품목"}, []model.Value{model.Number(1), model.String("A1")})
	d := Fingerprint([]string{"품목", "수량"}, []model.Value{model.String("A1"), model.Number(2)})

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestCollapseByKey_LastWins(t *testing.T) {
	t.Parallel()

	f := model.NewFrame([]string{"매출번호", "수량"})
	f.Append("b1", model.String("S1"), model.Number(1))
	f.Append("b1", model.String("S2"), model.Number(5))
	f.Append("b2", model.String("S1"), model.Number(9))

	out, removed := CollapseByKey(f, []string{"매출번호"})

	assert.Equal(t, 1, removed)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "S2", out.Value(0, "매출번호").Text())
	assert.Equal(t, "9", out.Value(1, "수량").Text())
	assert.Equal(t, "b2", out.Rows[1].BatchID)
}

func TestCollapseByKey_BlankKeysExempt(t *testing.T) {
	t.Parallel()

	f := model.NewFrame([]string{"매출번호", "수량"})
	f.Append("", model.Null(), model.Number(1))
	f.Append("", model.String(" "), model.Number(2))
	f.Append("", model.Null(), model.Number(3))

	out, removed := CollapseByKey(f, []string{"매출번호"})
	assert.Equal(t, 0, removed)
	assert.Equal(t, 3, out.Len())
}

func TestCollapseByKey_MissingKeyColumn(t *testing.T) {
	t.Parallel()

	f := actualBatch("b")
	out, removed := CollapseByKey(f, []string{"없는열"})
	assert.Same(t, f, out)
	assert.Equal(t, 0, removed)
}

func TestMerge_NaturalKeySupersedes(t *testing.T) {
	t.Parallel()

	existing := Merge(nil, actualBatch("b1"), Options{}).Frame

	incoming := model.NewFrame([]string{"매출번호", "품목", "수량", "장부금액"})
	incoming.Append("b2", model.String("S1"), model.String("A1"), model.Number(10), model.Number(900))

	res := Merge(existing, incoming, Options{NaturalKey: []string{"매출번호"}})

	assert.Equal(t, 1, res.Superseded)
	require.Equal(t, 2, res.Frame.Len())
	assert.Equal(t, "S2", res.Frame.Value(0, "매출번호").Text())
	assert.Equal(t, "900", res.Frame.Value(1, "장부금액").Text())
	assert.Equal(t, 1, res.Added)
}

func TestUnionColumns(t *testing.T) {
	t.Parallel()

	got := UnionColumns([]string{"a", "b"}, []string{"c", "b", "a", "d"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestUnionColumns_CaseInsensitive(t *testing.T) {
	t.Parallel()

	got := UnionColumns([]string{"매출번호", "SKU"}, []string{"sku", "Sku", "수량"})
	assert.Equal(t, []string{"매출번호", "SKU", "수량"}, got)
}

func TestMerge_CaseVariantColumnsFold(t *testing.T) {
	t.Parallel()

	existing := model.NewFrame([]string{"매출번호", "SKU"})
	existing.Append("b1", model.String("T1"), model.String("A1"))

	incoming := model.NewFrame([]string{"매출번호", "sku"})
	incoming.Append("b2", model.String("T2"), model.String("A2"))

	res := Merge(Merge(nil, existing, Options{}).Frame, incoming, Options{})

	assert.Equal(t, []string{"매출번호", "SKU"}, res.Frame.Columns)
	require.Equal(t, 2, res.Frame.Len())
	assert.Equal(t, "A2", res.Frame.Value(1, "SKU").Text())
}

func TestResolveCollisions_CaseVariantsInOneBatch(t *testing.T) {
	t.Parallel()

	f := model.NewFrame([]string{"Code", "CODE", "수량"})
	f.Append("", model.Null(), model.String("X9"), model.Number(1))

	out := ResolveCollisions(f)

	assert.Equal(t, []string{"Code", "수량"}, out.Columns)
	assert.Equal(t, "X9", out.Value(0, "Code").Text())
}

func TestDropDuplicates_KeyIsExactRowContent(t *testing.T) {
	t.Parallel()

	// 单元格文本里出现分隔符时，不能与另一种列组合拼出同一个键
	f := model.NewFrame([]string{"a", "b"})
	f.Append("b1", model.String("1\x1eb\x1f2"), model.Null())
	f.Append("b2", model.String("1"), model.String("2"))

	out, removed := DropDuplicates(f)

	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, out.Len())
	assert.NotEqual(t, RowKey(f.Columns, f.Rows[0].Cells), RowKey(f.Columns, f.Rows[1].Cells))
}
