package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecords_SortsColumnsWhenUnspecified(t *testing.T) {
	t.Parallel()

	f := FromRecords(nil, []Record{
		{"b": Number(1)},
		{"a": String("x")},
	})
	assert.Equal(t, []string{"a", "b"}, f.Columns)
	require.Equal(t, 2, f.Len())
	assert.True(t, f.Value(0, "a").IsNull())
	assert.Equal(t, "x", f.Value(1, "a").Text())
}

func TestFrame_AddColumnBackfills(t *testing.T) {
	t.Parallel()

	f := NewFrame([]string{"a"})
	f.Append("b1", String("x"))
	f.Append("b1", String("y"))

	idx := f.AddColumn("qty", Number(0))
	assert.Equal(t, 1, idx)
	assert.Equal(t, idx, f.AddColumn("qty", Number(9)))
	for i := range f.Rows {
		assert.Equal(t, "0", f.Value(i, "qty").Text())
	}
	assert.True(t, f.Value(0, "missing").IsNull())
}

func TestFrame_RecordPrefersFirstDuplicateColumn(t *testing.T) {
	t.Parallel()

	f := NewFrame([]string{"k", "k"})
	f.Append("", String("first"), String("second"))
	assert.Equal(t, "first", f.Record(0)["k"].Text())
}

func TestFrame_CloneIsDeep(t *testing.T) {
	t.Parallel()

	f := NewFrame([]string{"a"})
	f.Append("b1", String("x"))
	c := f.Clone()
	c.Rows[0].Cells[0] = String("changed")
	c.Columns[0] = "z"

	assert.Equal(t, "x", f.Value(0, "a").Text())
	assert.Equal(t, "a", f.Columns[0])
	assert.Equal(t, "b1", c.Rows[0].BatchID)

	var nilFrame *Frame
	assert.Nil(t, nilFrame.Clone())
	assert.True(t, nilFrame.Empty())
	assert.Equal(t, 0, nilFrame.Len())
}

func TestNewBatch_StampsRows(t *testing.T) {
	t.Parallel()

	f := NewFrame([]string{"a"})
	f.Append("", String("x"))
	b := NewBatch("SLSSPN.xlsx", HintPlan, f)

	require.NotEmpty(t, b.ID)
	assert.Equal(t, b.ID, f.Rows[0].BatchID)
}

func TestParsePartition(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"plan", "plan_data", "판매계획"} {
		p, err := ParsePartition(in)
		require.NoError(t, err)
		assert.Equal(t, PartitionPlan, p)
	}
	for _, in := range []string{"actual", "result", "ACTUAL_DATA"} {
		p, err := ParsePartition(in)
		require.NoError(t, err)
		assert.Equal(t, PartitionActual, p)
	}
	_, err := ParsePartition("other")
	assert.ErrorIs(t, err, ErrUnknownPartition)
}

func TestRules_NaturalKeyAndValidate(t *testing.T) {
	t.Parallel()

	r := DefaultRules()
	require.NoError(t, r.Validate())
	assert.Nil(t, r.NaturalKey(PartitionPlan))

	r.NaturalKeys = map[string][]string{"actual": {"매출번호"}}
	assert.Equal(t, []string{"매출번호"}, r.NaturalKey(PartitionActual))
	assert.Nil(t, r.NaturalKey(PartitionPlan))

	r.NaturalKeys["bogus"] = []string{"x"}
	assert.Error(t, r.Validate())

	r = DefaultRules()
	r.MergePolicy = "upsert"
	assert.Error(t, r.Validate())
}
