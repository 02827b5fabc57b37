package replica

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/mysql-binlog-client/cellvalue"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestChangeRecordJSONFieldNames(t *testing.T) {
	rec := ChangeRecord{
		Op:     OpInsert,
		Ts:     1234,
		DB:     "orders",
		Table:  "items",
		Before: nil,
		After:  map[string]any{"col_0": int64(1)},
		Gtid:   "3e11fa47-71ca-11e1-9e33-c80aa9429562:1",
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "insert", decoded["op"])
	assert.Equal(t, float64(1234), decoded["ts"])
	assert.Equal(t, "orders", decoded["db"])
	assert.Equal(t, "items", decoded["table"])
	_, hasBefore := decoded["before"]
	assert.False(t, hasBefore, "before should be omitted when nil")
}

func TestIsDDL(t *testing.T) {
	assert.True(t, isDDL("CREATE TABLE T (ID INT)"))
	assert.True(t, isDDL("ALTER TABLE T ADD COLUMN X INT"))
	assert.False(t, isDDL("INSERT INTO T VALUES (1)"))
	assert.False(t, isDDL("SELECT 1"))
}

func TestRowsOp(t *testing.T) {
	assert.Equal(t, OpInsert, rowsOp(30))
	assert.Equal(t, OpUpdate, rowsOp(31))
	assert.Equal(t, OpDelete, rowsOp(32))
}

func TestCellToAny(t *testing.T) {
	assert.Nil(t, cellToAny(cellvalue.Value{Kind: cellvalue.KindNull}))
	assert.Equal(t, int64(5), cellToAny(cellvalue.Value{Kind: cellvalue.KindInt, Int: 5}))
	assert.Equal(t, "x", cellToAny(cellvalue.Value{Kind: cellvalue.KindString, Str: "x"}))
}

func TestPeekTableID(t *testing.T) {
	body := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF}
	id, err := peekTableID(body)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestPeekTableIDShortBuffer(t *testing.T) {
	_, err := peekTableID([]byte{1, 2})
	assert.Error(t, err)
}

func TestErrorTypesWrapCause(t *testing.T) {
	cause := assert.AnError
	te := &TransportError{Cause: cause}
	assert.ErrorIs(t, te, cause)
	assert.Contains(t, te.Error(), "transport")
}
