package cellvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

func TestDecodeSignedIntegers(t *testing.T) {
	_, v, err := Decode([]byte{0xFE}, 0, mysqlproto.COLUMN_TYPE_TINY, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v.Int)

	buf := util.WriteUB4(nil, 0xFFFFFFFE) // -2 as LONG
	_, v, err = Decode(buf, 0, mysqlproto.COLUMN_TYPE_LONG, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v.Int)
}

func TestDecodeInt24SignExtends(t *testing.T) {
	buf := util.WriteUB3(nil, 0xFFFFFE) // -2 as INT24
	_, v, err := Decode(buf, 0, mysqlproto.COLUMN_TYPE_INT24, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v.Int)
}

func TestDecodeVarchar(t *testing.T) {
	buf := util.WriteByte(nil, 5)
	buf = util.WriteBytes(buf, []byte("hello"))
	_, v, err := Decode(buf, 0, mysqlproto.COLUMN_TYPE_VARCHAR, 255)
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hello", v.Str)
}

func TestDecodeNewDecimal(t *testing.T) {
	raw := []byte{0x80, 0x7B, 0x2D} // 123.45 as DECIMAL(5,2)
	meta := uint16(5)<<8 | uint16(2)
	_, v, err := Decode(raw, 0, mysqlproto.COLUMN_TYPE_NEWDECIMAL, meta)
	require.NoError(t, err)
	assert.Equal(t, KindDecimal, v.Kind)
	assert.Equal(t, "123.45", v.Str)
}

func TestDecodeNewDecimalNegative(t *testing.T) {
	positive := []byte{0x80, 0x7B, 0x2D}
	negative := make([]byte, len(positive))
	for i, b := range positive {
		negative[i] = ^b
	}
	meta := uint16(5)<<8 | uint16(2)
	_, v, err := Decode(negative, 0, mysqlproto.COLUMN_TYPE_NEWDECIMAL, meta)
	require.NoError(t, err)
	assert.Equal(t, "-123.45", v.Str)
}

func TestDecodeDatetimeV2(t *testing.T) {
	// 2024-03-15 10:20:30, meta=0 (no fractional seconds)
	ymd := int64(2024)*13 + 3
	ymd = ymd<<5 | 15
	hms := int64(10)<<12 | int64(20)<<6 | 30
	packed := (ymd<<17 | hms) + 0x8000000000

	buf := make([]byte, 5)
	for i := 4; i >= 0; i-- {
		buf[i] = byte(packed & 0xFF)
		packed >>= 8
	}

	_, v, err := Decode(buf, 0, mysqlproto.COLUMN_TYPE_DATETIME_V2, 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15 10:20:30", v.Str)
}

func TestDecodeUnknownTypeFallsBackToBytes(t *testing.T) {
	_, v, err := Decode([]byte{1, 2, 3, 4}, 0, 0xEE, 0)
	require.NoError(t, err)
	assert.Equal(t, KindBytes, v.Kind)
}
