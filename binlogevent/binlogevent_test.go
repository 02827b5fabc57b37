package binlogevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

func buildHeader(eventType byte, bodyLen int) []byte {
	buf := util.WriteUB4(nil, 1700000000)
	buf = util.WriteByte(buf, eventType)
	buf = util.WriteUB4(buf, 1001)
	buf = util.WriteUB4(buf, uint32(HeaderSize+bodyLen))
	buf = util.WriteUB4(buf, 4321)
	buf = util.WriteUB2(buf, 0)
	return buf
}

func TestDecodeHeader(t *testing.T) {
	buf := buildHeader(mysqlproto.EVENT_QUERY, 0)
	h, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(1700000000), h.Timestamp)
	assert.Equal(t, byte(mysqlproto.EVENT_QUERY), h.EventType)
	assert.Equal(t, uint32(1001), h.ServerID)
	assert.Equal(t, uint32(4321), h.NextPos)
}

func TestDecodeHeaderShortBuffer(t *testing.T) {
	_, err := DecodeHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeRotate(t *testing.T) {
	body := util.WriteUB8(nil, 4)
	body = util.WriteBytes(body, []byte("mysql-bin.000002"))

	r := DecodeRotate(body)
	assert.Equal(t, uint64(4), r.NextPosition)
	assert.Equal(t, "mysql-bin.000002", r.NextFile)
}

func TestDecodeQuery(t *testing.T) {
	schema := []byte("testdb")
	sql := []byte("CREATE TABLE t (id INT)")

	body := util.WriteUB4(nil, 99)
	body = util.WriteUB4(body, 0)
	body = util.WriteByte(body, byte(len(schema)))
	body = util.WriteUB2(body, 0)
	body = util.WriteUB2(body, 0) // status-var block length, empty
	body = util.WriteBytes(body, schema)
	body = util.WriteByte(body, 0)
	body = util.WriteBytes(body, sql)

	q := DecodeQuery(body)
	assert.Equal(t, "testdb", q.Schema)
	assert.Equal(t, "CREATE TABLE t (id INT)", q.SQL)
	assert.Equal(t, uint32(99), q.SlaveProxyID)
}

func TestDecodeFormatDescriptionChecksum(t *testing.T) {
	body := util.WriteUB2(nil, 4)
	body = util.WriteBytes(body, append([]byte("5.7.30-log"), make([]byte, 40)...))
	body = util.WriteUB4(body, 1700000000)
	body = util.WriteByte(body, 19) // header length
	body = util.WriteByte(body, ChecksumCRC32)
	body = util.WriteUB4(body, 0) // crc32 placeholder

	fd := DecodeFormatDescription(body)
	assert.Equal(t, byte(ChecksumCRC32), fd.ChecksumAlgorithm)
	assert.Contains(t, fd.ServerVersion, "5.7.30")
}

func buildTableMap(t *testing.T) TableMap {
	t.Helper()
	body := util.WriteUB6(nil, 77)
	body = util.WriteUB2(body, 0) // reserved

	schema := []byte("testdb")
	body = util.WriteByte(body, byte(len(schema)))
	body = util.WriteBytes(body, schema)
	body = util.WriteByte(body, 0)

	table := []byte("orders")
	body = util.WriteByte(body, byte(len(table)))
	body = util.WriteBytes(body, table)
	body = util.WriteByte(body, 0)

	// 2 columns: LONG (no metadata), VARCHAR (2-byte length metadata)
	body = util.WriteLength(body, 2)
	body = util.WriteBytes(body, []byte{mysqlproto.COLUMN_TYPE_LONG, mysqlproto.COLUMN_TYPE_VARCHAR})

	metaBuf := util.WriteUB2(nil, 255) // VARCHAR(255) display width metadata
	body = util.WriteLength(body, uint64(len(metaBuf)))
	body = util.WriteBytes(body, metaBuf)

	body = util.WriteByte(body, 0x00) // nullable bitmap, 1 byte covers 2 cols, none nullable

	tm, err := DecodeTableMap(body)
	require.NoError(t, err)
	return tm
}

func TestDecodeTableMap(t *testing.T) {
	tm := buildTableMap(t)
	assert.Equal(t, uint64(77), tm.TableID)
	assert.Equal(t, "testdb", tm.Schema)
	assert.Equal(t, "orders", tm.Table)
	require.Len(t, tm.ColumnMeta, 2)
	assert.Equal(t, uint16(0), tm.ColumnMeta[0])
	assert.Equal(t, uint16(255), tm.ColumnMeta[1])
}

func TestDecodeRowsWriteEvent(t *testing.T) {
	tm := buildTableMap(t)

	body := util.WriteUB6(nil, tm.TableID)
	body = util.WriteUB2(body, 0) // flags
	body = util.WriteUB2(body, 2) // extra-info length (2 = just itself)
	body = util.WriteLength(body, 2)
	body = util.WriteByte(body, 0x03) // both columns present

	// row image: null bitmap (1 byte, none null), then col values
	body = util.WriteByte(body, 0x00)
	body = util.WriteUB4(body, 42)           // LONG value
	body = util.WriteLength(body, 5)         // VARCHAR length prefix (1 byte since < 256 and meta < 256... actually width decided by cellvalue)
	body = util.WriteBytes(body, []byte("hello"))

	rows, err := DecodeRows(body, mysqlproto.EVENT_WRITE_ROWS, tm)
	require.NoError(t, err)
	require.Len(t, rows.After, 1)
	assert.Equal(t, int64(42), rows.After[0].Values[0].Int)
	assert.Equal(t, "hello", rows.After[0].Values[1].Str)
}

func TestDecodeGtid(t *testing.T) {
	body := util.WriteByte(nil, 1) // commit flag
	srcID := make([]byte, 16)
	for i := range srcID {
		srcID[i] = byte(i)
	}
	body = util.WriteBytes(body, srcID)
	body = util.WriteUB8(body, 123)

	g, err := DecodeGtid(body)
	require.NoError(t, err)
	assert.True(t, g.Commit)
	assert.Equal(t, int64(123), g.TransactionID)
}

func TestDecodeXid(t *testing.T) {
	body := util.WriteUB8(nil, 999)
	x := DecodeXid(body)
	assert.Equal(t, uint64(999), x.TransactionID)
}

func TestEncodeQuery(t *testing.T) {
	buf := EncodeQuery("SELECT 1")
	assert.Equal(t, byte(mysqlproto.COM_QUERY), buf[0])
	assert.Equal(t, "SELECT 1", string(buf[1:]))
}
