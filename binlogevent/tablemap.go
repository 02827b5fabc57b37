package binlogevent

import (
	"github.com/zhukovaskychina/mysql-binlog-client/mysqlproto"
	"github.com/zhukovaskychina/mysql-binlog-client/util"
)

// TableMap is the TABLE_MAP_EVENT body: the schema snapshot a row event
// needs to decode its cell values. The engine caches these by TableID for
// the lifetime of the session, since row events reference a table only by
// ID, never by name.
type TableMap struct {
	TableID        uint64
	Schema         string
	Table          string
	ColumnTypes    []byte
	ColumnMeta     []uint16
	NullableColumn []bool
}

// DecodeTableMap decodes a TABLE_MAP_EVENT body, buf starting right after
// the common header. Unlike the teacher's metadata reader, every
// metadata-bearing column type is decoded explicitly — a switch with no
// fallthrough silently drops the metadata for every type but the last in
// each grouped case, which would make cellvalue unable to size variable-
// width columns.
func DecodeTableMap(buf []byte) (TableMap, error) {
	var tm TableMap
	var c int

	c, tm.TableID = util.ReadUB6(buf, c)
	c, _ = util.ReadBytes(buf, c, 2) // reserved flags

	var schemaLen byte
	c, schemaLen = util.ReadByte(buf, c)
	var schema []byte
	c, schema = util.ReadBytes(buf, c, int(schemaLen))
	tm.Schema = string(schema)
	c, _ = util.ReadByte(buf, c) // NUL terminator

	var tableLen byte
	c, tableLen = util.ReadByte(buf, c)
	var table []byte
	c, table = util.ReadBytes(buf, c, int(tableLen))
	tm.Table = string(table)
	c, _ = util.ReadByte(buf, c) // NUL terminator

	var columnCount uint64
	var isNull bool
	var err error
	c, columnCount, isNull, err = util.ReadLength(buf, c)
	if err != nil {
		return TableMap{}, err
	}
	if isNull {
		columnCount = 0
	}

	c, tm.ColumnTypes = util.ReadBytes(buf, c, int(columnCount))

	var metaLen uint64
	c, metaLen, isNull, err = util.ReadLength(buf, c)
	if err != nil {
		return TableMap{}, err
	}
	if isNull {
		metaLen = 0
	}
	metaStart := c
	c, err = decodeColumnMeta(&tm, buf, c, metaStart, int(metaLen))
	if err != nil {
		return TableMap{}, err
	}

	// Same raw little-endian-per-byte bit order the row present/null bitmaps
	// use (rows.go) — bigEndian=true skips the reversal ReadBitSet would
	// otherwise apply, keeping bit i at buf byte i>>3, mask 1<<(i%8).
	_, bits := util.ReadBitSet(buf, c, int(columnCount), true)
	tm.NullableColumn = make([]bool, columnCount)
	for _, pos := range bits {
		tm.NullableColumn[pos] = true
	}
	return tm, nil
}

// decodeColumnMeta reads the per-column metadata block, sized per column
// type as documented at
// https://dev.mysql.com/doc/internals/en/table-map-event.html.
func decodeColumnMeta(tm *TableMap, buf []byte, cursor, metaStart, metaLen int) (int, error) {
	tm.ColumnMeta = make([]uint16, len(tm.ColumnTypes))
	for i, colType := range tm.ColumnTypes {
		switch colType {
		case mysqlproto.COLUMN_TYPE_FLOAT,
			mysqlproto.COLUMN_TYPE_DOUBLE,
			mysqlproto.COLUMN_TYPE_BLOB,
			mysqlproto.COLUMN_TYPE_TINY_BLOB,
			mysqlproto.COLUMN_TYPE_MEDIUM_BLOB,
			mysqlproto.COLUMN_TYPE_LONG_BLOB,
			mysqlproto.COLUMN_TYPE_JSON,
			mysqlproto.COLUMN_TYPE_GEOMETRY:
			var b byte
			cursor, b = util.ReadByte(buf, cursor)
			tm.ColumnMeta[i] = uint16(b)

		case mysqlproto.COLUMN_TYPE_BIT,
			mysqlproto.COLUMN_TYPE_VARCHAR,
			mysqlproto.COLUMN_TYPE_VAR_STRING:
			var u uint16
			cursor, u = util.ReadUB2(buf, cursor)
			tm.ColumnMeta[i] = u

		case mysqlproto.COLUMN_TYPE_NEWDECIMAL:
			// precision (1 byte) then scale (1 byte); cellvalue expects
			// precision in the high byte and scale in the low byte.
			var precision, scale byte
			cursor, precision = util.ReadByte(buf, cursor)
			cursor, scale = util.ReadByte(buf, cursor)
			tm.ColumnMeta[i] = uint16(precision)<<8 | uint16(scale)

		case mysqlproto.COLUMN_TYPE_SET,
			mysqlproto.COLUMN_TYPE_ENUM,
			mysqlproto.COLUMN_TYPE_STRING:
			// real_type (1 byte) and metadata (1 byte), stored big-endian
			// as a single 16-bit value — see readMetaData in the reference
			// server implementation this package replaces.
			var hi, lo byte
			cursor, hi = util.ReadByte(buf, cursor)
			cursor, lo = util.ReadByte(buf, cursor)
			tm.ColumnMeta[i] = uint16(hi)<<8 | uint16(lo)

		case mysqlproto.COLUMN_TYPE_TIME_V2,
			mysqlproto.COLUMN_TYPE_DATETIME_V2,
			mysqlproto.COLUMN_TYPE_TIMESTAMP_V2:
			var b byte
			cursor, b = util.ReadByte(buf, cursor)
			tm.ColumnMeta[i] = uint16(b)

		default:
			tm.ColumnMeta[i] = 0
		}
	}
	_ = metaStart
	_ = metaLen
	return cursor, nil
}
